// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemas_AcceptValidOutput(t *testing.T) {
	tests := []struct {
		schema Schema
		raw    string
	}{
		{DecisionSchema, `{"decision": "skip"}`},
		{TemporalSchema, `{"items": []}`},
		{TemporalSchema, `{"items": [{"event_name": "Compre", "date_raw": "16/12/2025", "time_raw": "FN", "subject_name": null}]}`},
		{MetadataSchema, `{"items": [{"event_name": "Midsem", "format": "", "weightage": "25%", "subject_name": "OS"}]}`},
		{TitleSchema, `{"title": "Digital Design"}`},
	}
	for _, tt := range tests {
		t.Run(tt.schema.Name, func(t *testing.T) {
			assert.NoError(t, tt.schema.Validate([]byte(tt.raw)))
		})
	}
}

func TestSchemas_RejectInvalidOutput(t *testing.T) {
	tests := []struct {
		name   string
		schema Schema
		raw    string
	}{
		{"decision missing", DecisionSchema, `{}`},
		{"items not array", TemporalSchema, `{"items": {}}`},
		{"time_raw missing", TemporalSchema, `{"items": [{"event_name": "Quiz", "date_raw": "1/1/2025"}]}`},
		{"weightage number", MetadataSchema, `{"items": [{"event_name": "Quiz", "format": "CB", "weightage": 25}]}`},
		{"not json", TitleSchema, `Database Systems`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.Validate([]byte(tt.raw))
			assert.ErrorIs(t, err, ErrExtraction)
		})
	}
}

func TestSchema_CompiledOnceAndShared(t *testing.T) {
	s := NewSchema("counter", "", map[string]any{"type": "object", "required": []any{"x"}})

	first, err := s.validator()
	require.NoError(t, err)
	copied := s
	second, err := copied.validator()
	require.NoError(t, err)
	assert.Same(t, first, second)

	assert.NoError(t, copied.Validate([]byte(`{"x": 1}`)))
	assert.ErrorIs(t, s.Validate([]byte(`{}`)), ErrExtraction)
}

func TestSchema_LiteralStillValidates(t *testing.T) {
	s := Schema{Name: "literal", JSON: map[string]any{"type": "string"}}
	assert.NoError(t, s.Validate([]byte(`"ok"`)))
	assert.ErrorIs(t, s.Validate([]byte(`1`)), ErrExtraction)
}

func TestSchema_CompileErrorCached(t *testing.T) {
	s := NewSchema("broken", "", map[string]any{"$ref": "#/$defs/missing"})
	_, err := s.validator()
	require.ErrorIs(t, err, ErrExtraction)
	assert.ErrorIs(t, s.Validate([]byte(`{}`)), ErrExtraction)
}

func TestRenderSystemPrompt(t *testing.T) {
	prompt, err := renderSystemPrompt(TemporalSchema)
	assert.NoError(t, err)
	assert.Contains(t, prompt, "one item per sitting")
	assert.Contains(t, prompt, `"time_raw"`)
	assert.Contains(t, prompt, "JSON Schema:")
}
