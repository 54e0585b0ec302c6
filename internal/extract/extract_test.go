// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/exam-schedule/internal/metrics"
	"github.com/pdiddy/exam-schedule/pkg/types"
)

// --- mock backend ---

// mockBackend answers by schema name and counts calls.
type mockBackend struct {
	mu        sync.Mutex
	responses map[string]string // schema name → raw JSON
	err       error
	calls     map[string]int
}

func (m *mockBackend) Invoke(_ context.Context, _ string, schema Schema) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	m.calls[schema.Name]++
	if m.err != nil {
		return nil, m.err
	}
	raw, ok := m.responses[schema.Name]
	if !ok {
		return nil, fmt.Errorf("no response for %s", schema.Name)
	}
	return json.RawMessage(raw), nil
}

func (m *mockBackend) callCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

// failNTimesBackend fails the first N calls, then returns response.
type failNTimesBackend struct {
	failures  int
	callCount int
	response  string
}

func (f *failNTimesBackend) Invoke(_ context.Context, _ string, _ Schema) (json.RawMessage, error) {
	f.callCount++
	if f.callCount <= f.failures {
		return nil, fmt.Errorf("transient error (call %d)", f.callCount)
	}
	return json.RawMessage(f.response), nil
}

func TestMain(m *testing.M) {
	// Override backoff to avoid real sleeps in retry tests.
	backoffBase = time.Millisecond
	os.Exit(m.Run())
}

// --- Gate ---

func TestGate_Classify(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
		want     types.Decision
	}{
		{"extract", `{"decision": "extract"}`, nil, types.DecisionExtract},
		{"skip", `{"decision": "skip"}`, nil, types.DecisionSkip},
		{"upper case label", `{"decision": " EXTRACT "}`, nil, types.DecisionExtract},
		{"unknown label", `{"decision": "maybe"}`, nil, types.DecisionSkip},
		{"schema violation", `{"verdict": "extract"}`, nil, types.DecisionSkip},
		{"wrong type", `{"decision": true}`, nil, types.DecisionSkip},
		{"backend error", "", errors.New("connection refused"), types.DecisionSkip},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &mockBackend{responses: map[string]string{"decision": tt.response}, err: tt.err}
			g := NewGate(b, Options{MaxRetries: 1})
			assert.Equal(t, tt.want, g.Classify(context.Background(), "Evaluation Scheme ..."))
		})
	}
}

func TestGate_NilBackendSkips(t *testing.T) {
	g := NewGate(nil, Options{})
	assert.Equal(t, types.DecisionSkip, g.Classify(context.Background(), "text"))
}

func TestGate_CountsFailures(t *testing.T) {
	rec := metrics.New()
	g := NewGate(&mockBackend{err: errors.New("down")}, Options{MaxRetries: 1, Metrics: rec})
	g.Classify(context.Background(), "text")

	families, err := rec.Registry().Gather()
	require.NoError(t, err)
	var failures float64
	for _, f := range families {
		if f.GetName() == "exam_schedule_extraction_failures_total" {
			for _, m := range f.GetMetric() {
				failures += m.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, 1.0, failures)
}

// --- TemporalExtractor ---

func TestTemporalExtractor_Extract(t *testing.T) {
	b := &mockBackend{responses: map[string]string{
		"temporal": `{"items": [
			{"event_name": "Mid-Sem Exam", "date_raw": "11/10/2025", "time_raw": "4-5:30 PM", "subject_name": null},
			{"event_name": "", "date_raw": "12/10/2025", "time_raw": "TBA"},
			{"event_name": "Quiz", "date_raw": "21/09/2025", "time_raw": "TBA", "subject_name": "Digital Design"},
			{"event_name": "Quiz", "date_raw": "12/12/2025", "time_raw": "TBA", "subject_name": "Digital Design"}
		]}`,
	}}
	e := NewTemporalExtractor(b, Options{})

	got := e.Extract(context.Background(), "text")
	require.Len(t, got, 3)
	assert.Equal(t, types.TemporalRecord{EventName: "Mid-Sem Exam", DateRaw: "11/10/2025", TimeRaw: "4-5:30 PM"}, got[0])
	assert.Equal(t, "21/09/2025", got[1].DateRaw)
	assert.Equal(t, "12/12/2025", got[2].DateRaw)
	assert.Equal(t, "Digital Design", got[2].SubjectName)
}

func TestTemporalExtractor_FailureYieldsEmpty(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
	}{
		{"backend error", "", errors.New("timeout")},
		{"missing items", `{"events": []}`, nil},
		{"missing required field", `{"items": [{"event_name": "Quiz", "date_raw": "1/1/2025"}]}`, nil},
		{"not json", `items: []`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &mockBackend{responses: map[string]string{"temporal": tt.response}, err: tt.err}
			got := NewTemporalExtractor(b, Options{MaxRetries: 1}).Extract(context.Background(), "text")
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

// --- MetadataExtractor ---

func TestMetadataExtractor_Extract(t *testing.T) {
	b := &mockBackend{responses: map[string]string{
		"metadata": `{"items": [
			{"event_name": "Midsem", "format": "CB", "weightage": "30%", "subject_name": "Database Systems"},
			{"event_name": "Compre", "format": "OB", "weightage": "40%"}
		]}`,
	}}
	got := NewMetadataExtractor(b, Options{}).Extract(context.Background(), "text")
	require.Len(t, got, 2)
	assert.Equal(t, types.MetadataRecord{EventName: "Midsem", Format: "CB", Weightage: "30%", SubjectName: "Database Systems"}, got[0])
	assert.Equal(t, "OB", got[1].Format)
}

func TestMetadataExtractor_FailureYieldsEmpty(t *testing.T) {
	b := &mockBackend{err: errors.New("unreachable")}
	got := NewMetadataExtractor(b, Options{MaxRetries: 2}).Extract(context.Background(), "text")
	assert.Empty(t, got)
	assert.Equal(t, 3, b.callCount("metadata"))
}

// --- TitleExtractor ---

func TestTitleExtractor_Extract(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
		want     string
	}{
		{"title", `{"title": "Database Systems"}`, nil, "Database Systems"},
		{"blank title", `{"title": "  "}`, nil, UnknownCourse},
		{"failure", "", errors.New("down"), UnknownCourse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &mockBackend{responses: map[string]string{"title": tt.response}, err: tt.err}
			assert.Equal(t, tt.want, NewTitleExtractor(b, Options{MaxRetries: 1}).Extract(context.Background(), "CS F212 Database Systems"))
		})
	}
}

// --- callWithRetry ---

func TestCallWithRetry_SucceedsAfterFailures(t *testing.T) {
	b := &failNTimesBackend{failures: 2, response: `{"decision": "extract"}`}
	raw, err := callWithRetry(context.Background(), b, "text", DecisionSchema, 3)
	require.NoError(t, err)
	assert.JSONEq(t, `{"decision": "extract"}`, string(raw))
	assert.Equal(t, 3, b.callCount)
}

func TestCallWithRetry_ExhaustsRetries(t *testing.T) {
	b := &failNTimesBackend{failures: 10}
	_, err := callWithRetry(context.Background(), b, "text", DecisionSchema, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExtraction)
	assert.Contains(t, err.Error(), "after 2 retries")
	assert.Equal(t, 3, b.callCount)
}

func TestCallWithRetry_InvalidOutputRetried(t *testing.T) {
	calls := 0
	b := FuncBackend(func(_ context.Context, _ string, _ Schema) (json.RawMessage, error) {
		calls++
		if calls == 1 {
			return json.RawMessage(`{"title": 42}`), nil
		}
		return json.RawMessage(`{"title": "Operating Systems"}`), nil
	})
	raw, err := callWithRetry(context.Background(), b, "text", TitleSchema, 3)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title": "Operating Systems"}`, string(raw))
	assert.Equal(t, 2, calls)
}

func TestCallWithRetry_ContextCancelled(t *testing.T) {
	old := backoffBase
	backoffBase = time.Second
	defer func() { backoffBase = old }()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	b := &failNTimesBackend{failures: 10}
	_, err := callWithRetry(ctx, b, "text", DecisionSchema, 3)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrExtraction)
}
