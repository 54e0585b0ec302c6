// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Schema is a target record schema for one extraction stage: the
// instructions the service receives and the JSON Schema its output must
// satisfy. Schemas built with NewSchema compile once and share the result
// across copies; a literal Schema compiles on every Validate.
type Schema struct {
	Name         string
	Instructions string
	JSON         map[string]any

	compiled *compiledSchema
}

type compiledSchema struct {
	once   sync.Once
	schema *jsonschema.Schema
	err    error
}

// NewSchema returns a Schema whose JSON Schema is compiled on first use.
func NewSchema(name, instructions string, js map[string]any) Schema {
	return Schema{Name: name, Instructions: instructions, JSON: js, compiled: &compiledSchema{}}
}

// Validate checks raw against the schema.
func (s Schema) Validate(raw []byte) error {
	compiled, err := s.validator()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("%w: %s output is not JSON: %w", ErrExtraction, s.Name, err)
	}
	if err := compiled.Validate(v); err != nil {
		return fmt.Errorf("%w: %s output does not match schema: %w", ErrExtraction, s.Name, err)
	}
	return nil
}

func (s Schema) validator() (*jsonschema.Schema, error) {
	if s.compiled == nil {
		return s.compile()
	}
	s.compiled.once.Do(func() {
		s.compiled.schema, s.compiled.err = s.compile()
	})
	return s.compiled.schema, s.compiled.err
}

func (s Schema) compile() (*jsonschema.Schema, error) {
	b, err := json.Marshal(s.JSON)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal %s schema: %w", ErrExtraction, s.Name, err)
	}
	compiler := jsonschema.NewCompiler()
	url := s.Name + ".json"
	if err := compiler.AddResource(url, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("%w: add %s schema: %w", ErrExtraction, s.Name, err)
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("%w: compile %s schema: %w", ErrExtraction, s.Name, err)
	}
	return compiled, nil
}

// String renders the JSON Schema for embedding in a prompt.
func (s Schema) String() string {
	b, err := json.MarshalIndent(s.JSON, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}

var optionalString = map[string]any{"type": []any{"string", "null"}}

func object(required []string, props map[string]any) map[string]any {
	return map[string]any{
		"type":       "object",
		"required":   required,
		"properties": props,
	}
}

func itemList(item map[string]any) map[string]any {
	return object([]string{"items"}, map[string]any{
		"items": map[string]any{"type": "array", "items": item},
	})
}

// DecisionSchema is the gate's target schema.
var DecisionSchema = NewSchema(
	"decision",
	`You are a document classifier for university course handouts.
Decide whether the text describes assessments worth putting on a calendar.
Look for an evaluation scheme, an exam schedule, mid-semester or comprehensive exams, final exams, quizzes, assignments, or test dates.
If it does, answer "extract".
If it is only syllabus, learning outcomes, textbooks, or an introduction, answer "skip".`,
	object([]string{"decision"}, map[string]any{
		"decision": map[string]any{"type": "string"},
	}),
)

// TemporalSchema is the temporal extractor's target schema.
var TemporalSchema = NewSchema(
	"temporal",
	`Extract every dated assessment event from the text.
Rules:
1. subject_name is the course the event belongs to, taken from the course title or course information. Use null when the text does not say.
2. event_name is the assessment name exactly as written.
3. date_raw is the date in DD/MM/YYYY form, day before month. If the year is missing, use the academic year of the document.
4. If one event has several sittings (for example "Quizzes: 21-Sep and 12-Dec"), output one item per sitting, each with the same event_name.
5. time_raw is the time as written. If the text says FN or AN, output FN or AN. If it says "4-5:30 PM", output exactly "4-5:30 PM". If no time is given, output "TBA".`,
	itemList(object([]string{"event_name", "date_raw", "time_raw"}, map[string]any{
		"event_name":   map[string]any{"type": "string"},
		"date_raw":     map[string]any{"type": "string"},
		"time_raw":     map[string]any{"type": "string"},
		"subject_name": optionalString,
	})),
)

// MetadataSchema is the metadata extractor's target schema.
var MetadataSchema = NewSchema(
	"metadata",
	`Extract evaluation metadata for every assessment in the text.
Rules:
1. subject_name is the course the assessment belongs to, taken from the course title or course information. Use null when the text does not say.
2. event_name is the assessment name as written; it must match the names used for the exam dates.
3. format is "OB" for open book (Open, OB) and "CB" for closed book (Closed, CB). Use an empty string when it is not stated.
4. weightage is the weight as written, for example "25%" or "15 Marks". Use an empty string when it is not stated.
5. Ignore dates and times.`,
	itemList(object([]string{"event_name", "format", "weightage"}, map[string]any{
		"event_name":   map[string]any{"type": "string"},
		"format":       map[string]any{"type": "string"},
		"weightage":    map[string]any{"type": "string"},
		"subject_name": optionalString,
	})),
)

// TitleSchema is the title extractor's target schema.
var TitleSchema = NewSchema(
	"title",
	`Extract the course title from the first page of a course handout.
Return the title without the course code, for example "Database Systems" for "CS F212 Database Systems".`,
	object([]string{"title"}, map[string]any{
		"title": map[string]any{"type": "string"},
	}),
)
