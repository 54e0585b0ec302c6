// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Decision is the outcome of the classification gate for one text unit.
type Decision string

const (
	DecisionExtract Decision = "extract"
	DecisionSkip    Decision = "skip"
)

// TemporalRecord is one dated fact returned by the temporal extraction pass.
// An event with several sittings arrives as several records sharing EventName.
type TemporalRecord struct {
	// EventName is the assessment name as written in the source text.
	EventName string `json:"event_name" yaml:"event_name"`

	// DateRaw is the date as extracted, in any of the supported layouts.
	DateRaw string `json:"date_raw" yaml:"date_raw"`

	// TimeRaw is the time as written ("4-5:30 PM", "FN", "TBA").
	TimeRaw string `json:"time_raw" yaml:"time_raw"`

	// SubjectName is the course the event belongs to, when the text names one.
	SubjectName string `json:"subject_name,omitempty" yaml:"subject_name,omitempty"`
}

// MetadataRecord is one format/weightage fact returned by the metadata
// extraction pass. Its cardinality and naming need not match the temporal set.
type MetadataRecord struct {
	EventName   string `json:"event_name" yaml:"event_name"`
	Format      string `json:"format" yaml:"format"`
	Weightage   string `json:"weightage" yaml:"weightage"`
	SubjectName string `json:"subject_name,omitempty" yaml:"subject_name,omitempty"`
}

// ScheduleEntry is a reconciled assessment event ready for rendering.
type ScheduleEntry struct {
	// Subject is the display label: "{Course} + {Event}" or the event alone,
	// prefixed with a warning marker when the time could not be resolved.
	Subject string `json:"subject" yaml:"subject"`

	// EventName is always a canonical event name.
	EventName string `json:"event_name" yaml:"event_name"`

	// Start and End are ISO-8601 local timestamps (YYYY-MM-DDTHH:MM:SS).
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`

	Format    string `json:"format" yaml:"format"`
	Weightage string `json:"weightage" yaml:"weightage"`

	// RawTimeString is the temporal record's time_raw, kept verbatim for audit.
	RawTimeString string `json:"raw_time_string" yaml:"raw_time_string"`

	// TimeResolved is false when Start/End are the all-day placeholder window.
	TimeResolved bool `json:"time_resolved" yaml:"time_resolved"`
}

// PageOutcome summarizes what the pipeline did with one text unit.
type PageOutcome struct {
	Index    int    `json:"index" yaml:"index"`
	State    string `json:"state" yaml:"state"`
	Temporal int    `json:"temporal" yaml:"temporal"`
	Metadata int    `json:"metadata" yaml:"metadata"`
	Entries  int    `json:"entries" yaml:"entries"`
}

// Schedule is the full output for one source document.
type Schedule struct {
	DocumentID  string          `json:"document_id" yaml:"document_id"`
	SourcePath  string          `json:"source_path,omitempty" yaml:"source_path,omitempty"`
	CourseTitle string          `json:"course_title,omitempty" yaml:"course_title,omitempty"`
	GeneratedAt time.Time       `json:"generated_at" yaml:"generated_at"`
	Entries     []ScheduleEntry `json:"entries" yaml:"entries"`
	Pages       []PageOutcome   `json:"pages,omitempty" yaml:"pages,omitempty"`
}

// Unresolved returns the entries whose time could not be determined.
func (s Schedule) Unresolved() []ScheduleEntry {
	var out []ScheduleEntry
	for _, e := range s.Entries {
		if !e.TimeResolved {
			out = append(out, e)
		}
	}
	return out
}
