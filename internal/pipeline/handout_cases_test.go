// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/exam-schedule/internal/extract"
	"github.com/pdiddy/exam-schedule/pkg/types"
)

// handoutCase is a handout snippet with the replies a well-behaved
// extraction service gives for it, and the entries the pipeline must build.
type handoutCase struct {
	name     string
	text     string
	title    string
	temporal string
	metadata string
	want     []types.ScheduleEntry
}

var handoutCases = []handoutCase{
	{
		name:     "midsem with explicit time",
		text:     "COURSE HANDOUT: DIGITAL DESIGN (CS F215)\nEvaluation Scheme:\n1. Mid-Sem Exam. 11/10/2025. 4-5:30 PM. Closed Book. 25%.",
		title:    "Digital Design",
		temporal: `[{"event_name": "Mid-Sem Exam", "date_raw": "11/10/2025", "time_raw": "4-5:30 PM"}]`,
		metadata: `[{"event_name": "Mid-Sem Exam", "format": "Closed Book", "weightage": "25%"}]`,
		want: []types.ScheduleEntry{{
			Subject: "Digital Design + MidSem Exam", EventName: "MidSem Exam",
			Start: "2025-10-11T16:00:00", End: "2025-10-11T17:30:00",
			Format: "Closed Book", Weightage: "25%", RawTimeString: "4-5:30 PM", TimeResolved: true,
		}},
	},
	{
		name:     "compre with FN session code",
		text:     "COURSE: OPERATING SYSTEMS\nEvaluation:\nComprehensive Exam. 16/12/2025. FN. Open Book. 35%.",
		title:    "Operating Systems",
		temporal: `[{"event_name": "Comprehensive Exam", "date_raw": "16/12/2025", "time_raw": "FN"}]`,
		metadata: `[{"event_name": "Comprehensive Exam", "format": "Open Book", "weightage": "35%"}]`,
		want: []types.ScheduleEntry{{
			Subject: "Operating Systems + Comprehensive Exam", EventName: "Comprehensive Exam",
			Start: "2025-12-16T10:00:00", End: "2025-12-16T13:00:00",
			Format: "Open Book", Weightage: "35%", RawTimeString: "FN", TimeResolved: true,
		}},
	},
	{
		name: "two courses on one page",
		text: "NOTICE BOARD - EXAM UPDATES\n1. Course: MICROPROCESSORS (CS F241)\n- Mid-Sem Exam. Date: 09/10/2025. Time: 9-10:30 AM. Weightage: 30%.\n" +
			"2. Course: DATABASE SYSTEMS (CS F212)\n- Mid-Sem Exam. Date: 11/10/2025. Time: 2-3:30 PM. Weightage: 25%.",
		title: "",
		temporal: `[
			{"event_name": "Mid-Sem Exam", "date_raw": "09/10/2025", "time_raw": "9-10:30 AM", "subject_name": "MICROPROCESSORS (CS F241)"},
			{"event_name": "Mid-Sem Exam", "date_raw": "11/10/2025", "time_raw": "2-3:30 PM", "subject_name": "DATABASE SYSTEMS (CS F212)"}
		]`,
		metadata: `[
			{"event_name": "Mid-Sem Exam", "format": "", "weightage": "30%", "subject_name": "MICROPROCESSORS (CS F241)"},
			{"event_name": "Mid-Sem Exam", "format": "", "weightage": "25%", "subject_name": "DATABASE SYSTEMS (CS F212)"}
		]`,
		want: []types.ScheduleEntry{
			{
				Subject: "Microprocessors + MidSem Exam", EventName: "MidSem Exam",
				Start: "2025-10-09T09:00:00", End: "2025-10-09T10:30:00",
				Format: "TBA", Weightage: "30%", RawTimeString: "9-10:30 AM", TimeResolved: true,
			},
			{
				Subject: "Database Systems + MidSem Exam", EventName: "MidSem Exam",
				Start: "2025-10-11T14:00:00", End: "2025-10-11T15:30:00",
				Format: "TBA", Weightage: "25%", RawTimeString: "2-3:30 PM", TimeResolved: true,
			},
		},
	},
	{
		name:     "time to be announced",
		text:     "COURSE: MACHINE LEARNING (CS F429)\nEvaluation:\n1. Project Presentation. Date: 20/11/2025. Time: To be announced later. Format: Open. 15%.",
		title:    "Machine Learning",
		temporal: `[{"event_name": "Project Presentation", "date_raw": "20/11/2025", "time_raw": "To be announced later"}]`,
		metadata: `[{"event_name": "Project Presentation", "format": "Open", "weightage": "15%"}]`,
		want: []types.ScheduleEntry{{
			Subject: "⚠️ TIME TBA: Machine Learning + Project Presentation", EventName: "Project Presentation",
			Start: "2025-11-20T00:00:00", End: "2025-11-20T23:59:59",
			Format: "Open", Weightage: "15%", RawTimeString: "To be announced later", TimeResolved: false,
		}},
	},
	{
		name:     "hyphenated date and AN session code",
		text:     "COURSE: COMPILER CONSTRUCTION\nEvaluation:\nComprehensive Exam. 15-12-2025. AN. Closed Book. 40 Marks.",
		title:    "Compiler Construction",
		temporal: `[{"event_name": "Comprehensive Exam", "date_raw": "15-12-2025", "time_raw": "AN"}]`,
		metadata: `[{"event_name": "Comprehensive Exam", "format": "Closed Book", "weightage": "40 Marks"}]`,
		want: []types.ScheduleEntry{{
			Subject: "Compiler Construction + Comprehensive Exam", EventName: "Comprehensive Exam",
			Start: "2025-12-15T14:00:00", End: "2025-12-15T17:00:00",
			Format: "Closed Book", Weightage: "40 Marks", RawTimeString: "AN", TimeResolved: true,
		}},
	},
	{
		name:     "late evening quiz keeps the fixed duration",
		text:     "COURSE: COMPUTER ARCHITECTURE\nQuiz 1. Date: 05/09/2025. Time: 5:00 PM - 6:00 PM. Format: CB. Weight: 10%.",
		title:    "Computer Architecture",
		temporal: `[{"event_name": "Quiz 1", "date_raw": "05/09/2025", "time_raw": "5:00 PM - 6:00 PM"}]`,
		metadata: `[{"event_name": "Quiz 1", "format": "CB", "weightage": "10%"}]`,
		want: []types.ScheduleEntry{{
			Subject: "Computer Architecture + Quiz 1", EventName: "Quiz 1",
			Start: "2025-09-05T17:00:00", End: "2025-09-05T18:30:00",
			Format: "CB", Weightage: "10%", RawTimeString: "5:00 PM - 6:00 PM", TimeResolved: true,
		}},
	},
	{
		name:     "schedule hidden in noise with differently named metadata",
		text:     "COURSE: GENERAL BIOLOGY\nTextbook: Campbell. Attendance: Mandatory.\nEvaluation Scheme:\nMid-Sem Exam. 10/10/2025. 11 AM. CB. 30%.\nLibrary Rules: Silence please.",
		title:    "General Biology",
		temporal: `[{"event_name": "Mid-Sem Exam", "date_raw": "10/10/2025", "time_raw": "11 AM"}]`,
		metadata: `[{"event_name": "Midsem", "format": "CB", "weightage": "30%"}]`,
		want: []types.ScheduleEntry{{
			Subject: "General Biology + MidSem Exam", EventName: "MidSem Exam",
			Start: "2025-10-10T11:00:00", End: "2025-10-10T12:30:00",
			Format: "CB", Weightage: "30%", RawTimeString: "11 AM", TimeResolved: true,
		}},
	},
	{
		name:     "format and weightage missing",
		text:     "COURSE: QUANTUM PHYSICS\nMid-Sem Exam: 14/10/2025, 9:00 AM.\n(Details on weightage will be shared in class).",
		title:    "Quantum Physics",
		temporal: `[{"event_name": "Mid-Sem Exam", "date_raw": "14/10/2025", "time_raw": "9:00 AM"}]`,
		metadata: `[]`,
		want: []types.ScheduleEntry{{
			Subject: "Quantum Physics + MidSem Exam", EventName: "MidSem Exam",
			Start: "2025-10-14T09:00:00", End: "2025-10-14T10:30:00",
			Format: "TBA", Weightage: "N/A", RawTimeString: "9:00 AM", TimeResolved: true,
		}},
	},
	{
		name:     "final exam normalized to comprehensive",
		text:     "COURSE: ECONOMICS (ECON F211)\nAssessment:\nFinal Exam. Date: 20/12/2025. Time: FN. Format: OB. Weight: 35%.",
		title:    "Economics",
		temporal: `[{"event_name": "Final Exam", "date_raw": "20/12/2025", "time_raw": "FN"}]`,
		metadata: `[{"event_name": "Final Exam", "format": "OB", "weightage": "35%"}]`,
		want: []types.ScheduleEntry{{
			Subject: "Economics + Comprehensive Exam", EventName: "Comprehensive Exam",
			Start: "2025-12-20T10:00:00", End: "2025-12-20T13:00:00",
			Format: "OB", Weightage: "35%", RawTimeString: "FN", TimeResolved: true,
		}},
	},
	{
		name:     "two-digit year in a footer table",
		text:     "COURSE: CHEMISTRY\n... content ...\n(Bottom of Page 4)\n| Midsem | 12/10/25 | 2 PM | CB | 25% |",
		title:    "Chemistry",
		temporal: `[{"event_name": "Midsem", "date_raw": "12/10/25", "time_raw": "2 PM"}]`,
		metadata: `[{"event_name": "Midsem", "format": "CB", "weightage": "25%"}]`,
		want: []types.ScheduleEntry{{
			Subject: "Chemistry + MidSem Exam", EventName: "MidSem Exam",
			Start: "2025-10-12T14:00:00", End: "2025-10-12T15:30:00",
			Format: "CB", Weightage: "25%", RawTimeString: "2 PM", TimeResolved: true,
		}},
	},
}

// scriptedBackend answers each stage from the case whose text it receives.
func scriptedBackend(cases []handoutCase) extract.Backend {
	byText := make(map[string]handoutCase, len(cases))
	for _, c := range cases {
		byText[c.text] = c
	}
	return extract.FuncBackend(func(_ context.Context, text string, schema extract.Schema) (json.RawMessage, error) {
		c, ok := byText[text]
		if !ok {
			return nil, fmt.Errorf("unexpected text %q", text)
		}
		switch schema.Name {
		case extract.DecisionSchema.Name:
			return json.RawMessage(`{"decision": "extract"}`), nil
		case extract.TemporalSchema.Name:
			return json.RawMessage(`{"items": ` + c.temporal + `}`), nil
		case extract.MetadataSchema.Name:
			return json.RawMessage(`{"items": ` + c.metadata + `}`), nil
		case extract.TitleSchema.Name:
			return json.Marshal(map[string]string{"title": c.title})
		}
		return nil, fmt.Errorf("unexpected schema %s", schema.Name)
	})
}

func TestRunDocument_HandoutCases(t *testing.T) {
	backend := scriptedBackend(handoutCases)
	opts := extract.Options{MaxRetries: 1}
	ctrl := &Controller{
		Gate:     extract.NewGate(backend, opts),
		Temporal: extract.NewTemporalExtractor(backend, opts),
		Metadata: extract.NewMetadataExtractor(backend, opts),
		Title:    extract.NewTitleExtractor(backend, opts),
	}

	for _, tc := range handoutCases {
		t.Run(tc.name, func(t *testing.T) {
			doc := types.Document{
				ID:    "case",
				Pages: []types.TextUnit{{Index: 0, Text: tc.text}},
			}
			sched := ctrl.RunDocument(context.Background(), doc)

			require.Len(t, sched.Pages, 1)
			assert.Equal(t, string(StateReconciled), sched.Pages[0].State)
			assert.Equal(t, tc.want, sched.Entries)

			wantTitle := tc.title
			if wantTitle == "" {
				wantTitle = extract.UnknownCourse
			}
			assert.Equal(t, wantTitle, sched.CourseTitle)
		})
	}
}

func TestRunDocument_HandoutCasesAsOneDocument(t *testing.T) {
	backend := scriptedBackend(handoutCases)
	ctrl := &Controller{
		Gate:        extract.NewGate(backend, extract.Options{}),
		Temporal:    extract.NewTemporalExtractor(backend, extract.Options{}),
		Metadata:    extract.NewMetadataExtractor(backend, extract.Options{}),
		Concurrency: 4,
	}

	doc := types.Document{ID: "bundle"}
	var want []types.ScheduleEntry
	for i, tc := range handoutCases {
		doc.Pages = append(doc.Pages, types.TextUnit{Index: i, Text: tc.text})
		want = append(want, tc.want...)
	}

	sched := ctrl.RunDocument(context.Background(), doc)

	require.Len(t, sched.Entries, len(want))
	for i := range want {
		// Without a title source only per-record subjects label entries.
		assert.Equal(t, want[i].Start, sched.Entries[i].Start, "entry %d", i)
		assert.Equal(t, want[i].EventName, sched.Entries[i].EventName, "entry %d", i)
		assert.Equal(t, want[i].Weightage, sched.Entries[i].Weightage, "entry %d", i)
	}
	assert.Len(t, sched.Unresolved(), 1)
}
