// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/exam-schedule/internal/export"
	"github.com/pdiddy/exam-schedule/pkg/types"
)

func TestOutputTarget(t *testing.T) {
	tests := []struct {
		name       string
		out        string
		format     string
		docCount   int
		wantPath   string
		wantFormat export.Format
		wantErr    bool
	}{
		{
			name:       "default directory under work dir",
			docCount:   1,
			wantPath:   filepath.Join("handouts", "schedules", "cs-f111.yaml"),
			wantFormat: export.FormatYAML,
		},
		{
			name:       "file path picks format from extension",
			out:        "out/plan.xlsx",
			docCount:   1,
			wantPath:   "out/plan.xlsx",
			wantFormat: export.FormatXLSX,
		},
		{
			name:       "explicit format wins over extension",
			out:        "out/plan.txt",
			format:     "json",
			docCount:   1,
			wantPath:   "out/plan.txt",
			wantFormat: export.FormatJSON,
		},
		{
			name:       "several documents treat out as a directory",
			out:        "out/plan.xlsx",
			format:     "json",
			docCount:   2,
			wantPath:   filepath.Join("out/plan.xlsx", "cs-f111.json"),
			wantFormat: export.FormatJSON,
		},
		{
			name:     "unknown format",
			format:   "csv",
			docCount: 1,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, format, err := outputTarget(tt.out, tt.format, "handouts", "cs-f111", tt.docCount)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPath, path)
			assert.Equal(t, tt.wantFormat, format)
		})
	}
}

func TestPrintSchedule(t *testing.T) {
	sched := types.Schedule{
		DocumentID:  "cs-f111",
		CourseTitle: "Computer Programming",
		Entries: []types.ScheduleEntry{
			{
				Subject: "Computer Programming + MidSem Exam", EventName: "MidSem Exam",
				Start: "2025-03-10T14:00:00", End: "2025-03-10T15:30:00",
				Format: "Closed Book", Weightage: "30%", TimeResolved: true,
			},
			{
				Subject: "⚠️ TIME TBA: Computer Programming + Quiz", EventName: "Quiz",
				Start: "2025-02-05T00:00:00", End: "2025-02-05T23:59:59",
				Format: "TBA", Weightage: "N/A", RawTimeString: "TBA",
			},
		},
	}

	var buf bytes.Buffer
	printSchedule(&buf, sched)
	out := buf.String()

	assert.Contains(t, out, "cs-f111: Computer Programming")
	assert.Contains(t, out, "Computer Programming + MidSem Exam")
	assert.Contains(t, out, "2 entries, 1 unresolved")
	assert.Contains(t, out, `review: Quiz (time as written: "TBA")`)
}

func TestPrintScheduleEmpty(t *testing.T) {
	var buf bytes.Buffer
	printSchedule(&buf, types.Schedule{DocumentID: "blank"})
	assert.Contains(t, buf.String(), "(course title unknown)")
	assert.Contains(t, buf.String(), "No schedule entries found.")
}

func TestClip(t *testing.T) {
	assert.Equal(t, "short", clip("short", 10))
	assert.Equal(t, "abcdefg...", clip("abcdefghijklmnop", 10))
	assert.Equal(t, "⚠️ TI...", clip("⚠️ TIME TBA", 8))
}
