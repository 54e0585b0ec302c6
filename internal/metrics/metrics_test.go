// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_WriteTextfile(t *testing.T) {
	r := New()
	r.Unit("extract")
	r.Unit("extract")
	r.Unit("skip")
	r.ExtractionFailure("temporal")
	r.Entry("loose", true)
	r.Entry("none", false)
	r.StageDuration("gate", 120*time.Millisecond)

	path := filepath.Join(t.TempDir(), "exam_schedule.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)

	assert.Contains(t, out, `exam_schedule_units_total{decision="extract"} 2`)
	assert.Contains(t, out, `exam_schedule_units_total{decision="skip"} 1`)
	assert.Contains(t, out, `exam_schedule_extraction_failures_total{stage="temporal"} 1`)
	assert.Contains(t, out, `exam_schedule_metadata_matches_total{kind="loose"} 1`)
	assert.Contains(t, out, "exam_schedule_entries_total 2")
	assert.Contains(t, out, "exam_schedule_unresolved_entries_total 1")
	assert.Contains(t, out, `exam_schedule_stage_duration_seconds_count{stage="gate"} 1`)
}

func TestRecorder_NilSafe(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.Unit("extract")
		r.ExtractionFailure("gate")
		r.Entry("strict", true)
		r.StageDuration("gate", time.Second)
	})
	assert.Nil(t, r.Registry())
	assert.NoError(t, r.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
}
