// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"strings"

	"github.com/pdiddy/exam-schedule/pkg/types"
)

// Stage names used in logs and metrics.
const (
	StageGate     = "gate"
	StageTemporal = "temporal"
	StageMetadata = "metadata"
	StageTitle    = "title"
)

// UnknownCourse is the title used when none could be extracted.
const UnknownCourse = "Unknown Course"

// Gate decides whether a text unit is worth extracting.
type Gate struct{ r runner }

// NewGate creates a Gate over backend.
func NewGate(backend Backend, opts Options) *Gate {
	return &Gate{r: newRunner(backend, opts)}
}

// Classify returns DecisionExtract or DecisionSkip. Any failure, or a label
// other than "extract" or "skip", yields DecisionSkip.
func (g *Gate) Classify(ctx context.Context, text string) types.Decision {
	var out struct {
		Decision string `json:"decision"`
	}
	if err := g.r.run(ctx, StageGate, text, DecisionSchema, &out); err != nil {
		return types.DecisionSkip
	}
	switch d := types.Decision(strings.ToLower(strings.TrimSpace(out.Decision))); d {
	case types.DecisionExtract, types.DecisionSkip:
		return d
	default:
		g.r.opts.Logger.Warn("extract.gate.unknown_label", "label", out.Decision)
		return types.DecisionSkip
	}
}

// TemporalExtractor pulls dated events out of a text unit.
type TemporalExtractor struct{ r runner }

// NewTemporalExtractor creates a TemporalExtractor over backend.
func NewTemporalExtractor(backend Backend, opts Options) *TemporalExtractor {
	return &TemporalExtractor{r: newRunner(backend, opts)}
}

// Extract returns the temporal records in service order, or none on failure.
// Records without an event name are dropped.
func (e *TemporalExtractor) Extract(ctx context.Context, text string) []types.TemporalRecord {
	var out struct {
		Items []types.TemporalRecord `json:"items"`
	}
	if err := e.r.run(ctx, StageTemporal, text, TemporalSchema, &out); err != nil {
		return []types.TemporalRecord{}
	}
	records := make([]types.TemporalRecord, 0, len(out.Items))
	for _, rec := range out.Items {
		if strings.TrimSpace(rec.EventName) == "" {
			continue
		}
		records = append(records, rec)
	}
	return records
}

// MetadataExtractor pulls format and weightage facts out of a text unit.
type MetadataExtractor struct{ r runner }

// NewMetadataExtractor creates a MetadataExtractor over backend.
func NewMetadataExtractor(backend Backend, opts Options) *MetadataExtractor {
	return &MetadataExtractor{r: newRunner(backend, opts)}
}

// Extract returns the metadata records in service order, or none on failure.
// Records without an event name are dropped.
func (e *MetadataExtractor) Extract(ctx context.Context, text string) []types.MetadataRecord {
	var out struct {
		Items []types.MetadataRecord `json:"items"`
	}
	if err := e.r.run(ctx, StageMetadata, text, MetadataSchema, &out); err != nil {
		return []types.MetadataRecord{}
	}
	records := make([]types.MetadataRecord, 0, len(out.Items))
	for _, rec := range out.Items {
		if strings.TrimSpace(rec.EventName) == "" {
			continue
		}
		records = append(records, rec)
	}
	return records
}

// TitleExtractor finds the course title on a document's first page.
type TitleExtractor struct{ r runner }

// NewTitleExtractor creates a TitleExtractor over backend.
func NewTitleExtractor(backend Backend, opts Options) *TitleExtractor {
	return &TitleExtractor{r: newRunner(backend, opts)}
}

// Extract returns the course title, or UnknownCourse on failure or when the
// service finds none.
func (e *TitleExtractor) Extract(ctx context.Context, firstUnitText string) string {
	var out struct {
		Title string `json:"title"`
	}
	if err := e.r.run(ctx, StageTitle, firstUnitText, TitleSchema, &out); err != nil {
		return UnknownCourse
	}
	if t := strings.TrimSpace(out.Title); t != "" {
		return t
	}
	return UnknownCourse
}
