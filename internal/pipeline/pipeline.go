// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs text units through the gate, the two extraction
// passes, and the aggregator, and assembles per-document schedules.
package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/exam-schedule/internal/aggregate"
	"github.com/pdiddy/exam-schedule/internal/metrics"
	"github.com/pdiddy/exam-schedule/pkg/types"
)

// Classifier decides whether a unit is worth extracting.
type Classifier interface {
	Classify(ctx context.Context, text string) types.Decision
}

// TemporalSource produces temporal records for a unit.
type TemporalSource interface {
	Extract(ctx context.Context, text string) []types.TemporalRecord
}

// MetadataSource produces metadata records for a unit.
type MetadataSource interface {
	Extract(ctx context.Context, text string) []types.MetadataRecord
}

// TitleSource finds a document's course title.
type TitleSource interface {
	Extract(ctx context.Context, firstUnitText string) string
}

// Controller wires the stages together. Gate, Temporal and Metadata are
// required; Title is optional.
type Controller struct {
	Gate     Classifier
	Temporal TemporalSource
	Metadata MetadataSource
	Title    TitleSource

	// Concurrency bounds how many pages RunDocument processes at once.
	// Values below 1 mean 1.
	Concurrency int

	Logger  *slog.Logger
	Metrics *metrics.Recorder
}

// Result is the outcome for one text unit.
type Result struct {
	State    State
	Decision types.Decision
	Temporal []types.TemporalRecord
	Metadata []types.MetadataRecord
	Entries  []types.ScheduleEntry
	// Trace lists every state the unit passed through, in order.
	Trace []State
}

func (c *Controller) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// Run processes one unit. Blank units and units whose context is already
// cancelled are skipped without calling the gate. After an extract decision
// both extractors run concurrently and the aggregator sees their results
// only once both return.
func (c *Controller) Run(ctx context.Context, unit types.TextUnit, knownTitle string) Result {
	res := Result{State: StatePending, Decision: types.DecisionSkip, Trace: []State{StatePending}}
	logger := c.logger().With("unit", unit.Index)

	if ctx.Err() != nil || strings.TrimSpace(unit.Text) == "" {
		res.advance(StateSkipped)
		c.Metrics.Unit(string(res.Decision))
		logger.Debug("pipeline.unit.skipped", "reason", skipReason(ctx))
		return res
	}

	res.Decision = c.Gate.Classify(ctx, unit.Text)
	c.Metrics.Unit(string(res.Decision))
	if res.Decision != types.DecisionExtract {
		res.advance(StateSkipped)
		logger.Info("pipeline.unit.skipped", "reason", "gate")
		return res
	}
	res.advance(StateExtracting)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		res.Temporal = c.Temporal.Extract(ctx, unit.Text)
	}()
	go func() {
		defer wg.Done()
		res.Metadata = c.Metadata.Extract(ctx, unit.Text)
	}()
	wg.Wait()

	start := time.Now()
	agg := &aggregate.Aggregator{Logger: logger, Metrics: c.Metrics}
	res.Entries = agg.Aggregate(res.Temporal, res.Metadata, knownTitle)
	c.Metrics.StageDuration("aggregate", time.Since(start))
	res.advance(StateReconciled)

	logger.Info("pipeline.unit.done",
		"temporal", len(res.Temporal),
		"metadata", len(res.Metadata),
		"entries", len(res.Entries),
	)
	return res
}

func skipReason(ctx context.Context) string {
	if ctx.Err() != nil {
		return "cancelled"
	}
	return "blank"
}

// RunDocument processes every page of doc and concatenates the entries in
// page order. The course title comes from the first non-blank page when a
// Title source is configured.
func (c *Controller) RunDocument(ctx context.Context, doc types.Document) types.Schedule {
	id := doc.ID
	if id == "" {
		id = uuid.NewString()
	}
	logger := c.logger().With("doc", id)

	var title string
	if c.Title != nil {
		if first := doc.FirstText(); first != "" {
			title = c.Title.Extract(ctx, first)
		}
	}
	logger.Info("pipeline.document.start", "pages", len(doc.Pages), "title", title)

	results := make([]Result, len(doc.Pages))
	var g errgroup.Group
	g.SetLimit(max(c.Concurrency, 1))
	for i, page := range doc.Pages {
		g.Go(func() error {
			results[i] = c.Run(ctx, page, title)
			return nil
		})
	}
	_ = g.Wait()

	sched := types.Schedule{
		DocumentID:  id,
		SourcePath:  doc.SourcePath,
		CourseTitle: title,
		GeneratedAt: time.Now().UTC(),
		Entries:     []types.ScheduleEntry{},
	}
	for i, r := range results {
		sched.Entries = append(sched.Entries, r.Entries...)
		sched.Pages = append(sched.Pages, types.PageOutcome{
			Index:    doc.Pages[i].Index,
			State:    string(r.State),
			Temporal: len(r.Temporal),
			Metadata: len(r.Metadata),
			Entries:  len(r.Entries),
		})
	}
	logger.Info("pipeline.document.done",
		"entries", len(sched.Entries),
		"unresolved", len(sched.Unresolved()),
	)
	return sched
}
