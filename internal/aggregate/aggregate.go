// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aggregate reconciles the temporal and metadata records extracted
// from one text unit into schedule entries. The two record sets share no
// identifier, so metadata is found through JoinKey matching and temporal
// records alone decide how many entries are produced.
package aggregate

import (
	"io"
	"log/slog"
	"strings"

	"github.com/pdiddy/exam-schedule/internal/metrics"
	"github.com/pdiddy/exam-schedule/internal/normalize"
	"github.com/pdiddy/exam-schedule/internal/resolve"
	"github.com/pdiddy/exam-schedule/pkg/types"
)

// Placeholders used when no metadata matched.
const (
	FormatPlaceholder    = "TBA"
	WeightagePlaceholder = "N/A"
)

// TimeTBAPrefix marks the subject label of an entry whose time is unknown.
const TimeTBAPrefix = "⚠️ TIME TBA: "

// Aggregator wraps Aggregate with logging and match metrics.
type Aggregator struct {
	Logger  *slog.Logger
	Metrics *metrics.Recorder
}

// Aggregate builds one entry per temporal record, in input order.
func (a *Aggregator) Aggregate(temporal []types.TemporalRecord, metadata []types.MetadataRecord, knownTitle string) []types.ScheduleEntry {
	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}

	idx := NewMetadataIndex(metadata)
	entries := make([]types.ScheduleEntry, 0, len(temporal))
	for i, t := range temporal {
		e, kind := buildEntry(t, idx, knownTitle)
		a.Metrics.Entry(string(kind), e.TimeResolved)
		logger.Debug("aggregate.entry",
			"index", i,
			"event", e.EventName,
			"match", kind,
			"resolved", e.TimeResolved,
		)
		entries = append(entries, e)
	}
	logger.Debug("aggregate.done", "temporal", len(temporal), "metadata", len(metadata), "entries", len(entries))
	return entries
}

// Aggregate reconciles temporal and metadata records without logging or
// metrics. knownTitle is the document-level course title and may be empty.
func Aggregate(temporal []types.TemporalRecord, metadata []types.MetadataRecord, knownTitle string) []types.ScheduleEntry {
	return (&Aggregator{Logger: discard}).Aggregate(temporal, metadata, knownTitle)
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func buildEntry(t types.TemporalRecord, idx *MetadataIndex, knownTitle string) (types.ScheduleEntry, MatchKind) {
	event := normalize.CanonicalizeEvent(t.EventName)
	subject := normalize.CanonicalizeSubject(t.SubjectName)

	md, kind := idx.Lookup(NewJoinKey(t.SubjectName, t.EventName), subject != "")

	label := event
	if subject == "" {
		subject = normalize.CanonicalizeSubject(knownTitle)
	}
	if subject != "" {
		label = normalize.TitleCase(subject) + " + " + event
	}

	e := types.ScheduleEntry{
		EventName:     event,
		Format:        placeholder(md.Format, FormatPlaceholder),
		Weightage:     placeholder(md.Weightage, WeightagePlaceholder),
		RawTimeString: t.TimeRaw,
	}

	w := resolve.ResolveWindow(t.DateRaw, t.TimeRaw, event)
	if w.Resolved {
		e.Start, e.End = w.Timestamps()
		e.TimeResolved = true
	} else {
		e.Start, e.End = resolve.AllDay(w.Date)
		label = TimeTBAPrefix + label
	}
	e.Subject = label
	return e, kind
}

func placeholder(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}
