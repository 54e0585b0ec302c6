// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics counts pipeline outcomes with Prometheus collectors. A run
// writes its registry to a node-exporter textfile; nothing is served.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "exam_schedule"

// Recorder holds the pipeline collectors on a private registry. A nil
// *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	units      *prometheus.CounterVec
	failures   *prometheus.CounterVec
	matches    *prometheus.CounterVec
	entries    prometheus.Counter
	unresolved prometheus.Counter
	stageDur   *prometheus.HistogramVec
}

// New creates a Recorder with all collectors registered.
func New() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.units = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "units_total",
		Help:      "Text units processed by gate decision",
	}, []string{"decision"})
	r.failures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "extraction_failures_total",
		Help:      "Structured-extraction calls that degraded to an empty result",
	}, []string{"stage"})
	r.matches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "metadata_matches_total",
		Help:      "Temporal records by the metadata join key that matched",
	}, []string{"kind"})
	r.entries = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "entries_total",
		Help:      "Schedule entries produced",
	})
	r.unresolved = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "unresolved_entries_total",
		Help:      "Schedule entries with an all-day placeholder window",
	})
	r.stageDur = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "stage_duration_seconds",
		Help:      "Time spent per pipeline stage",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"stage"})

	r.registry.MustRegister(r.units, r.failures, r.matches, r.entries, r.unresolved, r.stageDur)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Unit counts one text unit under its gate decision.
func (r *Recorder) Unit(decision string) {
	if r == nil {
		return
	}
	r.units.WithLabelValues(decision).Inc()
}

// ExtractionFailure counts a degraded extraction call.
func (r *Recorder) ExtractionFailure(stage string) {
	if r == nil {
		return
	}
	r.failures.WithLabelValues(stage).Inc()
}

// Entry counts one emitted schedule entry and how its metadata matched.
func (r *Recorder) Entry(matchKind string, resolved bool) {
	if r == nil {
		return
	}
	r.entries.Inc()
	r.matches.WithLabelValues(matchKind).Inc()
	if !resolved {
		r.unresolved.Inc()
	}
}

// StageDuration observes how long a stage took.
func (r *Recorder) StageDuration(stage string, d time.Duration) {
	if r == nil {
		return
	}
	r.stageDur.WithLabelValues(stage).Observe(d.Seconds())
}

// WriteTextfile writes the registry in text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics textfile %s: %w", path, err)
	}
	return nil
}
