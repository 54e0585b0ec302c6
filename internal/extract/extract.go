// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract asks a structured-extraction backend for the facts the
// pipeline needs: whether a page is worth processing, the dated events on it,
// their format and weightage, and the course title.
//
// Every stage degrades instead of failing. Backend errors, unparseable output
// and schema violations turn into a skip decision, an empty record list, or
// the UnknownCourse title; they are logged and counted, never returned.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/exam-schedule/internal/metrics"
)

// ErrExtraction marks every failure of a structured-extraction call.
var ErrExtraction = errors.New("structured extraction failed")

// Backend abstracts the structured-extraction service so tests can supply a
// mock. Invoke returns the service's JSON object for text under schema.
type Backend interface {
	Invoke(ctx context.Context, text string, schema Schema) (json.RawMessage, error)
}

// FuncBackend adapts a function to Backend.
type FuncBackend func(ctx context.Context, text string, schema Schema) (json.RawMessage, error)

// Invoke calls f.
func (f FuncBackend) Invoke(ctx context.Context, text string, schema Schema) (json.RawMessage, error) {
	return f(ctx, text, schema)
}

// Options configures a stage.
type Options struct {
	// MaxRetries is the number of extra attempts after a failed call.
	// Zero means the default of 3.
	MaxRetries int
	Logger     *slog.Logger
	Metrics    *metrics.Recorder
}

const defaultMaxRetries = 3

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// runner is the call path shared by all stages.
type runner struct {
	backend Backend
	opts    Options
}

func newRunner(b Backend, opts Options) runner {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return runner{backend: b, opts: opts}
}

// run invokes the backend for one stage, validates the output against the
// schema, and decodes it into out. The returned error is already logged and
// counted; callers only decide how to degrade.
func (r runner) run(ctx context.Context, stage, text string, schema Schema, out any) error {
	reqID := uuid.NewString()
	logger := r.opts.Logger.With("stage", stage, "req_id", reqID)
	logger.Debug("extract.start", "schema", schema.Name, "chars", len(text))

	start := time.Now()
	err := r.call(ctx, text, schema, out)
	r.opts.Metrics.StageDuration(stage, time.Since(start))

	if err != nil {
		r.opts.Metrics.ExtractionFailure(stage)
		logger.Warn("extract.error", "error", err)
		return err
	}
	logger.Debug("extract.done", "elapsed", time.Since(start))
	return nil
}

func (r runner) call(ctx context.Context, text string, schema Schema, out any) error {
	if r.backend == nil {
		return fmt.Errorf("%w: no backend configured", ErrExtraction)
	}
	raw, err := callWithRetry(ctx, r.backend, text, schema, r.opts.MaxRetries)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decoding %s output: %w", ErrExtraction, schema.Name, err)
	}
	return nil
}

// callWithRetry calls the backend with exponential backoff. A response that
// does not validate against the schema counts as a failed attempt.
func callWithRetry(ctx context.Context, backend Backend, text string, schema Schema, maxRetries int) (json.RawMessage, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %w", ErrExtraction, ctx.Err())
			case <-time.After(backoff):
			}
		}

		raw, err := backend.Invoke(ctx, text, schema)
		if err == nil {
			err = schema.Validate(raw)
		}
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	if errors.Is(lastErr, ErrExtraction) {
		return nil, fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
	}
	return nil, fmt.Errorf("%w: after %d retries: %w", ErrExtraction, maxRetries, lastErr)
}
