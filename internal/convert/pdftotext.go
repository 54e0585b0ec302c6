// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
)

const binPdftotext = "pdftotext"

// CommandRunner runs an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, fmt.Errorf("%w: %s (install poppler-utils)", ErrToolNotFound, name)
	}
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) && len(ee.Stderr) > 0 {
			return nil, fmt.Errorf("%s: %w: %s", name, err, ee.Stderr)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// PdftotextConverter extracts layout-preserving text with poppler's
// pdftotext, one page per form feed.
type PdftotextConverter struct {
	runner CommandRunner
}

// NewPdftotextConverter uses the pdftotext binary on PATH.
func NewPdftotextConverter() *PdftotextConverter {
	return &PdftotextConverter{runner: execRunner{}}
}

// NewPdftotextWithRunner injects a command runner, for tests.
func NewPdftotextWithRunner(r CommandRunner) *PdftotextConverter {
	return &PdftotextConverter{runner: r}
}

// Convert runs `pdftotext -layout <pdf> -` and splits the output into pages.
func (p *PdftotextConverter) Convert(ctx context.Context, pdfPath string) ([]string, error) {
	out, err := p.runner.Run(ctx, binPdftotext, "-layout", pdfPath, "-")
	if err != nil {
		return nil, fmt.Errorf("converting %s with pdftotext: %w", pdfPath, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("pdftotext produced empty output for %s", pdfPath)
	}
	return SplitPages(string(out)), nil
}
