// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pdiddy/exam-schedule/internal/container"
)

const imageMarkitdown = "markitdown:latest"

// MarkitdownConverter streams handouts through the markitdown image. It
// handles scanned or table-heavy PDFs that pdftotext flattens badly.
type MarkitdownConverter struct {
	rt    container.Runtime
	image string
}

// NewMarkitdownConverter fails with ErrToolNotFound when rt lacks the image.
func NewMarkitdownConverter(ctx context.Context, rt container.Runtime) (*MarkitdownConverter, error) {
	if err := rt.ImageExists(ctx, imageMarkitdown); err != nil {
		return nil, fmt.Errorf("%w: %s has no %s image: %w", ErrToolNotFound, rt.Name(), imageMarkitdown, err)
	}
	return &MarkitdownConverter{rt: rt, image: imageMarkitdown}, nil
}

// Convert returns the handout's pages. Markitdown keeps form feeds between
// pages, so the output splits the same way pdftotext's does.
func (m *MarkitdownConverter) Convert(ctx context.Context, path string) ([]string, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer in.Close()

	var sb strings.Builder
	if err := m.rt.Run(ctx, m.image, in, &sb); err != nil {
		return nil, fmt.Errorf("markitdown on %s: %w", path, err)
	}
	if strings.TrimSpace(sb.String()) == "" {
		return nil, fmt.Errorf("markitdown returned no text for %s", path)
	}
	return SplitPages(sb.String()), nil
}
