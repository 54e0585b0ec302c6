// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns handout files into page-indexed text with pluggable
// backends, caching the text under the work directory.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pdiddy/exam-schedule/internal/container"
	"github.com/pdiddy/exam-schedule/pkg/types"
)

// textDir is the subdirectory under the work dir for cached page text.
const textDir = "text"

// pageBreak separates pages in converter output and in the cache.
const pageBreak = "\f"

// ErrToolNotFound is returned when a converter's external tool is missing.
var ErrToolNotFound = errors.New("conversion tool not found")

// Converter extracts page text from a file. Different backends (pdftotext,
// markitdown, plain text) implement this interface.
type Converter interface {
	// Convert reads the file at path and returns one string per page.
	Convert(ctx context.Context, path string) ([]string, error)
}

// New returns the converter for a configured backend.
func New(ctx context.Context, backend types.ConversionBackend) (Converter, error) {
	switch backend {
	case types.BackendPdftotext, "":
		return NewPdftotextConverter(), nil
	case types.BackendMarkitdown:
		rt, err := container.DetectRuntime(ctx)
		if err != nil {
			return nil, err
		}
		return NewMarkitdownConverter(ctx, rt)
	case types.BackendText:
		return TextFileConverter{}, nil
	default:
		return nil, fmt.Errorf("unknown conversion backend %q", backend)
	}
}

// IsTextFile reports whether path is read directly instead of converted.
func IsTextFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".text":
		return true
	}
	return false
}

// ForPath returns c, or a TextFileConverter when path is already text.
func ForPath(c Converter, path string) Converter {
	if IsTextFile(path) {
		return TextFileConverter{}
	}
	return c
}

// TextFileConverter reads plain text or Markdown files. Form feeds split
// pages; a file without them is a single page.
type TextFileConverter struct{}

// Convert reads path and splits it into pages.
func (TextFileConverter) Convert(_ context.Context, path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return SplitPages(string(data)), nil
}

// SplitPages splits converter output on form feeds. A trailing empty page,
// which pdftotext always emits, is dropped.
func SplitPages(s string) []string {
	pages := strings.Split(s, pageBreak)
	if n := len(pages); n > 1 && strings.TrimSpace(pages[n-1]) == "" {
		pages = pages[:n-1]
	}
	return pages
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// DocumentID derives a stable slug from a file name:
// "CS F212 Handout.pdf" becomes "cs-f212-handout".
func DocumentID(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	slug := strings.Trim(slugRe.ReplaceAllString(strings.ToLower(base), "-"), "-")
	if slug == "" {
		return "document"
	}
	return slug
}

// Status is the outcome of converting one file.
type Status string

const (
	StatusConverted Status = "converted"
	StatusCached    Status = "cached"
	StatusFailed    Status = "failed"
)

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int
	Documents []types.Document
}

// Total returns the total number of files processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any file failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// CachePath returns where the page text for path is cached.
func CachePath(workDir, path string) string {
	return filepath.Join(workDir, textDir, DocumentID(path)+".txt")
}

// ConvertFile converts one file into a Document. When the cached text
// already exists it is loaded instead of running the converter again.
func ConvertFile(ctx context.Context, c Converter, path, workDir string, w io.Writer) (types.Document, Status, error) {
	id := DocumentID(path)
	cache := CachePath(workDir, path)

	if _, err := os.Stat(cache); err == nil {
		doc, err := LoadDocument(cache)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", id, err)
			return types.Document{}, StatusFailed, err
		}
		doc.ID, doc.SourcePath = id, path
		fmt.Fprintf(w, "skipped: %s (cached)\n", id)
		return doc, StatusCached, nil
	}

	pages, err := ForPath(c, path).Convert(ctx, path)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", id, err)
		return types.Document{}, StatusFailed, err
	}

	if err := os.MkdirAll(filepath.Dir(cache), 0o755); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", id, err)
		return types.Document{}, StatusFailed, fmt.Errorf("creating text directory: %w", err)
	}
	if err := os.WriteFile(cache, []byte(strings.Join(pages, pageBreak)), 0o644); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", id, err)
		return types.Document{}, StatusFailed, fmt.Errorf("writing %s: %w", cache, err)
	}

	fmt.Fprintf(w, "converted: %s (%d pages)\n", id, len(pages))
	return NewDocument(id, path, pages), StatusConverted, nil
}

// ConvertPaths converts every path, printing per-file status to w and
// returning a summary with the documents that converted.
func ConvertPaths(ctx context.Context, c Converter, paths []string, workDir string, w io.Writer) BatchResult {
	var result BatchResult
	for _, p := range paths {
		doc, status, _ := ConvertFile(ctx, c, p, workDir, w)
		switch status {
		case StatusConverted:
			result.Converted++
		case StatusCached:
			result.Skipped++
		case StatusFailed:
			result.Failed++
			continue
		}
		result.Documents = append(result.Documents, doc)
	}
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total())
	return result
}

// LoadDocument reads a form-feed separated text file as a Document.
func LoadDocument(path string) (types.Document, error) {
	pages, err := TextFileConverter{}.Convert(context.Background(), path)
	if err != nil {
		return types.Document{}, err
	}
	return NewDocument(DocumentID(path), path, pages), nil
}

// NewDocument indexes pages in order.
func NewDocument(id, source string, pages []string) types.Document {
	doc := types.Document{ID: id, SourcePath: source, Pages: make([]types.TextUnit, len(pages))}
	for i, p := range pages {
		doc.Pages[i] = types.TextUnit{Index: i, Text: p}
	}
	return doc
}
