// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire downloads handout PDFs into the work directory and records
// where each one came from.
package acquire

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/exam-schedule/internal/httputil"
	"github.com/pdiddy/exam-schedule/pkg/types"
)

const (
	rawDir      = "raw"
	metadataDir = "metadata"
)

// ErrNotPDF is returned when a download does not start with the PDF magic.
var ErrNotPDF = errors.New("response is not a PDF")

var pdfMagic = []byte("%PDF")

// BatchResult holds the outcome of a batch fetch run.
type BatchResult struct {
	Downloaded int
	Skipped    int
	Failed     int
	Handouts   []*types.Handout
}

// Total returns the total number of URLs processed.
func (r BatchResult) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}

// HasFailures reports whether any download failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slug derives a file name stem from a URL: the last path element without
// its extension, or the host when the path is empty.
func Slug(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("not an http(s) URL: %q", rawURL)
	}
	base := path.Base(u.Path)
	if base == "/" || base == "." {
		base = u.Hostname()
	} else {
		base = strings.TrimSuffix(base, path.Ext(base))
	}
	slug := strings.Trim(slugRe.ReplaceAllString(strings.ToLower(base), "-"), "-")
	if slug == "" {
		return "", fmt.Errorf("cannot derive a file name from %q", rawURL)
	}
	return slug, nil
}

// Fetch downloads one handout to <work>/raw/<slug>.pdf and writes its
// provenance to <work>/metadata/<slug>.yaml. An existing PDF is not
// downloaded again; skipped reports that case.
func Fetch(ctx context.Context, client *http.Client, rawURL string, cfg types.FetchConfig, w io.Writer) (h *types.Handout, skipped bool, err error) {
	slug, err := Slug(rawURL)
	if err != nil {
		return nil, false, err
	}
	pdfPath := filepath.Join(cfg.WorkDir, rawDir, slug+".pdf")
	metaPath := filepath.Join(cfg.WorkDir, metadataDir, slug+".yaml")

	if _, err := os.Stat(pdfPath); err == nil {
		fmt.Fprintf(w, "skipped: %s (already exists)\n", slug)
		h, readErr := readMetadata(metaPath)
		if readErr != nil {
			h = &types.Handout{ID: slug, SourceURL: rawURL, PDFPath: pdfPath}
		}
		return h, true, nil
	}

	for _, dir := range []string{
		filepath.Join(cfg.WorkDir, rawDir),
		filepath.Join(cfg.WorkDir, metadataDir),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, false, fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	fmt.Fprintf(w, "downloading: %s\n", slug)

	sum, n, err := downloadFile(ctx, client, rawURL, pdfPath, cfg)
	if err != nil {
		return nil, false, fmt.Errorf("downloading %s: %w", slug, err)
	}

	h = &types.Handout{
		ID:        slug,
		SourceURL: rawURL,
		PDFPath:   pdfPath,
		SHA256:    sum,
		Bytes:     n,
		FetchedAt: time.Now().UTC(),
	}
	if err := writeMetadata(h, metaPath); err != nil {
		return nil, false, fmt.Errorf("writing metadata for %s: %w", slug, err)
	}
	return h, false, nil
}

// FetchBatch downloads every URL, printing per-item status and returning a
// summary. It continues after individual failures.
func FetchBatch(ctx context.Context, client *http.Client, urls []string, cfg types.FetchConfig, w io.Writer) BatchResult {
	var result BatchResult
	for _, u := range urls {
		h, wasSkipped, err := Fetch(ctx, client, u, cfg, w)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", u, err)
			result.Failed++
			continue
		}
		if wasSkipped {
			result.Skipped++
		} else {
			result.Downloaded++
		}
		result.Handouts = append(result.Handouts, h)
	}
	fmt.Fprintf(w, "\nBatch summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
		result.Downloaded, result.Skipped, result.Failed, result.Total())
	return result
}

// downloadFile fetches url to destPath through a temporary file that is
// renamed only after the body has been written and looks like a PDF.
func downloadFile(ctx context.Context, client *http.Client, rawURL, destPath string, cfg types.FetchConfig) (string, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", 0, fmt.Errorf("creating request: %w", err)
	}
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}
	req.Header.Set("Accept", "application/pdf")

	resp, err := httputil.DoWithRetry(ctx, client, req, 3)
	if err != nil {
		return "", 0, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("HTTP %d from %s", resp.StatusCode, rawURL)
	}

	body := bufio.NewReader(resp.Body)
	head, _ := body.Peek(len(pdfMagic))
	if !bytes.Equal(head, pdfMagic) {
		return "", 0, fmt.Errorf("%w: %s", ErrNotPDF, rawURL)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".fetch-*.tmp")
	if err != nil {
		return "", 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	hash := sha256.New()
	n, copyErr := io.Copy(io.MultiWriter(tmpFile, hash), body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return "", 0, fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return "", 0, fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return "", 0, fmt.Errorf("renaming temp file: %w", err)
	}
	return hex.EncodeToString(hash.Sum(nil)), n, nil
}

func writeMetadata(h *types.Handout, path string) error {
	data, err := yaml.Marshal(h)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func readMetadata(path string) (*types.Handout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var h types.Handout
	if err := yaml.Unmarshal(data, &h); err != nil {
		return nil, err
	}
	return &h, nil
}
