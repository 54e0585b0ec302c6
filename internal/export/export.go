// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export renders a reconciled schedule as YAML, JSON, or an XLSX
// workbook.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/exam-schedule/pkg/types"
)

// Format names an output encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts a format name, case-insensitive. "yml" is YAML.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yaml", "yml", "":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	case "xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported format %q: use yaml, json, or xlsx", s)
	}
}

// FormatForPath picks the format from a file extension, falling back to def.
func FormatForPath(path string, def Format) Format {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return def
	}
	if f, err := ParseFormat(ext); err == nil {
		return f
	}
	return def
}

// Ext returns the file extension for f, including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// Write encodes sched to w in the given format.
func Write(w io.Writer, f Format, sched types.Schedule) error {
	switch f {
	case FormatYAML:
		return WriteYAML(w, sched)
	case FormatJSON:
		return WriteJSON(w, sched)
	case FormatXLSX:
		return WriteXLSX(w, sched)
	default:
		return fmt.Errorf("unsupported format %q", f)
	}
}

// WriteFile writes sched to path, creating parent directories. The file is
// written to a temporary name and renamed into place.
func WriteFile(path string, f Format, sched types.Schedule) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	tmp := path + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmp, err)
	}
	if err := Write(out, f, sched); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming output file: %w", err)
	}
	return nil
}

// WriteYAML encodes sched as a YAML document.
func WriteYAML(w io.Writer, sched types.Schedule) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(normalized(sched)); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// WriteJSON encodes sched as indented JSON.
func WriteJSON(w io.Writer, sched types.Schedule) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized(sched)); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}

// normalized returns sched with a non-nil entry list so empty schedules
// encode as [] rather than null.
func normalized(sched types.Schedule) types.Schedule {
	if sched.Entries == nil {
		sched.Entries = []types.ScheduleEntry{}
	}
	return sched
}
