// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"strings"
	"time"
)

// TextUnit is one page or fragment of source text. It is owned by the caller
// and consumed once per pipeline invocation.
type TextUnit struct {
	// Index is the zero-based page index within the document.
	Index int `json:"index" yaml:"index"`

	// Text is the raw extracted text.
	Text string `json:"text" yaml:"text"`
}

// Document is a page-indexed source document.
type Document struct {
	// ID is a slug derived from the source filename.
	ID string `json:"id" yaml:"id"`

	// SourcePath is the local file the pages were read from, if any.
	SourcePath string `json:"source_path,omitempty" yaml:"source_path,omitempty"`

	Pages []TextUnit `json:"pages" yaml:"pages"`
}

// FirstText returns the text of the first non-blank page, or "".
func (d Document) FirstText() string {
	for _, p := range d.Pages {
		if strings.TrimSpace(p.Text) != "" {
			return p.Text
		}
	}
	return ""
}

// Handout is a downloaded source PDF and where it came from.
type Handout struct {
	ID        string    `json:"id" yaml:"id"`
	SourceURL string    `json:"source_url" yaml:"source_url"`
	PDFPath   string    `json:"pdf_path" yaml:"pdf_path"`
	SHA256    string    `json:"sha256,omitempty" yaml:"sha256,omitempty"`
	Bytes     int64     `json:"bytes,omitempty" yaml:"bytes,omitempty"`
	FetchedAt time.Time `json:"fetched_at" yaml:"fetched_at"`
}
