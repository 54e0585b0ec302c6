// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/pdiddy/exam-schedule/internal/export"
	"github.com/pdiddy/exam-schedule/pkg/types"
)

// CombinedDocumentID names the schedule built from several stored documents.
const CombinedDocumentID = "combined"

const exportLimit = 100000

// Snapshot gathers the entries matching opts into a single schedule. When the
// filter names one document its metadata is carried over.
func (s *Store) Snapshot(ctx context.Context, opts QueryOptions) (types.Schedule, error) {
	opts.MaxResults = exportLimit
	results, err := s.Query(ctx, opts)
	if err != nil {
		return types.Schedule{}, fmt.Errorf("querying for export: %w", err)
	}

	sched := types.Schedule{
		DocumentID:  CombinedDocumentID,
		GeneratedAt: time.Now().UTC(),
		Entries:     make([]types.ScheduleEntry, len(results)),
	}
	for i, r := range results {
		sched.Entries[i] = r.ScheduleEntry
	}

	if opts.DocumentID != "" {
		doc, err := s.Schedule(ctx, opts.DocumentID)
		if err != nil {
			return types.Schedule{}, err
		}
		sched.DocumentID = doc.DocumentID
		sched.SourcePath = doc.SourcePath
		sched.CourseTitle = doc.CourseTitle
	}
	return sched, nil
}

// Export writes the entries matching opts to DataDir/index/export.<format>
// and returns the path written.
func (s *Store) Export(ctx context.Context, opts QueryOptions, format export.Format) (string, error) {
	sched, err := s.Snapshot(ctx, opts)
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.dataDir, indexDir, "export"+format.Ext())
	if err := export.WriteFile(path, format, sched); err != nil {
		return "", err
	}
	return path, nil
}
