// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists reconciled exam schedules in a local SQLite
// database so several handouts can be listed and exported together.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/exam-schedule/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "schedules.db"

	defaultMaxResults = 50
)

// ErrNotFound is returned when a document ID has no stored schedule.
var ErrNotFound = errors.New("schedule not found")

// Store manages the schedule database under DataDir/index/.
type Store struct {
	db         *sql.DB
	dataDir    string
	maxResults int
}

// NewStore opens or creates the database at cfg.DataDir/index/schedules.db
// and creates the schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.DataDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dbDir, dbFile)+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{db: db, dataDir: cfg.DataDir, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			source_path TEXT,
			course_title TEXT,
			generated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS entries (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			subject TEXT NOT NULL,
			event_name TEXT NOT NULL,
			start_at TEXT NOT NULL,
			end_at TEXT NOT NULL,
			format TEXT,
			weightage TEXT,
			raw_time TEXT,
			time_resolved INTEGER NOT NULL,
			UNIQUE(document_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_document ON entries(document_id)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_start ON entries(start_at)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_event ON entries(event_name)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// IngestSummary holds counts from one ingest run.
type IngestSummary struct {
	Stored  int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of schedule files processed.
func (s IngestSummary) Total() int {
	return s.Stored + s.Updated + s.Skipped + s.Failed
}

// Ingest reads schedule YAML files and saves each one. A file whose
// generated_at matches the stored copy is skipped. Progress lines go to w.
func (s *Store) Ingest(ctx context.Context, paths []string, w io.Writer) (IngestSummary, error) {
	var summary IngestSummary

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		sched, err := LoadScheduleFile(path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", path, err)
			summary.Failed++
			continue
		}

		stored, err := s.generatedAt(ctx, sched.DocumentID)
		if err == nil && stored.Equal(sched.GeneratedAt.UTC().Truncate(time.Second)) {
			fmt.Fprintf(w, "skipped %s\n", sched.DocumentID)
			summary.Skipped++
			continue
		}

		updated, err := s.Save(ctx, sched)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", sched.DocumentID, err)
			summary.Failed++
			continue
		}
		if updated {
			fmt.Fprintf(w, "updated %s (%d entries)\n", sched.DocumentID, len(sched.Entries))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "stored  %s (%d entries)\n", sched.DocumentID, len(sched.Entries))
			summary.Stored++
		}
	}

	fmt.Fprintf(w, "\nstored: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Stored, summary.Updated, summary.Skipped, summary.Failed)
	return summary, nil
}

// Save replaces the stored copy of sched. It reports whether a previous copy
// existed. Entry order is preserved.
func (s *Store) Save(ctx context.Context, sched types.Schedule) (bool, error) {
	if sched.DocumentID == "" {
		return false, fmt.Errorf("schedule has no document_id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var existing int
	if err := tx.QueryRowContext(ctx,
		`SELECT count(*) FROM documents WHERE id = ?`, sched.DocumentID,
	).Scan(&existing); err != nil {
		return false, fmt.Errorf("checking document: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE document_id = ?`, sched.DocumentID); err != nil {
		return false, fmt.Errorf("deleting old entries: %w", err)
	}

	generated := sched.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO documents (id, source_path, course_title, generated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			source_path=excluded.source_path, course_title=excluded.course_title,
			generated_at=excluded.generated_at`,
		sched.DocumentID, sched.SourcePath, sched.CourseTitle,
		generated.UTC().Format(time.RFC3339),
	); err != nil {
		return false, fmt.Errorf("upserting document: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO entries (document_id, seq, subject, event_name, start_at, end_at, format, weightage, raw_time, time_resolved)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return false, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range sched.Entries {
		if _, err := stmt.ExecContext(ctx,
			sched.DocumentID, i, e.Subject, e.EventName, e.Start, e.End,
			e.Format, e.Weightage, e.RawTimeString, e.TimeResolved,
		); err != nil {
			return false, fmt.Errorf("inserting entry %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing: %w", err)
	}
	return existing > 0, nil
}

// Schedule loads the stored schedule for a document with entries in their
// original order. Page outcomes are not persisted.
func (s *Store) Schedule(ctx context.Context, documentID string) (types.Schedule, error) {
	var (
		sched     types.Schedule
		source    sql.NullString
		title     sql.NullString
		generated string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, source_path, course_title, generated_at FROM documents WHERE id = ?`, documentID,
	).Scan(&sched.DocumentID, &source, &title, &generated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Schedule{}, fmt.Errorf("%s: %w", documentID, ErrNotFound)
		}
		return types.Schedule{}, fmt.Errorf("looking up document: %w", err)
	}
	sched.SourcePath = source.String
	sched.CourseTitle = title.String
	sched.GeneratedAt, _ = time.Parse(time.RFC3339, generated)

	results, err := s.Query(ctx, QueryOptions{DocumentID: documentID, MaxResults: exportLimit, documentOrder: true})
	if err != nil {
		return types.Schedule{}, err
	}
	sched.Entries = make([]types.ScheduleEntry, len(results))
	for i, r := range results {
		sched.Entries[i] = r.ScheduleEntry
	}
	return sched, nil
}

// Documents returns the IDs of all stored documents, sorted.
func (s *Store) Documents(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM documents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) generatedAt(ctx context.Context, documentID string) (time.Time, error) {
	var raw string
	if err := s.db.QueryRowContext(ctx,
		`SELECT generated_at FROM documents WHERE id = ?`, documentID,
	).Scan(&raw); err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, raw)
}

// LoadScheduleFile reads a schedule written by the extract command.
func LoadScheduleFile(path string) (types.Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Schedule{}, fmt.Errorf("reading %s: %w", path, err)
	}
	var sched types.Schedule
	if err := yaml.Unmarshal(data, &sched); err != nil {
		return types.Schedule{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if sched.DocumentID == "" {
		return types.Schedule{}, fmt.Errorf("%s: missing document_id", path)
	}
	return sched, nil
}
