// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pdiddy/exam-schedule/pkg/types"
)

// QueryOptions holds filters for schedule queries. Empty fields match all.
type QueryOptions struct {
	// DocumentID restricts results to one handout.
	DocumentID string

	// Subject matches the entry's display label, case-insensitive substring.
	Subject string

	// Event matches the canonical event name, case-insensitive substring.
	Event string

	// From and To bound the entry start date (YYYY-MM-DD, inclusive).
	From string
	To   string

	// Unresolved keeps only entries whose time could not be determined.
	Unresolved bool

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int

	// documentOrder sorts by original position instead of start time.
	documentOrder bool
}

// QueryResult is a stored entry with its document context.
type QueryResult struct {
	types.ScheduleEntry
	DocumentID  string `json:"document_id" yaml:"document_id"`
	CourseTitle string `json:"course_title,omitempty" yaml:"course_title,omitempty"`
}

// Query returns stored entries matching opts, ordered by start time and then
// by document and original position.
func (s *Store) Query(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(
		`SELECT e.document_id, e.subject, e.event_name, e.start_at, e.end_at,
			e.format, e.weightage, e.raw_time, e.time_resolved, d.course_title
		FROM entries e
		JOIN documents d ON d.id = e.document_id
		WHERE 1=1`)

	if opts.DocumentID != "" {
		qb.WriteString(` AND e.document_id = ?`)
		args = append(args, opts.DocumentID)
	}
	if opts.Subject != "" {
		qb.WriteString(` AND lower(e.subject) LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(opts.Subject))
	}
	if opts.Event != "" {
		qb.WriteString(` AND lower(e.event_name) LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(opts.Event))
	}
	if opts.From != "" {
		qb.WriteString(` AND substr(e.start_at, 1, 10) >= ?`)
		args = append(args, opts.From)
	}
	if opts.To != "" {
		qb.WriteString(` AND substr(e.start_at, 1, 10) <= ?`)
		args = append(args, opts.To)
	}
	if opts.Unresolved {
		qb.WriteString(` AND e.time_resolved = 0`)
	}

	if opts.documentOrder {
		qb.WriteString(` ORDER BY e.document_id, e.seq`)
	} else {
		qb.WriteString(` ORDER BY e.start_at, e.document_id, e.seq`)
	}
	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying schedules: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var (
			qr        QueryResult
			format    sql.NullString
			weightage sql.NullString
			rawTime   sql.NullString
			title     sql.NullString
		)
		if err := rows.Scan(
			&qr.DocumentID, &qr.Subject, &qr.EventName, &qr.Start, &qr.End,
			&format, &weightage, &rawTime, &qr.TimeResolved, &title,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		qr.Format = format.String
		qr.Weightage = weightage.String
		qr.RawTimeString = rawTime.String
		qr.CourseTitle = title.String
		results = append(results, qr)
	}
	return results, rows.Err()
}

// likePattern builds a LIKE argument for a lowercase substring match.
// LIKE wildcards in the needle are matched literally.
func likePattern(needle string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(needle)) + "%"
}
