// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve turns raw exam date and time strings into concrete
// start/end timestamps using campus scheduling conventions.
package resolve

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/exam-schedule/internal/normalize"
)

// Sentinel is returned in place of a start timestamp when no time could be
// determined.
const Sentinel = "Time not found"

// TimestampLayout is the local ISO-8601 form used for all windows.
const TimestampLayout = "2006-01-02T15:04:05"

// DateLayout is the ISO date form a parsed date is rendered in.
const DateLayout = "2006-01-02"

const clockLayout = "15:04:05"

// ExamDuration is the standard written-exam length added to a start time.
const ExamDuration = 90 * time.Minute

// dateLayouts are tried in order. Day always precedes month; Go's
// non-padded verbs accept one- or two-digit values.
var dateLayouts = []string{
	"2/1/2006",
	"2-1-2006",
	"2/1/06",
	"2-1-06",
	"2.1.2006",
	"2006-1-2",
	"2-Jan-2006",
}

// Session codes used by comprehensive exams. A code must stand as its own
// word, so "ANNOUNCED" is not an afternoon session.
var sessions = []struct {
	code       *regexp.Regexp
	start, end int
}{
	{regexp.MustCompile(`\bFN\b`), 10, 13},
	{regexp.MustCompile(`\bAN\b`), 14, 17},
}

var (
	clockRe = regexp.MustCompile(`(\d{1,2})(?::(\d{2}))?`)
	amRe    = regexp.MustCompile(`(?:^|[^A-Z])A\.?M\b`)
	pmRe    = regexp.MustCompile(`(?:^|[^A-Z])P\.?M\b`)
)

// Window is the structured form of a resolution.
type Window struct {
	// Start and End carry the clock. When DateKnown is false they sit on
	// the zero date and only their time of day is meaningful.
	Start    time.Time
	End      time.Time
	Resolved bool
	// DateKnown reports whether the raw date matched a known layout.
	DateKnown bool
	// Date is the ISO date when the raw date parsed, otherwise the trimmed
	// raw date.
	Date string
}

// ParseDate parses a raw date against the known layouts.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders a parsed date as YYYY-MM-DD.
func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}

// ResolveWindow resolves a raw date and time for a canonical event name.
// An unparsed date is not a failure: the clock rules still apply and the
// raw date is carried through as the date part.
func ResolveWindow(dateRaw, timeRaw, canonicalEvent string) Window {
	w := Window{Date: strings.TrimSpace(dateRaw)}
	d, ok := ParseDate(dateRaw)
	if ok {
		w.Date = FormatDate(d)
		w.DateKnown = true
	}

	clock := strings.ToUpper(strings.TrimSpace(timeRaw))

	if normalize.IsComprehensive(canonicalEvent) {
		for _, s := range sessions {
			if s.code.MatchString(clock) {
				w.Start = at(d, s.start, 0)
				w.End = at(d, s.end, 0)
				w.Resolved = true
				return w
			}
		}
	}

	hour, minute, ok := parseClock(clock)
	if !ok {
		return w
	}
	w.Start = at(d, hour, minute)
	w.End = w.Start.Add(ExamDuration)
	w.Resolved = true
	return w
}

// Timestamps renders the window as ISO start and end strings. An unresolved
// window yields Sentinel and the date. With an unparsed date the raw date is
// used as the date part and an end past midnight is held at 23:59:59.
func (w Window) Timestamps() (start, end string) {
	if !w.Resolved {
		return Sentinel, w.Date
	}
	if w.DateKnown {
		return w.Start.Format(TimestampLayout), w.End.Format(TimestampLayout)
	}
	start = w.Date + "T" + w.Start.Format(clockLayout)
	if w.End.YearDay() != w.Start.YearDay() || w.End.Year() != w.Start.Year() {
		return start, w.Date + "T23:59:59"
	}
	return start, w.Date + "T" + w.End.Format(clockLayout)
}

// Resolve returns ISO start and end timestamps. When no time can be
// determined the start is Sentinel and the end is the resolved (or
// passed-through) date.
func Resolve(dateRaw, timeRaw, canonicalEvent string) (start, end string) {
	return ResolveWindow(dateRaw, timeRaw, canonicalEvent).Timestamps()
}

// AllDay expands a date into the placeholder window used for entries whose
// time is unknown.
func AllDay(date string) (start, end string) {
	return date + "T00:00:00", date + "T23:59:59"
}

// parseClock reads the first hour[:minute] token of an upper-cased time
// string and applies the AM/PM rules: 8-11 stay as morning hours, 12 stays
// noon unless marked AM, and anything else moves to the afternoon only with
// a PM marker.
func parseClock(clock string) (hour, minute int, ok bool) {
	m := clockRe.FindStringSubmatch(clock)
	if m == nil {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	if m[2] != "" {
		if minute, err = strconv.Atoi(m[2]); err != nil {
			return 0, 0, false
		}
	}

	isPM := pmRe.MatchString(clock)
	isAM := amRe.MatchString(clock)

	switch {
	case hour >= 8 && hour <= 11:
	case hour == 12:
		if isAM {
			hour = 0
		}
	case isPM:
		hour += 12
	}

	if hour > 23 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}

func at(d time.Time, hour, minute int) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, time.UTC)
}
