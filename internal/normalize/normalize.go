// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize canonicalizes course subjects and assessment event names
// so that independently extracted records can be compared.
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Canonical event labels.
const (
	ComprehensiveExam = "Comprehensive Exam"
	MidSemExam        = "MidSem Exam"
)

// Rule maps any of its trigger substrings to a canonical label. Triggers are
// matched case-insensitively anywhere in the name.
type Rule struct {
	Label    string
	Triggers []string
}

// Matches reports whether the lower-cased name contains any trigger.
func (r Rule) Matches(lower string) bool {
	for _, t := range r.Triggers {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

// Rules is evaluated in order; the first matching rule wins. New categories
// are added by appending a Rule.
//
// Matching is unanchored, so names that merely contain a trigger are caught
// too: "Quiz before midsem" becomes MidSem Exam and "Pre-Compre Quiz" becomes
// Comprehensive Exam.
var Rules = []Rule{
	{Label: ComprehensiveExam, Triggers: []string{"compre", "final exam", "end sem", "finals"}},
	{Label: MidSemExam, Triggers: []string{"midsem", "mid-sem", "mid sem"}},
}

// CanonicalizeEvent returns the canonical label for an event name, or the
// name title-cased when no rule applies. It is idempotent.
func CanonicalizeEvent(raw string) string {
	lower := strings.ToLower(strings.TrimSpace(raw))
	for _, r := range Rules {
		if r.Matches(lower) {
			return r.Label
		}
	}
	return TitleCase(strings.TrimSpace(raw))
}

// CanonicalizeSubject lower-cases a course name and drops everything from the
// first parenthesis on, so "Database Systems (CS F212)" becomes
// "database systems".
func CanonicalizeSubject(raw string) string {
	s := strings.ToLower(raw)
	if i := strings.IndexByte(s, '('); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// IsComprehensive reports whether a canonical event name denotes a
// comprehensive or final exam.
func IsComprehensive(canonical string) bool {
	return CanonicalizeEvent(canonical) == ComprehensiveExam
}

// TitleCase upper-cases the first letter of each word and lower-cases the rest.
func TitleCase(s string) string {
	// cases.Caser keeps state between calls, so each call gets its own.
	return cases.Title(language.Und).String(s)
}
