// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"strings"

	"github.com/pdiddy/exam-schedule/internal/normalize"
	"github.com/pdiddy/exam-schedule/pkg/types"
)

// MatchKind names the join key that paired a temporal record with metadata.
type MatchKind string

const (
	MatchStrict    MatchKind = "strict"
	MatchLoose     MatchKind = "loose"
	MatchStripped  MatchKind = "stripped"
	MatchSubstring MatchKind = "substring"
	MatchNone      MatchKind = "none"
)

// strippedFragments are removed in order to build the stripped key, so
// "Comprehensive", "Comprehensive Examination", and "Compre-Exam" land in the
// same bucket.
var strippedFragments = []string{"exam", "ination", "-"}

// JoinKey holds the three keys a record can be matched under.
type JoinKey struct {
	// Strict is "subject|event"; empty when the record names no subject.
	Strict string
	// Loose is the lower-cased canonical event name.
	Loose string
	// Stripped is Loose with strippedFragments removed.
	Stripped string
}

// NewJoinKey builds the join key for a subject and a raw event name.
func NewJoinKey(subject, event string) JoinKey {
	loose := strings.ToLower(normalize.CanonicalizeEvent(event))
	k := JoinKey{Loose: loose, Stripped: strip(loose)}
	if sub := normalize.CanonicalizeSubject(subject); sub != "" {
		k.Strict = sub + "|" + loose
	}
	return k
}

func strip(s string) string {
	for _, f := range strippedFragments {
		s = strings.ReplaceAll(s, f, "")
	}
	return strings.Join(strings.Fields(s), " ")
}

// MetadataIndex looks metadata records up by join key. Later records
// overwrite earlier ones under a colliding key.
type MetadataIndex struct {
	strict   map[string]types.MetadataRecord
	loose    map[string]types.MetadataRecord
	stripped map[string]types.MetadataRecord
	// order lists loose keys by first insertion for the substring scan.
	order []string
}

// NewMetadataIndex indexes records under every key they produce.
func NewMetadataIndex(records []types.MetadataRecord) *MetadataIndex {
	idx := &MetadataIndex{
		strict:   make(map[string]types.MetadataRecord),
		loose:    make(map[string]types.MetadataRecord),
		stripped: make(map[string]types.MetadataRecord),
	}
	for _, r := range records {
		k := NewJoinKey(r.SubjectName, r.EventName)
		if k.Strict != "" {
			idx.strict[k.Strict] = r
		}
		if k.Loose != "" {
			if _, seen := idx.loose[k.Loose]; !seen {
				idx.order = append(idx.order, k.Loose)
			}
			idx.loose[k.Loose] = r
		}
		if k.Stripped != "" {
			idx.stripped[k.Stripped] = r
		}
	}
	return idx
}

// Len reports the number of distinct loose keys.
func (idx *MetadataIndex) Len() int { return len(idx.order) }

// Lookup finds metadata for k in precedence order: strict, loose, stripped,
// then a substring scan over loose keys in either direction. The scan runs
// only when subjectAware is false, since a record that names its subject
// should not borrow another course's metadata.
func (idx *MetadataIndex) Lookup(k JoinKey, subjectAware bool) (types.MetadataRecord, MatchKind) {
	if k.Strict != "" {
		if r, ok := idx.strict[k.Strict]; ok {
			return r, MatchStrict
		}
	}
	if k.Loose != "" {
		if r, ok := idx.loose[k.Loose]; ok {
			return r, MatchLoose
		}
	}
	if k.Stripped != "" {
		if r, ok := idx.stripped[k.Stripped]; ok {
			return r, MatchStripped
		}
	}
	if subjectAware || k.Loose == "" {
		return types.MetadataRecord{}, MatchNone
	}
	for _, key := range idx.order {
		if strings.Contains(key, k.Loose) || strings.Contains(k.Loose, key) {
			return idx.loose[key], MatchSubstring
		}
	}
	return types.MetadataRecord{}, MatchNone
}
