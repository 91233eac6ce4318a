package search

import (
	"sort"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

const (
	minPrefixRunes = 2
	maxPrefixRunes = 24
)

// Tokens splits s into lowercase runs of letters and digits.
func Tokens(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]struct{}, len(fields))
	out := fields[:0]
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// IndexTerms returns the tokens of every field plus their prefixes, so a
// partially typed query still matches.
func IndexTerms(fields ...string) []string {
	set := make(map[string]struct{})
	for _, field := range fields {
		for _, tok := range Tokens(field) {
			set[tok] = struct{}{}
			runes := []rune(tok)
			limit := min(len(runes)-1, maxPrefixRunes)
			for n := minPrefixRunes; n <= limit; n++ {
				set[string(runes[:n])] = struct{}{}
			}
		}
	}

	terms := make([]string, 0, len(set))
	for t := range set {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}

// rank orders ids by number of matched terms, then by id, and cuts to limit.
func rank(hits map[uuid.UUID]int, limit int) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(hits))
	for id := range hits {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if hits[ids[i]] != hits[ids[j]] {
			return hits[ids[i]] > hits[ids[j]]
		}
		return ids[i].String() < ids[j].String()
	})
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids
}
