package service

import (
	"strings"

	"golang.org/x/text/cases"
)

// Matching is case-insensitive through full Unicode case folding, independent
// of whatever collation the database uses.

// fold returns the case-folded form of s. cases.Caser is stateful, so a fresh
// one is built per call to stay safe for concurrent use.
func fold(s string) string {
	return cases.Fold().String(s)
}

// IsExactMatch reports whether field equals query ignoring case.
func IsExactMatch(field *string, query string) bool {
	return matchFolded(field, MatchExact, fold(query))
}

// IsPrefixMatch reports whether field starts with query ignoring case.
func IsPrefixMatch(field *string, query string) bool {
	return matchFolded(field, MatchPrefix, fold(query))
}

// IsContainsMatch reports whether field contains query ignoring case.
func IsContainsMatch(field *string, query string) bool {
	return matchFolded(field, MatchContains, fold(query))
}

// matchFolded compares field against a query that is already case-folded.
func matchFolded(field *string, mode MatchMode, folded string) bool {
	if field == nil || *field == "" {
		return false
	}
	value := fold(*field)
	switch mode {
	case MatchExact:
		return value == folded
	case MatchPrefix:
		return strings.HasPrefix(value, folded)
	default:
		return strings.Contains(value, folded)
	}
}

// ParseBoolLoose interprets "true", "1" and "yes" (any case) as true and
// everything else as false.
func ParseBoolLoose(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}
