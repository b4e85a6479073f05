package utils

import (
	"strings"
)

// NormalizeMatchTerm canonicalizes a free-text value for matching: trimmed,
// inner whitespace collapsed, lowercased. Every string comparison in the
// rule matcher goes through this function so region and city matching stay
// case- and whitespace-insensitive.
func NormalizeMatchTerm(value string) string {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	if trimmed == "" {
		return ""
	}
	return strings.Join(strings.Fields(trimmed), " ")
}

// MatchTermsEqual reports whether two free-text values are equal under
// match normalization.
func MatchTermsEqual(a, b string) bool {
	return NormalizeMatchTerm(a) == NormalizeMatchTerm(b)
}

// ContainsMatchTerm reports whether needle appears in haystack under match
// normalization.
func ContainsMatchTerm(haystack []string, needle string) bool {
	normalized := NormalizeMatchTerm(needle)
	for _, candidate := range haystack {
		if NormalizeMatchTerm(candidate) == normalized {
			return true
		}
	}
	return false
}
