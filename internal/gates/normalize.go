package gates

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize prepares text for containment and name matching: NFC
// normalization, lowercasing, and whitespace collapse. Evidence snippets and
// source text must go through the same path or containment checks drift.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}

// containsNormalized reports whether needle appears in haystack after both
// are normalized. An empty needle never matches: a relation whose evidence
// snippet is blank has no verifiable claim.
func containsNormalized(haystack, needle string) bool {
	n := Normalize(needle)
	if n == "" {
		return false
	}
	return strings.Contains(Normalize(haystack), n)
}
