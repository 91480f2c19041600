package util

import "strings"

// Tokenize lowercases text and splits it into alphanumeric tokens.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z':
			return false
		case r >= '0' && r <= '9':
			return false
		default:
			return true
		}
	})
}

// TokenSet returns the set of distinct tokens in text.
func TokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range Tokenize(text) {
		set[tok] = struct{}{}
	}
	return set
}

// JaccardSimilarity measures token-set overlap between two texts in [0,1].
// Two empty texts are considered identical.
func JaccardSimilarity(a, b string) float64 {
	setA := TokenSet(a)
	setB := TokenSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 1
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	intersection := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

// NormalizeQuery canonicalizes free text into a stable cache-key form:
// lowercased tokens joined by single spaces.
func NormalizeQuery(text string) string {
	return strings.Join(Tokenize(text), " ")
}
