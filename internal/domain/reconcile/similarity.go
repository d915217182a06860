package reconcile

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// DescriptionSimilarity scores two bank descriptions in [0,1]. Bank-provided
// text is frequently abbreviated or reordered relative to the original
// record, so the score is the better of a token-overlap measure (order
// insensitive) and a normalized Levenshtein similarity (typo tolerant).
// Case and Spanish diacritics are folded before comparison.
func DescriptionSimilarity(a, b string) float64 {
	na := normalizeDescription(a)
	nb := normalizeDescription(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}

	overlap := tokenOverlap(strings.Fields(na), strings.Fields(nb))

	maxLen := len(na)
	if len(nb) > maxLen {
		maxLen = len(nb)
	}
	distance := fuzzy.LevenshteinDistance(na, nb)
	levenshtein := 1 - float64(distance)/float64(maxLen)
	if levenshtein < 0 {
		levenshtein = 0
	}

	if overlap > levenshtein {
		return overlap
	}
	return levenshtein
}

// tokenOverlap is the shared distinct-token count over the smaller token
// set, so a short bank glosa fully contained in a longer description scores 1.
func tokenOverlap(a, b []string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	shared := 0
	for tok := range setA {
		if setB[tok] {
			shared++
		}
	}

	smaller := len(setA)
	if len(setB) < smaller {
		smaller = len(setB)
	}
	return float64(shared) / float64(smaller)
}

func tokenSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		set[tok] = true
	}
	return set
}

var diacriticFolder = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n",
)

// normalizeDescription lowercases, folds diacritics and keeps only
// alphanumeric tokens separated by single spaces.
func normalizeDescription(s string) string {
	s = diacriticFolder.Replace(strings.ToLower(s))
	var b strings.Builder
	lastSpace := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}
