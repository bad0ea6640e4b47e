// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package series

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// minWordLength excludes short connectors ("of", "an") from word matching.
const minWordLength = 3

/*
QuickSimilarity scores two names in [0, 1] without a distance matrix.

Description: Used on the live per-file matching path where the candidate pool
can be the whole catalogue. After normalisation, identical names score 1.
Otherwise the score accumulates the longest common prefix, the longest common
suffix not overlapping that prefix, and the length of every distinct word
longer than two runes that appears in both names, divided by the longer name.

Parameters:
  - a: string
  - b: string

Returns:
  - float64: Symmetric score, 1 for identical inputs
*/
func QuickSimilarity(a, b string) float64 {
	left, right := []rune(Normalize(a)), []rune(Normalize(b))
	if string(left) == string(right) {
		return 1
	}

	longest := max(len(left), len(right))
	if longest == 0 {
		return 1
	}

	// Common prefix
	shortest := min(len(left), len(right))
	prefix := 0
	for prefix < shortest && left[prefix] == right[prefix] {
		prefix++
	}

	// Common suffix, bounded so it never reuses prefix runes
	suffix := 0
	for suffix < shortest-prefix && left[len(left)-1-suffix] == right[len(right)-1-suffix] {
		suffix++
	}

	// Shared whole words
	words := 0
	rightWords := wordSet(string(right))
	for word := range wordSet(string(left)) {
		if _, shared := rightWords[word]; shared {
			words += utf8.RuneCountInString(word)
		}
	}

	return min(1, float64(prefix+suffix+words)/float64(longest))
}

/*
EditSimilarity scores two names in [0, 1] from their Levenshtein distance.

Description: Used by the offline duplicate detector, which compares every pair
of the catalogue outside the request path. The score is
1 - distance / max(len(a), len(b)) over the normalised names; two empty names
score 1.

Parameters:
  - a: string
  - b: string

Returns:
  - float64: Symmetric score, 1 for identical inputs
*/
func EditSimilarity(a, b string) float64 {
	return editSimilarityNormalized(Normalize(a), Normalize(b))
}

// editSimilarityNormalized scores names that were already normalised.
func editSimilarityNormalized(left, right string) float64 {
	longest := max(utf8.RuneCountInString(left), utf8.RuneCountInString(right))
	if longest == 0 {
		return 1
	}

	distance := levenshtein.ComputeDistance(left, right)
	return 1 - float64(distance)/float64(longest)
}

// wordSet returns the distinct words of a normalised name long enough to count.
func wordSet(normalized string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, word := range strings.Fields(normalized) {
		if utf8.RuneCountInString(word) >= minWordLength {
			words[word] = struct{}{}
		}
	}
	return words
}
