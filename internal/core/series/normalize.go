// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package series

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/RolldeoDev/Helixio-sub007/pkg/slug"
)

var (
	// leadingArticle matches a leading "the " prefix.
	leadingArticle = regexp.MustCompile(`^the\s+`)
	// trailingParenthetical matches a trailing "(2018)" or "(Volume 2)" annotation.
	trailingParenthetical = regexp.MustCompile(`\s*\([^()]*\)$`)
	// trailingVolume matches a trailing "volume 2", "vol. 2" or "vol 2" suffix.
	trailingVolume = regexp.MustCompile(`(?:^|\s+)(?:volume|vol\.?)\s*\d+$`)
	// whitespaceRun collapses consecutive whitespace.
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// Normalize reduces a series name to its comparison form.
//
// # Transformation Pipeline
//
//  1. Folds accents and lowercases, trims.
//  2. Strips a leading "the ".
//  3. Strips a trailing parenthetical.
//  4. Strips a trailing "volume N" / "vol. N".
//  5. Collapses internal whitespace.
//  6. Drops every rune that is not a letter, digit or whitespace.
//
// Normalize("The Amazing Spider-Man (2018)") == Normalize("Amazing Spider-Man").
func Normalize(name string) string {
	normalized := strings.TrimSpace(strings.ToLower(slug.Fold(name)))
	normalized = leadingArticle.ReplaceAllString(normalized, "")
	normalized = strings.TrimSpace(trailingParenthetical.ReplaceAllString(normalized, ""))
	normalized = strings.TrimSpace(trailingVolume.ReplaceAllString(normalized, ""))
	normalized = whitespaceRun.ReplaceAllString(normalized, " ")

	normalized = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, normalized)

	// Removing punctuation can leave doubled spaces ("batman - year one").
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(normalized, " "))
}

// IdentityKey is the case-insensitive form of a name or publisher used by the
// identity invariant. Absent publishers map to the empty key.
func IdentityKey(value string) string {
	return strings.ToLower(strings.Join(strings.Fields(value), " "))
}

// identity is the (name, publisher) pair that must be unique among Active series.
type identity struct {
	name      string
	publisher string
}

// identityOf builds the identity pair for a raw name and publisher.
func identityOf(name, publisher string) identity {
	return identity{name: IdentityKey(name), publisher: IdentityKey(publisher)}
}
