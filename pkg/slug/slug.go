// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package slug folds arbitrary Unicode strings into comparable forms.
//
// # Usage
//
// Series names arrive from archive metadata, folder names and user edits in
// many spellings ("Pokémon", "Pokemon"). [Fold] removes the accents so the
// series normalizer can compare them.
package slug

import (
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold decomposes s to NFD, drops combining marks and recomposes to NFC.
//
// Case and punctuation are preserved; only accents are removed
// ("Pokémon: Adventures" → "Pokemon: Adventures").
func Fold(s string) string {
	chain := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(chain, s)
	if err != nil {
		return s
	}
	return result
}
