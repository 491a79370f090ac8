// Copyright (c) 2026 PMDCollab. All rights reserved.

/*
Package fold reduces Unicode strings to lowercase lookup keys with accents
removed.

It handles accent removal (normalization) and lowercasing, ensuring that
monster names like "Flabébé" match queries typed as "flabebe".

Transformation Pipeline:

 1. NFD Normalization: Decomposes accented chars (é -> e + accent).
 2. Accent Stripping: Removes combining marks.
 3. Lowercasing: Ensures key uniformity.

Keys produced here back the fuzzy search indexes.
*/
package fold

import (
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Key converts an arbitrary Unicode string into a lowercase key with
// combining marks removed. Characters that do not decompose into a base
// letter plus marks (e.g. "♀") are kept, so the key is not always ASCII.
func Key(s string) string {

	// 1. Normalize and remove accents (e.g. "é" becomes "e")
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn))
	result, _, err := transform.String(t, s)
	if err != nil {
		result = s
	}

	// 2. Convert to lowercase for uniformity
	return strings.ToLower(result)
}

// isMn reports whether r is a Unicode non-spacing mark (e.g. accents).
func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
