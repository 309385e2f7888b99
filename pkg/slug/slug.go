// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package slug turns romanized manga titles into ASCII URL slugs.
//
// Accents are stripped after NFD decomposition. Letters that do not decompose
// (đ, ß, ø and friends) are transliterated first. Scripts with no Latin
// reading, such as kana or hangul, drop out entirely, so a title written only
// in them yields "".
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLength caps a slug. Longer results are cut at the last hyphen that fits.
const MaxLength = 96

var transliterations = strings.NewReplacer(
	"đ", "d", "Đ", "d",
	"ß", "ss",
	"æ", "ae", "Æ", "ae",
	"œ", "oe", "Œ", "oe",
	"ø", "o", "Ø", "o",
	"ł", "l", "Ł", "l",
	"×", "x",
	"&", " and ",
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// From converts s into a lowercase slug of [a-z0-9] runs joined by single
// hyphens.
func From(s string) string {
	folded, _, err := transform.String(stripMarks, transliterations.Replace(s))
	if err != nil {
		folded = s
	}

	var builder strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && builder.Len() > 0 {
				builder.WriteByte('-')
			}
			builder.WriteRune(r)
			pendingHyphen = false
			continue
		}
		pendingHyphen = true
	}

	return truncate(builder.String())
}

func truncate(slug string) string {
	if len(slug) <= MaxLength {
		return slug
	}
	cut := slug[:MaxLength]
	if i := strings.LastIndexByte(cut, '-'); i > 0 {
		return cut[:i]
	}
	return cut
}
