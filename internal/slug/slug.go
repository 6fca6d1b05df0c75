// Package slug derives stable URL-safe identifiers for agency records.
package slug

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	nonWordRe    = regexp.MustCompile(`[^a-z0-9-]`)
	multiDashRe  = regexp.MustCompile(`-{2,}`)

	// foldAccents strips combining marks so accented Latin input (French
	// agency names, transliterated Arabic) survives the non-word strip.
	foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Slugify lowercases, trims, folds accents, turns whitespace runs into single
// hyphens, strips the remaining non-word runes, collapses repeated hyphens
// and trims leading/trailing ones. Idempotent.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if folded, _, err := transform.String(foldAccents, s); err == nil {
		s = folded
	}
	s = whitespaceRe.ReplaceAllString(s, "-")
	s = nonWordRe.ReplaceAllString(s, "")
	s = multiDashRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Build returns the display slug for an agency: the slugified name (or
// "agency-<index>" when the name slugifies to nothing) suffixed with the last
// 6 characters of the external id, or the ordinal index when there is none.
// The suffix keeps records sharing a base name unique within a city.
func Build(name, externalID string, index int) string {
	base := Slugify(name)
	if base == "" {
		base = fmt.Sprintf("agency-%d", index)
	}

	suffix := fmt.Sprintf("%d", index)
	if externalID != "" {
		suffix = IDSuffix(externalID)
	}
	return base + "-" + strings.ToLower(suffix)
}

// IDSuffix returns the last 6 characters of an external id (the whole id when
// shorter). Used both for slug construction and for the historical-slug
// fallback when resolving renamed slugs.
func IDSuffix(externalID string) string {
	if len(externalID) <= 6 {
		return externalID
	}
	return externalID[len(externalID)-6:]
}
