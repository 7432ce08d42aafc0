// Package slug builds URL-safe identifiers from titles and names.
package slug

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLength is the longest slug Make produces.
const MaxLength = 80

var (
	separators      = regexp.MustCompile(`[\s\-_./]+`)
	nonAlphaNumeric = regexp.MustCompile(`[^a-z0-9\-]`)
	multipleHyphens = regexp.MustCompile(`-+`)
	validSlug       = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

	ligatures = strings.NewReplacer("ß", "ss", "æ", "ae", "ø", "o", "œ", "oe", "ł", "l", "đ", "d")
)

// Make lowercases s, folds diacritics to their base letters, joins words with
// single hyphens and drops every other character. The result may be empty.
func Make(s string) string {
	s = strings.ToLower(s)
	s = ligatures.Replace(s)
	s = removeMarks(s)

	s = separators.ReplaceAllString(s, "-")
	s = nonAlphaNumeric.ReplaceAllString(s, "")
	s = multipleHyphens.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if len(s) > MaxLength {
		s = strings.TrimRight(s[:MaxLength], "-")
	}
	return s
}

// WithSuffix appends -n to base, shortening base so the result stays within MaxLength.
func WithSuffix(base string, n int) string {
	suffix := "-" + strconv.Itoa(n)
	if len(base)+len(suffix) > MaxLength {
		base = strings.TrimRight(base[:MaxLength-len(suffix)], "-")
	}
	return base + suffix
}

// Valid reports whether s is a well formed slug.
func Valid(s string) bool {
	return len(s) <= MaxLength && validSlug.MatchString(s)
}

func removeMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
