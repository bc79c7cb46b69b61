package tags

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// letters with no canonical decomposition
var foldReplacer = strings.NewReplacer(
	"ß", "ss", "ẞ", "SS",
	"ø", "o", "Ø", "O",
	"æ", "ae", "Æ", "AE",
	"œ", "oe", "Œ", "OE",
	"ł", "l", "Ł", "L",
	"đ", "d", "Đ", "D",
	"ð", "d", "Ð", "D",
	"þ", "th", "Þ", "TH",
	"ı", "i",
)

// StripAccents removes diacritics from s, keeping case.
// "Crédit Agricole" becomes "Credit Agricole".
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return foldReplacer.Replace(out)
}

// Autogenerate derives a tag from a display name: diacritics stripped,
// lower-cased, whitespace runs collapsed to underscores and everything
// outside [a-z0-9_] dropped. The result may be empty.
func Autogenerate(name string) string {
	s := strings.ToLower(StripAccents(name))
	s = strings.Join(strings.Fields(s), "_")
	return keep(s, func(r rune) bool {
		return r == '_' || isAlnum(r)
	})
}

// NormalizeAlias folds a name into the form used for alias sets and
// preferred-name matching: lower-cased, diacritics stripped, punctuation
// removed, whitespace collapsed. "  Banco Santander! " becomes
// "banco santander".
func NormalizeAlias(name string) string {
	s := strings.ToLower(StripAccents(strings.TrimSpace(name)))
	s = keep(s, func(r rune) bool {
		return r == ' ' || isAlnum(r)
	})
	return strings.Join(strings.Fields(s), " ")
}

// Clean trims and lower-cases a tag supplied by a source.
func Clean(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}

func keep(s string, fn func(rune) bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if fn(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
