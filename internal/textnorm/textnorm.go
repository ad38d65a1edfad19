// Package textnorm folds free text into comparison keys.
package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Key lowercases s, repairs latin1 mojibake, strips diacritics and collapses whitespace.
// "  Araés " and "ARAÃ©S" both become "araes".
func Key(s string) string {
	s = strings.ToLower(strings.TrimSpace(RepairMojibake(s)))
	s = StripAccents(s)
	return strings.Join(strings.Fields(s), " ")
}

// StripAccents removes combining marks after compatibility decomposition.
func StripAccents(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// RepairMojibake undoes UTF-8 text that was decoded as latin1.
// Text that does not round-trip is returned unchanged.
func RepairMojibake(s string) string {
	if s == "" || isASCII(s) {
		return s
	}
	raw, err := charmap.ISO8859_1.NewEncoder().String(s)
	if err != nil || !utf8.ValidString(raw) || raw == s {
		return s
	}
	return raw
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
