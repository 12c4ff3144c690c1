package survey

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalizer turns a raw region name into a GroupKey.
type Normalizer func(string) string

// StripSpace removes every whitespace rune (e.g. "Nuwara Eliya" -> "NuwaraEliya").
func StripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// StripSpaceNFC strips whitespace and composes to NFC, so decomposed and
// precomposed accents produce the same key.
func StripSpaceNFC(s string) string {
	return norm.NFC.String(StripSpace(s))
}

// NormalizeNone returns the name unchanged.
func NormalizeNone(s string) string {
	return s
}

// GetNormalizer returns the normalizer for the given mode.
// Default is strip_spaces.
func GetNormalizer(mode string) Normalizer {
	switch mode {
	case "strip_spaces_nfc":
		return StripSpaceNFC
	case "none":
		return NormalizeNone
	default:
		return StripSpace
	}
}
