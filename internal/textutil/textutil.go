// Package textutil provides token-level text helpers for feature
// extraction.
package textutil

import (
	"strings"
	"unicode"
)

// Normalize lowercases text and collapses runs of whitespace.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// Shape maps a token to its character-class shape with repeated classes
// collapsed: "McDonald's" becomes "XxXx'x", "1,234" becomes "d,d".
func Shape(token string) string {
	var b strings.Builder
	var last rune
	for _, r := range token {
		var c rune
		switch {
		case unicode.IsUpper(r):
			c = 'X'
		case unicode.IsLower(r):
			c = 'x'
		case unicode.IsDigit(r):
			c = 'd'
		default:
			c = r
		}
		if c != last || !isClass(c) {
			b.WriteRune(c)
		}
		last = c
	}
	return b.String()
}

func isClass(c rune) bool {
	return c == 'X' || c == 'x' || c == 'd'
}

// Prefixes returns the rune prefixes of token up to maxLen.
func Prefixes(token string, maxLen int) []string {
	runes := []rune(token)
	var res []string
	for n := 1; n <= maxLen && n <= len(runes); n++ {
		res = append(res, string(runes[:n]))
	}
	return res
}

// Suffixes returns the rune suffixes of token up to maxLen.
func Suffixes(token string, maxLen int) []string {
	runes := []rune(token)
	var res []string
	for n := 1; n <= maxLen && n <= len(runes); n++ {
		res = append(res, string(runes[len(runes)-n:]))
	}
	return res
}

// HasDigit reports whether the token contains a digit.
func HasDigit(token string) bool {
	return strings.IndexFunc(token, unicode.IsDigit) >= 0
}

// HasHyphen reports whether the token contains a hyphen.
func HasHyphen(token string) bool {
	return strings.ContainsRune(token, '-')
}

// IsCapitalized reports whether the token starts with an uppercase rune.
func IsCapitalized(token string) bool {
	for _, r := range token {
		return unicode.IsUpper(r)
	}
	return false
}

// IsAllCaps reports whether the token has uppercase runes and no lowercase
// ones.
func IsAllCaps(token string) bool {
	hasUpper := false
	for _, r := range token {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			hasUpper = true
		}
	}
	return hasUpper
}
