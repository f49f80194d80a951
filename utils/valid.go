// utils/valid.go
package utils

import (
	"strings"
	"unicode"
)

// CleanText trims input and strips control characters. Newlines and tabs survive
// so multi-line descriptions keep their layout.
func CleanText(input string) string {
	input = strings.TrimSpace(input)
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, input)
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
