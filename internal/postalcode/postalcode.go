// Package postalcode normalizes Brazilian postal codes (CEP).
package postalcode

import "strings"

// Length is the number of digits in a normalized CEP
const Length = 8

// Normalize removes every character that is not an ASCII decimal digit
// "01310-100" -> "01310100", "abc" -> ""
func Normalize(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for i := 0; i < len(input); i++ {
		c := input[i]
		if c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Format renders a normalized code with the usual mask (01310-100)
// Anything that is not 8 digits is returned unchanged
func Format(code string) string {
	if len(code) != Length || Normalize(code) != code {
		return code
	}
	return code[:5] + "-" + code[5:]
}
