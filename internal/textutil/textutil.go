// Package textutil has small text-formatting helpers shared by the logging
// call sites across the proxy.
package textutil

import (
	"strings"
	"unicode/utf8"
)

// ShortText truncates s to at most maxLen bytes, trimming back to the last
// valid UTF-8 boundary if the cut lands inside a multi-byte rune.
func ShortText(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}

	if utf8.ValidString(s[:maxLen]) {
		return s[:maxLen]
	}

	return strings.ToValidUTF8(s[:maxLen], "")
}
