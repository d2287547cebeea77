// Package text holds small string helpers shared by the notifiers.
package text

import "unicode/utf8"

const ellipsis = "..."

// Truncate caps s at max bytes including the ellipsis without splitting a
// UTF-8 sequence. max <= 0 disables the cap.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= len(ellipsis) {
		return ellipsis[:max]
	}
	cut := max - len(ellipsis)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + ellipsis
}
