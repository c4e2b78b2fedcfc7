// Package narration canonicalizes and tokenizes bank transaction narration
// text. Its functions are pure: identical inputs always produce identical
// outputs, and none of them can fail.
package narration

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	charsetRe    = regexp.MustCompile(`[^A-Za-z0-9 &:/._-]`)
)

// Normalize canonicalizes raw narration text: consecutive whitespace runs
// collapse to a single space, leading/trailing space is trimmed, and every
// character outside [A-Za-z0-9 &:/._-] is stripped. Case is preserved.
// Normalize is idempotent: a second collapse pass runs after the strip so a
// removed character cannot leave a double space behind.
func Normalize(s string) string {
	s = strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
	s = charsetRe.ReplaceAllString(s, "")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
