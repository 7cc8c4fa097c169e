package util

import "strings"

// SanitizeText strips bytes that Postgres text columns reject. PDF text
// layers routinely carry NUL and other control characters; newline, carriage
// return and tab survive because page markers depend on them.
func SanitizeText(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, ch := range s {
		switch {
		case ch == '\n' || ch == '\r' || ch == '\t':
			b.WriteRune(ch)
		case ch < 0x20:
			// includes NUL, which is not valid in PostgreSQL text
		default:
			b.WriteRune(ch)
		}
	}
	return strings.TrimSpace(b.String())
}
