package normalize

import (
	"strings"
	"unicode/utf8"
)

// keep reports whether postgres text and jsonb accept r and render it sanely
func keep(r rune) bool {
	switch {
	case r == '\t' || r == '\n' || r == '\r':
		return true
	case r < 0x20, r == 0x7F, r >= 0x80 && r <= 0x9F:
		return false
	}
	return true
}

func dirty(r rune) bool { return !keep(r) }

// Sanitize drops NUL, ASCII controls other than tab and line breaks, DEL,
// C1 controls and invalid UTF-8. s comes back untouched when already clean
func Sanitize(s string) string {
	if utf8.ValidString(s) && strings.IndexFunc(s, dirty) < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if (r != utf8.RuneError || size > 1) && keep(r) {
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	return b.String()
}
