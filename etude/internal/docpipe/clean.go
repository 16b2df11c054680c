package docpipe

import (
	"strings"
	"unicode"
)

// CleanText normalises extracted text: removes zero-width characters,
// collapses runs of whitespace (preserving single newlines), and trims.
func CleanText(text string) string {
	text = strings.Map(func(r rune) rune {
		switch r {
		case '\u200b', '\u200c', '\u200d', '\ufeff', '\u00ad':
			return -1
		}
		return r
	}, text)

	var sb strings.Builder
	sb.Grow(len(text))
	pendingNewline := false
	pendingSpace := false
	for _, r := range text {
		switch {
		case r == '\n' || r == '\r':
			pendingNewline = true
		case unicode.IsSpace(r):
			pendingSpace = true
		default:
			if sb.Len() > 0 {
				if pendingNewline {
					sb.WriteByte('\n')
				} else if pendingSpace {
					sb.WriteByte(' ')
				}
			}
			pendingNewline = false
			pendingSpace = false
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
