package utils

import (
	"strings"
	"unicode/utf8"
)

// PaperColumns is the character width of 80mm thermal paper (72mm printable) in font A
const PaperColumns = 48

// Columns lays out a left and a right value on one line of the given width.
// The left side is truncated when both do not fit with a single space between them.
func Columns(left, right string, width int) string {
	lw := utf8.RuneCountInString(left)
	rw := utf8.RuneCountInString(right)
	if lw+rw+1 > width {
		keep := width - rw - 1
		if keep < 0 {
			keep = 0
		}
		left = truncateRunes(left, keep)
		lw = utf8.RuneCountInString(left)
	}
	pad := width - lw - rw
	if pad < 1 {
		pad = 1
	}
	return left + strings.Repeat(" ", pad) + right
}

// Rule returns a separator line of width repeated chars
func Rule(ch rune, width int) string {
	return strings.Repeat(string(ch), width)
}

// Wrap splits text into lines no longer than width, breaking on spaces where
// possible. Leading spaces are kept on the first line; every line after it is
// prefixed with indent.
func Wrap(text string, width int, indent string) []string {
	body := strings.TrimLeft(text, " ")
	prefix := text[:len(text)-len(body)]
	text = strings.Join(strings.Fields(body), " ")
	if text == "" {
		return nil
	}

	var lines []string
	for text != "" {
		avail := width - utf8.RuneCountInString(prefix)
		if avail < 1 {
			avail = 1
		}
		if utf8.RuneCountInString(text) <= avail {
			lines = append(lines, prefix+text)
			break
		}
		cut := byteOffset(text, avail)
		if sp := strings.LastIndexByte(text[:cut+1], ' '); sp > 0 {
			cut = sp
		}
		lines = append(lines, prefix+strings.TrimRight(text[:cut], " "))
		text = strings.TrimLeft(text[cut:], " ")
		prefix = indent
	}
	return lines
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return s[:byteOffset(s, n)]
}

// byteOffset returns the byte index of the n-th rune, or len(s)
func byteOffset(s string, n int) int {
	i := 0
	for idx := range s {
		if i == n {
			return idx
		}
		i++
	}
	return len(s)
}
