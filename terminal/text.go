package terminal

import (
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

const tabWidth = 4

// cellWidth is the number of screen cells r occupies.
func cellWidth(r rune) int {
	if r == '\t' {
		return tabWidth
	}
	if w := runewidth.RuneWidth(r); w > 0 {
		return w
	}
	return 1
}

// position converts a byte offset into a line number, a rune column and the
// offset of the line start.
func position(text string, pos int) (row, col, lineStart int) {
	pos = clampOffset(text, pos)
	lineStart = strings.LastIndexByte(text[:pos], '\n') + 1
	row = strings.Count(text[:lineStart], "\n")
	col = utf8.RuneCountInString(text[lineStart:pos])
	return row, col, lineStart
}

// offsetAt returns the byte offset of rune column col on line row, clamped
// to the end of that line.
func offsetAt(text string, row, col int) int {
	start := 0
	for i := 0; i < row; i++ {
		next := strings.IndexByte(text[start:], '\n')
		if next < 0 {
			return len(text)
		}
		start += next + 1
	}
	end := strings.IndexByte(text[start:], '\n')
	if end < 0 {
		end = len(text)
	} else {
		end += start
	}
	off := start
	for i := 0; i < col && off < end; i++ {
		_, size := utf8.DecodeRuneInString(text[off:])
		off += size
	}
	return off
}

// clampOffset keeps pos inside text and on a rune boundary.
func clampOffset(text string, pos int) int {
	if pos < 0 {
		return 0
	}
	if pos > len(text) {
		return len(text)
	}
	for pos > 0 && pos < len(text) && !utf8.RuneStart(text[pos]) {
		pos--
	}
	return pos
}

func prevRune(text string, pos int) int {
	if pos <= 0 {
		return 0
	}
	_, size := utf8.DecodeLastRuneInString(text[:pos])
	return pos - size
}

func nextRune(text string, pos int) int {
	if pos >= len(text) {
		return len(text)
	}
	_, size := utf8.DecodeRuneInString(text[pos:])
	return pos + size
}

// truncate shortens value to at most width cells.
func truncate(value string, width int) string {
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
