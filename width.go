package nvimui

import "github.com/unilibs/uniwidth"

// runeWidth returns the display width: 2 for wide characters (CJK, emoji), 1 for normal, 0 for zero-width (combining marks, control chars).
func runeWidth(r rune) int {
	return uniwidth.RuneWidth(r)
}

// isWideText returns true if the cell text occupies 2 columns.
// Only the first rune decides; trailing runes are combining marks.
func isWideText(s string) bool {
	for _, r := range s {
		return runeWidth(r) == 2
	}
	return false
}

// StringWidth returns the total display width of a string (sum of rune widths).
func StringWidth(s string) int {
	return uniwidth.StringWidth(s)
}
