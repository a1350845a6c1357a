package nvimui

import (
	"testing"
)

func TestRuneWidth(t *testing.T) {
	tests := []struct {
		name     string
		r        rune
		expected int
	}{
		{"ascii", 'A', 1},
		{"space", ' ', 1},
		{"precomposed accent", 'é', 1},
		{"combining acute", '\u0301', 0},
		{"han", '中', 2},
		{"hangul", '한', 2},
		{"fullwidth", 'Ａ', 2},
		{"emoji", '😀', 2},
		{"nul", 0, 0},
	}

	for _, tt := range tests {
		if got := runeWidth(tt.r); got != tt.expected {
			t.Errorf("%s: runeWidth(%q) = %d, want %d", tt.name, tt.r, got, tt.expected)
		}
	}
}

// Cell text from grid_line may carry a base character followed by
// combining marks or emoji modifiers; only the base decides the width.
func TestIsWideCellText(t *testing.T) {
	tests := []struct {
		s        string
		expected bool
	}{
		{"e\u0301", false},
		{"a\u0308\u0301", false},
		{"中\u0301", true},
		{"😀", true},
		{"👍\U0001F3FD", true},
		{"\u0301", false},
	}

	for _, tt := range tests {
		if got := isWideText(tt.s); got != tt.expected {
			t.Errorf("isWideText(%q) = %v, want %v", tt.s, got, tt.expected)
		}
	}
}

func TestIsWideText(t *testing.T) {
	tests := []struct {
		s        string
		expected bool
	}{
		{"A", false},
		{" ", false},
		{"", false},
		{"中", true},
		{"한", true},
		{"Ａ", true}, // Fullwidth A
		{"é", false},
		{"0", false},
	}

	for _, tt := range tests {
		got := isWideText(tt.s)
		if got != tt.expected {
			t.Errorf("isWideText(%q) = %v, want %v", tt.s, got, tt.expected)
		}
	}
}

func TestStringWidth(t *testing.T) {
	tests := []struct {
		s        string
		expected int
	}{
		{"Hello", 5},
		{"中文", 4},
		{"Hello中文", 9},
		{"", 0},
		{"한글", 4},
		{"e\u0301", 1},
		{"a😀", 3},
	}

	for _, tt := range tests {
		got := StringWidth(tt.s)
		if got != tt.expected {
			t.Errorf("StringWidth(%q) = %d, want %d", tt.s, got, tt.expected)
		}
	}
}
