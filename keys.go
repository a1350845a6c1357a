package nvimui

import (
	"strings"
	"unicode"
)

// Modifiers is a bitmask of keyboard modifiers.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModCtrl
	ModAlt
	ModMeta
)

// prefix returns the modifiers in key notation order, e.g. "S-C-A-".
func (m Modifiers) prefix() string {
	var sb strings.Builder
	if m&ModShift != 0 {
		sb.WriteString("S-")
	}
	if m&ModCtrl != 0 {
		sb.WriteString("C-")
	}
	if m&ModAlt != 0 {
		sb.WriteString("A-")
	}
	if m&ModMeta != 0 {
		sb.WriteString("D-")
	}
	return sb.String()
}

// Key identifies a non-character key. KeyRune means the event carries a character.
type Key int

const (
	KeyRune Key = iota
	KeyEnter
	KeyEscape
	KeyBackspace
	KeyTab
	KeyDelete
	KeyInsert
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
)

var keyNames = map[Key]string{
	KeyEnter:     "CR",
	KeyEscape:    "Esc",
	KeyBackspace: "BS",
	KeyTab:       "Tab",
	KeyDelete:    "Del",
	KeyInsert:    "Insert",
	KeyHome:      "Home",
	KeyEnd:       "End",
	KeyPageUp:    "PageUp",
	KeyPageDown:  "PageDown",
	KeyUp:        "Up",
	KeyDown:      "Down",
	KeyLeft:      "Left",
	KeyRight:     "Right",
	KeyF1:        "F1",
	KeyF2:        "F2",
	KeyF3:        "F3",
	KeyF4:        "F4",
	KeyF5:        "F5",
	KeyF6:        "F6",
	KeyF7:        "F7",
	KeyF8:        "F8",
	KeyF9:        "F9",
	KeyF10:       "F10",
	KeyF11:       "F11",
	KeyF12:       "F12",
}

// Characters that must be written by name inside <>.
var runeNames = map[rune]string{
	'<':  "lt",
	'\\': "Bslash",
	'|':  "Bar",
	' ':  "Space",
}

// KeyEvent is one key press from the toolkit.
type KeyEvent struct {
	Key  Key
	Rune rune
	Mods Modifiers
}

// Notation returns the key in editor key notation ("a", "<C-a>", "<lt>",
// "<S-Tab>", "<F5>"). Returns "" for an event with no key.
// Shift is dropped for printable characters since it is already applied to
// the character itself.
func (k KeyEvent) Notation() string {
	if k.Key != KeyRune {
		name, ok := keyNames[k.Key]
		if !ok {
			return ""
		}
		return "<" + k.Mods.prefix() + name + ">"
	}

	r := k.Rune
	if r == 0 {
		return ""
	}
	mods := k.Mods
	if unicode.IsPrint(r) && r != ' ' {
		mods &^= ModShift
	}
	if mods&ModCtrl != 0 && r < 0x80 && unicode.IsLetter(r) {
		r = unicode.ToLower(r)
	}

	name, special := runeNames[r]
	switch {
	case mods == 0 && r == '<':
		return "<lt>"
	case mods == 0:
		return string(r)
	case special:
		return "<" + mods.prefix() + name + ">"
	default:
		return "<" + mods.prefix() + string(r) + ">"
	}
}

// EscapeInput escapes text so nvim_input inserts it literally.
func EscapeInput(s string) string {
	return strings.ReplaceAll(s, "<", "<lt>")
}
