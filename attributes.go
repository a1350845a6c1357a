package nvimui

// DefaultAttrID is the highlight id of the default style. It is never
// redefined by hl_attr_define; default_colors_set replaces it wholesale.
const DefaultAttrID = 0

// StyleFlags is a bitmask of text decoration attributes.
type StyleFlags uint16

const (
	StyleBold StyleFlags = 1 << iota
	StyleItalic
	StyleUnderline
	StyleUndercurl
	StyleUnderdouble
	StyleUnderdotted
	StyleUnderdashed
	StyleStrikethrough
	StyleReverse
	StyleAltFont
	StyleNoCombine
)

// underlineMask covers every underline variant.
const underlineMask = StyleUnderline | StyleUndercurl | StyleUnderdouble | StyleUnderdotted | StyleUnderdashed

// Style is a highlight record. Colors left at ColorDefault fall back to the
// default style when resolved.
type Style struct {
	Foreground Color
	Background Color
	Special    Color
	Flags      StyleFlags
	// Blend is the background transparency (0-100) used by floating grids.
	Blend int
}

// NewStyle returns a style with all colors unset and no attributes.
func NewStyle() Style {
	return Style{
		Foreground: ColorDefault,
		Background: ColorDefault,
		Special:    ColorDefault,
	}
}

// Has returns true if the flag is set.
func (s Style) Has(flag StyleFlags) bool {
	return s.Flags&flag != 0
}

// HasUnderline returns true for any underline variant.
func (s Style) HasUnderline() bool {
	return s.Flags&underlineMask != 0
}

// Resolve fills unset colors from def (then from the package defaults) and
// applies reverse video. The special color falls back to the foreground.
func (s Style) Resolve(def Style) (fg, bg, sp Color) {
	fg = s.Foreground.Or(def.Foreground).Or(DefaultForeground)
	bg = s.Background.Or(def.Background).Or(DefaultBackground)
	sp = s.Special.Or(def.Special).Or(fg)
	if s.Has(StyleReverse) {
		fg, bg = bg, fg
	}
	return fg, bg, sp
}

// StyleSet is an immutable view of the attribute table, safe to share with
// a renderer running on another goroutine.
type StyleSet struct {
	def    Style
	styles map[int]Style
}

// Default returns the default style (id 0).
func (s *StyleSet) Default() Style {
	if s == nil {
		return NewStyle()
	}
	return s.def
}

// Lookup returns the style for id, or the default style if id is unknown.
func (s *StyleSet) Lookup(id int) Style {
	if s == nil {
		return NewStyle()
	}
	if st, ok := s.styles[id]; ok && id != DefaultAttrID {
		return st
	}
	return s.def
}

// Len returns the number of defined styles, excluding the default.
func (s *StyleSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.styles)
}

// AttrTable maps highlight ids to styles. It has a single mutator (the engine).
type AttrTable struct {
	def    Style
	styles map[int]Style
	snap   *StyleSet
}

// NewAttrTable creates a table holding only the default style.
func NewAttrTable() *AttrTable {
	return &AttrTable{
		def:    NewStyle(),
		styles: make(map[int]Style),
	}
}

// Define upserts the style for id. Returns false (and leaves the table
// unchanged) for the reserved default id.
func (a *AttrTable) Define(id int, style Style) bool {
	if id == DefaultAttrID || id < 0 {
		return false
	}
	if old, ok := a.styles[id]; ok && old == style {
		return true
	}
	a.styles[id] = style
	a.snap = nil
	return true
}

// SetDefault replaces the default style wholesale.
func (a *AttrTable) SetDefault(style Style) {
	if a.def == style {
		return
	}
	a.def = style
	a.snap = nil
}

// Default returns the default style.
func (a *AttrTable) Default() Style {
	return a.def
}

// Lookup returns the style for id, falling back to the default style. Never fails.
func (a *AttrTable) Lookup(id int) Style {
	if st, ok := a.styles[id]; ok {
		return st
	}
	return a.def
}

// Len returns the number of defined styles, excluding the default.
func (a *AttrTable) Len() int {
	return len(a.styles)
}

// Snapshot returns an immutable copy of the table. The copy is reused until
// the next Define or SetDefault that changes something.
func (a *AttrTable) Snapshot() *StyleSet {
	if a.snap != nil {
		return a.snap
	}
	styles := make(map[int]Style, len(a.styles))
	for id, st := range a.styles {
		styles[id] = st
	}
	a.snap = &StyleSet{def: a.def, styles: styles}
	return a.snap
}
