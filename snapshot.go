package nvimui

import "strings"

// GridSnapshot is an immutable copy of a grid. It stays valid after the
// engine moves on and may be read from any goroutine.
type GridSnapshot struct {
	ID            int
	Width         int
	Height        int
	Cells         []Cell
	CursorRow     int
	CursorCol     int
	CursorVisible bool
}

// Snapshot copies the grid.
func (g *Grid) Snapshot() *GridSnapshot {
	cells := make([]Cell, len(g.cells))
	copy(cells, g.cells)
	return &GridSnapshot{
		ID:            g.id,
		Width:         g.width,
		Height:        g.height,
		Cells:         cells,
		CursorRow:     g.cursorRow,
		CursorCol:     g.cursorCol,
		CursorVisible: g.cursorVisible,
	}
}

// Cell returns the cell at (row, col), or nil if out of bounds.
func (s *GridSnapshot) Cell(row, col int) *Cell {
	if row < 0 || row >= s.Height || col < 0 || col >= s.Width {
		return nil
	}
	return &s.Cells[row*s.Width+col]
}

// LineContent returns the text of a row with trailing blanks trimmed.
func (s *GridSnapshot) LineContent(row int) string {
	if row < 0 || row >= s.Height {
		return ""
	}
	var sb strings.Builder
	for _, cell := range s.Cells[row*s.Width : (row+1)*s.Width] {
		if cell.IsContinuation() {
			continue
		}
		if cell.Text == "" {
			sb.WriteByte(' ')
			continue
		}
		sb.WriteString(cell.Text)
	}
	return strings.TrimRight(sb.String(), " ")
}

// Content returns all rows joined by newlines.
func (s *GridSnapshot) Content() string {
	lines := make([]string, s.Height)
	for r := range lines {
		lines[r] = s.LineContent(r)
	}
	return strings.Join(lines, "\n")
}

// Frame is what the surface receives once per flush: copies of every grid
// damaged during the batch with its damage rectangles, the ids of grids
// destroyed during the batch, the cursor and the style table in effect.
type Frame struct {
	Seq       uint64
	Grids     []GridFrame
	Destroyed []int
	Cursor    CursorState
	Styles    *StyleSet
}

// GridFrame is one damaged grid within a frame.
type GridFrame struct {
	Grid   *GridSnapshot
	Damage []Rect
}

// GridFrame returns the entry for a grid id, or nil if it was not damaged.
func (f *Frame) GridFrame(id int) *GridFrame {
	for i := range f.Grids {
		if f.Grids[i].Grid.ID == id {
			return &f.Grids[i]
		}
	}
	return nil
}

// SnapshotDetail specifies the level of detail in a snapshot.
type SnapshotDetail string

const (
	// SnapshotDetailText returns plain text only.
	SnapshotDetailText SnapshotDetail = "text"
	// SnapshotDetailStyled returns text with style segments per line.
	SnapshotDetailStyled SnapshotDetail = "styled"
	// SnapshotDetailFull returns full cell-by-cell data.
	SnapshotDetailFull SnapshotDetail = "full"
)

// Snapshot is a JSON-friendly capture of one grid.
type Snapshot struct {
	Grid   int            `json:"grid"`
	Size   SnapshotSize   `json:"size"`
	Cursor SnapshotCursor `json:"cursor"`
	Lines  []SnapshotLine `json:"lines"`
}

// SnapshotSize holds grid dimensions.
type SnapshotSize struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// SnapshotCursor holds cursor state.
type SnapshotCursor struct {
	Row     int    `json:"row"`
	Col     int    `json:"col"`
	Visible bool   `json:"visible"`
	Shape   string `json:"shape"`
}

// SnapshotLine represents a single line in the snapshot.
type SnapshotLine struct {
	Text     string            `json:"text"`
	Segments []SnapshotSegment `json:"segments,omitempty"`
	Cells    []SnapshotCell    `json:"cells,omitempty"`
}

// SnapshotSegment represents a run of text sharing one style.
type SnapshotSegment struct {
	Text       string        `json:"text"`
	Fg         string        `json:"fg,omitempty"`
	Bg         string        `json:"bg,omitempty"`
	Sp         string        `json:"sp,omitempty"`
	Attributes SnapshotAttrs `json:"attrs,omitempty"`
}

// SnapshotCell represents a single cell with resolved colors.
type SnapshotCell struct {
	Text       string        `json:"text"`
	Attr       int           `json:"attr"`
	Fg         string        `json:"fg"`
	Bg         string        `json:"bg"`
	Sp         string        `json:"sp,omitempty"`
	Attributes SnapshotAttrs `json:"attrs,omitempty"`
	Wide       bool          `json:"wide,omitempty"`
	WideSpacer bool          `json:"wide_spacer,omitempty"`
}

// SnapshotAttrs holds text formatting attributes.
type SnapshotAttrs struct {
	Bold          bool `json:"bold,omitempty"`
	Italic        bool `json:"italic,omitempty"`
	Underline     bool `json:"underline,omitempty"`
	Undercurl     bool `json:"undercurl,omitempty"`
	Reverse       bool `json:"reverse,omitempty"`
	Strikethrough bool `json:"strikethrough,omitempty"`
	Blend         int  `json:"blend,omitempty"`
}

// Render builds a Snapshot of the grid with colors resolved against styles.
// The cursor shape comes from mode; pass a zero ModeInfo for a block cursor.
func (s *GridSnapshot) Render(detail SnapshotDetail, styles *StyleSet, mode ModeInfo) *Snapshot {
	snap := &Snapshot{
		Grid: s.ID,
		Size: SnapshotSize{Rows: s.Height, Cols: s.Width},
		Cursor: SnapshotCursor{
			Row:     s.CursorRow,
			Col:     s.CursorCol,
			Visible: s.CursorVisible,
			Shape:   mode.Shape.String(),
		},
		Lines: make([]SnapshotLine, s.Height),
	}

	for row := 0; row < s.Height; row++ {
		line := SnapshotLine{Text: s.LineContent(row)}
		switch detail {
		case SnapshotDetailText:
			// Just text, already set

		case SnapshotDetailStyled:
			line.Segments = s.lineToSegments(row, styles)

		case SnapshotDetailFull:
			line.Cells = s.lineToCells(row, styles)
		}
		snap.Lines[row] = line
	}

	return snap
}

// lineToSegments converts a line to styled segments (runs of same style).
func (s *GridSnapshot) lineToSegments(row int, styles *StyleSet) []SnapshotSegment {
	var segments []SnapshotSegment
	var current *SnapshotSegment
	var text strings.Builder

	for col := 0; col < s.Width; col++ {
		cell := s.Cell(row, col)
		if cell.IsContinuation() {
			continue
		}

		st := styles.Lookup(cell.Attr)
		fg, bg, sp := st.Resolve(styles.Default())
		seg := SnapshotSegment{
			Fg:         fg.Hex(),
			Bg:         bg.Hex(),
			Sp:         specialHex(st, sp),
			Attributes: styleToSnapshot(st),
		}

		if current == nil || !segmentMatches(current, &seg) {
			if current != nil && text.Len() > 0 {
				current.Text = text.String()
				segments = append(segments, *current)
			}
			current = &seg
			text.Reset()
		}

		if cell.Text == "" {
			text.WriteByte(' ')
		} else {
			text.WriteString(cell.Text)
		}
	}

	// Don't forget the last segment
	if current != nil && text.Len() > 0 {
		current.Text = text.String()
		segments = append(segments, *current)
	}

	return segments
}

// lineToCells converts a line to full cell data.
func (s *GridSnapshot) lineToCells(row int, styles *StyleSet) []SnapshotCell {
	cells := make([]SnapshotCell, 0, s.Width)

	for col := 0; col < s.Width; col++ {
		cell := s.Cell(row, col)
		st := styles.Lookup(cell.Attr)
		fg, bg, sp := st.Resolve(styles.Default())

		text := cell.Text
		if text == "" && !cell.IsContinuation() {
			text = " "
		}

		cells = append(cells, SnapshotCell{
			Text:       text,
			Attr:       cell.Attr,
			Fg:         fg.Hex(),
			Bg:         bg.Hex(),
			Sp:         specialHex(st, sp),
			Attributes: styleToSnapshot(st),
			Wide:       cell.IsDoubleWidth(),
			WideSpacer: cell.IsContinuation(),
		})
	}

	return cells
}

// specialHex reports the special color only where it is drawn.
func specialHex(st Style, sp Color) string {
	if !st.HasUnderline() && !st.Has(StyleStrikethrough) {
		return ""
	}
	return sp.Hex()
}

func segmentMatches(a, b *SnapshotSegment) bool {
	return a.Fg == b.Fg && a.Bg == b.Bg && a.Sp == b.Sp && a.Attributes == b.Attributes
}

func styleToSnapshot(st Style) SnapshotAttrs {
	return SnapshotAttrs{
		Bold:          st.Has(StyleBold),
		Italic:        st.Has(StyleItalic),
		Underline:     st.Has(StyleUnderline | StyleUnderdouble | StyleUnderdotted | StyleUnderdashed),
		Undercurl:     st.Has(StyleUndercurl),
		Reverse:       st.Has(StyleReverse),
		Strikethrough: st.Has(StyleStrikethrough),
		Blend:         st.Blend,
	}
}
