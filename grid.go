package nvimui

import (
	"math"
	"strings"
)

// DefaultGridID is the id the editor uses for its main grid.
const DefaultGridID = 1

// Grid stores one rectangular cell buffer in row-major order together with
// its cursor. Grids are owned by a GridStore and mutated only by the engine.
type Grid struct {
	id     int
	width  int
	height int
	cells  []Cell

	cursorRow     int
	cursorCol     int
	cursorVisible bool
}

// NewGrid creates a blank grid. Negative dimensions are treated as zero.
func NewGrid(id, width, height int) *Grid {
	g := &Grid{id: id}
	g.Resize(width, height)
	return g
}

// ID returns the grid id assigned by the editor.
func (g *Grid) ID() int {
	return g.id
}

// Width returns the grid width in columns.
func (g *Grid) Width() int {
	return g.width
}

// Height returns the grid height in rows.
func (g *Grid) Height() int {
	return g.height
}

// Bounds returns the rectangle covering the whole grid.
func (g *Grid) Bounds() Rect {
	return Rect{Bottom: g.height, Right: g.width}
}

// Cell returns a pointer to the cell at (row, col).
// Returns nil if coordinates are out of bounds.
func (g *Grid) Cell(row, col int) *Cell {
	if row < 0 || row >= g.height || col < 0 || col >= g.width {
		return nil
	}
	return &g.cells[row*g.width+col]
}

func (g *Grid) row(row int) []Cell {
	return g.cells[row*g.width : (row+1)*g.width]
}

// Cursor returns the cursor position and visibility.
func (g *Grid) Cursor() (row, col int, visible bool) {
	return g.cursorRow, g.cursorCol, g.cursorVisible
}

// Resize reallocates the buffer. Old contents are discarded since the editor
// redraws a grid after resizing it. The cursor is clamped into the new bounds.
func (g *Grid) Resize(width, height int) {
	width = max(width, 0)
	height = max(height, 0)
	g.width = width
	g.height = height
	g.cells = make([]Cell, width*height)
	for i := range g.cells {
		g.cells[i] = NewCell()
	}
	g.clampCursor()
}

// Clear resets every cell to a blank with the default highlight.
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i].Reset()
	}
}

// MoveCursor places the cursor. Out-of-range positions are clamped and
// reported as a violation.
func (g *Grid) MoveCursor(row, col int, visible bool) *ProtocolViolation {
	g.cursorRow = row
	g.cursorCol = col
	g.cursorVisible = visible
	if g.clampCursor() {
		return violation("grid_cursor_goto", g.id, "cursor (%d,%d) outside %dx%d", row, col, g.width, g.height)
	}
	return nil
}

// clampCursor keeps the cursor inside the grid. A grid with no cells has no
// visible cursor. Returns true if the position changed.
func (g *Grid) clampCursor() bool {
	if g.width == 0 || g.height == 0 {
		changed := g.cursorRow != 0 || g.cursorCol != 0
		g.cursorRow, g.cursorCol, g.cursorVisible = 0, 0, false
		return changed
	}
	row := min(max(g.cursorRow, 0), g.height-1)
	col := min(max(g.cursorCol, 0), g.width-1)
	changed := row != g.cursorRow || col != g.cursorCol
	g.cursorRow, g.cursorCol = row, col
	return changed
}

// WriteRun overwrites cells of one row starting at col. Repeat counts are
// expanded, a cell without a highlight id reuses the previous one, and an
// empty text marks the right half of the preceding double-width character.
// Cells past the right edge are dropped and reported as a violation; the
// work is bounded by the row width, not by the repeat counts.
// Returns the damaged rectangle.
func (g *Grid) WriteRun(row, col int, run []RunCell) (Rect, *ProtocolViolation) {
	if row < 0 || row >= g.height || col < 0 || col >= g.width {
		return Rect{}, violation("grid_line", g.id, "start (%d,%d) outside %dx%d", row, col, g.width, g.height)
	}

	line := g.row(row)
	attr := DefaultAttrID
	c := col
	clipped := 0

	for _, rc := range run {
		if rc.HasAttr {
			attr = rc.Attr
		}
		n := max(rc.Repeat, 1)
		if c >= g.width {
			clipped = addClamped(clipped, n)
			continue
		}
		if over := n - (g.width - c); over > 0 {
			clipped = addClamped(clipped, over)
			n -= over
		}
		for range n {
			cell := &line[c]
			cell.Attr = attr
			if rc.Text == "" {
				cell.Text = ""
				cell.Flags = CellFlagContinuation
				if c > 0 && !line[c-1].IsContinuation() {
					line[c-1].SetFlag(CellFlagDoubleWidth)
				}
			} else {
				cell.Text = rc.Text
				cell.Flags = 0
			}
			c++
		}
	}

	damage := Rect{Top: row, Bottom: row + 1, Left: col, Right: c}
	damage = damage.Union(cellRect(row, g.repairPair(line, col)))
	damage = damage.Union(cellRect(row, g.repairPair(line, c)))

	if clipped > 0 {
		return damage, violation("grid_line", g.id, "run overflows row %d by %d cells", row, clipped)
	}
	return damage, nil
}

func addClamped(a, b int) int {
	if a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}

// repairPair restores the double-width invariant across the boundary between
// columns col-1 and col. An orphaned half is blanked. Returns the column of
// the blanked cell, or -1 if nothing changed.
func (g *Grid) repairPair(line []Cell, col int) int {
	if col < 0 || col > g.width || g.width == 0 {
		return -1
	}
	if col == 0 {
		if line[0].IsContinuation() {
			line[0].Text = " "
			line[0].Flags = 0
			return 0
		}
		return -1
	}

	left := &line[col-1]
	var right *Cell
	if col < g.width {
		right = &line[col]
	}

	switch {
	case right != nil && right.IsContinuation() && !left.IsDoubleWidth():
		if isWideText(left.Text) {
			left.SetFlag(CellFlagDoubleWidth)
			return -1
		}
		right.Text = " "
		right.Flags = 0
		return col
	case left.IsDoubleWidth() && (right == nil || !right.IsContinuation()):
		left.Text = " "
		left.Flags = 0
		return col - 1
	}
	return -1
}

// cellRect returns the one-cell rectangle at (row, col), or an empty one for col < 0.
func cellRect(row, col int) Rect {
	if col < 0 {
		return Rect{}
	}
	return Rect{Top: row, Bottom: row + 1, Left: col, Right: col + 1}
}

// Scroll shifts the cells of region by rows. Positive rows moves content up
// (row r receives row r+rows); negative moves it down. Rows vacated at the
// trailing edge are blanked. The region is clipped to the grid.
// Returns the damaged rectangle, which is the whole region.
func (g *Grid) Scroll(region Rect, rows int) (Rect, *ProtocolViolation) {
	var warn *ProtocolViolation
	clipped := region.Intersect(g.Bounds())
	if clipped != region {
		warn = violation("grid_scroll", g.id, "region %+v outside %dx%d", region, g.width, g.height)
	}
	region = clipped
	if region.Empty() || rows == 0 {
		return Rect{}, warn
	}

	shift := rows
	if shift < 0 {
		shift = -shift
	}
	if shift > region.Rows() {
		shift = region.Rows()
	}

	if rows > 0 {
		for r := region.Top; r < region.Bottom-shift; r++ {
			copy(g.row(r)[region.Left:region.Right], g.row(r + shift)[region.Left:region.Right])
		}
		g.blankRows(region.Bottom-shift, region.Bottom, region.Left, region.Right)
	} else {
		for r := region.Bottom - 1; r >= region.Top+shift; r-- {
			copy(g.row(r)[region.Left:region.Right], g.row(r - shift)[region.Left:region.Right])
		}
		g.blankRows(region.Top, region.Top+shift, region.Left, region.Right)
	}

	damage := region
	for r := region.Top; r < region.Bottom; r++ {
		line := g.row(r)
		damage = damage.Union(cellRect(r, g.repairPair(line, region.Left)))
		damage = damage.Union(cellRect(r, g.repairPair(line, region.Right)))
	}
	return damage, warn
}

func (g *Grid) blankRows(top, bottom, left, right int) {
	for r := top; r < bottom; r++ {
		line := g.row(r)
		for c := left; c < right; c++ {
			line[c].Reset()
		}
	}
}

// LineContent returns the text of a row with trailing blanks trimmed.
// Continuation cells are skipped. Returns "" if row is out of bounds.
func (g *Grid) LineContent(row int) string {
	if row < 0 || row >= g.height {
		return ""
	}
	var sb strings.Builder
	for _, cell := range g.row(row) {
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
func (g *Grid) Content() string {
	lines := make([]string, g.height)
	for r := range lines {
		lines[r] = g.LineContent(r)
	}
	return strings.Join(lines, "\n")
}
