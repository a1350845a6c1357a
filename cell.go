package nvimui

// CellFlags is a bitmask of per-cell layout markers.
type CellFlags uint8

const (
	// CellFlagDoubleWidth marks the left half of a character that occupies two columns.
	CellFlagDoubleWidth CellFlags = 1 << iota
	// CellFlagContinuation marks the right half of a double-width character.
	// It carries no text and is never written on its own.
	CellFlagContinuation
)

// Cell stores the text and highlight id for one grid position.
// Styles are not baked into the cell: Attr is resolved against the
// attribute table when a frame is painted.
type Cell struct {
	Text  string
	Attr  int
	Flags CellFlags
}

// NewCell creates a blank cell using the default highlight.
func NewCell() Cell {
	return Cell{Text: " "}
}

// Reset clears the cell to a blank with the default highlight.
func (c *Cell) Reset() {
	c.Text = " "
	c.Attr = DefaultAttrID
	c.Flags = 0
}

// HasFlag returns true if the specified flag is set.
func (c *Cell) HasFlag(flag CellFlags) bool {
	return c.Flags&flag != 0
}

// SetFlag enables the specified flag without affecting others.
func (c *Cell) SetFlag(flag CellFlags) {
	c.Flags |= flag
}

// ClearFlag disables the specified flag without affecting others.
func (c *Cell) ClearFlag(flag CellFlags) {
	c.Flags &^= flag
}

// IsDoubleWidth returns true if the cell holds a character spanning two columns.
func (c *Cell) IsDoubleWidth() bool {
	return c.HasFlag(CellFlagDoubleWidth)
}

// IsContinuation returns true if this is the right half of a double-width character
// (should be skipped during rendering).
func (c *Cell) IsContinuation() bool {
	return c.HasFlag(CellFlagContinuation)
}

// IsBlank reports whether the cell renders as an empty space.
func (c *Cell) IsBlank() bool {
	return !c.IsContinuation() && (c.Text == "" || c.Text == " ")
}
