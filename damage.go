package nvimui

// Rect is a half-open cell rectangle: rows [Top, Bottom), columns [Left, Right).
type Rect struct {
	Top    int `json:"top"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
	Right  int `json:"right"`
}

// Empty returns true if the rectangle covers no cells.
func (r Rect) Empty() bool {
	return r.Bottom <= r.Top || r.Right <= r.Left
}

// Rows returns the number of rows covered.
func (r Rect) Rows() int {
	if r.Bottom < r.Top {
		return 0
	}
	return r.Bottom - r.Top
}

// Cols returns the number of columns covered.
func (r Rect) Cols() int {
	if r.Right < r.Left {
		return 0
	}
	return r.Right - r.Left
}

// Contains returns true if (row, col) lies inside the rectangle.
func (r Rect) Contains(row, col int) bool {
	return row >= r.Top && row < r.Bottom && col >= r.Left && col < r.Right
}

// Union returns the smallest rectangle covering both r and o.
func (r Rect) Union(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	return Rect{
		Top:    min(r.Top, o.Top),
		Bottom: max(r.Bottom, o.Bottom),
		Left:   min(r.Left, o.Left),
		Right:  max(r.Right, o.Right),
	}
}

// Intersect returns the overlap of r and o (possibly empty).
func (r Rect) Intersect(o Rect) Rect {
	out := Rect{
		Top:    max(r.Top, o.Top),
		Bottom: min(r.Bottom, o.Bottom),
		Left:   max(r.Left, o.Left),
		Right:  min(r.Right, o.Right),
	}
	if out.Empty() {
		return Rect{}
	}
	return out
}

// joinable reports whether the union of r and o covers no cell outside them:
// they overlap, or they share an edge along a full side.
func (r Rect) joinable(o Rect) bool {
	if !r.Intersect(o).Empty() {
		return true
	}
	if r.Left == o.Left && r.Right == o.Right && (r.Bottom == o.Top || o.Bottom == r.Top) {
		return true
	}
	if r.Top == o.Top && r.Bottom == o.Bottom && (r.Right == o.Left || o.Right == r.Left) {
		return true
	}
	return false
}

// DamageSet accumulates the regions of one grid changed since the last frame.
// Overlapping or edge-aligned rectangles are merged into their bounding box,
// so the set only ever over-reports.
type DamageSet struct {
	rects []Rect
}

// Add records r as damaged. Empty rectangles are ignored.
func (d *DamageSet) Add(r Rect) {
	if r.Empty() {
		return
	}
	for {
		merged := false
		for i := 0; i < len(d.rects); i++ {
			if d.rects[i].joinable(r) {
				r = r.Union(d.rects[i])
				d.rects = append(d.rects[:i], d.rects[i+1:]...)
				merged = true
				break
			}
		}
		if !merged {
			break
		}
	}
	d.rects = append(d.rects, r)
}

// Full replaces all damage with one rectangle covering a width x height grid.
func (d *DamageSet) Full(width, height int) {
	d.rects = d.rects[:0]
	d.Add(Rect{Bottom: height, Right: width})
}

// Rects returns a copy of the damaged rectangles.
func (d *DamageSet) Rects() []Rect {
	if len(d.rects) == 0 {
		return nil
	}
	out := make([]Rect, len(d.rects))
	copy(out, d.rects)
	return out
}

// Empty returns true if nothing is damaged.
func (d *DamageSet) Empty() bool {
	return len(d.rects) == 0
}

// Reset clears all damage.
func (d *DamageSet) Reset() {
	d.rects = d.rects[:0]
}
