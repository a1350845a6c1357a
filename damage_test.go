package nvimui

import (
	"testing"
)

func TestRectBasics(t *testing.T) {
	r := Rect{Top: 1, Bottom: 3, Left: 2, Right: 6}

	if r.Empty() {
		t.Error("expected non-empty rect")
	}
	if r.Rows() != 2 || r.Cols() != 4 {
		t.Errorf("expected 2x4, got %dx%d", r.Rows(), r.Cols())
	}
	if !r.Contains(1, 2) || !r.Contains(2, 5) {
		t.Error("expected corners to be contained")
	}
	if r.Contains(3, 2) || r.Contains(1, 6) {
		t.Error("expected bottom and right edges to be excluded")
	}
	if !(Rect{Top: 2, Bottom: 2, Right: 5}).Empty() {
		t.Error("expected zero-height rect to be empty")
	}
}

func TestRectUnionIntersect(t *testing.T) {
	a := Rect{Top: 0, Bottom: 2, Left: 0, Right: 4}
	b := Rect{Top: 1, Bottom: 5, Left: 2, Right: 8}

	if got := a.Union(b); got != (Rect{Top: 0, Bottom: 5, Left: 0, Right: 8}) {
		t.Errorf("unexpected union %+v", got)
	}
	if got := a.Intersect(b); got != (Rect{Top: 1, Bottom: 2, Left: 2, Right: 4}) {
		t.Errorf("unexpected intersection %+v", got)
	}
	if got := a.Intersect(Rect{Top: 3, Bottom: 4, Left: 0, Right: 1}); !got.Empty() {
		t.Errorf("expected empty intersection, got %+v", got)
	}
	if got := a.Union(Rect{}); got != a {
		t.Errorf("expected union with empty rect to be a, got %+v", got)
	}
}

func TestDamageSetMergesAdjacentRows(t *testing.T) {
	var d DamageSet

	d.Add(Rect{Top: 0, Bottom: 1, Left: 0, Right: 5})
	d.Add(Rect{Top: 1, Bottom: 2, Left: 0, Right: 5})
	d.Add(Rect{Top: 2, Bottom: 3, Left: 0, Right: 5})

	rects := d.Rects()
	if len(rects) != 1 {
		t.Fatalf("expected 1 rect, got %d: %v", len(rects), rects)
	}
	if rects[0] != (Rect{Top: 0, Bottom: 3, Left: 0, Right: 5}) {
		t.Errorf("unexpected rect %+v", rects[0])
	}
}

func TestDamageSetKeepsDisjoint(t *testing.T) {
	var d DamageSet

	d.Add(Rect{Top: 0, Bottom: 1, Left: 0, Right: 2})
	d.Add(Rect{Top: 5, Bottom: 6, Left: 10, Right: 12})

	if len(d.Rects()) != 2 {
		t.Errorf("expected 2 rects, got %v", d.Rects())
	}
}

func TestDamageSetCascadingMerge(t *testing.T) {
	var d DamageSet

	d.Add(Rect{Top: 0, Bottom: 1, Left: 0, Right: 3})
	d.Add(Rect{Top: 0, Bottom: 1, Left: 6, Right: 9})
	// Bridges both
	d.Add(Rect{Top: 0, Bottom: 1, Left: 2, Right: 7})

	rects := d.Rects()
	if len(rects) != 1 || rects[0] != (Rect{Top: 0, Bottom: 1, Left: 0, Right: 9}) {
		t.Errorf("expected single merged rect, got %v", rects)
	}
}

func TestDamageSetCoversEveryAdd(t *testing.T) {
	var d DamageSet
	added := []Rect{
		{Top: 0, Bottom: 1, Left: 3, Right: 4},
		{Top: 2, Bottom: 4, Left: 0, Right: 10},
		{Top: 7, Bottom: 8, Left: 1, Right: 2},
		{Top: 3, Bottom: 9, Left: 5, Right: 6},
	}
	for _, r := range added {
		d.Add(r)
	}

	for _, r := range added {
		for row := r.Top; row < r.Bottom; row++ {
			for col := r.Left; col < r.Right; col++ {
				covered := false
				for _, got := range d.Rects() {
					if got.Contains(row, col) {
						covered = true
						break
					}
				}
				if !covered {
					t.Errorf("cell (%d,%d) not covered by %v", row, col, d.Rects())
				}
			}
		}
	}
}

func TestDamageSetFullReset(t *testing.T) {
	var d DamageSet

	d.Add(Rect{Top: 1, Bottom: 2, Left: 1, Right: 2})
	d.Full(10, 3)
	if rects := d.Rects(); len(rects) != 1 || rects[0] != (Rect{Bottom: 3, Right: 10}) {
		t.Errorf("expected full damage, got %v", rects)
	}

	// Shrinking replaces the old full-size damage.
	d.Full(4, 2)
	if rects := d.Rects(); len(rects) != 1 || rects[0] != (Rect{Bottom: 2, Right: 4}) {
		t.Errorf("expected damage of the new size, got %v", rects)
	}

	d.Reset()
	if !d.Empty() || d.Rects() != nil {
		t.Error("expected no damage after reset")
	}

	d.Add(Rect{})
	if !d.Empty() {
		t.Error("expected empty rect to be ignored")
	}
}
