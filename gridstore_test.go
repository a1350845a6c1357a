package nvimui

import (
	"reflect"
	"testing"
)

func TestGridStoreResizeCreates(t *testing.T) {
	s := NewGridStore(0)

	if v := s.Resize(1, 10, 3); v != nil {
		t.Fatalf("unexpected violation: %v", v)
	}

	g := s.Grid(1)
	if g == nil {
		t.Fatal("expected grid 1 to exist")
	}
	if g.Width() != 10 || g.Height() != 3 {
		t.Errorf("expected 10x3, got %dx%d", g.Width(), g.Height())
	}
	if damage := s.Damage(1); len(damage) != 1 || damage[0] != g.Bounds() {
		t.Errorf("expected full damage after resize, got %v", damage)
	}
}

func TestGridStoreUnknownGrid(t *testing.T) {
	s := NewGridStore(0)

	tests := []struct {
		name string
		call func() *ProtocolViolation
	}{
		{"clear", func() *ProtocolViolation { return s.Clear(4) }},
		{"destroy", func() *ProtocolViolation { return s.Destroy(4) }},
		{"line", func() *ProtocolViolation { return s.WriteRun(4, 0, 0, runOf("x")) }},
		{"scroll", func() *ProtocolViolation { return s.Scroll(4, Rect{Bottom: 1, Right: 1}, 1) }},
		{"cursor", func() *ProtocolViolation { return s.MoveCursor(4, 0, 0, true) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := tt.call()
			if v == nil {
				t.Fatal("expected violation for unknown grid")
			}
			if v.Grid != 4 {
				t.Errorf("expected grid 4 in violation, got %d", v.Grid)
			}
		})
	}
	if s.Len() != 0 {
		t.Errorf("expected no grids to be created, got %d", s.Len())
	}
}

func TestGridStoreNegativeSize(t *testing.T) {
	s := NewGridStore(0)

	if v := s.Resize(2, -1, 5); v == nil {
		t.Error("expected negative size to be rejected")
	}
	if s.Grid(2) != nil {
		t.Error("expected grid not to be created")
	}
}

func TestGridStoreMaxGrids(t *testing.T) {
	s := NewGridStore(2)

	s.Resize(1, 2, 2)
	s.Resize(2, 2, 2)
	if v := s.Resize(3, 2, 2); v == nil {
		t.Error("expected grid limit to be enforced")
	}
	if s.Len() != 2 {
		t.Errorf("expected 2 grids, got %d", s.Len())
	}

	// Existing grids can still be resized at the limit.
	if v := s.Resize(2, 4, 4); v != nil {
		t.Errorf("unexpected violation: %v", v)
	}
}

func TestGridStoreDestroy(t *testing.T) {
	s := NewGridStore(0)
	s.Resize(1, 4, 2)
	s.Resize(3, 4, 2)

	if v := s.Destroy(3); v != nil {
		t.Fatalf("unexpected violation: %v", v)
	}

	if s.Grid(3) != nil {
		t.Error("expected grid 3 to be gone")
	}
	if s.Damage(3) != nil {
		t.Error("expected damage of destroyed grid to be dropped")
	}
	if got := s.TakeDestroyed(); !reflect.DeepEqual(got, []int{3}) {
		t.Errorf("expected [3], got %v", got)
	}
	if got := s.TakeDestroyed(); got != nil {
		t.Errorf("expected destroyed list to be drained, got %v", got)
	}
}

func TestGridStoreRecreateAfterDestroy(t *testing.T) {
	s := NewGridStore(0)
	s.Resize(5, 4, 2)
	s.Destroy(5)
	s.Resize(5, 2, 2)

	if got := s.TakeDestroyed(); len(got) != 0 {
		t.Errorf("expected recreated grid not to be reported destroyed, got %v", got)
	}
}

func TestGridStoreDamageTracking(t *testing.T) {
	s := NewGridStore(0)
	s.Resize(1, 10, 3)
	s.Resize(2, 5, 5)
	s.ResetDamage()

	if got := s.Damaged(); len(got) != 0 {
		t.Fatalf("expected no damaged grids, got %v", got)
	}

	s.WriteRun(2, 1, 0, runOf("hi"))
	if got := s.Damaged(); !reflect.DeepEqual(got, []int{2}) {
		t.Errorf("expected [2], got %v", got)
	}
	if got := s.Damage(2); len(got) != 1 || got[0] != (Rect{Top: 1, Bottom: 2, Left: 0, Right: 2}) {
		t.Errorf("unexpected damage %v", got)
	}

	// Cursor moves do not damage cells.
	s.MoveCursor(1, 2, 2, true)
	if got := s.Damaged(); !reflect.DeepEqual(got, []int{2}) {
		t.Errorf("expected cursor move not to damage grid 1, got %v", got)
	}

	s.DamageAll()
	if got := s.Damaged(); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("expected [1 2], got %v", got)
	}
}

func TestGridStoreSnapshotIsolated(t *testing.T) {
	s := NewGridStore(0)
	s.Resize(1, 5, 1)
	s.WriteRun(1, 0, 0, runOf("abc"))

	snap := s.Snapshot(1)
	s.WriteRun(1, 0, 0, runOf("xyz"))

	if got := snap.LineContent(0); got != "abc" {
		t.Errorf("expected snapshot to keep %q, got %q", "abc", got)
	}
	if s.Snapshot(9) != nil {
		t.Error("expected nil snapshot for unknown grid")
	}
}

func TestGridStoreIDs(t *testing.T) {
	s := NewGridStore(0)
	for _, id := range []int{7, 1, 4} {
		s.Resize(id, 1, 1)
	}

	if got := s.IDs(); !reflect.DeepEqual(got, []int{1, 4, 7}) {
		t.Errorf("expected sorted ids, got %v", got)
	}
}
