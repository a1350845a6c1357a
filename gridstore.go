package nvimui

import "sort"

// DefaultMaxGrids bounds the number of live grids a GridStore accepts.
const DefaultMaxGrids = 1024

// GridStore holds every grid of a session together with its pending damage.
// It has a single mutator and is not safe for concurrent use on its own; the
// engine guards it with its lock.
type GridStore struct {
	grids     map[int]*Grid
	damage    map[int]*DamageSet
	destroyed []int
	maxGrids  int
}

// NewGridStore creates an empty store. maxGrids <= 0 means DefaultMaxGrids.
func NewGridStore(maxGrids int) *GridStore {
	if maxGrids <= 0 {
		maxGrids = DefaultMaxGrids
	}
	return &GridStore{
		grids:    make(map[int]*Grid),
		damage:   make(map[int]*DamageSet),
		maxGrids: maxGrids,
	}
}

// Grid returns the grid with the given id, or nil.
func (s *GridStore) Grid(id int) *Grid {
	return s.grids[id]
}

// IDs returns the ids of all live grids in ascending order.
func (s *GridStore) IDs() []int {
	ids := make([]int, 0, len(s.grids))
	for id := range s.grids {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Len returns the number of live grids.
func (s *GridStore) Len() int {
	return len(s.grids)
}

func (s *GridStore) damageOf(id int) *DamageSet {
	d, ok := s.damage[id]
	if !ok {
		d = &DamageSet{}
		s.damage[id] = d
	}
	return d
}

// lookup returns the grid for an event, or a violation if it does not exist.
func (s *GridStore) lookup(event string, id int) (*Grid, *ProtocolViolation) {
	g, ok := s.grids[id]
	if !ok {
		return nil, violation(event, id, "unknown grid")
	}
	return g, nil
}

// Resize reallocates a grid, creating it if needed, and damages all of it.
func (s *GridStore) Resize(id, width, height int) *ProtocolViolation {
	if width < 0 || height < 0 {
		return violation("grid_resize", id, "negative size %dx%d", width, height)
	}
	g, ok := s.grids[id]
	if !ok {
		if len(s.grids) >= s.maxGrids {
			return violation("grid_resize", id, "grid limit %d reached", s.maxGrids)
		}
		g = NewGrid(id, width, height)
		s.grids[id] = g
		s.undestroy(id)
	} else {
		g.Resize(width, height)
	}
	d := s.damageOf(id)
	d.Full(width, height)
	return nil
}

// Clear blanks a grid and damages all of it.
func (s *GridStore) Clear(id int) *ProtocolViolation {
	g, v := s.lookup("grid_clear", id)
	if v != nil {
		return v
	}
	g.Clear()
	s.damageOf(id).Full(g.width, g.height)
	return nil
}

// Destroy drops a grid. The id is reported by the next TakeDestroyed.
func (s *GridStore) Destroy(id int) *ProtocolViolation {
	if _, ok := s.grids[id]; !ok {
		return violation("grid_destroy", id, "unknown grid")
	}
	delete(s.grids, id)
	delete(s.damage, id)
	s.destroyed = append(s.destroyed, id)
	return nil
}

func (s *GridStore) undestroy(id int) {
	for i, d := range s.destroyed {
		if d == id {
			s.destroyed = append(s.destroyed[:i], s.destroyed[i+1:]...)
			return
		}
	}
}

// WriteRun writes a run of cells and records the damage.
func (s *GridStore) WriteRun(id, row, col int, run []RunCell) *ProtocolViolation {
	g, v := s.lookup("grid_line", id)
	if v != nil {
		return v
	}
	rect, v := g.WriteRun(row, col, run)
	s.damageOf(id).Add(rect)
	return v
}

// Scroll shifts a region of a grid by delta rows and records the damage.
func (s *GridStore) Scroll(id int, region Rect, delta int) *ProtocolViolation {
	g, v := s.lookup("grid_scroll", id)
	if v != nil {
		return v
	}
	rect, v := g.Scroll(region, delta)
	s.damageOf(id).Add(rect)
	return v
}

// MoveCursor moves the cursor of a grid. The cells under the old and new
// positions are not damaged; the surface paints the cursor separately.
func (s *GridStore) MoveCursor(id, row, col int, visible bool) *ProtocolViolation {
	g, v := s.lookup("grid_cursor_goto", id)
	if v != nil {
		return v
	}
	return g.MoveCursor(row, col, visible)
}

// DamageAll marks every grid fully damaged (used when default colors change).
func (s *GridStore) DamageAll() {
	for id, g := range s.grids {
		s.damageOf(id).Full(g.width, g.height)
	}
}

// Damage returns the pending damage of a grid.
func (s *GridStore) Damage(id int) []Rect {
	if d, ok := s.damage[id]; ok {
		return d.Rects()
	}
	return nil
}

// Damaged returns the ids of grids with pending damage in ascending order.
func (s *GridStore) Damaged() []int {
	var ids []int
	for id, d := range s.damage {
		if !d.Empty() {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

// TakeDestroyed returns and forgets the ids destroyed since the last call.
func (s *GridStore) TakeDestroyed() []int {
	out := s.destroyed
	s.destroyed = nil
	return out
}

// ResetDamage clears the damage of every grid.
func (s *GridStore) ResetDamage() {
	for _, d := range s.damage {
		d.Reset()
	}
}

// Snapshot returns a read-only copy of a grid, or nil if it does not exist.
func (s *GridStore) Snapshot(id int) *GridSnapshot {
	g, ok := s.grids[id]
	if !ok {
		return nil
	}
	return g.Snapshot()
}
