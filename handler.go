package nvimui

import (
	"context"
	"strings"
)

// handleEvent applies one redraw event, through the Event middleware if set.
func (e *Engine) handleEvent(ev Event) {
	e.mu.RLock()
	mw := e.middleware
	e.mu.RUnlock()

	if mw != nil && mw.Event != nil {
		mw.Event(ev, e.applyEvent)
		return
	}
	e.applyEvent(ev)
}

func (e *Engine) applyEvent(ev Event) {
	e.mu.Lock()
	if e.state == StateClosed {
		e.mu.Unlock()
		return
	}
	e.stats.Events++
	if _, isFlush := ev.(FlushEvent); !isFlush && e.state == StateIdle {
		e.state = StateBatchOpen
	}
	e.mu.Unlock()

	switch ev := ev.(type) {
	case GridResizeEvent:
		e.GridResize(ev)
	case GridClearEvent:
		e.GridClear(ev)
	case GridDestroyEvent:
		e.GridDestroy(ev)
	case GridCursorGotoEvent:
		e.GridCursorGoto(ev)
	case GridLineEvent:
		e.GridLine(ev)
	case GridScrollEvent:
		e.GridScroll(ev)
	case HlAttrDefineEvent:
		e.HlAttrDefine(ev)
	case DefaultColorsSetEvent:
		e.DefaultColorsSet(ev)
	case ModeInfoSetEvent:
		e.ModeInfoSet(ev)
	case ModeChangeEvent:
		e.ModeChange(ev)
	case BusyEvent:
		e.Busy(ev.Busy)
	case MouseEvent:
		e.Mouse(ev.Enabled)
	case SetTitleEvent:
		e.SetTitle(ev.Title)
	case BellEvent:
		e.Bell(ev.Visual)
	case OptionSetEvent:
		e.OptionSet(ev)
	case FlushEvent:
		e.Flush()
	case UnknownEvent:
		e.ignore(ev.Event)
	}
}

// GridResize reallocates a grid, creating it if needed.
func (e *Engine) GridResize(ev GridResizeEvent) {
	if mw := e.Middleware(); mw != nil && mw.GridResize != nil {
		mw.GridResize(ev, e.gridResizeInternal)
		return
	}
	e.gridResizeInternal(ev)
}

func (e *Engine) gridResizeInternal(ev GridResizeEvent) {
	e.mu.Lock()
	v := e.grids.Resize(ev.Grid, ev.Width, ev.Height)
	if v == nil && e.cursor.Grid == ev.Grid {
		e.syncCursorLocked()
	}
	e.mu.Unlock()
	e.reportViolation(v)
}

// GridClear blanks every cell of a grid.
func (e *Engine) GridClear(ev GridClearEvent) {
	if mw := e.Middleware(); mw != nil && mw.GridClear != nil {
		mw.GridClear(ev, e.gridClearInternal)
		return
	}
	e.gridClearInternal(ev)
}

func (e *Engine) gridClearInternal(ev GridClearEvent) {
	e.mu.Lock()
	v := e.grids.Clear(ev.Grid)
	e.mu.Unlock()
	e.reportViolation(v)
}

// GridDestroy drops a grid. The next frame lists it in Destroyed.
func (e *Engine) GridDestroy(ev GridDestroyEvent) {
	e.mu.Lock()
	v := e.grids.Destroy(ev.Grid)
	if v == nil && e.cursor.Grid == ev.Grid {
		e.cursorDirty = true
	}
	e.mu.Unlock()
	e.reportViolation(v)
}

// GridCursorGoto moves the cursor and ties it to the target grid.
func (e *Engine) GridCursorGoto(ev GridCursorGotoEvent) {
	e.mu.Lock()
	v := e.grids.MoveCursor(ev.Grid, ev.Row, ev.Col, true)
	if v == nil || e.grids.Grid(ev.Grid) != nil {
		e.cursor.Grid = ev.Grid
		e.syncCursorLocked()
	}
	e.mu.Unlock()
	e.reportViolation(v)
}

// syncCursorLocked copies the position of the cursor's grid into the cursor state.
func (e *Engine) syncCursorLocked() {
	if g := e.grids.Grid(e.cursor.Grid); g != nil {
		e.cursor.Row, e.cursor.Col, _ = g.Cursor()
	}
	e.cursorDirty = true
}

// cursorStateLocked assembles the cursor as reported to the surface.
func (e *Engine) cursorStateLocked() CursorState {
	cs := e.cursor
	mode := e.modes.active()
	cs.Mode = mode
	cs.ModeName = e.modes.name
	cs.ModeIndex = e.modes.current
	cs.Visible = false
	if g := e.grids.Grid(cs.Grid); g != nil && !cs.Busy {
		_, _, cs.Visible = g.Cursor()
	}
	return cs
}

// GridLine writes a run of cells.
func (e *Engine) GridLine(ev GridLineEvent) {
	if mw := e.Middleware(); mw != nil && mw.GridLine != nil {
		mw.GridLine(ev, e.gridLineInternal)
		return
	}
	e.gridLineInternal(ev)
}

func (e *Engine) gridLineInternal(ev GridLineEvent) {
	e.mu.Lock()
	v := e.grids.WriteRun(ev.Grid, ev.Row, ev.Col, ev.Cells)
	e.mu.Unlock()
	e.reportViolation(v)
}

// GridScroll shifts a region of a grid.
func (e *Engine) GridScroll(ev GridScrollEvent) {
	if mw := e.Middleware(); mw != nil && mw.GridScroll != nil {
		mw.GridScroll(ev, e.gridScrollInternal)
		return
	}
	e.gridScrollInternal(ev)
}

func (e *Engine) gridScrollInternal(ev GridScrollEvent) {
	region := Rect{Top: ev.Top, Bottom: ev.Bottom, Left: ev.Left, Right: ev.Right}
	e.mu.Lock()
	v := e.grids.Scroll(ev.Grid, region, ev.Rows)
	e.mu.Unlock()
	e.reportViolation(v)
	if ev.Cols != 0 {
		e.reportViolation(violation("grid_scroll", ev.Grid, "horizontal scroll of %d columns is not supported", ev.Cols))
	}
}

// HlAttrDefine upserts a highlight. The default id 0 cannot be redefined.
func (e *Engine) HlAttrDefine(ev HlAttrDefineEvent) {
	if mw := e.Middleware(); mw != nil && mw.HlAttrDefine != nil {
		mw.HlAttrDefine(ev, e.hlAttrDefineInternal)
		return
	}
	e.hlAttrDefineInternal(ev)
}

func (e *Engine) hlAttrDefineInternal(ev HlAttrDefineEvent) {
	e.mu.Lock()
	ok := e.attrs.Define(ev.ID, ev.Style)
	e.mu.Unlock()
	if !ok {
		e.reportViolation(violation("hl_attr_define", 0, "highlight id %d is reserved", ev.ID))
	}
}

// DefaultColorsSet replaces the default style and damages every grid.
func (e *Engine) DefaultColorsSet(ev DefaultColorsSetEvent) {
	st := NewStyle()
	st.Foreground = ev.Foreground
	st.Background = ev.Background
	st.Special = ev.Special

	e.mu.Lock()
	e.attrs.SetDefault(st)
	e.grids.DamageAll()
	e.mu.Unlock()
}

// ModeInfoSet installs the cursor style table.
func (e *Engine) ModeInfoSet(ev ModeInfoSetEvent) {
	e.mu.Lock()
	e.modes.set(ev.Enabled, ev.Modes)
	e.cursorDirty = true
	e.mu.Unlock()
}

// ModeChange selects the active cursor style.
func (e *Engine) ModeChange(ev ModeChangeEvent) {
	e.mu.Lock()
	ok := e.modes.change(ev.Mode, ev.Index)
	e.cursorDirty = true
	e.mu.Unlock()
	if !ok {
		e.reportViolation(violation("mode_change", 0, "mode index %d out of range", ev.Index))
	}
}

// Busy hides the cursor while the editor is busy.
func (e *Engine) Busy(busy bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cursor.Busy != busy {
		e.cursor.Busy = busy
		e.cursorDirty = true
	}
}

// Mouse records whether the editor accepts pointer input.
func (e *Engine) Mouse(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mouseEnabled = enabled
}

// SetTitle stores the title and forwards it to the title provider.
func (e *Engine) SetTitle(title string) {
	if mw := e.Middleware(); mw != nil && mw.SetTitle != nil {
		mw.SetTitle(title, e.setTitleInternal)
		return
	}
	e.setTitleInternal(title)
}

func (e *Engine) setTitleInternal(title string) {
	e.mu.Lock()
	e.title = title
	p := e.titleProvider
	e.mu.Unlock()
	p.SetTitle(title)
}

// Bell forwards bell and visual_bell to the bell provider.
func (e *Engine) Bell(visual bool) {
	if mw := e.Middleware(); mw != nil && mw.Bell != nil {
		mw.Bell(visual, e.bellInternal)
		return
	}
	e.bellInternal(visual)
}

func (e *Engine) bellInternal(visual bool) {
	e.mu.RLock()
	p := e.bellProvider
	e.mu.RUnlock()
	p.Ring(visual)
}

// OptionSet records a UI option.
func (e *Engine) OptionSet(ev OptionSetEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.options[ev.Option] = ev.Value
}

// Flush closes the batch and emits one frame.
func (e *Engine) Flush() {
	if mw := e.Middleware(); mw != nil && mw.Flush != nil {
		mw.Flush(e.flushInternal)
		return
	}
	e.flushInternal()
}

func (e *Engine) flushInternal() {
	e.mu.Lock()
	if e.state == StateClosed {
		e.mu.Unlock()
		return
	}
	e.seq++
	frame := &Frame{
		Seq:       e.seq,
		Destroyed: e.grids.TakeDestroyed(),
		Cursor:    e.cursorStateLocked(),
		Styles:    e.attrs.Snapshot(),
	}
	for _, id := range e.grids.Damaged() {
		frame.Grids = append(frame.Grids, GridFrame{
			Grid:   e.grids.Snapshot(id),
			Damage: e.grids.Damage(id),
		})
	}
	e.grids.ResetDamage()
	cursorChanged := e.cursorDirty
	e.cursorDirty = false
	e.state = StateIdle
	e.stats.Frames++

	surface := e.surface
	mw := e.middleware
	observers := make([]FrameObserver, len(e.observers))
	copy(observers, e.observers)
	e.mu.Unlock()

	e.metrics.frame(context.Background(), len(frame.Grids))

	deliver := func(f *Frame) {
		surface.OnFrame(f)
		if cursorChanged {
			surface.OnCursor(f.Cursor)
		}
		for _, o := range observers {
			o.FrameRendered(f.Seq)
		}
	}
	if mw != nil && mw.Frame != nil {
		mw.Frame(frame, deliver)
		return
	}
	deliver(frame)
}

// handleGuiNotification handles the GUI side channel:
// ["Clipboard", "Set", register, text], ["Font", name], ["Linespace", n].
func (e *Engine) handleGuiNotification(params []any) {
	name, _ := argString(params, 0)
	switch name {
	case "Clipboard":
		op, _ := argString(params, 1)
		if op != "Set" {
			e.reportViolation(violation("Gui", 0, "unknown clipboard operation %q", op))
			return
		}
		reg, _ := argString(params, 2)
		text, ok := argText(params, 3)
		if !ok {
			e.reportViolation(violation("Gui", 0, "clipboard set without text"))
			return
		}
		e.ClipboardProvider().Write(reg, text)
	case "Font":
		font, _ := argString(params, 1)
		e.OptionSet(OptionSetEvent{Option: "guifont", Value: font})
	case "Linespace":
		if len(params) > 1 {
			e.OptionSet(OptionSetEvent{Option: "linespace", Value: normalizeValue(params[1])})
		}
	default:
		e.ignore("gui:" + name)
	}
}

// handleRequest answers a request from the editor. It runs on its own
// goroutine so the mutation stream keeps flowing.
func (e *Engine) handleRequest(msg *Message) {
	var resp *Message
	switch {
	case msg.Method == "Gui" && isClipboardGet(msg.Params):
		reg, _ := argString(msg.Params, 2)
		text := e.ClipboardProvider().Read(reg)
		lines := strings.Split(text, "\n")
		result := make([]any, len(lines))
		for i, l := range lines {
			result[i] = l
		}
		resp = NewResponse(msg.ID, nil, result)
	default:
		e.logger.Warn("unsupported request", "method", msg.Method)
		resp = NewResponse(msg.ID, []any{0, "unsupported request " + msg.Method}, nil)
	}
	if err := e.send(resp); err != nil {
		e.logger.Debug("failed to answer request", "method", msg.Method, "id", msg.ID, "error", err)
	}
}

func isClipboardGet(params []any) bool {
	name, _ := argString(params, 0)
	op, _ := argString(params, 1)
	return name == "Clipboard" && op == "Get"
}

func argString(params []any, i int) (string, bool) {
	if i >= len(params) {
		return "", false
	}
	return asString(params[i])
}

// argText accepts a string or a list of lines joined with newlines.
func argText(params []any, i int) (string, bool) {
	if s, ok := argString(params, i); ok {
		return s, true
	}
	if i >= len(params) {
		return "", false
	}
	lines, ok := params[i].([]any)
	if !ok {
		return "", false
	}
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		s, ok := asString(l)
		if !ok {
			return "", false
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "\n"), true
}
