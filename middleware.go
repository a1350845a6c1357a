package nvimui

// Middleware intercepts event application and frame delivery, allowing custom
// behavior before/after execution. Each field wraps one handler: it receives
// the original parameters and a next function that runs the default
// implementation. Not calling next suppresses the default.
type Middleware struct {
	// Event wraps the application of every redraw event, before the
	// per-event hooks below.
	Event func(ev Event, next func(Event))

	// GridResize wraps the grid_resize handler
	GridResize func(ev GridResizeEvent, next func(GridResizeEvent))

	// GridClear wraps the grid_clear handler
	GridClear func(ev GridClearEvent, next func(GridClearEvent))

	// GridLine wraps the grid_line handler
	GridLine func(ev GridLineEvent, next func(GridLineEvent))

	// GridScroll wraps the grid_scroll handler
	GridScroll func(ev GridScrollEvent, next func(GridScrollEvent))

	// HlAttrDefine wraps the hl_attr_define handler
	HlAttrDefine func(ev HlAttrDefineEvent, next func(HlAttrDefineEvent))

	// SetTitle wraps the set_title handler
	SetTitle func(title string, next func(string))

	// Bell wraps the bell and visual_bell handlers
	Bell func(visual bool, next func(bool))

	// Flush wraps frame emission at the end of a batch
	Flush func(next func())

	// Frame wraps delivery of a frame to the surface
	Frame func(frame *Frame, next func(*Frame))

	// Send wraps every outgoing message
	Send func(msg *Message, next func(*Message) error) error
}

// Merge copies non-nil middleware functions from other into this, overwriting existing values.
func (m *Middleware) Merge(other *Middleware) {
	if other == nil {
		return
	}

	if other.Event != nil {
		m.Event = other.Event
	}
	if other.GridResize != nil {
		m.GridResize = other.GridResize
	}
	if other.GridClear != nil {
		m.GridClear = other.GridClear
	}
	if other.GridLine != nil {
		m.GridLine = other.GridLine
	}
	if other.GridScroll != nil {
		m.GridScroll = other.GridScroll
	}
	if other.HlAttrDefine != nil {
		m.HlAttrDefine = other.HlAttrDefine
	}
	if other.SetTitle != nil {
		m.SetTitle = other.SetTitle
	}
	if other.Bell != nil {
		m.Bell = other.Bell
	}
	if other.Flush != nil {
		m.Flush = other.Flush
	}
	if other.Frame != nil {
		m.Frame = other.Frame
	}
	if other.Send != nil {
		m.Send = other.Send
	}
}
