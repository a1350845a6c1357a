package nvimui

// Event is one decoded redraw event. The set of variants is closed;
// names the decoder does not recognise become UnknownEvent.
type Event interface {
	// Name returns the protocol name of the event.
	Name() string
	isEvent()
}

// RunCell is one entry of a grid_line run.
type RunCell struct {
	Text string
	// Attr is the highlight id; only meaningful when HasAttr is set.
	// A cell without an id reuses the id of the previous cell in the same event.
	Attr    int
	HasAttr bool
	// Repeat is how many times the cell is written. Zero is treated as 1.
	Repeat int
}

// GridResizeEvent reallocates a grid (creating it if needed).
type GridResizeEvent struct {
	Grid   int
	Width  int
	Height int
}

// GridClearEvent blanks every cell of a grid.
type GridClearEvent struct {
	Grid int
}

// GridDestroyEvent drops a grid.
type GridDestroyEvent struct {
	Grid int
}

// GridCursorGotoEvent moves the cursor and ties it to Grid.
type GridCursorGotoEvent struct {
	Grid int
	Row  int
	Col  int
}

// GridLineEvent writes a run of cells in one row starting at Col.
type GridLineEvent struct {
	Grid  int
	Row   int
	Col   int
	Cells []RunCell
	Wrap  bool
}

// GridScrollEvent shifts the region [Top,Bottom)x[Left,Right) by Rows.
// Positive Rows moves content up. Cols is reserved by the protocol and always 0.
type GridScrollEvent struct {
	Grid   int
	Top    int
	Bottom int
	Left   int
	Right  int
	Rows   int
	Cols   int
}

// HlAttrDefineEvent upserts a highlight.
type HlAttrDefineEvent struct {
	ID    int
	Style Style
}

// DefaultColorsSetEvent replaces the default style colors.
type DefaultColorsSetEvent struct {
	Foreground Color
	Background Color
	Special    Color
}

// ModeInfoSetEvent installs the cursor style table.
type ModeInfoSetEvent struct {
	Enabled bool
	Modes   []ModeInfo
}

// ModeChangeEvent selects an entry of the cursor style table.
type ModeChangeEvent struct {
	Mode  string
	Index int
}

// BusyEvent is busy_start (Busy=true) or busy_stop.
type BusyEvent struct {
	Busy bool
}

// MouseEvent is mouse_on (Enabled=true) or mouse_off.
type MouseEvent struct {
	Enabled bool
}

// SetTitleEvent carries a new window title.
type SetTitleEvent struct {
	Title string
}

// BellEvent is bell or visual_bell.
type BellEvent struct {
	Visual bool
}

// OptionSetEvent reports a UI option such as guifont.
type OptionSetEvent struct {
	Option string
	Value  any
}

// FlushEvent closes the current batch.
type FlushEvent struct{}

// UnknownEvent is an event the decoder does not recognise.
type UnknownEvent struct {
	Event string
	Args  []any
}

func (GridResizeEvent) Name() string       { return "grid_resize" }
func (GridClearEvent) Name() string        { return "grid_clear" }
func (GridDestroyEvent) Name() string      { return "grid_destroy" }
func (GridCursorGotoEvent) Name() string   { return "grid_cursor_goto" }
func (GridLineEvent) Name() string         { return "grid_line" }
func (GridScrollEvent) Name() string       { return "grid_scroll" }
func (HlAttrDefineEvent) Name() string     { return "hl_attr_define" }
func (DefaultColorsSetEvent) Name() string { return "default_colors_set" }
func (ModeInfoSetEvent) Name() string      { return "mode_info_set" }
func (ModeChangeEvent) Name() string       { return "mode_change" }
func (FlushEvent) Name() string            { return "flush" }
func (e UnknownEvent) Name() string        { return e.Event }
func (SetTitleEvent) Name() string         { return "set_title" }
func (OptionSetEvent) Name() string        { return "option_set" }

func (e BusyEvent) Name() string {
	if e.Busy {
		return "busy_start"
	}
	return "busy_stop"
}

func (e MouseEvent) Name() string {
	if e.Enabled {
		return "mouse_on"
	}
	return "mouse_off"
}

func (e BellEvent) Name() string {
	if e.Visual {
		return "visual_bell"
	}
	return "bell"
}

func (GridResizeEvent) isEvent()       {}
func (GridClearEvent) isEvent()        {}
func (GridDestroyEvent) isEvent()      {}
func (GridCursorGotoEvent) isEvent()   {}
func (GridLineEvent) isEvent()         {}
func (GridScrollEvent) isEvent()       {}
func (HlAttrDefineEvent) isEvent()     {}
func (DefaultColorsSetEvent) isEvent() {}
func (ModeInfoSetEvent) isEvent()      {}
func (ModeChangeEvent) isEvent()       {}
func (BusyEvent) isEvent()             {}
func (MouseEvent) isEvent()            {}
func (SetTitleEvent) isEvent()         {}
func (BellEvent) isEvent()             {}
func (OptionSetEvent) isEvent()        {}
func (FlushEvent) isEvent()            {}
func (UnknownEvent) isEvent()          {}
