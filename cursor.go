package nvimui

// CursorShape determines how the cursor is rendered.
type CursorShape int

const (
	CursorShapeBlock CursorShape = iota
	CursorShapeHorizontal
	CursorShapeVertical
)

// String returns the protocol name of the shape.
func (s CursorShape) String() string {
	switch s {
	case CursorShapeHorizontal:
		return "horizontal"
	case CursorShapeVertical:
		return "vertical"
	default:
		return "block"
	}
}

func parseCursorShape(s string) CursorShape {
	switch s {
	case "horizontal":
		return CursorShapeHorizontal
	case "vertical":
		return CursorShapeVertical
	default:
		return CursorShapeBlock
	}
}

// ModeInfo is one entry of the cursor style table sent with mode_info_set.
type ModeInfo struct {
	Name      string      `json:"name,omitempty"`
	ShortName string      `json:"short_name,omitempty"`
	Shape     CursorShape `json:"shape"`
	// CellPercentage is the share of the cell covered by horizontal and
	// vertical cursors (1-100). Zero means the full cell.
	CellPercentage int `json:"cell_percentage,omitempty"`
	// Blink timings in milliseconds; zero BlinkOn or BlinkOff means no blinking.
	BlinkWait int `json:"blinkwait,omitempty"`
	BlinkOn   int `json:"blinkon,omitempty"`
	BlinkOff  int `json:"blinkoff,omitempty"`
	// AttrID is the highlight of the cursor; zero means inverted colors.
	AttrID int `json:"attr_id,omitempty"`
}

// Blinks returns true if the mode asks for a blinking cursor.
func (m ModeInfo) Blinks() bool {
	return m.BlinkOn > 0 && m.BlinkOff > 0
}

// CursorState is the cursor as reported to the surface after a flush.
type CursorState struct {
	Grid    int  `json:"grid"`
	Row     int  `json:"row"`
	Col     int  `json:"col"`
	Visible bool `json:"visible"`
	Busy    bool `json:"busy"`
	// Mode is the active cursor style; zero value is a block cursor.
	Mode      ModeInfo `json:"mode"`
	ModeName  string   `json:"mode_name,omitempty"`
	ModeIndex int      `json:"mode_index"`
}

// modeTable stores the cursor styles announced by mode_info_set.
type modeTable struct {
	enabled bool
	modes   []ModeInfo
	current int
	name    string
}

func (t *modeTable) set(enabled bool, modes []ModeInfo) {
	t.enabled = enabled
	t.modes = modes
	if t.current >= len(modes) {
		t.current = 0
	}
}

// change selects the mode by index. It returns false when the index is out of range.
func (t *modeTable) change(name string, idx int) bool {
	t.name = name
	if idx < 0 || (len(t.modes) > 0 && idx >= len(t.modes)) {
		return false
	}
	t.current = idx
	return true
}

// active returns the selected mode, or a block cursor when styling is
// disabled or no table has been received.
func (t *modeTable) active() ModeInfo {
	if !t.enabled || t.current >= len(t.modes) {
		return ModeInfo{Name: t.name, Shape: CursorShapeBlock}
	}
	return t.modes[t.current]
}
