package nvimui

import "math"

// DecodeRedraw converts the params of a "redraw" notification into events.
// Each param is a batch [name, args1, args2, ...]; every args tuple yields one
// event. Malformed tuples are skipped and returned as violations; decoding
// continues with the next tuple.
func DecodeRedraw(params []any) ([]Event, []*ProtocolViolation) {
	var events []Event
	var violations []*ProtocolViolation

	for _, raw := range params {
		batch, ok := raw.([]any)
		if !ok || len(batch) == 0 {
			violations = append(violations, violation("redraw", 0, "batch is not a non-empty array"))
			continue
		}
		name, ok := asString(batch[0])
		if !ok {
			violations = append(violations, violation("redraw", 0, "event name is %T", batch[0]))
			continue
		}
		tuples := batch[1:]
		// Some events (flush, busy_start, ...) may arrive without an args tuple.
		if len(tuples) == 0 {
			tuples = []any{[]any{}}
		}
		for _, rawArgs := range tuples {
			args, ok := rawArgs.([]any)
			if !ok {
				violations = append(violations, violation(name, 0, "args are %T", rawArgs))
				continue
			}
			ev, v := decodeEvent(name, args)
			if v != nil {
				violations = append(violations, v)
				continue
			}
			events = append(events, ev)
		}
	}
	return events, violations
}

func decodeEvent(name string, args []any) (Event, *ProtocolViolation) {
	a := argReader{event: name, args: args}

	switch name {
	case "grid_resize":
		ev := GridResizeEvent{Grid: a.intAt(0), Width: a.intAt(1), Height: a.intAt(2)}
		return ev, a.err
	case "grid_clear":
		return GridClearEvent{Grid: a.intAt(0)}, a.err
	case "grid_destroy":
		return GridDestroyEvent{Grid: a.intAt(0)}, a.err
	case "grid_cursor_goto":
		ev := GridCursorGotoEvent{Grid: a.intAt(0), Row: a.intAt(1), Col: a.intAt(2)}
		return ev, a.err
	case "grid_line":
		ev := GridLineEvent{Grid: a.intAt(0), Row: a.intAt(1), Col: a.intAt(2)}
		if a.err != nil {
			return nil, a.err
		}
		cells, v := decodeRun(ev.Grid, a.sliceAt(3))
		if a.err != nil {
			return nil, a.err
		}
		if v != nil {
			return nil, v
		}
		ev.Cells = cells
		if len(args) > 4 {
			ev.Wrap, _ = args[4].(bool)
		}
		return ev, nil
	case "grid_scroll":
		ev := GridScrollEvent{
			Grid:   a.intAt(0),
			Top:    a.intAt(1),
			Bottom: a.intAt(2),
			Left:   a.intAt(3),
			Right:  a.intAt(4),
			Rows:   a.intAt(5),
		}
		if len(args) > 6 {
			ev.Cols = a.intAt(6)
		}
		return ev, a.err
	case "hl_attr_define":
		id := a.intAt(0)
		m := a.mapAt(1)
		if a.err != nil {
			return nil, a.err
		}
		return HlAttrDefineEvent{ID: id, Style: styleFromMap(m)}, nil
	case "default_colors_set":
		ev := DefaultColorsSetEvent{
			Foreground: Color(a.intAt(0)),
			Background: Color(a.intAt(1)),
			Special:    Color(a.intAt(2)),
		}
		return ev, a.err
	case "mode_info_set":
		enabled := a.boolAt(0)
		infos := a.sliceAt(1)
		if a.err != nil {
			return nil, a.err
		}
		modes := make([]ModeInfo, 0, len(infos))
		for _, raw := range infos {
			m, ok := asMap(raw)
			if !ok {
				return nil, violation(name, 0, "mode info is %T", raw)
			}
			modes = append(modes, modeInfoFromMap(m))
		}
		return ModeInfoSetEvent{Enabled: enabled, Modes: modes}, nil
	case "mode_change":
		ev := ModeChangeEvent{Mode: a.stringAt(0), Index: a.intAt(1)}
		return ev, a.err
	case "busy_start":
		return BusyEvent{Busy: true}, nil
	case "busy_stop":
		return BusyEvent{Busy: false}, nil
	case "mouse_on":
		return MouseEvent{Enabled: true}, nil
	case "mouse_off":
		return MouseEvent{Enabled: false}, nil
	case "set_title":
		return SetTitleEvent{Title: a.stringAt(0)}, a.err
	case "bell":
		return BellEvent{}, nil
	case "visual_bell":
		return BellEvent{Visual: true}, nil
	case "option_set":
		ev := OptionSetEvent{Option: a.stringAt(0)}
		if len(args) > 1 {
			ev.Value = normalizeValue(args[1])
		}
		return ev, a.err
	case "flush":
		return FlushEvent{}, nil
	default:
		return UnknownEvent{Event: name, Args: args}, nil
	}
}

// decodeRun parses the cells of a grid_line: each is [text, hl_id?, repeat?].
func decodeRun(grid int, raw []any) ([]RunCell, *ProtocolViolation) {
	cells := make([]RunCell, 0, len(raw))
	for i, rc := range raw {
		tuple, ok := rc.([]any)
		if !ok || len(tuple) == 0 {
			return nil, violation("grid_line", grid, "cell %d is not a non-empty array", i)
		}
		text, ok := asString(tuple[0])
		if !ok {
			return nil, violation("grid_line", grid, "cell %d text is %T", i, tuple[0])
		}
		cell := RunCell{Text: text, Repeat: 1}
		if len(tuple) > 1 {
			id, ok := asInt(tuple[1])
			if !ok {
				return nil, violation("grid_line", grid, "cell %d hl_id is %T", i, tuple[1])
			}
			cell.Attr = id
			cell.HasAttr = true
		}
		if len(tuple) > 2 {
			n, ok := asInt(tuple[2])
			if !ok || n < 1 {
				return nil, violation("grid_line", grid, "cell %d repeat %v is invalid", i, tuple[2])
			}
			cell.Repeat = n
		}
		cells = append(cells, cell)
	}
	return cells, nil
}

// styleFromMap parses an rgb_attr dictionary of hl_attr_define.
func styleFromMap(m map[string]any) Style {
	st := NewStyle()
	for key, val := range m {
		switch key {
		case "foreground":
			st.Foreground = colorValue(val)
		case "background":
			st.Background = colorValue(val)
		case "special":
			st.Special = colorValue(val)
		case "blend":
			if n, ok := asInt(val); ok {
				st.Blend = n
			}
		default:
			if flag, ok := styleFlagNames[key]; ok && truthy(val) {
				st.Flags |= flag
			}
		}
	}
	return st
}

var styleFlagNames = map[string]StyleFlags{
	"bold":          StyleBold,
	"italic":        StyleItalic,
	"underline":     StyleUnderline,
	"undercurl":     StyleUndercurl,
	"underdouble":   StyleUnderdouble,
	"underdotted":   StyleUnderdotted,
	"underdashed":   StyleUnderdashed,
	"strikethrough": StyleStrikethrough,
	"reverse":       StyleReverse,
	"altfont":       StyleAltFont,
	"nocombine":     StyleNoCombine,
}

func modeInfoFromMap(m map[string]any) ModeInfo {
	var info ModeInfo
	info.Name, _ = asString(m["name"])
	info.ShortName, _ = asString(m["short_name"])
	if s, ok := asString(m["cursor_shape"]); ok {
		info.Shape = parseCursorShape(s)
	}
	info.CellPercentage, _ = asInt(m["cell_percentage"])
	info.BlinkWait, _ = asInt(m["blinkwait"])
	info.BlinkOn, _ = asInt(m["blinkon"])
	info.BlinkOff, _ = asInt(m["blinkoff"])
	info.AttrID, _ = asInt(m["attr_id"])
	return info
}

func colorValue(v any) Color {
	n, ok := asInt(v)
	if !ok || n < 0 || n > 0xffffff {
		return ColorDefault
	}
	return Color(n)
}

func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case nil:
		return false
	}
	n, ok := asInt(v)
	return ok && n != 0
}

// argReader extracts typed positional arguments, remembering the first failure.
type argReader struct {
	event string
	args  []any
	err   *ProtocolViolation
}

func (a *argReader) at(i int) (any, bool) {
	if a.err != nil {
		return nil, false
	}
	if i >= len(a.args) {
		a.err = violation(a.event, 0, "missing argument %d", i)
		return nil, false
	}
	return a.args[i], true
}

func (a *argReader) intAt(i int) int {
	v, ok := a.at(i)
	if !ok {
		return 0
	}
	n, ok := asInt(v)
	if !ok {
		a.err = violation(a.event, 0, "argument %d is %T, want integer", i, v)
	}
	return n
}

func (a *argReader) boolAt(i int) bool {
	v, ok := a.at(i)
	if !ok {
		return false
	}
	return truthy(v)
}

func (a *argReader) stringAt(i int) string {
	v, ok := a.at(i)
	if !ok {
		return ""
	}
	s, ok := asString(v)
	if !ok {
		a.err = violation(a.event, 0, "argument %d is %T, want string", i, v)
	}
	return s
}

func (a *argReader) sliceAt(i int) []any {
	v, ok := a.at(i)
	if !ok {
		return nil
	}
	s, ok := v.([]any)
	if !ok {
		a.err = violation(a.event, 0, "argument %d is %T, want array", i, v)
	}
	return s
}

func (a *argReader) mapAt(i int) map[string]any {
	v, ok := a.at(i)
	if !ok {
		return nil
	}
	m, ok := asMap(v)
	if !ok {
		a.err = violation(a.event, 0, "argument %d is %T, want map", i, v)
	}
	return m
}

// asInt accepts every numeric type a msgpack decoder may produce.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int(n), true
	case float32:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

func asString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case []byte:
		return string(s), true
	}
	return "", false
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			key, ok := asString(k)
			if !ok {
				return nil, false
			}
			out[key] = val
		}
		return out, true
	}
	return nil, false
}

// normalizeValue converts decoder-specific types to string, int, bool, nil,
// []any or map[string]any.
func normalizeValue(v any) any {
	if s, ok := v.([]byte); ok {
		return string(s)
	}
	if _, ok := v.(bool); ok {
		return v
	}
	if n, ok := asInt(v); ok {
		return n
	}
	if m, ok := asMap(v); ok {
		return m
	}
	return v
}
