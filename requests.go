package nvimui

import (
	"context"
	"fmt"
	"strings"
)

// AttachOptions configures the UI handshake.
type AttachOptions struct {
	// Cols and Rows are the initial grid size. When either is zero the size
	// is derived from the SizeProvider's window and cell metrics.
	Cols int
	Rows int
	// Extra UI options merged into the attach request (for example
	// "ext_multigrid": true).
	Extra map[string]any
}

// Attach performs the handshake: nvim_ui_attach with RGB colors and the line
// based grid protocol. Returns the size it attached with.
func (e *Engine) Attach(ctx context.Context, opts AttachOptions) (cols, rows int, err error) {
	cols, rows = opts.Cols, opts.Rows
	if cols <= 0 || rows <= 0 {
		sp := e.SizeProvider()
		w, h := sp.WindowSizePixels()
		cols, rows = CellsFor(sp, w, h)
	}

	uiOpts := map[string]any{
		"rgb":          true,
		"ext_linegrid": true,
	}
	for k, v := range opts.Extra {
		uiOpts[k] = v
	}

	if _, err := e.Call(ctx, "nvim_ui_attach", cols, rows, uiOpts); err != nil {
		return 0, 0, fmt.Errorf("attach: %w", err)
	}
	e.logger.Info("attached", "cols", cols, "rows", rows)
	return cols, rows, nil
}

// TryResize asks the editor to resize the default grid.
func (e *Engine) TryResize(ctx context.Context, cols, rows int) error {
	_, err := e.Call(ctx, "nvim_ui_try_resize", cols, rows)
	return err
}

// Command executes an Ex command.
func (e *Engine) Command(ctx context.Context, cmd string) error {
	_, err := e.Call(ctx, "nvim_command", cmd)
	return err
}

// Register returns the content of a register as lines.
func (e *Engine) Register(ctx context.Context, reg string) ([]string, error) {
	res, err := e.Call(ctx, "nvim_call_function", "getreg", []any{reg, 1, 1})
	if err != nil {
		return nil, err
	}
	lines, ok := res.([]any)
	if !ok {
		if s, ok := asString(res); ok {
			return strings.Split(s, "\n"), nil
		}
		return nil, fmt.Errorf("getreg %q: unexpected result %T", reg, res)
	}
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		s, ok := asString(l)
		if !ok {
			return nil, fmt.Errorf("getreg %q: unexpected line %T", reg, l)
		}
		out = append(out, s)
	}
	return out, nil
}

// Clipboard returns the "+" register joined with newlines. A failed request
// is returned to the caller; the session continues.
func (e *Engine) Clipboard(ctx context.Context) (string, error) {
	lines, err := e.Register(ctx, "+")
	if err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}

// SetRegister writes text to a register.
func (e *Engine) SetRegister(ctx context.Context, reg, text string) error {
	_, err := e.Call(ctx, "nvim_call_function", "setreg", []any{reg, text})
	return err
}

// OptionValue returns the global value of an editor option.
func (e *Engine) OptionValue(ctx context.Context, name string) (any, error) {
	res, err := e.Call(ctx, "nvim_get_option_value", name, map[string]any{})
	if err != nil {
		return nil, err
	}
	return normalizeValue(res), nil
}

// GUIFont returns the guifont option; the value last reported by
// option_set is used when present.
func (e *Engine) GUIFont(ctx context.Context) (string, error) {
	if v, ok := e.Options()["guifont"]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s, nil
		}
	}
	v, err := e.OptionValue(ctx, "guifont")
	if err != nil {
		return "", err
	}
	s, _ := asString(v)
	return s, nil
}
