// Package tui renders editor frames to a terminal through tcell and feeds
// terminal input back to the editor.
package tui

import (
	"sync"

	"github.com/gdamore/tcell/v2"

	nvimui "github.com/danielgatis/go-nvim-ui"
)

// Surface paints frames of one grid onto a tcell screen. Only damaged
// rectangles are repainted.
type Surface struct {
	mu     sync.Mutex
	screen tcell.Screen
	grid   int
	title  string
}

// NewSurface creates a surface showing the editor's default grid.
func NewSurface(screen tcell.Screen) *Surface {
	return &Surface{screen: screen, grid: nvimui.DefaultGridID}
}

// OnFrame implements nvimui.Surface.
func (s *Surface) OnFrame(frame *nvimui.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	gf := frame.GridFrame(s.grid)
	if gf == nil {
		return
	}

	styles := make(map[int]tcell.Style)
	for _, r := range gf.Damage {
		for row := r.Top; row < r.Bottom; row++ {
			for col := r.Left; col < r.Right; col++ {
				cell := gf.Grid.Cell(row, col)
				if cell == nil || cell.IsContinuation() {
					continue
				}
				st, ok := styles[cell.Attr]
				if !ok {
					st = toTcellStyle(frame.Styles.Lookup(cell.Attr), frame.Styles.Default())
					styles[cell.Attr] = st
				}
				mainc, combc := splitText(cell.Text)
				s.screen.SetContent(col, row, mainc, combc, st)
			}
		}
	}
	s.screen.Show()
}

// OnCursor implements nvimui.Surface.
func (s *Surface) OnCursor(cursor nvimui.CursorState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !cursor.Visible || cursor.Grid != s.grid {
		s.screen.HideCursor()
		s.screen.Show()
		return
	}
	s.screen.SetCursorStyle(cursorStyle(cursor.Mode))
	s.screen.ShowCursor(cursor.Col, cursor.Row)
	s.screen.Show()
}

// Ring implements nvimui.BellProvider.
func (s *Surface) Ring(bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.screen.Beep()
}

// SetTitle implements nvimui.TitleProvider.
func (s *Surface) SetTitle(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.title = title
	s.screen.SetTitle(title)
}

// Title returns the last title set.
func (s *Surface) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title
}

func toTcellStyle(style, def nvimui.Style) tcell.Style {
	fg, bg, _ := style.Resolve(def)
	return tcell.StyleDefault.
		Foreground(toTcellColor(fg)).
		Background(toTcellColor(bg)).
		Bold(style.Has(nvimui.StyleBold)).
		Italic(style.Has(nvimui.StyleItalic)).
		Underline(style.HasUnderline()).
		StrikeThrough(style.Has(nvimui.StyleStrikethrough))
}

func toTcellColor(c nvimui.Color) tcell.Color {
	if c.IsDefault() {
		return tcell.ColorDefault
	}
	rgba := c.RGBA()
	return tcell.NewRGBColor(int32(rgba.R), int32(rgba.G), int32(rgba.B))
}

func cursorStyle(mode nvimui.ModeInfo) tcell.CursorStyle {
	blink := mode.Blinks()
	switch mode.Shape {
	case nvimui.CursorShapeVertical:
		if blink {
			return tcell.CursorStyleBlinkingBar
		}
		return tcell.CursorStyleSteadyBar
	case nvimui.CursorShapeHorizontal:
		if blink {
			return tcell.CursorStyleBlinkingUnderline
		}
		return tcell.CursorStyleSteadyUnderline
	}
	if blink {
		return tcell.CursorStyleBlinkingBlock
	}
	return tcell.CursorStyleSteadyBlock
}

// splitText splits cell text into a main rune and combining runes.
func splitText(text string) (rune, []rune) {
	if text == "" {
		return ' ', nil
	}
	runes := []rune(text)
	return runes[0], runes[1:]
}

var (
	_ nvimui.Surface       = (*Surface)(nil)
	_ nvimui.BellProvider  = (*Surface)(nil)
	_ nvimui.TitleProvider = (*Surface)(nil)
)
