package tui

import (
	"log/slog"
	"strings"

	"github.com/gdamore/tcell/v2"

	nvimui "github.com/danielgatis/go-nvim-ui"
)

// Translator is the subset of *nvimui.InputTranslator the pump drives.
type Translator interface {
	Key(ev nvimui.KeyEvent) error
	Pointer(ev nvimui.PointerEvent) error
	Paste(text string) error
	Resize(cols, rows int)
	Focus(focused bool) error
}

var keyMap = map[tcell.Key]nvimui.Key{
	tcell.KeyEnter:      nvimui.KeyEnter,
	tcell.KeyEscape:     nvimui.KeyEscape,
	tcell.KeyBackspace:  nvimui.KeyBackspace,
	tcell.KeyBackspace2: nvimui.KeyBackspace,
	tcell.KeyTab:        nvimui.KeyTab,
	tcell.KeyDelete:     nvimui.KeyDelete,
	tcell.KeyInsert:     nvimui.KeyInsert,
	tcell.KeyHome:       nvimui.KeyHome,
	tcell.KeyEnd:        nvimui.KeyEnd,
	tcell.KeyPgUp:       nvimui.KeyPageUp,
	tcell.KeyPgDn:       nvimui.KeyPageDown,
	tcell.KeyUp:         nvimui.KeyUp,
	tcell.KeyDown:       nvimui.KeyDown,
	tcell.KeyLeft:       nvimui.KeyLeft,
	tcell.KeyRight:      nvimui.KeyRight,
}

// Pump reads terminal events and forwards them to a translator.
type Pump struct {
	screen     tcell.Screen
	translator Translator
	logger     *slog.Logger

	buttons tcell.ButtonMask
	lastX   int
	lastY   int

	pasting bool
	paste   strings.Builder
}

// NewPump creates a pump. A nil logger uses slog.Default().
func NewPump(screen tcell.Screen, translator Translator, logger *slog.Logger) *Pump {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pump{screen: screen, translator: translator, logger: logger}
}

// Run polls events until the screen is finalized.
func (p *Pump) Run() {
	for {
		ev := p.screen.PollEvent()
		if ev == nil {
			return
		}
		p.Handle(ev)
	}
}

// Handle forwards one event.
func (p *Pump) Handle(ev tcell.Event) {
	var err error
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if p.pasting {
			p.bufferPaste(ev)
			return
		}
		if kev, ok := translateKey(ev); ok {
			err = p.translator.Key(kev)
		}
	case *tcell.EventPaste:
		err = p.handlePaste(ev)
	case *tcell.EventMouse:
		err = p.handleMouse(ev)
	case *tcell.EventResize:
		w, h := ev.Size()
		p.translator.Resize(w, h)
	case *tcell.EventFocus:
		err = p.translator.Focus(ev.Focused)
	}
	if err != nil {
		p.logger.Debug("failed to forward input", "error", err)
	}
}

func (p *Pump) handlePaste(ev *tcell.EventPaste) error {
	if ev.Start() {
		p.pasting = true
		p.paste.Reset()
		return nil
	}
	p.pasting = false
	text := p.paste.String()
	p.paste.Reset()
	if text == "" {
		return nil
	}
	return p.translator.Paste(text)
}

func (p *Pump) bufferPaste(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyRune:
		p.paste.WriteRune(ev.Rune())
	case tcell.KeyEnter:
		p.paste.WriteByte('\n')
	case tcell.KeyTab:
		p.paste.WriteByte('\t')
	}
}

func translateKey(ev *tcell.EventKey) (nvimui.KeyEvent, bool) {
	mods := translateMods(ev.Modifiers())
	key := ev.Key()

	if key == tcell.KeyRune {
		return nvimui.KeyEvent{Rune: ev.Rune(), Mods: mods}, true
	}
	if key == tcell.KeyBacktab {
		return nvimui.KeyEvent{Key: nvimui.KeyTab, Mods: mods | nvimui.ModShift}, true
	}
	if k, ok := keyMap[key]; ok {
		return nvimui.KeyEvent{Key: k, Mods: mods}, true
	}
	if key >= tcell.KeyF1 && key <= tcell.KeyF12 {
		return nvimui.KeyEvent{Key: nvimui.KeyF1 + nvimui.Key(key-tcell.KeyF1), Mods: mods}, true
	}

	switch {
	case key >= tcell.KeyCtrlA && key <= tcell.KeyCtrlZ:
		return nvimui.KeyEvent{Rune: rune('a' + (key - tcell.KeyCtrlA)), Mods: mods | nvimui.ModCtrl}, true
	case key == tcell.KeyCtrlSpace:
		return nvimui.KeyEvent{Rune: ' ', Mods: mods | nvimui.ModCtrl}, true
	case key == tcell.KeyCtrlBackslash:
		return nvimui.KeyEvent{Rune: '\\', Mods: mods | nvimui.ModCtrl}, true
	case key == tcell.KeyCtrlRightSq:
		return nvimui.KeyEvent{Rune: ']', Mods: mods | nvimui.ModCtrl}, true
	case key == tcell.KeyCtrlCarat:
		return nvimui.KeyEvent{Rune: '^', Mods: mods | nvimui.ModCtrl}, true
	case key == tcell.KeyCtrlUnderscore:
		return nvimui.KeyEvent{Rune: '_', Mods: mods | nvimui.ModCtrl}, true
	}
	return nvimui.KeyEvent{}, false
}

func translateMods(m tcell.ModMask) nvimui.Modifiers {
	var mods nvimui.Modifiers
	if m&tcell.ModShift != 0 {
		mods |= nvimui.ModShift
	}
	if m&tcell.ModCtrl != 0 {
		mods |= nvimui.ModCtrl
	}
	if m&tcell.ModAlt != 0 {
		mods |= nvimui.ModAlt
	}
	if m&tcell.ModMeta != 0 {
		mods |= nvimui.ModMeta
	}
	return mods
}

const pressMask = tcell.Button1 | tcell.Button2 | tcell.Button3

func (p *Pump) handleMouse(ev *tcell.EventMouse) error {
	x, y := ev.Position()
	buttons := ev.Buttons()
	mods := translateMods(ev.Modifiers())
	pointer := func(button nvimui.MouseButton, action nvimui.MouseAction) nvimui.PointerEvent {
		return nvimui.PointerEvent{Button: button, Action: action, Mods: mods, Row: y, Col: x}
	}

	switch {
	case buttons&tcell.WheelUp != 0:
		return p.translator.Pointer(pointer(nvimui.MouseWheel, nvimui.ActionWheelUp))
	case buttons&tcell.WheelDown != 0:
		return p.translator.Pointer(pointer(nvimui.MouseWheel, nvimui.ActionWheelDown))
	case buttons&tcell.WheelLeft != 0:
		return p.translator.Pointer(pointer(nvimui.MouseWheel, nvimui.ActionWheelLeft))
	case buttons&tcell.WheelRight != 0:
		return p.translator.Pointer(pointer(nvimui.MouseWheel, nvimui.ActionWheelRight))
	}

	pressed := buttons & pressMask
	prev := p.buttons
	moved := x != p.lastX || y != p.lastY
	p.buttons, p.lastX, p.lastY = pressed, x, y

	switch {
	case pressed != 0 && prev == 0:
		return p.translator.Pointer(pointer(mouseButton(pressed), nvimui.ActionPress))
	case pressed != 0 && moved:
		return p.translator.Pointer(pointer(mouseButton(pressed), nvimui.ActionDrag))
	case pressed == 0 && prev != 0:
		return p.translator.Pointer(pointer(mouseButton(prev), nvimui.ActionRelease))
	}
	return nil
}

func mouseButton(b tcell.ButtonMask) nvimui.MouseButton {
	switch {
	case b&tcell.Button1 != 0:
		return nvimui.MouseLeft
	case b&tcell.Button3 != 0:
		return nvimui.MouseMiddle
	default:
		return nvimui.MouseRight
	}
}
