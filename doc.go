// Package nvimui is a front-end protocol engine for an embedded Neovim.
//
// It decodes the editor's batched UI events (the line-based grid protocol),
// keeps a model of every grid with per-cell highlight ids, emits one
// consistent [Frame] per flush with the damaged rectangles, and translates
// keyboard, mouse, paste and resize input back into protocol messages. It is
// useful for:
//   - Building GUI or terminal front-ends without reimplementing the protocol
//   - Testing editor plugins by inspecting what is on screen
//   - Rendering editor screenshots headlessly
//
// # Quick Start
//
// Connect the engine to a running editor and attach:
//
//	cmd := exec.Command("nvim", "--embed")
//	stdin, _ := cmd.StdinPipe()
//	stdout, _ := cmd.StdoutPipe()
//	cmd.Start()
//
//	conn := msgpackrpc.New(stdout, stdin, msgpackrpc.WithCloser(stdin))
//	surface := nvimui.NewMemorySurface()
//	engine := nvimui.New(conn, nvimui.WithSurface(surface))
//	go engine.Run(ctx)
//
//	engine.Attach(ctx, nvimui.AttachOptions{Cols: 80, Rows: 24})
//	<-surface.Notify()
//	fmt.Println(engine.Snapshot(nvimui.DefaultGridID).LineContent(0))
//
// # Architecture
//
// The package is organized around these core types:
//
//   - [Engine]: reads the [Channel], applies events and correlates requests
//   - [GridStore] and [Grid]: cell grids with cursor and damage tracking
//   - [AttrTable]: highlight id to [Style] mapping, default style at id 0
//   - [InputTranslator]: toolkit input to nvim_input, nvim_input_mouse,
//     nvim_paste and nvim_ui_try_resize
//   - [Surface]: the renderer, handed a [Frame] once per flush
//
// # Frames
//
// Events between two flush events form a batch. Mutations apply to the model
// immediately, but the surface only sees them at the flush, so it never
// renders a half-applied batch. A frame holds copies of the damaged grids,
// so it may be rendered on another goroutine:
//
//	type mySurface struct{}
//
//	func (mySurface) OnFrame(f *nvimui.Frame) {
//	    for _, gf := range f.Grids {
//	        for _, r := range gf.Damage {
//	            // repaint r from gf.Grid using f.Styles
//	        }
//	    }
//	}
//
//	func (mySurface) OnCursor(c nvimui.CursorState) {}
//
// # Requests
//
// Requests run alongside the event stream. [Engine.Call] waits for its own
// response only; the engine keeps applying events meanwhile, even inside an
// open batch:
//
//	lines, err := engine.Register(ctx, "+")
//	var reqErr *nvimui.RequestError
//	if errors.As(err, &reqErr) {
//	    // the editor rejected the request; the session continues
//	}
//
// When the channel closes every pending request fails with [ErrChannelClosed]
// and the [CloseProvider] is told once.
//
// # Input
//
// The translator sends keys at once, coalesces drags to one per rendered
// frame, splits large pastes on grapheme boundaries and debounces resizes:
//
//	input := nvimui.NewInputTranslator(engine)
//	engine.AddFrameObserver(input)
//	input.Key(nvimui.KeyEvent{Rune: 'w', Mods: nvimui.ModCtrl}) // "<C-w>"
//	input.Paste(clipboardText)
//	input.Resize(120, 40)
//
// # Providers
//
// Optional collaborators are injected as interfaces with no-op defaults:
// [ClipboardProvider] for the Gui clipboard channel, [TitleProvider],
// [BellProvider], [SizeProvider] for pixel to cell conversion,
// [CloseProvider] and [RecordingProvider] for capturing raw traffic.
//
// # Middleware
//
// [Middleware] wraps event application, frame delivery and outgoing messages:
//
//	engine.SetMiddleware(&nvimui.Middleware{
//	    GridLine: func(ev nvimui.GridLineEvent, next func(nvimui.GridLineEvent)) {
//	        log.Printf("line %d", ev.Row)
//	        next(ev)
//	    },
//	})
//
// # Diagnostics
//
// Malformed or out-of-range events are clipped or dropped and reported as
// [ProtocolViolation] warnings; unknown events are counted by name
// ([Engine.IgnoredCounts]). Counters are also exported through the
// OpenTelemetry meter provider set with [WithMeterProvider].
//
// # Thread Safety
//
// Engine accessors are safe for concurrent use. Surface and observer
// callbacks run on the goroutine that called [Engine.Run], after the engine
// lock has been released.
package nvimui
