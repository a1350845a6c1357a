package nvimui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

const waitFor = 2 * time.Second

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startEngine runs an engine over a MemoryChannel until the test ends.
func startEngine(t *testing.T, opts ...Option) (*Engine, *MemoryChannel, *MemorySurface) {
	t.Helper()
	ch := NewMemoryChannel(64)
	surface := NewMemorySurface()
	base := []Option{WithSurface(surface), WithLogger(discardLogger())}
	e := New(ch, append(base, opts...)...)

	errc := make(chan error, 1)
	go func() { errc <- e.Run(context.Background()) }()
	t.Cleanup(func() {
		_ = e.Close()
		<-errc
	})
	return e, ch, surface
}

func redraw(batches ...[]any) *Message {
	params := make([]any, len(batches))
	for i, b := range batches {
		params[i] = b
	}
	return NewNotification("redraw", params...)
}

func flush() []any {
	return []any{"flush"}
}

func waitFrames(t *testing.T, s *MemorySurface, n int) []*Frame {
	t.Helper()
	require.Eventually(t, func() bool { return len(s.Frames()) >= n }, waitFor, time.Millisecond,
		"expected %d frames", n)
	return s.Frames()
}

// nextOutgoing returns the next message the engine sent.
func nextOutgoing(t *testing.T, ch *MemoryChannel) *Message {
	t.Helper()
	select {
	case msg := <-ch.Outgoing():
		return msg
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for an outgoing message")
		return nil
	}
}

// serve answers every request the engine sends with handler's result.
func serve(t *testing.T, ch *MemoryChannel, handler func(*Message) (errPayload, result any)) {
	ctx := t.Context()
	go func() {
		for {
			select {
			case msg := <-ch.Outgoing():
				if msg.Kind != KindRequest {
					continue
				}
				errPayload, result := handler(msg)
				if ch.Inject(NewResponse(msg.ID, errPayload, result)) != nil {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

func helloBatches() [][]any {
	return [][]any{
		batch("grid_resize", []any{1, 10, 3}),
		batch("default_colors_set", []any{0xffffff, 0x000000, 0xff0000, 0, 0}),
		batch("hl_attr_define", []any{1, map[string]any{"bold": true, "foreground": 0x00ff00}, map[string]any{}, []any{}}),
		batch("grid_line", []any{1, 0, 0, []any{
			[]any{"H", 1},
			[]any{"E"},
			[]any{"L", 1, 2},
			[]any{"O"},
		}}),
		batch("grid_cursor_goto", []any{1, 0, 5}),
	}
}

func TestEngineHelloFrame(t *testing.T) {
	e, ch, surface := startEngine(t)

	require.NoError(t, ch.Inject(redraw(append(helloBatches(), flush())...)))

	frames := waitFrames(t, surface, 1)
	require.Len(t, frames, 1)
	frame := frames[0]

	assert.Equal(t, uint64(1), frame.Seq)
	gf := frame.GridFrame(1)
	require.NotNil(t, gf)
	assert.Equal(t, "HELLO", gf.Grid.LineContent(0))
	assert.Equal(t, []Rect{{Top: 0, Bottom: 3, Left: 0, Right: 10}}, gf.Damage)
	for col := 0; col < 5; col++ {
		assert.Equal(t, 1, gf.Grid.Cell(0, col).Attr, "col %d", col)
	}
	assert.Equal(t, DefaultAttrID, gf.Grid.Cell(0, 5).Attr)

	assert.True(t, frame.Styles.Lookup(1).Has(StyleBold))
	assert.Equal(t, RGB(0xff, 0xff, 0xff), frame.Styles.Default().Foreground)

	assert.Equal(t, 0, frame.Cursor.Row)
	assert.Equal(t, 5, frame.Cursor.Col)
	assert.True(t, frame.Cursor.Visible)
	assert.Len(t, surface.Cursors(), 1)

	assert.Equal(t, uint64(1), e.Stats().Frames)
	assert.Equal(t, StateIdle, e.State())
	assert.Equal(t, []int{1}, e.Grids())
}

func TestEngineBatchingEquivalence(t *testing.T) {
	one, chOne, surfaceOne := startEngine(t)
	split, chSplit, surfaceSplit := startEngine(t)

	batches := helloBatches()
	require.NoError(t, chOne.Inject(redraw(append(batches, flush())...)))
	for _, b := range batches {
		require.NoError(t, chSplit.Inject(redraw(b)))
	}
	require.NoError(t, chSplit.Inject(redraw(flush())))

	waitFrames(t, surfaceOne, 1)
	waitFrames(t, surfaceSplit, 1)

	assert.Len(t, surfaceOne.Frames(), 1)
	assert.Len(t, surfaceSplit.Frames(), 1)
	assert.Equal(t, one.Snapshot(1), split.Snapshot(1))
	assert.Equal(t, one.Cursor(), split.Cursor())
}

func TestEngineNoFrameBeforeFlush(t *testing.T) {
	e, ch, surface := startEngine(t)

	require.NoError(t, ch.Inject(redraw(helloBatches()...)))

	require.Eventually(t, func() bool {
		snap := e.Snapshot(1)
		return snap != nil && snap.LineContent(0) == "HELLO"
	}, waitFor, time.Millisecond)
	assert.Empty(t, surface.Frames())
	assert.Equal(t, StateBatchOpen, e.State())

	require.NoError(t, ch.Inject(redraw(flush())))
	waitFrames(t, surface, 1)
}

func TestEngineEmptyFlush(t *testing.T) {
	e, ch, surface := startEngine(t)

	require.NoError(t, ch.Inject(redraw(flush())))

	frames := waitFrames(t, surface, 1)
	assert.Empty(t, frames[0].Grids)
	assert.Empty(t, surface.Cursors())
	assert.Equal(t, StateIdle, e.State())
}

func TestEngineResponseDuringOpenBatch(t *testing.T) {
	e, ch, surface := startEngine(t)
	require.NoError(t, ch.Inject(redraw(batch("grid_resize", []any{1, 5, 1}), flush())))
	waitFrames(t, surface, 1)

	type result struct {
		value any
		err   error
	}
	resc := make(chan result, 1)
	go func() {
		v, err := e.Call(context.Background(), "nvim_eval", "1+1")
		resc <- result{v, err}
	}()

	req := nextOutgoing(t, ch)
	require.Equal(t, KindRequest, req.Kind)
	require.Equal(t, "nvim_eval", req.Method)
	assert.Equal(t, []any{"1+1"}, req.Params)

	// Mutations arrive before the response; the batch stays open.
	require.NoError(t, ch.Inject(redraw(batch("grid_line", []any{1, 0, 0, []any{[]any{"a"}, []any{"b"}, []any{"c"}}}))))
	require.NoError(t, ch.Inject(NewResponse(req.ID, nil, int64(2))))

	select {
	case res := <-resc:
		require.NoError(t, res.err)
		assert.Equal(t, int64(2), res.value)
	case <-time.After(waitFor):
		t.Fatal("call did not return")
	}

	assert.Equal(t, "abc", e.Snapshot(1).LineContent(0))
	assert.Len(t, surface.Frames(), 1)
	assert.Equal(t, StateBatchOpen, e.State())

	require.NoError(t, ch.Inject(redraw(flush())))
	frames := waitFrames(t, surface, 2)
	assert.Equal(t, "abc", frames[1].GridFrame(1).Grid.LineContent(0))
}

func TestEngineErrorResponse(t *testing.T) {
	e, ch, _ := startEngine(t)
	serve(t, ch, func(*Message) (any, any) {
		return []any{int64(0), "Vim:E492: Not an editor command: foo"}, nil
	})

	err := e.Command(context.Background(), "foo")

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, "nvim_command", reqErr.Method)
	assert.Contains(t, err.Error(), "E492")
	assert.Equal(t, uint64(1), e.Stats().RequestsFailed)

	// The session survives a failed request.
	assert.NotEqual(t, StateClosed, e.State())
}

func TestEngineCallContextCanceled(t *testing.T) {
	e, _, _ := startEngine(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := e.Call(ctx, "nvim_get_mode")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, e.Pending())
}

func TestEngineUniqueRequestIDs(t *testing.T) {
	e, ch, _ := startEngine(t)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), waitFor)
			defer cancel()
			_, _ = e.Call(ctx, "nvim_get_mode")
		}()
	}

	seen := make(map[uint32]bool)
	for i := 0; i < 5; i++ {
		req := nextOutgoing(t, ch)
		assert.False(t, seen[req.ID], "duplicate id %d", req.ID)
		seen[req.ID] = true
	}
	for id := range seen {
		require.NoError(t, ch.Inject(NewResponse(id, nil, nil)))
	}
	wg.Wait()
	assert.Equal(t, 0, e.Pending())
}

func TestEngineCloseFailsPending(t *testing.T) {
	closer := &recordingClose{}
	e, ch, surface := startEngine(t, WithCloseProvider(closer))
	require.NoError(t, ch.Inject(redraw(append(helloBatches(), flush())...)))
	waitFrames(t, surface, 1)

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := e.Call(context.Background(), "nvim_get_mode")
			errs <- err
		}()
	}
	require.Eventually(t, func() bool { return e.Pending() == 2 }, waitFor, time.Millisecond)

	require.NoError(t, ch.Close())

	for i := 0; i < 2; i++ {
		select {
		case err := <-errs:
			assert.ErrorIs(t, err, ErrChannelClosed)
		case <-time.After(waitFor):
			t.Fatal("pending call was not resolved")
		}
	}
	select {
	case <-e.Done():
	case <-time.After(waitFor):
		t.Fatal("engine did not stop")
	}

	assert.Equal(t, StateClosed, e.State())
	assert.Equal(t, 0, e.Pending())
	assert.Equal(t, 1, closer.count())

	// Nothing is applied or emitted after close.
	e.handleEvent(GridLineEvent{Grid: 1, Cells: runOf("zz")})
	e.handleEvent(FlushEvent{})
	assert.Len(t, surface.Frames(), 1)
	assert.Equal(t, "HELLO", e.Snapshot(1).LineContent(0))

	_, err := e.Call(context.Background(), "nvim_get_mode")
	assert.ErrorIs(t, err, ErrChannelClosed)
	assert.ErrorIs(t, e.Notify("nvim_input", "x"), ErrChannelClosed)
}

func TestEngineRunCanceled(t *testing.T) {
	ch := NewMemoryChannel(4)
	e := New(ch, WithLogger(discardLogger()))
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() { errc <- e.Run(ctx) }()
	cancel()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(waitFor):
		t.Fatal("run did not return")
	}
	assert.Error(t, e.Run(context.Background()), "second run must fail")
}

func TestEngineIgnoredEvents(t *testing.T) {
	e, ch, surface := startEngine(t)

	require.NoError(t, ch.Inject(redraw(
		batch("win_viewport", []any{2}, []any{3}),
		batch("msg_show", []any{"echo"}),
		flush(),
	)))
	require.NoError(t, ch.Inject(NewNotification("nvim_buf_lines_event", 1)))
	require.NoError(t, ch.Inject(NewNotification("Gui", "Option", "x")))

	waitFrames(t, surface, 1)
	require.Eventually(t, func() bool { return e.Stats().Ignored == 5 }, waitFor, time.Millisecond)
	assert.Equal(t, map[string]uint64{
		"win_viewport":                      2,
		"msg_show":                          1,
		"notification:nvim_buf_lines_event": 1,
		"gui:Option":                        1,
	}, e.IgnoredCounts())
}

func TestEngineViolationsAreNotFatal(t *testing.T) {
	e, ch, surface := startEngine(t)

	require.NoError(t, ch.Inject(redraw(
		batch("grid_resize", []any{1, 3, 1}),
		batch("grid_line", []any{9, 0, 0, []any{[]any{"x"}}}),
		batch("grid_line", []any{1, 0, 0, []any{[]any{"y", 0, 5}}}),
		batch("hl_attr_define", []any{0, map[string]any{"bold": true}, map[string]any{}, []any{}}),
		batch("grid_cursor_goto", []any{1, 0, 1}),
		flush(),
	)))

	frames := waitFrames(t, surface, 1)
	assert.Equal(t, "yyy", frames[0].GridFrame(1).Grid.LineContent(0))
	assert.Equal(t, uint64(3), e.Stats().Violations)
	assert.False(t, e.Styles().Default().Has(StyleBold))
}

func TestEngineGridLifecycle(t *testing.T) {
	_, ch, surface := startEngine(t)

	require.NoError(t, ch.Inject(redraw(
		batch("grid_resize", []any{1, 4, 2}, []any{2, 3, 1}),
		flush(),
	)))
	frames := waitFrames(t, surface, 1)
	assert.Len(t, frames[0].Grids, 2)

	require.NoError(t, ch.Inject(redraw(batch("grid_destroy", []any{2}), flush())))
	frames = waitFrames(t, surface, 2)
	assert.Equal(t, []int{2}, frames[1].Destroyed)
	assert.Empty(t, frames[1].Grids)

	require.NoError(t, ch.Inject(redraw(
		batch("default_colors_set", []any{0x101010, 0xf0f0f0, -1}),
		flush(),
	)))
	frames = waitFrames(t, surface, 3)
	gf := frames[2].GridFrame(1)
	require.NotNil(t, gf)
	assert.Equal(t, []Rect{{Bottom: 2, Right: 4}}, gf.Damage)
}

func TestEngineScroll(t *testing.T) {
	e, ch, surface := startEngine(t)

	require.NoError(t, ch.Inject(redraw(
		batch("grid_resize", []any{1, 2, 3}),
		batch("grid_line",
			[]any{1, 0, 0, []any{[]any{"a", 0, 2}}},
			[]any{1, 1, 0, []any{[]any{"b", 0, 2}}},
			[]any{1, 2, 0, []any{[]any{"c", 0, 2}}},
		),
		flush(),
	)))
	waitFrames(t, surface, 1)

	require.NoError(t, ch.Inject(redraw(
		batch("grid_scroll", []any{1, 0, 3, 0, 2, 1, 0}),
		batch("grid_line", []any{1, 2, 0, []any{[]any{"d", 0, 2}}}),
		flush(),
	)))
	frames := waitFrames(t, surface, 2)

	assert.Equal(t, "bb\ncc\ndd", e.Snapshot(1).Content())
	assert.Equal(t, []Rect{{Bottom: 3, Right: 2}}, frames[1].GridFrame(1).Damage)
}

func TestEngineHelloScrollScenario(t *testing.T) {
	// Positive rows move content up, as the editor sends them. A downward
	// scroll (-1) is what lands HELLO on row 1.
	tests := []struct {
		name string
		rows int
		want []string
	}{
		{"content up", 1, []string{"", "", ""}},
		{"content down", -1, []string{"", "HELLO", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ch, surface := startEngine(t)

			require.NoError(t, ch.Inject(redraw(batch("grid_resize", []any{1, 10, 3}), flush())))
			waitFrames(t, surface, 1)

			require.NoError(t, ch.Inject(redraw(
				batch("grid_line", []any{1, 0, 0, []any{
					[]any{"H", 0}, []any{"E"}, []any{"L", 0, 2}, []any{"O"},
				}}),
				flush(),
			)))
			frames := waitFrames(t, surface, 2)
			gf := frames[1].GridFrame(1)
			require.NotNil(t, gf)
			assert.Equal(t, "HELLO", gf.Grid.LineContent(0))
			assert.Equal(t, []Rect{{Top: 0, Bottom: 1, Left: 0, Right: 5}}, gf.Damage)

			require.NoError(t, ch.Inject(redraw(
				batch("grid_scroll", []any{1, 0, 3, 0, 10, tt.rows, 0}),
				flush(),
			)))
			frames = waitFrames(t, surface, 3)
			gf = frames[2].GridFrame(1)
			require.NotNil(t, gf)

			snap := e.Snapshot(1)
			for row, want := range tt.want {
				assert.Equal(t, want, snap.LineContent(row), "row %d", row)
			}
			for col := 0; col < 10; col++ {
				assert.Equal(t, DefaultAttrID, snap.Cell(0, col).Attr, "row 0 col %d", col)
			}

			for row := 0; row < 2; row++ {
				for col := 0; col < 10; col++ {
					covered := false
					for _, r := range gf.Damage {
						if r.Contains(row, col) {
							covered = true
							break
						}
					}
					assert.True(t, covered, "cell (%d,%d) not damaged", row, col)
				}
			}
		})
	}
}

func TestEngineCursorModes(t *testing.T) {
	e, ch, surface := startEngine(t)

	require.NoError(t, ch.Inject(redraw(
		batch("grid_resize", []any{1, 4, 2}),
		batch("mode_info_set", []any{true, []any{
			map[string]any{"name": "normal", "cursor_shape": "block"},
			map[string]any{"name": "insert", "cursor_shape": "vertical", "cell_percentage": 25},
		}}),
		batch("mode_change", []any{"insert", 1}),
		batch("grid_cursor_goto", []any{1, 1, 2}),
		flush(),
	)))
	frames := waitFrames(t, surface, 1)

	cursor := frames[0].Cursor
	assert.Equal(t, CursorShapeVertical, cursor.Mode.Shape)
	assert.Equal(t, "insert", cursor.ModeName)
	assert.Equal(t, 1, cursor.ModeIndex)

	require.NoError(t, ch.Inject(redraw([]any{"busy_start"}, flush())))
	frames = waitFrames(t, surface, 2)
	assert.False(t, frames[1].Cursor.Visible)
	assert.Len(t, surface.Cursors(), 2)

	require.NoError(t, ch.Inject(redraw([]any{"busy_stop"}, flush())))
	waitFrames(t, surface, 3)
	assert.True(t, e.Cursor().Visible)
}

func TestEngineMouseAndOptions(t *testing.T) {
	e, ch, surface := startEngine(t)
	assert.True(t, e.MouseEnabled())

	require.NoError(t, ch.Inject(redraw(
		[]any{"mouse_off"},
		batch("option_set", []any{"guifont", "Iosevka:h12"}, []any{"linespace", 2}),
		flush(),
	)))
	waitFrames(t, surface, 1)

	assert.False(t, e.MouseEnabled())
	assert.Equal(t, map[string]any{"guifont": "Iosevka:h12", "linespace": 2}, e.Options())

	font, err := e.GUIFont(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Iosevka:h12", font)
}

type recordingBell struct {
	mu     sync.Mutex
	visual []bool
}

func (b *recordingBell) Ring(visual bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.visual = append(b.visual, visual)
}

func (b *recordingBell) rings() []bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]bool(nil), b.visual...)
}

type recordingTitle struct {
	mu    sync.Mutex
	title string
}

func (p *recordingTitle) SetTitle(title string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.title = title
}

func (p *recordingTitle) get() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.title
}

type recordingClose struct {
	mu   sync.Mutex
	errs []error
}

func (c *recordingClose) Closed(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, err)
}

func (c *recordingClose) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.errs)
}

func TestEngineProviders(t *testing.T) {
	bell := &recordingBell{}
	title := &recordingTitle{}
	e, ch, surface := startEngine(t, WithBell(bell), WithTitle(title))

	require.NoError(t, ch.Inject(redraw(
		batch("set_title", []any{"main.go - NVIM"}),
		[]any{"bell"},
		[]any{"visual_bell"},
		flush(),
	)))
	waitFrames(t, surface, 1)

	assert.Equal(t, "main.go - NVIM", title.get())
	assert.Equal(t, "main.go - NVIM", e.Title())
	assert.Equal(t, []bool{false, true}, bell.rings())
}

func TestEngineGuiClipboard(t *testing.T) {
	clipboard := NewMemoryClipboard()
	_, ch, _ := startEngine(t, WithClipboard(clipboard))

	require.NoError(t, ch.Inject(NewNotification("Gui", "Clipboard", "Set", "+", []any{"first", "second"})))
	require.NoError(t, ch.Inject(NewRequest(7, "Gui", "Clipboard", "Get", "+")))

	resp := nextOutgoing(t, ch)
	require.Equal(t, KindResponse, resp.Kind)
	assert.Equal(t, uint32(7), resp.ID)
	assert.Nil(t, resp.Error)
	assert.Equal(t, []any{"first", "second"}, resp.Result)
	assert.Equal(t, "first\nsecond", clipboard.Read("+"))
}

func TestEngineUnsupportedRequest(t *testing.T) {
	_, ch, _ := startEngine(t)

	require.NoError(t, ch.Inject(NewRequest(3, "vim_unknown")))

	resp := nextOutgoing(t, ch)
	require.Equal(t, KindResponse, resp.Kind)
	assert.Equal(t, uint32(3), resp.ID)
	assert.NotNil(t, resp.Error)
}

func TestEngineGuiFont(t *testing.T) {
	e, ch, _ := startEngine(t)

	require.NoError(t, ch.Inject(NewNotification("Gui", "Font", "Fira Code:h11")))

	require.Eventually(t, func() bool {
		return e.Options()["guifont"] == "Fira Code:h11"
	}, waitFor, time.Millisecond)
}

func TestEngineMiddleware(t *testing.T) {
	var lines atomic.Int32
	var sent sync.Map
	mw := &Middleware{
		GridLine: func(ev GridLineEvent, next func(GridLineEvent)) {
			lines.Add(1)
			for i := range ev.Cells {
				ev.Cells[i].Text = strings.ToUpper(ev.Cells[i].Text)
			}
			next(ev)
		},
		SetTitle: func(title string, next func(string)) {
			// Suppressed
		},
		Send: func(msg *Message, next func(*Message) error) error {
			sent.Store(msg.Method, true)
			return next(msg)
		},
	}
	e, ch, surface := startEngine(t, WithMiddleware(mw))

	require.NoError(t, ch.Inject(redraw(
		batch("grid_resize", []any{1, 3, 1}),
		batch("grid_line", []any{1, 0, 0, []any{[]any{"a"}, []any{"b"}, []any{"c"}}}),
		batch("set_title", []any{"ignored"}),
		flush(),
	)))
	waitFrames(t, surface, 1)

	assert.Equal(t, int32(1), lines.Load())
	assert.Equal(t, "ABC", e.Snapshot(1).LineContent(0))
	assert.Empty(t, e.Title())

	require.NoError(t, e.Notify("nvim_input", "x"))
	_, ok := sent.Load("nvim_input")
	assert.True(t, ok)
}

func TestEngineFrameMiddlewareAndObservers(t *testing.T) {
	var seqs []uint64
	var mu sync.Mutex
	observer := frameObserverFunc(func(seq uint64) {
		mu.Lock()
		defer mu.Unlock()
		seqs = append(seqs, seq)
	})
	mw := &Middleware{
		Frame: func(frame *Frame, next func(*Frame)) {
			// Drop frames without damage.
			if len(frame.Grids) == 0 && len(frame.Destroyed) == 0 {
				return
			}
			next(frame)
		},
	}
	_, ch, surface := startEngine(t, WithMiddleware(mw), WithFrameObserver(observer))

	require.NoError(t, ch.Inject(redraw(flush())))
	require.NoError(t, ch.Inject(redraw(batch("grid_resize", []any{1, 1, 1}), flush())))

	frames := waitFrames(t, surface, 1)
	assert.Equal(t, uint64(2), frames[0].Seq)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seqs) == 1 && seqs[0] == 2
	}, waitFor, time.Millisecond)
}

type frameObserverFunc func(seq uint64)

func (f frameObserverFunc) FrameRendered(seq uint64) { f(seq) }

func TestEngineRecording(t *testing.T) {
	recorder := NewMemoryRecording()
	_, ch, surface := startEngine(t, WithRecording(recorder))

	require.NoError(t, ch.Inject(redraw(flush())))
	waitFrames(t, surface, 1)

	msgs := recorder.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "redraw", msgs[0].Method)
}

func TestEngineAttach(t *testing.T) {
	tests := []struct {
		name       string
		opts       AttachOptions
		cols, rows int
	}{
		{"explicit size", AttachOptions{Cols: 100, Rows: 40}, 100, 40},
		{"from size provider", AttachOptions{}, 80, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ch, _ := startEngine(t)
			reqs := make(chan *Message, 1)
			serve(t, ch, func(msg *Message) (any, any) {
				reqs <- msg
				return nil, nil
			})

			cols, rows, err := e.Attach(context.Background(), AttachOptions{
				Cols:  tt.opts.Cols,
				Rows:  tt.opts.Rows,
				Extra: map[string]any{"ext_multigrid": true},
			})
			require.NoError(t, err)
			assert.Equal(t, tt.cols, cols)
			assert.Equal(t, tt.rows, rows)

			req := <-reqs
			assert.Equal(t, "nvim_ui_attach", req.Method)
			require.Len(t, req.Params, 3)
			assert.Equal(t, tt.cols, req.Params[0])
			assert.Equal(t, tt.rows, req.Params[1])
			assert.Equal(t, map[string]any{"rgb": true, "ext_linegrid": true, "ext_multigrid": true}, req.Params[2])
		})
	}
}

func TestEngineRegisterRequests(t *testing.T) {
	e, ch, _ := startEngine(t)
	serve(t, ch, func(msg *Message) (any, any) {
		switch {
		case msg.Method == "nvim_call_function" && msg.Params[0] == "getreg":
			return nil, []any{"line one", []byte("line two")}
		case msg.Method == "nvim_get_option_value":
			return nil, []byte("Hack:h10")
		}
		return nil, nil
	})

	text, err := e.Clipboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", text)

	require.NoError(t, e.SetRegister(context.Background(), "a", "hello"))
	require.NoError(t, e.TryResize(context.Background(), 90, 30))

	font, err := e.GUIFont(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Hack:h10", font)
}

func TestEngineMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	e, ch, surface := startEngine(t, WithMeterProvider(provider))

	require.NoError(t, ch.Inject(redraw(append(helloBatches(),
		batch("win_viewport", []any{1}),
		batch("grid_line", []any{5, 0, 0, []any{[]any{"x"}}}),
		flush(),
	)...)))
	waitFrames(t, surface, 1)
	require.Eventually(t, func() bool { return e.Stats().Violations == 1 }, waitFor, time.Millisecond)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	sums := make(map[string]int64)
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if data, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range data.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(1), sums["nvimui.frames"])
	assert.Equal(t, int64(1), sums["nvimui.events.ignored"])
	assert.Equal(t, int64(1), sums["nvimui.protocol.violations"])
}

func TestEngineStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "batch-open", StateBatchOpen.String())
	assert.Equal(t, "closed", StateClosed.String())
	assert.True(t, strings.HasPrefix(EngineState(9).String(), "EngineState("))
}

func TestEngineMaxPayload(t *testing.T) {
	ch := NewMemoryChannel(1)
	ch.SetMaxPayload(4096)
	e := New(ch)

	assert.Equal(t, 4096, e.MaxPayload())
	assert.False(t, errors.Is(e.Notify("nvim_input", "x"), ErrChannelClosed))
}
