package nvimui

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rivo/uniseg"
)

const (
	// DefaultDragInterval reopens the drag gate when no frame arrives in time.
	DefaultDragInterval = 16 * time.Millisecond
	// DefaultResizeDelay debounces resize requests.
	DefaultResizeDelay = 200 * time.Millisecond
	// pasteOverhead is reserved in each chunk for the message envelope.
	pasteOverhead = 64
)

// Notifier sends fire-and-forget messages to the editor. *Engine implements it.
type Notifier interface {
	Notify(method string, args ...any) error
}

// mouseGate is implemented by sinks that know whether the editor wants
// pointer input (*Engine tracks mouse_on/mouse_off).
type mouseGate interface {
	MouseEnabled() bool
}

// MouseButton names a pointer button as nvim_input_mouse expects it.
type MouseButton string

const (
	MouseLeft   MouseButton = "left"
	MouseRight  MouseButton = "right"
	MouseMiddle MouseButton = "middle"
	MouseWheel  MouseButton = "wheel"
	MouseMove   MouseButton = "move"
)

// MouseAction names a pointer action as nvim_input_mouse expects it.
type MouseAction string

const (
	ActionPress      MouseAction = "press"
	ActionDrag       MouseAction = "drag"
	ActionRelease    MouseAction = "release"
	ActionWheelUp    MouseAction = "up"
	ActionWheelDown  MouseAction = "down"
	ActionWheelLeft  MouseAction = "left"
	ActionWheelRight MouseAction = "right"
)

// PointerEvent is one pointer event in grid coordinates. Grid 0 lets the
// editor pick the grid under the position.
type PointerEvent struct {
	Button MouseButton
	Action MouseAction
	Mods   Modifiers
	Grid   int
	Row    int
	Col    int
}

// InputTranslator turns toolkit input into editor messages. Keys, presses,
// releases and wheel ticks are sent at once; drags are coalesced so at most
// one is in flight per frame; resizes are debounced.
// All methods are safe for concurrent use.
type InputTranslator struct {
	sink   Notifier
	logger *slog.Logger

	mu sync.Mutex

	// Drag coalescing
	dragInterval time.Duration
	dragInFlight bool
	pendingDrag  *PointerEvent
	dragTimer    *time.Timer
	dragGen      uint64

	// Pointer events waiting to be sent, in order
	mouseQueue []PointerEvent
	draining   bool

	// Resize debouncing
	resizeDelay   time.Duration
	resizeTimer   *time.Timer
	pendingCols   int
	pendingRows   int
	requestedCols int
	requestedRows int

	chunkSize int
	metrics   SizeProvider
	closed    bool
}

// InputOption configures an InputTranslator.
type InputOption func(*InputTranslator)

// WithInputLogger sets the logger. Defaults to slog.Default().
func WithInputLogger(l *slog.Logger) InputOption {
	return func(t *InputTranslator) {
		t.logger = l
	}
}

// WithDragInterval sets how long a drag may stay in flight without a frame
// before the next one is sent.
func WithDragInterval(d time.Duration) InputOption {
	return func(t *InputTranslator) {
		t.dragInterval = d
	}
}

// WithResizeDelay sets the resize debounce delay.
func WithResizeDelay(d time.Duration) InputOption {
	return func(t *InputTranslator) {
		t.resizeDelay = d
	}
}

// WithPasteChunkSize sets the maximum bytes per nvim_paste call. When unset
// the sink's MaxPayload is used; zero means no chunking.
func WithPasteChunkSize(n int) InputOption {
	return func(t *InputTranslator) {
		t.chunkSize = n
	}
}

// WithCellMetrics sets the provider used by ResizePixels.
func WithCellMetrics(p SizeProvider) InputOption {
	return func(t *InputTranslator) {
		t.metrics = p
	}
}

// NewInputTranslator creates a translator sending to sink.
func NewInputTranslator(sink Notifier, opts ...InputOption) *InputTranslator {
	t := &InputTranslator{
		sink:         sink,
		dragInterval: DefaultDragInterval,
		resizeDelay:  DefaultResizeDelay,
		chunkSize:    -1,
		metrics:      NoopSizeProvider{},
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	return t
}

// Key sends one key press.
func (t *InputTranslator) Key(ev KeyEvent) error {
	keys := ev.Notation()
	if keys == "" {
		return nil
	}
	return t.Input(keys)
}

// Input sends raw key notation.
func (t *InputTranslator) Input(keys string) error {
	return t.sink.Notify("nvim_input", keys)
}

// Pointer sends a pointer event. Drags are coalesced: while one is in flight
// only the latest position is kept, and it is sent when the next frame is
// rendered or DragInterval elapses. Any other action first sends a pending
// drag, so the final drag position always precedes the release.
// Events are dropped while the editor has the mouse off. Pointer events are
// sent in order; when another goroutine is already sending, the event is
// left to it and the returned error is nil.
func (t *InputTranslator) Pointer(ev PointerEvent) error {
	if g, ok := t.sink.(mouseGate); ok && !g.MouseEnabled() {
		return nil
	}

	t.mu.Lock()
	if ev.Action == ActionDrag {
		if t.dragInFlight {
			p := ev
			t.pendingDrag = &p
			t.mu.Unlock()
			return nil
		}
		t.dragInFlight = true
		t.armDragTimerLocked()
	} else {
		t.takePendingDragLocked()
		t.stopDragTimerLocked()
		t.dragInFlight = false
	}
	t.mouseQueue = append(t.mouseQueue, ev)
	claimed := t.claimDrainLocked()
	t.mu.Unlock()
	if !claimed {
		return nil
	}
	return t.drain()
}

// FrameRendered implements FrameObserver: a rendered frame reopens the drag
// gate. It runs on the engine's dispatch goroutine, so a pending drag is
// sent from another goroutine.
func (t *InputTranslator) FrameRendered(uint64) {
	t.mu.Lock()
	t.stopDragTimerLocked()
	t.reopenDragGateLocked()
	claimed := t.claimDrainLocked()
	t.mu.Unlock()
	if claimed {
		go t.drain()
	}
}

// dragTimerFired reopens the gate unless the timer was superseded after it fired.
func (t *InputTranslator) dragTimerFired(gen uint64) {
	t.mu.Lock()
	if gen != t.dragGen || t.closed {
		t.mu.Unlock()
		return
	}
	t.dragTimer = nil
	t.reopenDragGateLocked()
	claimed := t.claimDrainLocked()
	t.mu.Unlock()
	if claimed {
		t.drain()
	}
}

// reopenDragGateLocked queues the pending drag, if any, which keeps the gate
// closed for one more interval.
func (t *InputTranslator) reopenDragGateLocked() {
	if t.pendingDrag == nil {
		t.dragInFlight = false
		return
	}
	t.dragInFlight = true
	t.takePendingDragLocked()
	t.armDragTimerLocked()
}

func (t *InputTranslator) takePendingDragLocked() {
	if t.pendingDrag != nil {
		t.mouseQueue = append(t.mouseQueue, *t.pendingDrag)
		t.pendingDrag = nil
	}
}

func (t *InputTranslator) armDragTimerLocked() {
	t.stopDragTimerLocked()
	if t.closed || t.dragInterval <= 0 {
		return
	}
	gen := t.dragGen
	t.dragTimer = time.AfterFunc(t.dragInterval, func() { t.dragTimerFired(gen) })
}

// stopDragTimerLocked cancels the drag timer; a callback already running
// sees a newer generation and does nothing.
func (t *InputTranslator) stopDragTimerLocked() {
	t.dragGen++
	if t.dragTimer != nil {
		t.dragTimer.Stop()
		t.dragTimer = nil
	}
}

// claimDrainLocked reports whether the caller must drain the mouse queue.
// At most one goroutine drains at a time; the others leave their events to it.
func (t *InputTranslator) claimDrainLocked() bool {
	if t.draining || len(t.mouseQueue) == 0 {
		return false
	}
	t.draining = true
	return true
}

// drain sends queued pointer events in order without holding t.mu during a
// send. The caller must have claimed the drain.
func (t *InputTranslator) drain() error {
	var firstErr error
	t.mu.Lock()
	for len(t.mouseQueue) > 0 {
		ev := t.mouseQueue[0]
		t.mouseQueue = t.mouseQueue[1:]
		t.mu.Unlock()

		err := t.sink.Notify("nvim_input_mouse",
			string(ev.Button), string(ev.Action), ev.Mods.prefix(), ev.Grid, ev.Row, ev.Col)
		if err != nil {
			t.logger.Debug("failed to send pointer event", "action", ev.Action, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}

		t.mu.Lock()
	}
	t.mouseQueue = nil
	t.draining = false
	t.mu.Unlock()
	return firstErr
}

// Paste sends text with nvim_paste. Text larger than the chunk size is
// streamed in phases 1, 2..., 3; smaller text is sent in one call (phase -1).
// Chunks end on grapheme cluster boundaries, so a character and its
// combining marks are never split.
func (t *InputTranslator) Paste(text string) error {
	chunks := splitGraphemes(text, t.pasteChunkSize())
	if len(chunks) <= 1 {
		return t.sink.Notify("nvim_paste", text, true, -1)
	}
	for i, chunk := range chunks {
		phase := 2
		switch i {
		case 0:
			phase = 1
		case len(chunks) - 1:
			phase = 3
		}
		if err := t.sink.Notify("nvim_paste", chunk, true, phase); err != nil {
			return err
		}
	}
	return nil
}

func (t *InputTranslator) pasteChunkSize() int {
	if t.chunkSize >= 0 {
		return t.chunkSize
	}
	if l, ok := t.sink.(PayloadLimiter); ok {
		if n := l.MaxPayload(); n > 0 {
			return max(n-pasteOverhead, 1)
		}
	}
	return 0
}

// splitGraphemes cuts s into pieces of at most size bytes without splitting
// a grapheme cluster. A cluster larger than size becomes its own piece.
// size <= 0 returns s whole.
func splitGraphemes(s string, size int) []string {
	if size <= 0 || len(s) <= size {
		return []string{s}
	}
	var chunks []string
	var cur strings.Builder
	gr := uniseg.NewGraphemes(s)
	for gr.Next() {
		cluster := gr.Str()
		if cur.Len() > 0 && cur.Len()+len(cluster) > size {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
		cur.WriteString(cluster)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}

// Resize requests a new default grid size after the debounce delay. Only the
// last size within the delay is sent, and a size equal to the last request
// is not sent again.
func (t *InputTranslator) Resize(cols, rows int) {
	if cols <= 0 || rows <= 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	if t.resizeTimer == nil && cols == t.requestedCols && rows == t.requestedRows {
		return
	}
	t.pendingCols, t.pendingRows = cols, rows
	if t.resizeTimer != nil {
		t.resizeTimer.Stop()
	}
	t.resizeTimer = time.AfterFunc(t.resizeDelay, t.sendResize)
}

// ResizePixels converts a window size in pixels to cells and calls Resize.
func (t *InputTranslator) ResizePixels(width, height int) {
	cols, rows := CellsFor(t.metrics, width, height)
	t.Resize(cols, rows)
}

func (t *InputTranslator) sendResize() {
	t.mu.Lock()
	t.resizeTimer = nil
	cols, rows := t.pendingCols, t.pendingRows
	if t.closed || (cols == t.requestedCols && rows == t.requestedRows) {
		t.mu.Unlock()
		return
	}
	t.requestedCols, t.requestedRows = cols, rows
	t.mu.Unlock()

	t.logger.Debug("resize", "cols", cols, "rows", rows)
	if err := t.sink.Notify("nvim_ui_try_resize", cols, rows); err != nil {
		t.logger.Debug("failed to send resize", "error", err)
	}
}

// Focus reports focus changes to the editor's FocusGained/FocusLost autocommands.
func (t *InputTranslator) Focus(focused bool) error {
	event := "FocusLost"
	if focused {
		event = "FocusGained"
	}
	return t.sink.Notify("nvim_command", "if exists('#"+event+"') | doautocmd "+event+" | endif")
}

// Close stops pending timers. Later resizes are ignored.
func (t *InputTranslator) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.stopDragTimerLocked()
	if t.resizeTimer != nil {
		t.resizeTimer.Stop()
		t.resizeTimer = nil
	}
}

var _ FrameObserver = (*InputTranslator)(nil)
