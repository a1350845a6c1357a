package nvimui

import "sync"

// --- Surface ---

// Surface paints frames. OnFrame is called once per flush from the engine's
// goroutine; the frame holds copies, so the surface may hand it to another
// goroutine and render there.
type Surface interface {
	// OnFrame receives the grids damaged during a batch.
	OnFrame(frame *Frame)
	// OnCursor is called after OnFrame when the cursor changed during the batch.
	OnCursor(cursor CursorState)
}

// NoopSurface discards all frames.
type NoopSurface struct{}

func (NoopSurface) OnFrame(*Frame)       {}
func (NoopSurface) OnCursor(CursorState) {}

// MemorySurface records every frame and cursor update. Safe for concurrent use.
//
// Example:
//
//	surface := nvimui.NewMemorySurface()
//	engine := nvimui.New(ch, nvimui.WithSurface(surface))
//	// ... run the engine ...
//	last := surface.LastFrame()
type MemorySurface struct {
	mu      sync.Mutex
	frames  []*Frame
	cursors []CursorState
	notify  chan struct{}
}

// NewMemorySurface creates an empty recording surface.
func NewMemorySurface() *MemorySurface {
	return &MemorySurface{notify: make(chan struct{}, 1)}
}

// OnFrame stores the frame.
func (m *MemorySurface) OnFrame(frame *Frame) {
	m.mu.Lock()
	m.frames = append(m.frames, frame)
	m.mu.Unlock()
	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// OnCursor stores the cursor update.
func (m *MemorySurface) OnCursor(cursor CursorState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cursors = append(m.cursors, cursor)
}

// Frames returns all frames received so far.
func (m *MemorySurface) Frames() []*Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Frame, len(m.frames))
	copy(out, m.frames)
	return out
}

// LastFrame returns the most recent frame, or nil.
func (m *MemorySurface) LastFrame() *Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.frames) == 0 {
		return nil
	}
	return m.frames[len(m.frames)-1]
}

// Cursors returns all cursor updates received so far.
func (m *MemorySurface) Cursors() []CursorState {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CursorState, len(m.cursors))
	copy(out, m.cursors)
	return out
}

// Notify returns a channel that receives a value after new frames arrive.
func (m *MemorySurface) Notify() <-chan struct{} {
	return m.notify
}

// --- Frame Observer ---

// FrameObserver is told when a frame has been handed to the surface.
// The input translator uses it to pace pointer drags.
type FrameObserver interface {
	FrameRendered(seq uint64)
}

// --- Bell Provider ---

// BellProvider handles bell and visual_bell events.
type BellProvider interface {
	// Ring is called when the editor rings the bell.
	Ring(visual bool)
}

// NoopBell ignores all bell events.
type NoopBell struct{}

func (NoopBell) Ring(bool) {}

// --- Title Provider ---

// TitleProvider handles window title changes.
type TitleProvider interface {
	// SetTitle is called when the title changes.
	SetTitle(title string)
}

// NoopTitle ignores all title operations.
type NoopTitle struct{}

func (NoopTitle) SetTitle(string) {}

// --- Clipboard Provider ---

// ClipboardProvider backs the editor's GUI clipboard ("+" and "*" registers).
type ClipboardProvider interface {
	// Read returns the content of the clipboard selected by register.
	Read(register string) string
	// Write stores content to the clipboard selected by register.
	Write(register string, data string)
}

// NoopClipboard ignores all clipboard operations.
type NoopClipboard struct{}

func (NoopClipboard) Read(string) string   { return "" }
func (NoopClipboard) Write(string, string) {}

// MemoryClipboard keeps clipboard contents in memory, one entry per register.
// Safe for concurrent use.
type MemoryClipboard struct {
	mu   sync.Mutex
	data map[string]string
}

// NewMemoryClipboard creates an empty clipboard.
func NewMemoryClipboard() *MemoryClipboard {
	return &MemoryClipboard{data: make(map[string]string)}
}

// Read returns the stored content for register.
func (c *MemoryClipboard) Read(register string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data[register]
}

// Write stores content for register.
func (c *MemoryClipboard) Write(register string, data string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[register] = data
}

// --- Size Provider ---

// SizeProvider reports pixel metrics owned by the rendering side. The engine
// uses it to derive the grid size for the handshake and for pixel resizes.
type SizeProvider interface {
	// WindowSizePixels returns the drawable area in pixels.
	WindowSizePixels() (width, height int)
	// CellSizePixels returns the size of a single cell in pixels.
	CellSizePixels() (width, height int)
}

// NoopSizeProvider returns fixed metrics (an 80x30 grid).
type NoopSizeProvider struct{}

func (NoopSizeProvider) WindowSizePixels() (width, height int) { return 800, 600 }
func (NoopSizeProvider) CellSizePixels() (width, height int)   { return 10, 20 }

// CellsFor converts a pixel size to whole cells using the provider's cell metrics.
// The result is at least 1x1.
func CellsFor(p SizeProvider, widthPx, heightPx int) (cols, rows int) {
	cw, ch := p.CellSizePixels()
	if cw <= 0 || ch <= 0 {
		return max(widthPx, 1), max(heightPx, 1)
	}
	return max(widthPx/cw, 1), max(heightPx/ch, 1)
}

// --- Close Provider ---

// CloseProvider is notified once when the session ends.
type CloseProvider interface {
	// Closed receives the reason the session ended; ErrChannelClosed for a
	// clean shutdown of the channel.
	Closed(err error)
}

// NoopClose ignores session termination.
type NoopClose struct{}

func (NoopClose) Closed(error) {}

// --- Recording Provider ---

// RecordingProvider captures every inbound message before it is dispatched,
// for replay or debugging.
type RecordingProvider interface {
	// Record appends a message to the recording.
	Record(msg *Message)
	// Messages returns all captured messages since the last Clear call.
	Messages() []*Message
	// Clear discards all recorded messages.
	Clear()
}

// NoopRecording discards all messages.
type NoopRecording struct{}

func (NoopRecording) Record(*Message)      {}
func (NoopRecording) Messages() []*Message { return nil }
func (NoopRecording) Clear()               {}

// MemoryRecording stores inbound messages in memory. Safe for concurrent use.
//
// Example:
//
//	recorder := nvimui.NewMemoryRecording()
//	engine := nvimui.New(ch, nvimui.WithRecording(recorder))
//	// ... run the engine ...
//	msgs := recorder.Messages()
type MemoryRecording struct {
	mu   sync.Mutex
	msgs []*Message
}

// NewMemoryRecording creates an empty recording.
func NewMemoryRecording() *MemoryRecording {
	return &MemoryRecording{}
}

// Record appends a message.
func (r *MemoryRecording) Record(msg *Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

// Messages returns all captured messages since the last Clear call.
func (r *MemoryRecording) Messages() []*Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Message, len(r.msgs))
	copy(out, r.msgs)
	return out
}

// Clear discards all recorded messages.
func (r *MemoryRecording) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = nil
}

// Ensure implementations satisfy their interfaces
var _ Surface = (*NoopSurface)(nil)
var _ Surface = (*MemorySurface)(nil)
var _ BellProvider = (*NoopBell)(nil)
var _ TitleProvider = (*NoopTitle)(nil)
var _ ClipboardProvider = (*NoopClipboard)(nil)
var _ ClipboardProvider = (*MemoryClipboard)(nil)
var _ SizeProvider = (*NoopSizeProvider)(nil)
var _ CloseProvider = (*NoopClose)(nil)
var _ RecordingProvider = (*NoopRecording)(nil)
var _ RecordingProvider = (*MemoryRecording)(nil)
