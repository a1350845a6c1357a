package nvimui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// EngineState is the batching state of the protocol engine.
type EngineState int32

const (
	// StateIdle means no mutation has arrived since the last flush.
	StateIdle EngineState = iota
	// StateBatchOpen means mutations are being applied and a flush is pending.
	StateBatchOpen
	// StateClosed is terminal: the channel is gone and nothing is applied.
	StateClosed
)

// String returns the state name.
func (s EngineState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBatchOpen:
		return "batch-open"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("EngineState(%d)", int32(s))
	}
}

// Stats are counters kept for diagnostics.
type Stats struct {
	Frames         uint64 `json:"frames"`
	Events         uint64 `json:"events"`
	Violations     uint64 `json:"violations"`
	Ignored        uint64 `json:"ignored"`
	RequestsFailed uint64 `json:"requests_failed"`
}

// Engine is the protocol engine. It owns the grids and the attribute table,
// applies redraw events in arrival order, emits one Frame per flush and
// correlates requests with their responses.
// All methods are safe for concurrent use.
type Engine struct {
	mu sync.RWMutex

	ch     Channel
	logger *slog.Logger

	// Model
	grids  *GridStore
	attrs  *AttrTable
	modes  modeTable
	cursor CursorState
	// cursorDirty is set when the cursor changed during the open batch.
	cursorDirty  bool
	mouseEnabled bool
	title        string
	options      map[string]any

	// Batching
	state EngineState
	seq   uint64

	// Diagnostics
	ignored map[string]uint64
	stats   Stats
	metrics *engineMetrics

	// Middleware for handler interception
	middleware *Middleware

	// Providers for external data/actions
	surface           Surface
	clipboardProvider ClipboardProvider
	titleProvider     TitleProvider
	bellProvider      BellProvider
	sizeProvider      SizeProvider
	closeProvider     CloseProvider
	recordingProvider RecordingProvider
	observers         []FrameObserver

	maxGrids      int
	meterProvider metric.MeterProvider

	// Requests
	reqMu   sync.Mutex
	pending map[uint32]*pendingRequest
	nextID  uint32
	closed  bool

	running   atomic.Bool
	closeOnce sync.Once
	done      chan struct{}
}

type pendingRequest struct {
	method string
	result chan callResult
}

type callResult struct {
	value any
	err   error
}

// Option configures an Engine during construction.
type Option func(*Engine)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithSurface sets the rendering surface that receives frames.
// Defaults to a no-op if not set.
func WithSurface(s Surface) Option {
	return func(e *Engine) {
		e.surface = s
	}
}

// WithClipboard sets the provider backing the GUI clipboard requests.
// Defaults to a no-op if not set.
func WithClipboard(p ClipboardProvider) Option {
	return func(e *Engine) {
		e.clipboardProvider = p
	}
}

// WithTitle sets the handler for window title changes.
// Defaults to a no-op if not set.
func WithTitle(p TitleProvider) Option {
	return func(e *Engine) {
		e.titleProvider = p
	}
}

// WithBell sets the handler for bell events.
// Defaults to a no-op if not set.
func WithBell(p BellProvider) Option {
	return func(e *Engine) {
		e.bellProvider = p
	}
}

// WithSizeProvider sets the provider for pixel metrics used by Attach.
func WithSizeProvider(p SizeProvider) Option {
	return func(e *Engine) {
		e.sizeProvider = p
	}
}

// WithCloseProvider sets the handler notified once when the session ends.
func WithCloseProvider(p CloseProvider) Option {
	return func(e *Engine) {
		e.closeProvider = p
	}
}

// WithRecording sets the handler capturing inbound messages before dispatch.
// Useful for replay, debugging, or regression testing.
func WithRecording(p RecordingProvider) Option {
	return func(e *Engine) {
		e.recordingProvider = p
	}
}

// WithFrameObserver registers an observer told about every delivered frame.
func WithFrameObserver(o FrameObserver) Option {
	return func(e *Engine) {
		e.observers = append(e.observers, o)
	}
}

// WithMiddleware sets functions to intercept event handlers.
// Each middleware receives the original parameters and a next function to call the default implementation.
func WithMiddleware(mw *Middleware) Option {
	return func(e *Engine) {
		if e.middleware == nil {
			e.middleware = &Middleware{}
		}
		e.middleware.Merge(mw)
	}
}

// WithMaxGrids caps the number of live grids. Values <= 0 mean DefaultMaxGrids.
func WithMaxGrids(n int) Option {
	return func(e *Engine) {
		e.maxGrids = n
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider for the engine
// counters. Defaults to the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(e *Engine) {
		e.meterProvider = mp
	}
}

// New creates an engine reading from ch. Call Run to start processing.
func New(ch Channel, opts ...Option) *Engine {
	e := &Engine{
		ch:                ch,
		attrs:             NewAttrTable(),
		mouseEnabled:      true,
		options:           make(map[string]any),
		ignored:           make(map[string]uint64),
		surface:           NoopSurface{},
		clipboardProvider: NoopClipboard{},
		titleProvider:     NoopTitle{},
		bellProvider:      NoopBell{},
		sizeProvider:      NoopSizeProvider{},
		closeProvider:     NoopClose{},
		recordingProvider: NoopRecording{},
		pending:           make(map[uint32]*pendingRequest),
		done:              make(chan struct{}),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.meterProvider == nil {
		e.meterProvider = otel.GetMeterProvider()
	}
	e.grids = NewGridStore(e.maxGrids)
	e.metrics = newEngineMetrics(e.meterProvider, e.logger)
	e.cursor = CursorState{Grid: DefaultGridID}

	return e
}

// Run processes messages until the channel closes or ctx is canceled.
// On exit every pending request fails with ErrChannelClosed and the close
// provider is notified once. Returns nil on a clean close, ctx.Err() on
// cancellation, and the transport error otherwise.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return errors.New("nvimui: engine is already running")
	}

	stop := context.AfterFunc(ctx, func() {
		_ = e.ch.Close()
	})
	defer stop()

	var err error
	for {
		msg, rerr := e.ch.Recv()
		if rerr != nil {
			err = rerr
			break
		}
		e.recordingProvider.Record(msg)
		e.dispatch(ctx, msg)
	}

	if ctx.Err() != nil {
		err = ctx.Err()
	}
	e.shutdown(err)

	if errors.Is(err, ErrChannelClosed) {
		return nil
	}
	return err
}

// Close closes the channel, which makes Run return.
func (e *Engine) Close() error {
	return e.ch.Close()
}

// Done is closed once the session has ended.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// shutdown moves to the Closed state, fails all pending requests and tells
// the close provider. Runs at most once.
func (e *Engine) shutdown(cause error) {
	e.closeOnce.Do(func() {
		reason := ErrChannelClosed
		if cause != nil && !errors.Is(cause, ErrChannelClosed) {
			reason = fmt.Errorf("%w: %w", ErrChannelClosed, cause)
		}

		e.mu.Lock()
		e.state = StateClosed
		closer := e.closeProvider
		e.mu.Unlock()

		e.reqMu.Lock()
		e.closed = true
		pending := e.pending
		e.pending = make(map[uint32]*pendingRequest)
		e.reqMu.Unlock()

		for _, p := range pending {
			p.result <- callResult{err: reason}
		}

		_ = e.ch.Close()
		e.logger.Info("session closed", "reason", reason, "pending", len(pending))
		closer.Closed(reason)
		close(e.done)
	})
}

// dispatch routes one message by kind. Responses are matched immediately,
// independent of any open batch.
func (e *Engine) dispatch(ctx context.Context, msg *Message) {
	switch msg.Kind {
	case KindResponse:
		e.resolve(msg)
	case KindNotification:
		e.handleNotification(ctx, msg)
	case KindRequest:
		go e.handleRequest(msg)
	default:
		e.reportViolation(violation("message", 0, "unknown message kind %d", msg.Kind))
	}
}

func (e *Engine) handleNotification(ctx context.Context, msg *Message) {
	switch msg.Method {
	case "redraw":
		events, violations := DecodeRedraw(msg.Params)
		for _, v := range violations {
			e.reportViolation(v)
		}
		for _, ev := range events {
			if e.State() == StateClosed {
				return
			}
			e.handleEvent(ev)
		}
	case "nvim_error_event":
		e.handleErrorEvent(ctx, msg.Params)
	case "Gui":
		e.handleGuiNotification(msg.Params)
	default:
		e.ignore("notification:" + msg.Method)
	}
}

// handleErrorEvent logs an asynchronous error the editor reports for a
// notification it could not execute.
func (e *Engine) handleErrorEvent(ctx context.Context, params []any) {
	e.mu.Lock()
	e.stats.RequestsFailed++
	e.mu.Unlock()
	e.metrics.requestFailed(ctx, "nvim_error_event")
	e.logger.Error("editor reported an error", "error", describeError(params))
}

// Call sends a request and waits for its response. The wait is on a
// per-request slot, so the engine keeps applying events meanwhile.
// An error response is returned as *RequestError.
func (e *Engine) Call(ctx context.Context, method string, args ...any) (any, error) {
	id, slot, err := e.register(method)
	if err != nil {
		return nil, err
	}

	if err := e.send(NewRequest(id, method, args...)); err != nil {
		e.unregister(id)
		return nil, err
	}

	select {
	case res := <-slot:
		return res.value, res.err
	case <-ctx.Done():
		if !e.unregister(id) {
			// Resolved concurrently; the slot holds the only result.
			res := <-slot
			return res.value, res.err
		}
		return nil, ctx.Err()
	}
}

// Notify sends a notification. It does not wait for the editor.
func (e *Engine) Notify(method string, args ...any) error {
	if e.isClosed() {
		return ErrChannelClosed
	}
	return e.send(NewNotification(method, args...))
}

func (e *Engine) isClosed() bool {
	e.reqMu.Lock()
	defer e.reqMu.Unlock()
	return e.closed
}

// register allocates an id unique among outstanding requests.
func (e *Engine) register(method string) (uint32, chan callResult, error) {
	e.reqMu.Lock()
	defer e.reqMu.Unlock()

	if e.closed {
		return 0, nil, ErrChannelClosed
	}
	for {
		e.nextID++
		if _, busy := e.pending[e.nextID]; !busy {
			break
		}
	}
	slot := make(chan callResult, 1)
	e.pending[e.nextID] = &pendingRequest{method: method, result: slot}
	return e.nextID, slot, nil
}

// unregister forgets a pending request. Returns false if it was already resolved.
func (e *Engine) unregister(id uint32) bool {
	e.reqMu.Lock()
	defer e.reqMu.Unlock()
	if _, ok := e.pending[id]; !ok {
		return false
	}
	delete(e.pending, id)
	return true
}

// resolve delivers a response to the caller waiting on its id.
func (e *Engine) resolve(msg *Message) {
	e.reqMu.Lock()
	p, ok := e.pending[msg.ID]
	if ok {
		delete(e.pending, msg.ID)
	}
	e.reqMu.Unlock()

	if !ok {
		e.logger.Debug("response for unknown request", "id", msg.ID)
		return
	}

	if msg.Error != nil {
		e.mu.Lock()
		e.stats.RequestsFailed++
		e.mu.Unlock()
		e.metrics.requestFailed(context.Background(), p.method)
		err := &RequestError{Method: p.method, ID: msg.ID, Payload: msg.Error}
		e.logger.Debug("request failed", "method", p.method, "id", msg.ID, "error", err)
		p.result <- callResult{err: err}
		return
	}
	p.result <- callResult{value: msg.Result}
}

// Pending returns the number of requests awaiting a response.
func (e *Engine) Pending() int {
	e.reqMu.Lock()
	defer e.reqMu.Unlock()
	return len(e.pending)
}

// send passes an outgoing message through the Send middleware to the channel.
func (e *Engine) send(msg *Message) error {
	e.mu.RLock()
	mw := e.middleware
	e.mu.RUnlock()

	if mw != nil && mw.Send != nil {
		return mw.Send(msg, e.ch.Send)
	}
	return e.ch.Send(msg)
}

// reportViolation logs and counts a non-fatal protocol violation.
func (e *Engine) reportViolation(v *ProtocolViolation) {
	if v == nil {
		return
	}
	e.mu.Lock()
	e.stats.Violations++
	e.mu.Unlock()
	e.metrics.violation(context.Background(), v.Event)
	e.logger.Warn("protocol violation", "event", v.Event, "grid", v.Grid, "reason", v.Reason)
}

// ignore counts an unrecognised event or notification.
func (e *Engine) ignore(kind string) {
	e.mu.Lock()
	e.ignored[kind]++
	e.stats.Ignored++
	e.mu.Unlock()
	e.metrics.ignoredEvent(context.Background(), kind)
	e.logger.Debug("ignored", "kind", kind)
}

// State returns the current batching state.
func (e *Engine) State() EngineState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Stats returns a copy of the diagnostic counters.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.stats
}

// IgnoredCounts returns how often each unrecognised event name was seen.
// Notification methods are prefixed with "notification:".
func (e *Engine) IgnoredCounts() map[string]uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]uint64, len(e.ignored))
	for k, v := range e.ignored {
		out[k] = v
	}
	return out
}

// Snapshot returns a copy of a grid's current content, or nil if it does not exist.
// Unlike frames, this reflects mutations of a batch that has not been flushed yet.
func (e *Engine) Snapshot(grid int) *GridSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.grids.Snapshot(grid)
}

// Grids returns the ids of all live grids.
func (e *Engine) Grids() []int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.grids.IDs()
}

// Cursor returns the current cursor state.
func (e *Engine) Cursor() CursorState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cursorStateLocked()
}

// Styles returns an immutable view of the attribute table.
func (e *Engine) Styles() *StyleSet {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.attrs.Snapshot()
}

// Title returns the last title set by the editor.
func (e *Engine) Title() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.title
}

// Options returns the UI options reported through option_set.
func (e *Engine) Options() map[string]any {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]any, len(e.options))
	for k, v := range e.options {
		out[k] = v
	}
	return out
}

// MouseEnabled returns false while the editor has mouse support off.
func (e *Engine) MouseEnabled() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.mouseEnabled
}

// AddFrameObserver registers an observer told about every delivered frame.
func (e *Engine) AddFrameObserver(o FrameObserver) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, o)
}

// SetSurface sets the rendering surface at runtime.
func (e *Engine) SetSurface(s Surface) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.surface = s
}

// Surface returns the current rendering surface.
func (e *Engine) Surface() Surface {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.surface
}

// SetClipboardProvider sets the clipboard provider at runtime.
func (e *Engine) SetClipboardProvider(p ClipboardProvider) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clipboardProvider = p
}

// ClipboardProvider returns the current clipboard provider.
func (e *Engine) ClipboardProvider() ClipboardProvider {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.clipboardProvider
}

// SetTitleProvider sets the title provider at runtime.
func (e *Engine) SetTitleProvider(p TitleProvider) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.titleProvider = p
}

// SetBellProvider sets the bell provider at runtime.
func (e *Engine) SetBellProvider(p BellProvider) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bellProvider = p
}

// SetMiddleware sets the middleware at runtime.
func (e *Engine) SetMiddleware(mw *Middleware) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.middleware = mw
}

// Middleware returns the current middleware.
func (e *Engine) Middleware() *Middleware {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.middleware
}

// SizeProvider returns the provider of pixel metrics.
func (e *Engine) SizeProvider() SizeProvider {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sizeProvider
}

// MaxPayload reports the channel's payload limit, or 0 if it has none.
func (e *Engine) MaxPayload() int {
	if l, ok := e.ch.(PayloadLimiter); ok {
		return l.MaxPayload()
	}
	return 0
}
