// Package msgpackrpc implements nvimui.Channel over a msgpack-rpc byte
// stream, such as the stdin/stdout of an editor started with --embed.
package msgpackrpc

import (
	"bufio"
	"bytes"
	"io"
	"math"
	"sync"
	"sync/atomic"

	"github.com/neovim/go-client/msgpack"
	"github.com/pkg/errors"

	nvimui "github.com/danielgatis/go-nvim-ui"
)

// DefaultMaxPayload is the paste chunk budget reported by MaxPayload.
const DefaultMaxPayload = 1 << 20

// Extension type ids the editor uses for object handles.
const (
	ExtBuffer  = 0
	ExtWindow  = 1
	ExtTabpage = 2
)

// Handle is a decoded extension value referencing an editor object.
type Handle struct {
	Kind int
	ID   int64
}

// Conn is a Channel over a reader and writer pair. Recv is meant for one
// goroutine; Send is safe for concurrent use.
type Conn struct {
	dec *msgpack.Decoder

	wmu sync.Mutex
	bw  *bufio.Writer
	enc *msgpack.Encoder

	closer     io.Closer
	closeOnce  sync.Once
	closed     atomic.Bool
	maxPayload int
}

// Option configures a Conn.
type Option func(*Conn)

// WithMaxPayload sets the value reported by MaxPayload. Zero means no limit.
func WithMaxPayload(n int) Option {
	return func(c *Conn) {
		c.maxPayload = n
	}
}

// WithCloser sets what Close closes, typically the process pipes.
func WithCloser(cl io.Closer) Option {
	return func(c *Conn) {
		c.closer = cl
	}
}

// New creates a connection reading messages from r and writing them to w.
func New(r io.Reader, w io.Writer, opts ...Option) *Conn {
	bw := bufio.NewWriter(w)
	c := &Conn{
		dec:        msgpack.NewDecoder(r),
		bw:         bw,
		enc:        msgpack.NewEncoder(bw),
		maxPayload: DefaultMaxPayload,
	}
	c.dec.SetExtensions(msgpack.ExtensionMap{
		ExtBuffer:  handleDecoder(ExtBuffer),
		ExtWindow:  handleDecoder(ExtWindow),
		ExtTabpage: handleDecoder(ExtTabpage),
	})
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func handleDecoder(kind int) func([]byte) (any, error) {
	return func(data []byte) (any, error) {
		var id int64
		if err := msgpack.NewDecoder(bytes.NewReader(data)).Decode(&id); err != nil {
			return nil, errors.Wrapf(err, "decode handle of kind %d", kind)
		}
		return Handle{Kind: kind, ID: id}, nil
	}
}

// Recv reads the next message. It returns nvimui.ErrChannelClosed once the
// stream ends or the connection was closed.
func (c *Conn) Recv() (*nvimui.Message, error) {
	var raw any
	if err := c.dec.Decode(&raw); err != nil {
		if c.closed.Load() || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.ErrClosedPipe) {
			return nil, nvimui.ErrChannelClosed
		}
		return nil, errors.Wrap(err, "decode message")
	}
	return parseMessage(raw)
}

func parseMessage(raw any) (*nvimui.Message, error) {
	arr, ok := raw.([]any)
	if !ok || len(arr) < 3 {
		return nil, errors.Errorf("malformed message: %T", raw)
	}
	kind, ok := toInt(arr[0])
	if !ok {
		return nil, errors.Errorf("malformed message kind: %v", arr[0])
	}

	switch nvimui.MessageKind(kind) {
	case nvimui.KindRequest:
		if len(arr) != 4 {
			return nil, errors.Errorf("request has %d elements", len(arr))
		}
		id, ok := toID(arr[1])
		if !ok {
			return nil, errors.Errorf("malformed request id: %v", arr[1])
		}
		return nvimui.NewRequest(id, toString(arr[2]), params(arr[3])...), nil

	case nvimui.KindResponse:
		if len(arr) != 4 {
			return nil, errors.Errorf("response has %d elements", len(arr))
		}
		id, ok := toID(arr[1])
		if !ok {
			return nil, errors.Errorf("malformed response id: %v", arr[1])
		}
		return nvimui.NewResponse(id, arr[2], arr[3]), nil

	case nvimui.KindNotification:
		return nvimui.NewNotification(toString(arr[1]), params(arr[2])...), nil
	}
	return nil, errors.Errorf("unknown message kind %d", kind)
}

// Send writes one message and flushes it.
func (c *Conn) Send(msg *nvimui.Message) error {
	if c.closed.Load() {
		return nvimui.ErrChannelClosed
	}

	var v []any
	switch msg.Kind {
	case nvimui.KindRequest:
		v = []any{int(nvimui.KindRequest), msg.ID, msg.Method, params(msg.Params)}
	case nvimui.KindResponse:
		v = []any{int(nvimui.KindResponse), msg.ID, msg.Error, msg.Result}
	case nvimui.KindNotification:
		v = []any{int(nvimui.KindNotification), msg.Method, params(msg.Params)}
	default:
		return errors.Errorf("unknown message kind %d", msg.Kind)
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()
	if err := c.enc.Encode(v); err != nil {
		return c.writeError(err, "encode "+msg.Kind.String())
	}
	if err := c.bw.Flush(); err != nil {
		return c.writeError(err, "flush")
	}
	return nil
}

func (c *Conn) writeError(err error, op string) error {
	if c.closed.Load() || errors.Is(err, io.ErrClosedPipe) {
		return nvimui.ErrChannelClosed
	}
	return errors.Wrap(err, op)
}

// Close closes the underlying closer, if any. Safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		if c.closer != nil {
			err = c.closer.Close()
		}
	})
	return err
}

// MaxPayload implements nvimui.PayloadLimiter.
func (c *Conn) MaxPayload() int {
	return c.maxPayload
}

func params(v any) []any {
	switch p := v.(type) {
	case []any:
		if p == nil {
			return []any{}
		}
		return p
	case nil:
		return []any{}
	}
	return []any{v}
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	}
	return ""
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case uint32:
		return int64(n), true
	}
	return 0, false
}

func toID(v any) (uint32, bool) {
	n, ok := toInt(v)
	if !ok || n < 0 || n > math.MaxUint32 {
		return 0, false
	}
	return uint32(n), true
}

var (
	_ nvimui.Channel        = (*Conn)(nil)
	_ nvimui.PayloadLimiter = (*Conn)(nil)
)
