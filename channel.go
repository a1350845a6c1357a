package nvimui

import "sync"

// MessageKind is the type tag of a message on the channel.
type MessageKind int

const (
	KindRequest      MessageKind = 0
	KindResponse     MessageKind = 1
	KindNotification MessageKind = 2
)

// String returns the name of the kind.
func (k MessageKind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindResponse:
		return "response"
	case KindNotification:
		return "notification"
	default:
		return "unknown"
	}
}

// Message is one decoded message:
//
//	request      [0, id, method, params]
//	response     [1, id, error, result]
//	notification [2, method, params]
type Message struct {
	Kind   MessageKind
	ID     uint32
	Method string
	Params []any
	Error  any
	Result any
}

// NewRequest builds a request message.
func NewRequest(id uint32, method string, params ...any) *Message {
	return &Message{Kind: KindRequest, ID: id, Method: method, Params: nonNil(params)}
}

// NewNotification builds a notification message.
func NewNotification(method string, params ...any) *Message {
	return &Message{Kind: KindNotification, Method: method, Params: nonNil(params)}
}

// NewResponse builds a response message. errPayload is nil on success.
func NewResponse(id uint32, errPayload, result any) *Message {
	return &Message{Kind: KindResponse, ID: id, Error: errPayload, Result: result}
}

// nonNil returns an empty array for nil params; the protocol requires an array.
func nonNil(params []any) []any {
	if params == nil {
		return []any{}
	}
	return params
}

// Channel carries messages to and from the editor. Recv is called from a
// single goroutine; Send must be safe for concurrent use. After Close, Recv
// returns ErrChannelClosed.
type Channel interface {
	Recv() (*Message, error)
	Send(msg *Message) error
	Close() error
}

// PayloadLimiter is implemented by channels with a maximum safe payload size
// in bytes. The input translator chunks pastes to fit.
type PayloadLimiter interface {
	MaxPayload() int
}

// MemoryChannel is an in-process Channel. The editor side injects messages
// with Inject and reads what the engine sent from Outgoing.
//
// Example:
//
//	ch := nvimui.NewMemoryChannel(64)
//	engine := nvimui.New(ch)
//	go engine.Run(ctx)
//	ch.Inject(nvimui.NewNotification("redraw", ...))
type MemoryChannel struct {
	in       chan *Message
	out      chan *Message
	done     chan struct{}
	once     sync.Once
	maxBytes int
}

// NewMemoryChannel creates a channel buffering up to capacity messages in
// each direction.
func NewMemoryChannel(capacity int) *MemoryChannel {
	return &MemoryChannel{
		in:   make(chan *Message, capacity),
		out:  make(chan *Message, capacity),
		done: make(chan struct{}),
	}
}

// SetMaxPayload sets the value reported by MaxPayload. Zero means no limit.
func (c *MemoryChannel) SetMaxPayload(n int) {
	c.maxBytes = n
}

// MaxPayload implements PayloadLimiter.
func (c *MemoryChannel) MaxPayload() int {
	return c.maxBytes
}

// Inject queues a message for the engine. Returns ErrChannelClosed after Close.
func (c *MemoryChannel) Inject(msg *Message) error {
	select {
	case <-c.done:
		return ErrChannelClosed
	default:
	}
	select {
	case c.in <- msg:
		return nil
	case <-c.done:
		return ErrChannelClosed
	}
}

// Outgoing returns the messages sent by the engine.
func (c *MemoryChannel) Outgoing() <-chan *Message {
	return c.out
}

// Recv returns the next injected message.
func (c *MemoryChannel) Recv() (*Message, error) {
	// Drain what was injected before Close so no message is lost.
	select {
	case msg := <-c.in:
		return msg, nil
	default:
	}
	select {
	case msg := <-c.in:
		return msg, nil
	case <-c.done:
		return nil, ErrChannelClosed
	}
}

// Send queues a message for the editor side.
func (c *MemoryChannel) Send(msg *Message) error {
	select {
	case <-c.done:
		return ErrChannelClosed
	default:
	}
	select {
	case c.out <- msg:
		return nil
	case <-c.done:
		return ErrChannelClosed
	}
}

// Close stops the channel. Safe to call more than once.
func (c *MemoryChannel) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

var _ Channel = (*MemoryChannel)(nil)
var _ PayloadLimiter = (*MemoryChannel)(nil)
