package nvimui

import (
	"errors"
	"fmt"
)

// ErrChannelClosed is returned to every pending and future request once the
// message channel has closed. The session cannot recover from it.
var ErrChannelClosed = errors.New("nvimui: channel closed")

// ErrClosed is returned when the engine has already stopped.
var ErrClosed = errors.New("nvimui: engine closed")

// ProtocolViolation describes a malformed or out-of-range mutation. The
// offending event is clipped or ignored; processing continues.
type ProtocolViolation struct {
	Event  string
	Grid   int
	Reason string
}

func (e *ProtocolViolation) Error() string {
	if e.Grid != 0 {
		return fmt.Sprintf("nvimui: protocol violation in %s (grid %d): %s", e.Event, e.Grid, e.Reason)
	}
	return fmt.Sprintf("nvimui: protocol violation in %s: %s", e.Event, e.Reason)
}

func violation(event string, grid int, format string, args ...any) *ProtocolViolation {
	return &ProtocolViolation{Event: event, Grid: grid, Reason: fmt.Sprintf(format, args...)}
}

// RequestError is an error response from the editor to one request.
type RequestError struct {
	Method  string
	ID      uint32
	Payload any
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("nvimui: %s (request %d) failed: %s", e.Method, e.ID, describeError(e.Payload))
}

// describeError extracts the message from the editor's [type, message] error pair.
func describeError(payload any) string {
	switch v := payload.(type) {
	case []any:
		if len(v) == 2 {
			if msg, ok := asString(v[1]); ok {
				return msg
			}
		}
	case string:
		return v
	case []byte:
		return string(v)
	case error:
		return v.Error()
	}
	return fmt.Sprint(payload)
}
