package transport

import "github.com/harunnryd/volcasr/pkg/wire"

// State is the connection lifecycle position. It is owned by the session and
// driven only by the dial result, the read loop, and an explicit Close.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateOpen
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// EventType tags a session event.
type EventType int

const (
	EventOpened EventType = iota
	EventMessage
	EventError
	EventClosed
)

func (e EventType) String() string {
	switch e {
	case EventOpened:
		return "opened"
	case EventMessage:
		return "message"
	case EventError:
		return "error"
	case EventClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Event is one tagged session event delivered on the session's channel, in
// strict socket-receive order. Msg is set for EventMessage, Err for
// EventError.
type Event struct {
	Type EventType
	Msg  wire.Message
	Err  error
}
