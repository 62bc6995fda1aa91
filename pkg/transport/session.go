// Package transport owns the TLS WebSocket connection to the recognition
// service. One session serves one recognition request: dial, a background
// read loop that decodes server frames, and a tagged event channel drained
// by a single consumer.
package transport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/harunnryd/volcasr/pkg/errorsx"
	"github.com/harunnryd/volcasr/pkg/logging"
	"github.com/harunnryd/volcasr/pkg/wire"
)

// DefaultConnectTimeout bounds the dial when neither the config nor the
// caller's context supplies a deadline.
const DefaultConnectTimeout = 10 * time.Second

const closeGrace = 500 * time.Millisecond

// Config describes one connection attempt.
type Config struct {
	// Endpoint is a ws:// or wss:// URL.
	Endpoint string
	// AuthHeader is the precomputed Authorization value, if any.
	AuthHeader string
	// UserAgent must match the value the authenticator signed with.
	UserAgent string
	// ConnectTimeout bounds Connect; zero means DefaultConnectTimeout.
	ConnectTimeout time.Duration
	// InsecureSkipVerify disables certificate verification, for test
	// endpoints only.
	InsecureSkipVerify bool
}

// Session is a single-use connection. Connect may be called once; events
// are consumed by exactly one goroutine.
type Session struct {
	cfg    Config
	logger *slog.Logger

	conn    *websocket.Conn
	events  chan Event
	done    chan struct{}
	state   atomic.Int32
	writeMu sync.Mutex
	closed  sync.Once
}

func NewSession(cfg Config) *Session {
	return &Session{
		cfg:    cfg,
		logger: logging.NewComponentLogger(slog.Default(), "asr_transport"),
		events: make(chan Event, 64),
		done:   make(chan struct{}),
	}
}

// State reports the current lifecycle position.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Events returns the session event channel. It is closed after the terminal
// EventClosed (or after a failed Connect).
func (s *Session) Events() <-chan Event {
	return s.events
}

// Connect dials the endpoint and blocks until the connection is open or the
// attempt fails. The wait is bounded: a timeout returns an error, but the
// handshake is not guaranteed torn down at that instant — the session must
// still be closed.
func (s *Session) Connect(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if !s.state.CompareAndSwap(int32(StateDisconnected), int32(StateConnecting)) {
		return errorsx.New("session already used", errorsx.ReasonConnectFailed)
	}

	u, err := url.Parse(s.cfg.Endpoint)
	if err != nil {
		s.failConnect()
		return errorsx.Wrap(err, errorsx.ReasonConnectFailed)
	}

	timeout := s.cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: timeout,
	}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = newTLSConfig(u.Hostname(), s.cfg.InsecureSkipVerify)
	}

	hdr := http.Header{}
	if s.cfg.UserAgent != "" {
		hdr.Set("User-Agent", s.cfg.UserAgent)
	}
	if s.cfg.AuthHeader != "" {
		hdr.Set("Authorization", s.cfg.AuthHeader)
	}

	conn, resp, err := dialer.DialContext(ctx, s.cfg.Endpoint, hdr)
	if err != nil {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		s.failConnect()
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			s.logger.Error("connect timed out", slog.String("endpoint", s.cfg.Endpoint))
			return errorsx.Wrap(err, errorsx.ReasonConnectTimeout)
		}
		s.logger.Error("connect failed",
			slog.String("endpoint", s.cfg.Endpoint),
			slog.String("error", err.Error()))
		return errorsx.Wrap(err, errorsx.ReasonConnectFailed)
	}

	s.conn = conn
	s.state.Store(int32(StateOpen))
	s.logger.Info("connection opened", slog.String("endpoint", s.cfg.Endpoint))
	s.events <- Event{Type: EventOpened}
	go s.readLoop()
	return nil
}

func (s *Session) failConnect() {
	s.state.Store(int32(StateClosed))
	close(s.events)
}

// Send writes one binary frame. Frames go out in submission order; the
// server treats the connection as a strict FIFO stream.
func (s *Session) Send(frame []byte) error {
	if s.State() != StateOpen {
		return errorsx.New("transport not open", errorsx.ReasonClosed)
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return errorsx.Wrap(err, errorsx.ReasonSendFailed)
	}
	return nil
}

// Close issues a normal closure and releases the connection. Idempotent.
func (s *Session) Close() {
	s.closed.Do(func() {
		prev := State(s.state.Swap(int32(StateClosing)))
		close(s.done)
		if s.conn != nil {
			if prev == StateOpen {
				s.writeMu.Lock()
				_ = s.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(closeGrace))
				s.writeMu.Unlock()
			}
			_ = s.conn.Close()
		}
		if prev == StateDisconnected {
			// Never connected: there is no read loop to retire the channel.
			s.state.Store(int32(StateClosed))
			close(s.events)
		}
	})
}

func (s *Session) readLoop() {
	defer func() {
		s.state.Store(int32(StateClosed))
		// Best-effort: the channel close below is the authoritative signal.
		select {
		case s.events <- Event{Type: EventClosed}:
		default:
		}
		close(s.events)
		s.logger.Info("connection closed")
	}()

	for {
		mt, data, err := s.conn.ReadMessage()
		if err != nil {
			if s.closing() || isNormalClosure(err) {
				return
			}
			s.emit(Event{Type: EventError, Err: errorsx.Wrap(err, errorsx.ReasonReadFailed)})
			return
		}
		if mt != websocket.BinaryMessage {
			continue
		}

		msg, err := wire.DecodeFrame(data)
		if err != nil {
			// No resynchronization marker in the framing: one bad frame
			// poisons every byte offset after it.
			s.emit(Event{Type: EventError, Err: err})
			s.Close()
			return
		}
		if !s.emit(Event{Type: EventMessage, Msg: msg}) {
			return
		}
		if msg.Terminal {
			s.logger.Debug("terminal frame received, closing")
			s.Close()
			return
		}
	}
}

// emit delivers an event unless the session is being torn down with no
// consumer left to drain it.
func (s *Session) emit(ev Event) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

func (s *Session) closing() bool {
	return s.State() >= StateClosing
}

func isNormalClosure(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
