package transport

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/harunnryd/volcasr/pkg/errorsx"
	"github.com/harunnryd/volcasr/pkg/wire"
)

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func terminalResponseFrame(t *testing.T, result string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{"result": result, "sequence": -1})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	zipped := wire.Compress(body)
	hdr := wire.EncodeHeader(wire.FullServerResponse, wire.NoSequence, wire.SerializationJSON, wire.CompressionGzip)
	frame := append([]byte{}, hdr[:]...)
	frame = binary.BigEndian.AppendUint32(frame, uint32(len(zipped)))
	return append(frame, zipped...)
}

func echoASRServer(t *testing.T, reply []byte) *httptest.Server {
	t.Helper()
	up := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		// Wait for the client's first frame before replying.
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		_ = conn.WriteMessage(websocket.BinaryMessage, reply)
		// Drain until the client closes.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func TestSessionDeliversMessageAndClosesOnTerminal(t *testing.T) {
	srv := echoASRServer(t, terminalResponseFrame(t, "你好"))
	defer srv.Close()

	s := NewSession(Config{Endpoint: wsURL(srv), ConnectTimeout: 2 * time.Second})
	defer s.Close()
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if s.State() != StateOpen {
		t.Fatalf("state after connect: %v", s.State())
	}

	if err := s.Send(wire.EncodeAudio([]byte{1, 2, 3}, true)); err != nil {
		t.Fatalf("send: %v", err)
	}

	var sawOpened, sawMessage bool
	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev, ok := <-s.Events():
			if !ok {
				if !sawOpened || !sawMessage {
					t.Fatalf("channel closed early: opened=%v message=%v", sawOpened, sawMessage)
				}
				if s.State() != StateClosed {
					t.Fatalf("state after close: %v", s.State())
				}
				return
			}
			switch ev.Type {
			case EventOpened:
				sawOpened = true
			case EventMessage:
				sawMessage = true
				if ev.Msg.Fields == nil || ev.Msg.Fields.Result != "你好" {
					t.Fatalf("decoded message: %+v", ev.Msg)
				}
				if !ev.Msg.Terminal {
					t.Fatalf("expected terminal message")
				}
			case EventError:
				t.Fatalf("unexpected error event: %v", ev.Err)
			case EventClosed:
				// Channel close follows.
			}
		case <-deadline:
			t.Fatalf("timed out waiting for events")
		}
	}
}

func TestSessionSurfacesDecodeFailure(t *testing.T) {
	srv := echoASRServer(t, []byte{0x11, 0x70, 0x11, 0x00, 0x00, 0x00, 0x00, 0x00})
	defer srv.Close()

	s := NewSession(Config{Endpoint: wsURL(srv), ConnectTimeout: 2 * time.Second})
	defer s.Close()
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := s.Send(wire.EncodeAudio([]byte{1}, true)); err != nil {
		t.Fatalf("send: %v", err)
	}

	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev, ok := <-s.Events():
			if !ok {
				t.Fatalf("channel closed without error event")
			}
			if ev.Type == EventError {
				if !errorsx.HasReason(ev.Err, errorsx.ReasonUnsupportedMessageType) {
					t.Fatalf("reason: %v", ev.Err)
				}
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for error event")
		}
	}
}

func TestAbruptDisconnectSurfacesReadFailure(t *testing.T) {
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		// Drop the TCP connection without a close handshake.
		_ = conn.UnderlyingConn().Close()
	}))
	defer srv.Close()

	s := NewSession(Config{Endpoint: wsURL(srv), ConnectTimeout: 2 * time.Second})
	defer s.Close()
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := s.Send(wire.EncodeAudio([]byte{1}, true)); err != nil {
		t.Fatalf("send: %v", err)
	}

	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev, ok := <-s.Events():
			if !ok {
				t.Fatalf("channel closed without error event")
			}
			if ev.Type == EventError {
				if !errorsx.HasReason(ev.Err, errorsx.ReasonReadFailed) {
					t.Fatalf("reason: %v", ev.Err)
				}
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for error event")
		}
	}
}

func TestConnectTimeoutIsBounded(t *testing.T) {
	// A listener that accepts and then never speaks HTTP.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
		}
	}()

	s := NewSession(Config{
		Endpoint:       "ws://" + ln.Addr().String() + "/api/v2/asr",
		ConnectTimeout: 1 * time.Second,
	})
	defer s.Close()

	start := time.Now()
	err = s.Connect(context.Background())
	elapsed := time.Since(start)
	if err == nil {
		t.Fatalf("expected connect failure")
	}
	if elapsed > 3*time.Second {
		t.Fatalf("connect wait not bounded: %v", elapsed)
	}
	reason := errorsx.Reason(err)
	if reason != errorsx.ReasonConnectTimeout && reason != errorsx.ReasonConnectFailed {
		t.Fatalf("reason: %v", err)
	}
	// The events channel is retired so a consumer cannot hang on it.
	if _, ok := <-s.Events(); ok {
		t.Fatalf("expected closed events channel")
	}
}

func TestSendBeforeConnect(t *testing.T) {
	s := NewSession(Config{Endpoint: "ws://127.0.0.1:1/api/v2/asr"})
	err := s.Send([]byte{0x00})
	if !errorsx.HasReason(err, errorsx.ReasonClosed) {
		t.Fatalf("expected transport closed, got %v", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	srv := echoASRServer(t, terminalResponseFrame(t, "ok"))
	defer srv.Close()

	s := NewSession(Config{Endpoint: wsURL(srv), ConnectTimeout: 2 * time.Second})
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	s.Close()
	s.Close()
	if err := s.Send([]byte{0x00}); !errorsx.HasReason(err, errorsx.ReasonClosed) {
		t.Fatalf("send after close: %v", err)
	}
}
