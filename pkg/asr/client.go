// Package asr implements the streaming recognition client for the
// Volcengine realtime ASR WebSocket protocol. A Client is cheap and
// reusable; each Recognize call runs on its own single-use transport
// session.
package asr

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/google/uuid"

	"github.com/harunnryd/volcasr/pkg/adapters/stt"
	"github.com/harunnryd/volcasr/pkg/auth"
	"github.com/harunnryd/volcasr/pkg/errorsx"
	"github.com/harunnryd/volcasr/pkg/logging"
	"github.com/harunnryd/volcasr/pkg/transport"
	"github.com/harunnryd/volcasr/pkg/wire"
)

type Client struct {
	cfg    Config
	logger *slog.Logger
}

func New(cfg Config) *Client {
	return &Client{
		cfg:    cfg.withDefaults(),
		logger: logging.NewComponentLogger(slog.Default(), "volc_asr"),
	}
}

func (c *Client) Name() string { return "volcengine_streaming" }

// Format reports the audio parameters the client expects the utterance in.
func (c *Client) Format() stt.AudioFormat {
	return stt.AudioFormat{
		Encoding:   c.cfg.Codec,
		SampleRate: c.cfg.SampleRate,
		Bits:       c.cfg.Bits,
		Channels:   c.cfg.Channels,
	}
}

// Recognize streams one recorded utterance and surfaces exactly one terminal
// outcome: either a final onResult or one onError, never both and never
// neither. Partial results may precede the final one. The returned error
// mirrors what onError received. All failures are terminal for the session;
// retrying a whole utterance is the caller's decision.
func (c *Client) Recognize(ctx context.Context, audio []byte, onResult stt.ResultFunc, onError stt.ErrorFunc) error {
	if ctx == nil {
		ctx = context.Background()
	}
	fail := func(err error) error {
		if onError != nil {
			onError(err)
		}
		return err
	}

	if !c.cfg.ready() {
		return fail(errorsx.New("app credentials not configured", errorsx.ReasonNotReady))
	}
	if len(audio) == 0 {
		return fail(errorsx.New("empty audio data", errorsx.ReasonEmptyAudio))
	}

	reqID := uuid.NewString()
	logger := c.logger.With(slog.String("req_id", reqID))

	// The session's single logical stream consumes the sequence counter in
	// the full request; audio chunks carry no client-assigned sequence.
	body, err := json.Marshal(c.cfg.requestBody(reqID, 1))
	if err != nil {
		return fail(errorsx.Wrap(err, errorsx.ReasonUnknown))
	}
	// The frame must be fully built before signing: its bytes are part of
	// the signed material.
	frame := wire.EncodeFullRequest(body)

	endpoint, err := url.Parse(c.cfg.Endpoint)
	if err != nil {
		return fail(errorsx.Wrap(err, errorsx.ReasonConnectFailed))
	}
	authn := auth.Authenticator{
		Type:      c.cfg.AuthType,
		Token:     c.cfg.Token,
		SecretKey: c.cfg.SecretKey,
		UserAgent: auth.DefaultUserAgent,
	}

	sess := transport.NewSession(transport.Config{
		Endpoint:           c.cfg.Endpoint,
		AuthHeader:         authn.Header(endpoint.RequestURI(), frame),
		UserAgent:          auth.DefaultUserAgent,
		ConnectTimeout:     c.cfg.ConnectTimeout,
		InsecureSkipVerify: c.cfg.InsecureSkipVerify,
	})
	defer sess.Close()

	if err := sess.Connect(ctx); err != nil {
		return fail(err)
	}
	if err := sess.Send(frame); err != nil {
		return fail(err)
	}

	pieces := chunks(audio, c.cfg.ChunkSize)
	logger.Debug("sending audio",
		slog.Int("bytes", len(audio)),
		slog.Int("chunks", len(pieces)))
	for i, piece := range pieces {
		last := i == len(pieces)-1
		if err := sess.Send(wire.EncodeAudio(piece, last)); err != nil {
			return fail(err)
		}
	}

	return c.drain(ctx, sess, logger, onResult, fail)
}

// drain consumes transport events until a terminal outcome.
func (c *Client) drain(ctx context.Context, sess *transport.Session, logger *slog.Logger, onResult stt.ResultFunc, fail func(error) error) error {
	var delivered bool
	for {
		select {
		case <-ctx.Done():
			sess.Close()
			// The final result is already out; cancellation while the close
			// events drain must not surface a second terminal callback.
			if delivered {
				return nil
			}
			return fail(errorsx.Wrap(ctx.Err(), errorsx.ReasonDeadline))
		case ev, ok := <-sess.Events():
			if !ok {
				if delivered {
					return nil
				}
				return fail(errorsx.New("connection closed before a final result", errorsx.ReasonClosed))
			}
			switch ev.Type {
			case transport.EventOpened:
				// Frames were already queued; nothing to do.
			case transport.EventError:
				sess.Close()
				if delivered {
					return nil
				}
				return fail(ev.Err)
			case transport.EventClosed:
				if delivered {
					return nil
				}
				return fail(errorsx.New("connection closed before a final result", errorsx.ReasonClosed))
			case transport.EventMessage:
				msg := ev.Msg
				if msg.Type == wire.ErrorMessageFromServer {
					sess.Close()
					return fail(errorsx.Wrap(serverError(msg), errorsx.ReasonApplication))
				}
				if msg.Fields != nil && msg.Fields.Code != nil && *msg.Fields.Code != wire.CodeSuccess {
					sess.Close()
					return fail(errorsx.Wrap(
						fmt.Errorf("application error %d: %s", *msg.Fields.Code, msg.Fields.Message),
						errorsx.ReasonApplication))
				}
				if msg.Fields != nil && msg.Fields.Result != "" {
					logger.Debug("transcript received",
						slog.String("result", msg.Fields.Result),
						slog.Bool("is_final", msg.Terminal))
					if onResult != nil {
						onResult(msg.Fields.Result, msg.Terminal)
					}
					if msg.Terminal {
						delivered = true
					}
				}
				if msg.Terminal && !delivered {
					sess.Close()
					return fail(errorsx.New("terminal frame carried no result", errorsx.ReasonApplication))
				}
			}
		}
	}
}

func serverError(msg wire.Message) error {
	detail := string(msg.Payload)
	if msg.Fields != nil && msg.Fields.Message != "" {
		detail = msg.Fields.Message
	}
	return fmt.Errorf("server error %d: %s", msg.ErrorCode, detail)
}

func chunks(b []byte, size int) [][]byte {
	if size <= 0 || size >= len(b) {
		return [][]byte{b}
	}
	out := make([][]byte, 0, len(b)/size+1)
	for len(b) > size {
		out = append(out, b[:size])
		b = b[size:]
	}
	return append(out, b)
}

var _ stt.Recognizer = (*Client)(nil)
