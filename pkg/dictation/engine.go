// Package dictation ties the collaborators together: a capture backend
// records an utterance between two gesture signals, the recognizer
// transcribes it, and the final text is committed to a sink.
package dictation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/harunnryd/volcasr/pkg/adapters/stt"
	"github.com/harunnryd/volcasr/pkg/capture"
	"github.com/harunnryd/volcasr/pkg/errorsx"
	"github.com/harunnryd/volcasr/pkg/frames"
	"github.com/harunnryd/volcasr/pkg/logging"
)

// Sink receives the final recognized text, at most once per successful
// recognition.
type Sink interface {
	Commit(text string)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(text string)

func (f SinkFunc) Commit(text string) { f(text) }

// Engine drives one capture/recognize cycle at a time. It is safe for use
// from a single gesture-handling goroutine.
type Engine struct {
	rec    stt.Recognizer
	src    capture.Capture
	sink   Sink
	logger *slog.Logger

	mu        sync.Mutex
	recording bool
}

func NewEngine(rec stt.Recognizer, src capture.Capture, sink Sink) *Engine {
	return &Engine{
		rec:    rec,
		src:    src,
		sink:   sink,
		logger: logging.NewComponentLogger(slog.Default(), "dictation"),
	}
}

// Recording reports whether a capture cycle is in progress.
func (e *Engine) Recording() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recording
}

// Start begins capturing an utterance.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.recording {
		return errorsx.New("already recording", errorsx.ReasonCapture)
	}
	if err := e.src.Start(); err != nil {
		return errorsx.Wrap(err, errorsx.ReasonCapture)
	}
	e.recording = true
	e.logger.Info("capture started", slog.String("backend", e.src.Backend()))
	return nil
}

// Stop ends the capture and runs recognition on the recorded utterance. On
// success the final text is committed to the sink exactly once and returned.
func (e *Engine) Stop(ctx context.Context) (string, error) {
	e.mu.Lock()
	if !e.recording {
		e.mu.Unlock()
		return "", errorsx.New("not recording", errorsx.ReasonCapture)
	}
	e.recording = false
	pcm := e.src.Stop()
	e.mu.Unlock()

	// The utterance is owned by this session alone; pool the copy handed to
	// the recognizer and release it when the session ends.
	af := frames.NewAudioFrameFromPool("", time.Now().UnixNano(), pcm, 16000, 1, map[string]string{
		frames.MetaSource:  "capture",
		frames.MetaBackend: e.src.Backend(),
	})
	defer frames.ReleaseAudioFrame(af)

	e.logger.Info("capture stopped", slog.Int("bytes", len(pcm)))

	var final string
	var committed bool
	err := e.rec.Recognize(ctx, af.RawPayload(),
		func(text string, isFinal bool) {
			if isFinal && !committed {
				committed = true
				tf := frames.NewTextFrame("", time.Now().UnixNano(), text, map[string]string{
					frames.MetaSource:  e.rec.Name(),
					frames.MetaIsFinal: "true",
				})
				final = tf.Text()
				e.sink.Commit(tf.Text())
			}
		},
		func(err error) {
			e.logger.Error("recognition failed",
				slog.String("reason", string(errorsx.Reason(err))),
				slog.String("error", err.Error()))
		})
	if err != nil {
		return "", err
	}
	return final, nil
}

// Toggle flips between Start and Stop, matching a press-to-talk gesture.
func (e *Engine) Toggle(ctx context.Context) (string, error) {
	if e.Recording() {
		return e.Stop(ctx)
	}
	return "", e.Start()
}
