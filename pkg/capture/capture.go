// Package capture defines the audio capture collaborator: an OS backend
// that records 16 kHz mono 16-bit little-endian PCM between Start and Stop.
// The recognition core treats the captured bytes as opaque.
package capture

import (
	"sync"

	"github.com/harunnryd/volcasr/pkg/errorsx"
)

// Capture is the boundary to an audio backend.
type Capture interface {
	// Start begins recording.
	Start() error
	// Stop ends recording and returns everything captured since Start.
	Stop() []byte
	// Backend names the underlying implementation for logging.
	Backend() string
}

// Buffer is an in-memory Capture used by tests and file-driven tools. It is
// fed either up front (NewBuffer) or incrementally while recording (Feed).
type Buffer struct {
	mu        sync.Mutex
	recording bool
	data      []byte
}

func NewBuffer(pcm []byte) *Buffer {
	return &Buffer{data: append([]byte(nil), pcm...)}
}

func (b *Buffer) Backend() string { return "buffer" }

func (b *Buffer) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.recording {
		return errorsx.New("capture already running", errorsx.ReasonCapture)
	}
	b.recording = true
	return nil
}

// Feed appends PCM bytes while recording; bytes fed while stopped are
// dropped, mirroring a real backend that only delivers between Start and
// Stop.
func (b *Buffer) Feed(pcm []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.recording {
		return
	}
	b.data = append(b.data, pcm...)
}

func (b *Buffer) Stop() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.recording = false
	out := b.data
	b.data = nil
	return out
}
