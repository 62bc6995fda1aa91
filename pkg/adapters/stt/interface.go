package stt

import "context"

// ResultFunc receives recognized text. final marks the utterance-level
// result; a recognizer may deliver any number of partials before it.
type ResultFunc func(text string, final bool)

// ErrorFunc receives the terminal error of a failed recognition.
type ErrorFunc func(err error)

// Recognizer defines the contract for any STT vendor implementation that
// transcribes one recorded utterance. Exactly one of a final result or an
// error is surfaced per call.
type Recognizer interface {
	// Name returns adapter name for logging/metrics.
	Name() string
	// Recognize streams the utterance to the vendor and reports results.
	Recognize(ctx context.Context, audio []byte, onResult ResultFunc, onError ErrorFunc) error
}

// AudioFormat carries vendor-agnostic audio parameters.
type AudioFormat struct {
	Encoding   string
	SampleRate int
	Bits       int
	Channels   int
}
