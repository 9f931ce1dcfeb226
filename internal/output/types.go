// Package output fans out produced notes and signals to the internal audio
// engine, external MIDI, and external OSC sinks, and implements the OSC wire
// encoder and a reference MIDI sink.
package output

import "errors"

// ErrRouterClosed is returned by Publish* calls made after Close.
var ErrRouterClosed = errors.New("output: router closed")

// NoteEvent is the sink-facing note shape, already clamped by the producer.
type NoteEvent struct {
	Midi     int
	Velocity float64
	DurS     float64
}

// MetricsSnapshot is the six-rate bundle mirrored onto /khor/metrics.
type MetricsSnapshot struct {
	ExecPerSec float64
	RxKBs      float64
	TxKBs      float64
	CswPerSec  float64
	BlkRKBs    float64
	BlkWKBs    float64
}

// NoteSink receives produced notes. Implementations must not block the
// caller for long; the audio render path is the only hard-real-time
// consumer and reaches the engine directly rather than through this
// interface (see coordinator wiring).
type NoteSink interface {
	Name() string
	SendNote(n NoteEvent) error
}

// SignalSink receives throttled signal and metrics updates.
type SignalSink interface {
	Name() string
	SendSignal(channel string, value float64) error
	SendMetrics(m MetricsSnapshot) error
}
