package coordinator

import (
	"errors"

	"github.com/khor-project/khord/internal/audio"
	"github.com/khor-project/khord/internal/output"
)

// ErrNoSinkReady is returned by TestNote when neither the audio engine nor
// any registered note sink is ready to receive it.
var ErrNoSinkReady = errors.New("coordinator: no sink ready")

// TestNote clamps and submits one note to every ready sink (audio engine,
// MIDI, OSC), returning ErrNoSinkReady if nothing was ready to receive it.
// Synchronous: it returns as soon as the note has been submitted everywhere,
// matching spec.md §4.8.
func (c *Coordinator) TestNote(midi int, vel, durS float64) error {
	midi = clampInt(midi, 0, 127)
	vel = clamp01(vel)
	if durS < 0.02 {
		durS = 0.02
	}
	if durS > 3.0 {
		durS = 3.0
	}

	delivered := false

	if eng := c.audio.Engine(); eng != nil {
		eng.Push(audio.NoteEvent{Midi: midi, Velocity: vel, DurS: durS})
		delivered = true
	}
	if c.notes.HasReadySink() {
		_ = c.notes.PublishNote(output.NoteEvent{Midi: midi, Velocity: vel, DurS: durS})
		delivered = true
	}

	if !delivered {
		return ErrNoSinkReady
	}
	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
