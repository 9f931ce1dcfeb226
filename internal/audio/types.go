// Package audio renders the polyphonic synth graph in a device callback: a
// wait-free note queue feeds a fixed voice bank through an oscillator, ADSR,
// state-variable filter, stereo delay, Freeverb-style reverb, and a final
// limiter/saturator.
package audio

const (
	maxVoices  = 24
	sampleRate = 48000.0 // default; an Engine takes its actual rate from NewEngine
)

// NoteEvent is a clamped, ready-to-render note. Producers should clamp midi
// to [0,127], velocity to [0,1], and dur_s to >= 0.01 before pushing;
// Engine's render loop clamps again defensively.
type NoteEvent struct {
	Midi     int
	Velocity float64
	DurS     float64
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

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
