package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestADSRReachesPeakThenSettlesThenReleases(t *testing.T) {
	e := adsr{attackS: 0.01, decayS: 0.01, sustain: 0.5, releaseS: 0.02}
	e.noteOn()
	sr := 1000.0

	peak := 0.0
	for i := 0; i < 40; i++ {
		v := e.tick(sr)
		if v > peak {
			peak = v
		}
	}
	assert.GreaterOrEqual(t, peak, 0.95, "must reach near-unity peak within 40 samples")

	var v float64
	for i := 0; i < 50; i++ {
		v = e.tick(sr)
	}
	assert.InDelta(t, 0.5, v, 0.08, "must settle near sustain within 50 more samples")

	e.noteOff(sr)
	below := false
	for i := 0; i < 80; i++ {
		v = e.tick(sr)
		if v < 1e-6 {
			below = true
			break
		}
	}
	assert.True(t, below, "must fall below 1e-6 within 80 samples after note_off")
}

func TestMidiToHzA4Is440(t *testing.T) {
	assert.InDelta(t, 440.0, midiToHz(69), 1e-6)
}

func TestSVFProcessIsStable(t *testing.T) {
	var f svf
	for i := 0; i < 1000; i++ {
		out := f.process(1.0, 0.1, 1.0)
		assert.False(t, out != out, "filter output must never be NaN")
	}
}
