package audio

import "math"

type voice struct {
	active              bool
	midi                int
	phase               float64
	phaseInc            float64
	velocity            float64
	samplesUntilRelease int
	env                 adsr
	filter              svf
}

func (v *voice) trigger(sr float64, n NoteEvent) {
	v.active = true
	v.midi = clampInt(n.Midi, 0, 127)
	v.velocity = clamp01(n.Velocity)
	v.phase = 0
	v.phaseInc = 2 * math.Pi * midiToHz(v.midi) / sr
	dur := n.DurS
	if dur < 0.01 {
		dur = 0.01
	}
	v.samplesUntilRelease = int(dur * sr)
	v.env = newADSR()
	v.env.noteOn()
	v.filter = svf{}
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

// renderSample advances the voice by one sample given the shared filter
// coefficients for this block and returns its contribution before pan.
// ok is false once the voice has reached the off stage and deactivated
// itself; the caller should skip its output and free the slot.
func (v *voice) renderSample(sr, g, k float64) (sample float64, ok bool) {
	s := math.Sin(v.phase)
	tri := (2 / math.Pi) * math.Asin(s)
	osc := 0.88*s + 0.18*tri

	v.phase += v.phaseInc
	if v.phase > 2*math.Pi {
		v.phase -= 2 * math.Pi
	}

	if v.samplesUntilRelease > 0 {
		v.samplesUntilRelease--
		if v.samplesUntilRelease == 0 {
			v.env.noteOff(sr)
		}
	}

	env := v.env.tick(sr)
	if v.env.stage == envOff {
		v.active = false
		return 0, false
	}

	sample = osc * env * v.velocity
	sample = v.filter.process(sample, g, k)
	return sample, true
}

// pan returns this voice's stereo pan in [0,1] (0=left, 1=right), a
// deterministic pseudo-random function of MIDI number.
func (v *voice) pan() float64 {
	return 0.5 + 0.25*math.Sin(float64(v.midi)*0.37)
}
