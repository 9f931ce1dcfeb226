package audio

import "math"

// envStage is one of the four ADSR stages.
type envStage int

const (
	envOff envStage = iota
	envAttack
	envDecay
	envSustain
	envRelease
)

// adsr is a linear-stage attack/decay/sustain/release envelope. Release
// computes its per-sample decrement once at release onset from the
// envelope's value at that instant, so the tail length is constant
// regardless of where release begins.
type adsr struct {
	attackS  float64
	decayS   float64
	sustain  float64
	releaseS float64

	stage       envStage
	value       float64
	releaseStep float64
}

func newADSR() adsr {
	return adsr{
		attackS:  0.005,
		decayS:   0.080,
		sustain:  0.55,
		releaseS: 0.140,
	}
}

func (e *adsr) noteOn() {
	e.stage = envAttack
	e.value = 0
	e.releaseStep = 0
}

func (e *adsr) noteOff(sr float64) {
	if e.stage == envOff || e.stage == envRelease {
		return
	}
	e.stage = envRelease
	e.releaseStep = e.value / math.Max(1, e.releaseS*sr)
}

// tick advances the envelope by one sample and returns its new value.
func (e *adsr) tick(sr float64) float64 {
	switch e.stage {
	case envAttack:
		e.value += 1 / math.Max(1, e.attackS*sr)
		if e.value >= 1 {
			e.value = 1
			e.stage = envDecay
		}
	case envDecay:
		e.value -= (1 - e.sustain) / math.Max(1, e.decayS*sr)
		if e.value <= e.sustain {
			e.value = e.sustain
			e.stage = envSustain
		}
	case envSustain:
		// holds at sustain level
	case envRelease:
		step := e.releaseStep
		if step <= 0 {
			step = 1 / math.Max(1, e.releaseS*sr)
		}
		e.value -= step
		if e.value <= 1e-6 {
			e.value = 0
			e.stage = envOff
		}
	}
	return e.value
}

// svf is a topology-preserving-transform state-variable filter; only the
// low-pass tap is used.
type svf struct {
	ic1eq float64
	ic2eq float64
}

func (f *svf) process(in, g, k float64) float64 {
	a1 := 1 / (1 + g*(g+k))
	a2 := g * a1
	a3 := g * a2
	v3 := in - f.ic2eq
	v1 := a1*f.ic1eq + a2*v3
	v2 := f.ic2eq + a2*f.ic1eq + a3*v3
	f.ic1eq = 2*v1 - f.ic1eq
	f.ic2eq = 2*v2 - f.ic2eq
	return v2
}

func midiToHz(midi int) float64 {
	return 440.0 * math.Pow(2, (float64(midi)-69)/12)
}
