package music

import "github.com/khor-project/khord/internal/metrics"

// Engine is the deterministic 16th-note sequencer. Not safe for concurrent
// use; the coordinator's sequencer loop owns one instance.
type Engine struct {
	bar  uint64
	step uint32 // 0..15
}

// Cursor returns the current (bar, step) pair, for tests and diagnostics.
func (e *Engine) Cursor() (uint64, uint32) {
	return e.bar, e.step
}

func (e *Engine) advance() {
	e.step++
	if e.step >= 16 {
		e.step = 0
		e.bar++
	}
}

// Tick produces one frame and advances the cursor. s is the current
// smoothed Signal01 snapshot; cfg is a value snapshot of the music config.
func (e *Engine) Tick(s metrics.Signal01, cfg Config) Frame {
	bar, step := e.bar, e.step

	baseline := SynthParams{
		Cutoff01:    clamp01(0.30 + 0.60*s.IO + 0.075*(s.Rx+s.Tx)),
		Resonance01: clamp01(0.18 + 0.55*s.Exec),
		DelayMix01:  0.10,
		ReverbMix01: 0.15,
	}

	activity := s.Max()
	silentByDefault := cfg.Preset != "drone"
	if silentByDefault && activity < 0.03 {
		e.advance()
		return Frame{Synth: baseline}
	}

	seed := seedFrom(bar, step, s)
	r := newRNG(seed)

	scale := scaleFor(cfg.Scale)
	var notes []NoteEvent
	synth := baseline

	switch cfg.Preset {
	case "percussive":
		notes, synth = tickPercussive(r, s, cfg, step, scale, synth)
	case "arp":
		notes, synth = tickArp(r, s, cfg, step, scale, synth)
	case "drone":
		notes, synth = tickDrone(r, s, cfg, step, activity, scale, synth)
	default:
		notes, synth = tickAmbient(r, s, cfg, scale, synth)
	}

	e.advance()
	return Frame{Notes: notes, Synth: synth}
}
