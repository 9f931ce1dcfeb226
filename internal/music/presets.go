package music

import "github.com/khor-project/khord/internal/metrics"

func netAvg(s metrics.Signal01) float64 {
	return (s.Rx + s.Tx) / 2
}

func clampDur(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func tickAmbient(r *rng, s metrics.Signal01, cfg Config, scale []int, synth SynthParams) ([]NoteEvent, SynthParams) {
	var notes []NoteEvent
	activity := s.Max()

	synth.ReverbMix01 = clamp01(0.20 + 0.70*s.Rx)
	synth.DelayMix01 = clamp01(0.08 + 0.40*s.Tx)

	probSingle := cfg.Density * (0.12 + 0.88*activity) * 0.35
	if r.float64() < probSingle {
		degree := r.intn(len(scale))
		octave := r.intn(3)
		vel := clamp01(0.35 + 0.65*netAvg(s))
		dur := clampDur(0.10+1.00*s.Rx*cfg.Density, 0.10, 1.10)
		notes = append(notes, NoteEvent{
			Midi:     note(cfg.KeyMidi, scale, degree, octave),
			Velocity: vel,
			DurS:     dur,
		})
	}

	probDyad := cfg.Density * s.Exec * 0.18
	if r.float64() < probDyad {
		vel := clamp01(0.40 + 0.60*s.Exec)
		notes = append(notes,
			NoteEvent{Midi: note(cfg.KeyMidi, scale, 0, 1), Velocity: vel, DurS: 0.35},
			NoteEvent{Midi: note(cfg.KeyMidi, scale, 2, 1), Velocity: vel, DurS: 0.35},
		)
	}

	return notes, synth
}

func tickPercussive(r *rng, s metrics.Signal01, cfg Config, step uint32, scale []int, synth SynthParams) ([]NoteEvent, SynthParams) {
	var notes []NoteEvent

	synth.ReverbMix01 = clamp01(0.05 + 0.20*s.Rx)
	synth.DelayMix01 = clamp01(0.05 + 0.15*s.Tx)

	if step%4 == 0 {
		prob := cfg.Density * (0.05 + 0.95*s.Exec) * 0.65
		if r.float64() < prob {
			vel := clamp01(0.40 + 0.60*s.Exec)
			notes = append(notes, NoteEvent{
				Midi:     clampInt(cfg.KeyMidi-24, 0, 127),
				Velocity: vel,
				DurS:     0.08,
			})
		}
	}

	probClick := cfg.Density * (0.10 + 0.90*s.Csw) * 0.95
	if r.float64() < probClick {
		octave := 3
		if step%2 != 0 {
			octave = 4
		}
		degree := r.intn(len(scale))
		vel := clamp01(0.40 + 0.60*s.Csw)
		notes = append(notes, NoteEvent{
			Midi:     note(cfg.KeyMidi, scale, degree, octave),
			Velocity: vel,
			DurS:     0.05,
		})
	}

	na := netAvg(s)
	probMid := cfg.Density*na*0.45 + 0.10*cfg.Density
	if r.float64() < probMid {
		degree := r.intn(len(scale))
		vel := clamp01(0.40 + 0.60*na)
		notes = append(notes, NoteEvent{
			Midi:     note(cfg.KeyMidi, scale, degree, 2),
			Velocity: vel,
			DurS:     0.12,
		})
	}

	return notes, synth
}

func tickArp(r *rng, s metrics.Signal01, cfg Config, step uint32, scale []int, synth SynthParams) ([]NoteEvent, SynthParams) {
	var notes []NoteEvent
	pattern := [4]int{0, 1, 2, 1}

	gate := netAvg(s)
	synth.ReverbMix01 = clamp01(0.10 + 0.35*s.Rx)
	synth.DelayMix01 = clamp01(0.15 + 0.45*s.Tx)

	if gate > 0.05 {
		prob := cfg.Density * (0.20 + 0.80*gate)
		if r.float64() < prob {
			degree := pattern[step%4]
			octave := 2 + int((step>>2)%2)
			vel := clamp01(0.40 + 0.60*gate)
			notes = append(notes, NoteEvent{
				Midi:     note(cfg.KeyMidi, scale, degree, octave),
				Velocity: vel,
				DurS:     0.12,
			})
		}
	}

	if step == 0 {
		prob := cfg.Density * (0.10 + 0.90*s.Exec) * 0.6
		if r.float64() < prob {
			vel := clamp01(0.40 + 0.60*s.Exec)
			notes = append(notes,
				NoteEvent{Midi: note(cfg.KeyMidi, scale, 0, 2), Velocity: vel, DurS: 0.20},
				NoteEvent{Midi: note(cfg.KeyMidi, scale, 2, 2), Velocity: vel, DurS: 0.20},
			)
		}
	}

	return notes, synth
}

func tickDrone(r *rng, s metrics.Signal01, cfg Config, step uint32, activity float64, scale []int, synth SynthParams) ([]NoteEvent, SynthParams) {
	var notes []NoteEvent

	synth.ReverbMix01 = clamp01(0.35 + 0.55*s.Rx)
	synth.DelayMix01 = clamp01(0.10 + 0.25*s.Tx)

	if step == 0 {
		notes = append(notes, NoteEvent{
			Midi:     clampInt(cfg.KeyMidi-24, 0, 127),
			Velocity: 0.60,
			DurS:     2.3,
		})
	}

	if step == 8 && activity > 0.10 {
		notes = append(notes, NoteEvent{
			Midi:     clampInt(cfg.KeyMidi-12, 0, 127),
			Velocity: 0.55,
			DurS:     1.6,
		})
	}

	sum := s.Rx + s.Tx
	prob := cfg.Density * 0.05 * sum
	if r.float64() < prob {
		degree := r.intn(len(scale))
		vel := clamp01(0.30 + 0.50*sum)
		notes = append(notes, NoteEvent{
			Midi:     note(cfg.KeyMidi, scale, degree, 4),
			Velocity: vel,
			DurS:     0.15,
		})
	}

	return notes, synth
}
