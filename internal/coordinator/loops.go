package coordinator

import (
	"context"
	"time"

	"github.com/khor-project/khord/internal/audio"
	"github.com/khor-project/khord/internal/metrics"
	"github.com/khor-project/khord/internal/music"
	"github.com/khor-project/khord/internal/output"
)

const (
	samplerInterval   = 100 * time.Millisecond
	midiCCMinInterval = 80 * time.Millisecond
	oscSignalEvery    = 4 // sequencer ticks between /khor/signal bursts
	oscMetricsEvery   = 8 // sequencer ticks between /khor/metrics bursts
)

// samplerLoop snapshots totals every 100ms, advances the signal conditioner
// with the actual wall-clock elapsed time, and publishes the resulting
// (rates, signals) pair plus a bounded history entry. Matches spec.md §4.7
// item 2 and §5's "guarded by short-lived mutexes, never held across IO".
func (c *Coordinator) samplerLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(samplerInterval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now

			snap := c.totals.Snapshot()
			rates, sig := c.cond.Update(snap, dt, c.smoothing.Load())

			c.sigMu.Lock()
			c.rates = rates
			c.signals = sig
			c.sigMu.Unlock()

			c.pushHistory(HistorySample{TsMs: now.UnixMilli(), Rates: rates, Sig: sig})
		}
	}
}

func (c *Coordinator) pushHistory(h HistorySample) {
	c.histMu.Lock()
	defer c.histMu.Unlock()
	c.history = append(c.history, h)
	if len(c.history) > historyCap {
		c.history = c.history[len(c.history)-historyCap:]
	}
}

// History returns a copy of the bounded history ring, newest last.
func (c *Coordinator) History() []HistorySample {
	c.histMu.Lock()
	defer c.histMu.Unlock()
	out := make([]HistorySample, len(c.history))
	copy(out, c.history)
	return out
}

func (c *Coordinator) signalSnapshot() (metrics.SignalRates, metrics.Signal01) {
	c.sigMu.Lock()
	defer c.sigMu.Unlock()
	return c.rates, c.signals
}

// sequencerLoop runs one tick per 16th note at the current BPM, scheduled
// against an absolute deadline so tick timing doesn't drift with GC pauses
// or a slow fan-out, exactly as spec.md §4.7 item 3 requires.
func (c *Coordinator) sequencerLoop(ctx context.Context) {
	defer c.wg.Done()

	var tickCount uint64
	var lastMidiCC time.Time
	next := time.Now()

	for {
		tickMs := music.TickMs(c.bpm.Load())
		next = next.Add(time.Duration(tickMs * float64(time.Millisecond)))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		rates, sig := c.signalSnapshot()
		bpm, density, smoothing, keyMidi, scale, preset := c.musicSnapshot()
		_ = smoothing // smoothing belongs to the conditioner, not the engine

		frame := c.music.Tick(sig, music.Config{
			BPM:     bpm,
			KeyMidi: keyMidi,
			Scale:   scale,
			Preset:  preset,
			Density: density,
		})

		c.applySynth(frame.Synth)

		eng := c.audio.Engine()
		for _, n := range frame.Notes {
			if eng != nil {
				eng.Push(audio.NoteEvent{Midi: n.Midi, Velocity: n.Velocity, DurS: n.DurS})
			}
			_ = c.notes.PublishNote(output.NoteEvent{Midi: n.Midi, Velocity: n.Velocity, DurS: n.DurS})
		}

		tickCount++
		c.fanOutSignals(tickCount, rates, sig, frame.Synth.Cutoff01, &lastMidiCC)
	}
}

func (c *Coordinator) applySynth(s music.SynthParams) {
	eng := c.audio.Engine()
	if eng == nil {
		return
	}
	eng.SetCutoff01(s.Cutoff01)
	eng.SetResonance01(s.Resonance01)
	eng.SetDelayMix01(s.DelayMix01)
	eng.SetReverbMix01(s.ReverbMix01)
}

// fanOutSignals mirrors signals/metrics to OSC every oscSignalEvery /
// oscMetricsEvery ticks, and to MIDI CCs at most once per midiCCMinInterval
// wall-clock — two different cadences driven by the same tick, so each
// protocol's sink is addressed directly rather than through the generic
// Router (which fans identically to every registered sink).
func (c *Coordinator) fanOutSignals(tick uint64, rates metrics.SignalRates, sig metrics.Signal01, cutoff01 float64, lastMidiCC *time.Time) {
	if status := c.osc.Status(); status.OK {
		if tick%oscSignalEvery == 0 {
			_ = c.osc.SendSignal("exec", sig.Exec)
			_ = c.osc.SendSignal("rx", sig.Rx)
			_ = c.osc.SendSignal("tx", sig.Tx)
			_ = c.osc.SendSignal("csw", sig.Csw)
			_ = c.osc.SendSignal("io", sig.IO)
		}
		if tick%oscMetricsEvery == 0 {
			_ = c.osc.SendMetrics(output.MetricsSnapshot{
				ExecPerSec: rates.ExecPerSec,
				RxKBs:      rates.RxKBs,
				TxKBs:      rates.TxKBs,
				CswPerSec:  rates.CswPerSec,
				BlkRKBs:    rates.BlkRKBs,
				BlkWKBs:    rates.BlkWKBs,
			})
		}
	}

	if status := c.midi.Status(); status.OK {
		if time.Since(*lastMidiCC) >= midiCCMinInterval {
			_ = c.midi.SendSignal("exec", sig.Exec)
			_ = c.midi.SendSignal("rx", sig.Rx)
			_ = c.midi.SendSignal("tx", sig.Tx)
			_ = c.midi.SendSignal("csw", sig.Csw)
			_ = c.midi.SendSignal("io", sig.IO)
			_ = c.midi.SendSignal("cutoff", cutoff01)
			*lastMidiCC = time.Now()
		}
	}
}
