package coordinator

import (
	"github.com/khor-project/khord/internal/config"
	"github.com/khor-project/khord/internal/output"
)

// applyMusicLocked publishes a MusicConfig onto the hot atomics and the
// mutex-guarded scale/preset strings. Callers must hold lifecycleMu (Start)
// or call ApplyMusic (which takes ctrlMu itself) for a running coordinator.
func (c *Coordinator) applyMusicLocked(m config.MusicConfig) {
	c.bpm.Store(m.BPM)
	c.density.Store(m.Density)
	c.smoothing.Store(m.Smoothing)
	c.keyMidi.Store(int32(m.KeyMidi))

	c.ctrlMu.Lock()
	c.scale = m.Scale
	c.preset = m.Preset
	c.ctrlMu.Unlock()
}

// ApplyMusic hot-applies a MusicConfig to a running coordinator: bpm, key,
// density, smoothing, scale and preset all take effect on the next
// sequencer tick with no restart.
func (c *Coordinator) ApplyMusic(m config.MusicConfig) {
	c.applyMusicLocked(m)
}

// musicSnapshot reads the current hot controls into a music.Config-shaped
// value for the sequencer loop to pass to the engine each tick.
func (c *Coordinator) musicSnapshot() (bpm, density, smoothing float64, keyMidi int, scale, preset string) {
	bpm = c.bpm.Load()
	density = c.density.Load()
	smoothing = c.smoothing.Load()
	keyMidi = int(c.keyMidi.Load())
	c.ctrlMu.Lock()
	scale = c.scale
	preset = c.preset
	c.ctrlMu.Unlock()
	return
}

// Controls is the small bundle of music controls surfaced by
// metrics(...).controls.
type Controls struct {
	BPM       float64
	KeyMidi   int
	Density   float64
	Smoothing float64
}

// CurrentControls returns the live hot-control values.
func (c *Coordinator) CurrentControls() Controls {
	bpm, density, smoothing, keyMidi, _, _ := c.musicSnapshot()
	return Controls{BPM: bpm, KeyMidi: keyMidi, Density: density, Smoothing: smoothing}
}

// ApplyConfig live-applies the parts of a full Config that can change
// without tearing anything down (music controls, probe filters/interval)
// and restarts the sub-components whose restart-triggering fields changed,
// matching spec.md §4.8's config_put semantics. prev is the config that was
// active before this patch; next is the merged result already validated by
// internal/config. Returns which sub-components were restarted.
type Applied struct {
	AudioRestarted  bool
	MidiRestarted   bool
	OscRestarted    bool
	ProbeRestarted  bool
	RestartRequired bool
}

func (c *Coordinator) ApplyConfig(prev, next config.Config) Applied {
	c.ApplyMusic(next.Music)

	var applied Applied

	probeCfgChanged := prev.BPF != next.BPF
	probeEnableChanged := prev.Features.BPF != next.Features.BPF
	if probeCfgChanged && !probeEnableChanged {
		cfg := probeConfigFrom(next.BPF)
		c.probeCfgMu.Lock()
		c.probeCfg = cfg
		c.probeCfgMu.Unlock()
		if err := c.probeSrc.ApplyConfig(cfg); err != nil {
			c.log.Error(err, "probe hot config apply failed")
		}
	}
	if probeEnableChanged {
		c.restartProbe(next)
		applied.ProbeRestarted = true
	}

	if prev.Features.Audio != next.Features.Audio ||
		prev.Audio.Backend != next.Audio.Backend ||
		prev.Audio.SampleRate != next.Audio.SampleRate ||
		prev.Audio.Device != next.Audio.Device {
		c.restartAudio(next)
		applied.AudioRestarted = true
	} else if prev.Audio.MasterGain != next.Audio.MasterGain {
		if eng := c.audio.Engine(); eng != nil {
			eng.SetMasterGain(next.Audio.MasterGain)
		}
	}

	if prev.Features.Midi != next.Features.Midi || prev.Midi != next.Midi {
		c.restartMidi(next)
		applied.MidiRestarted = true
	}

	if prev.Features.Osc != next.Features.Osc || prev.Osc != next.Osc {
		c.restartOsc(next)
		applied.OscRestarted = true
	}

	if prev.Listen != next.Listen || prev.UI != next.UI {
		applied.RestartRequired = true
	}

	return applied
}

func (c *Coordinator) restartProbe(next config.Config) {
	c.probeCfgMu.Lock()
	c.featBPF = next.Features.BPF
	c.featFake = next.Features.Fake
	c.probeCfgMu.Unlock()

	_ = c.probeSrc.Stop()
	if c.fake != nil {
		_ = c.fake.Stop()
	}
	if next.Features.BPF {
		cfg := probeConfigFrom(next.BPF)
		c.probeCfgMu.Lock()
		c.probeCfg = cfg
		c.probeCfgMu.Unlock()
		if err := c.probeSrc.Start(c.ctx, cfg, c.totals); err != nil {
			c.log.Error(err, "probe restart reported a programmer error")
		}
	}
	if next.Features.Fake && (!next.Features.BPF || !c.probeSrc.Status().OK) {
		c.startFakeLocked(c.ctx)
	}
}

func (c *Coordinator) restartAudio(next config.Config) {
	if !next.Features.Audio {
		_ = c.audio.Stop()
		return
	}
	if err := c.audio.Restart(backendConfigFrom(next.Audio)); err != nil {
		c.log.Error(err, "audio restart failed")
	}
}

func (c *Coordinator) restartMidi(next config.Config) {
	_ = c.midi.Stop()
	c.notes.UnregisterNoteSink(c.midi.Name())
	if next.Features.Midi {
		if err := c.midi.Start(output.NewLoggingPortWriter(c.log), next.Midi.Port, next.Midi.Channel); err != nil {
			c.log.Error(err, "midi restart reported a programmer error")
		}
		c.notes.RegisterNoteSink(c.midi)
	}
}

func (c *Coordinator) restartOsc(next config.Config) {
	_ = c.osc.Stop()
	c.notes.UnregisterNoteSink(c.osc.Name())
	if next.Features.Osc {
		if err := c.osc.Start(next.Osc.Host, next.Osc.Port); err != nil {
			c.log.Error(err, "osc restart reported a programmer error")
		}
		c.notes.RegisterNoteSink(c.osc)
	}
}
