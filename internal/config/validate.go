package config

import "fmt"

var validScales = map[string]bool{
	"pentatonic_minor": true,
	"natural_minor":     true,
	"dorian":            true,
}

var validPresets = map[string]bool{
	"ambient":    true,
	"percussive": true,
	"arp":        true,
	"drone":      true,
}

var validBackends = map[string]bool{
	"":            true,
	"pulseaudio":  true,
	"alsa":        true,
	"null":        true,
}

// Validate checks c's numeric bounds and enum fields against spec.md §3 and
// clamps/defaults what can be safely defaulted (sample interval 0, unknown
// scale) while rejecting what cannot (out-of-range bpm, bad sample rate).
func Validate(c *Config) error {
	if c.Music.BPM <= 1 || c.Music.BPM >= 400 {
		return fmt.Errorf("config: music.bpm %.2f out of range (1,400)", c.Music.BPM)
	}
	if c.Music.KeyMidi < 0 || c.Music.KeyMidi > 127 {
		return fmt.Errorf("config: music.key_midi %d out of range [0,127]", c.Music.KeyMidi)
	}
	if c.Music.Density < 0 || c.Music.Density > 1 {
		return fmt.Errorf("config: music.density %.2f out of range [0,1]", c.Music.Density)
	}
	if c.Music.Smoothing < 0 || c.Music.Smoothing > 1 {
		return fmt.Errorf("config: music.smoothing %.2f out of range [0,1]", c.Music.Smoothing)
	}
	if !validScales[c.Music.Scale] {
		c.Music.Scale = "pentatonic_minor"
	}
	if !validPresets[c.Music.Preset] {
		return fmt.Errorf("config: music.preset %q is not one of ambient|percussive|arp|drone", c.Music.Preset)
	}

	if c.Audio.SampleRate < 8000 || c.Audio.SampleRate > 192000 {
		return fmt.Errorf("config: audio.sample_rate %d out of range [8000,192000]", c.Audio.SampleRate)
	}
	if c.Audio.MasterGain < 0 || c.Audio.MasterGain > 2 {
		return fmt.Errorf("config: audio.master_gain %.2f out of range [0,2]", c.Audio.MasterGain)
	}
	if !validBackends[c.Audio.Backend] {
		return fmt.Errorf("config: audio.backend %q is not one of \"\"|pulseaudio|alsa|null", c.Audio.Backend)
	}

	if c.Midi.Channel < 1 || c.Midi.Channel > 16 {
		return fmt.Errorf("config: midi.channel %d out of range [1,16]", c.Midi.Channel)
	}

	if c.BPF.SampleIntervalMs == 0 {
		c.BPF.SampleIntervalMs = 200
	} else if c.BPF.SampleIntervalMs < 10 || c.BPF.SampleIntervalMs > 5000 {
		return fmt.Errorf("config: bpf.sample_interval_ms %d out of range [10,5000]", c.BPF.SampleIntervalMs)
	}

	if c.Listen.Port < 0 || c.Listen.Port > 65535 {
		return fmt.Errorf("config: listen.port %d out of range [0,65535]", c.Listen.Port)
	}
	if c.Osc.Port < 0 || c.Osc.Port > 65535 {
		return fmt.Errorf("config: osc.port %d out of range [0,65535]", c.Osc.Port)
	}

	return nil
}
