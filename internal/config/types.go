// Package config defines the persisted Config shape, its JSON
// (de)serialization and bounds validation, a deep-merge patch operation, and
// a functional-options Manager that owns the current value and hands out
// snapshots by value. Grounded on internal/config/manager.go's
// functional-options constructor shape in the teacher, generalized from an
// xDS-style multi-type config distribution system to a single flat document.
package config

// Config is the full persisted document: JSON on disk, JSON over
// config_get/config_put on the control surface. Section names and bounds
// follow spec.md §3/§6 exactly.
type Config struct {
	Version int `json:"version"`

	Listen   ListenConfig   `json:"listen"`
	UI       UIConfig       `json:"ui"`
	Features FeaturesConfig `json:"features"`
	BPF      BPFConfig      `json:"bpf"`
	Music    MusicConfig    `json:"music"`
	Audio    AudioConfig    `json:"audio"`
	Midi     MidiConfig     `json:"midi"`
	Osc      OscConfig      `json:"osc"`
}

type ListenConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type UIConfig struct {
	Serve bool   `json:"serve"`
	Dir   string `json:"dir"`
}

type FeaturesConfig struct {
	BPF   bool `json:"bpf"`
	Audio bool `json:"audio"`
	Midi  bool `json:"midi"`
	Osc   bool `json:"osc"`
	Fake  bool `json:"fake"`
}

type BPFConfig struct {
	EnabledMask      uint32 `json:"enabled_mask"`
	SampleIntervalMs uint32 `json:"sample_interval_ms"`
	TgidAllow        uint32 `json:"tgid_allow,omitempty"`
	TgidDeny         uint32 `json:"tgid_deny,omitempty"`
	CgroupID         uint64 `json:"cgroup_id,omitempty"`
}

type MusicConfig struct {
	BPM       float64 `json:"bpm"`
	KeyMidi   int     `json:"key_midi"`
	Scale     string  `json:"scale"`
	Preset    string  `json:"preset"`
	Density   float64 `json:"density"`
	Smoothing float64 `json:"smoothing"`
}

type AudioConfig struct {
	Backend    string  `json:"backend"`
	Device     string  `json:"device"`
	SampleRate int     `json:"sample_rate"`
	MasterGain float64 `json:"master_gain"`
}

type MidiConfig struct {
	Port    string `json:"port"`
	Channel int    `json:"channel"`
}

type OscConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// CurrentVersion is stamped onto configs produced by Default.
const CurrentVersion = 1

// Default returns the baseline configuration: BPF probe, fake generator
// and audio enabled, MIDI/OSC off, ambient preset, matching
// original_source/daemon/src/app/config.h's shipped defaults.
func Default() Config {
	return Config{
		Version: CurrentVersion,
		Listen:  ListenConfig{Host: "127.0.0.1", Port: 7777},
		UI:      UIConfig{Serve: true, Dir: "ui"},
		Features: FeaturesConfig{
			BPF:   true,
			Audio: true,
			Midi:  false,
			Osc:   false,
			Fake:  true,
		},
		BPF: BPFConfig{
			EnabledMask:      0,
			SampleIntervalMs: 200,
		},
		Music: MusicConfig{
			BPM:       110,
			KeyMidi:   62,
			Scale:     "pentatonic_minor",
			Preset:    "ambient",
			Density:   0.5,
			Smoothing: 0.7,
		},
		Audio: AudioConfig{
			Backend:    "",
			Device:     "",
			SampleRate: 48000,
			MasterGain: 0.5,
		},
		Midi: MidiConfig{
			Port:    "khord",
			Channel: 1,
		},
		Osc: OscConfig{
			Host: "127.0.0.1",
			Port: 9000,
		},
	}
}
