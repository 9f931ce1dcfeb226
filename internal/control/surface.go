// Package control implements the thin operation set spec.md §4.8 exposes to
// a UI/CLI: health, metrics, config get/put, preset selection, audio device
// enumeration/selection, and a synchronous test-note injector. HTTP routing
// and JSON (de)serialization are an external collaborator
// (cmd/khord/http.go); Surface's methods are plain Go so any router can be
// wired against them, grounded on original_source/daemon/src/app/app.cpp's
// api_* method set.
package control

import (
	"encoding/json"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/khor-project/khord/internal/audio"
	"github.com/khor-project/khord/internal/config"
	"github.com/khor-project/khord/internal/coordinator"
)

// Surface wires a config.Manager and a coordinator.Coordinator into the
// operation set. Not safe for unsynchronized use across ConfigPut/
// PresetSelect/AudioSetDevice calls from multiple goroutines: Surface holds
// no lock of its own, and the HTTP handlers in cmd/khord call these methods
// without any further serialization.
type Surface struct {
	log   logr.Logger
	cfg   *config.Manager
	coord *coordinator.Coordinator
}

func NewSurface(log logr.Logger, cfg *config.Manager, coord *coordinator.Coordinator) *Surface {
	return &Surface{log: log.WithName("control"), cfg: cfg, coord: coord}
}

// Health returns every sub-component's status.
func (s *Surface) Health() coordinator.Health {
	return s.coord.Health()
}

// Metrics returns the full metrics bundle, optionally including the bounded
// sampler history.
func (s *Surface) Metrics(includeHistory bool, nowUnixMs int64) coordinator.Metrics {
	return s.coord.MetricsSnapshot(includeHistory, nowUnixMs)
}

// ConfigGet returns the current config.
func (s *Surface) ConfigGet() config.Config {
	return s.cfg.Get()
}

// PutResult is ConfigPut's return value: the full post-patch config plus
// which sub-components the patch caused to restart.
type PutResult struct {
	Config  config.Config
	Applied coordinator.Applied
}

// ConfigPut deep-merges patch onto the current config, revalidates bounds,
// then live-applies and restarts whatever sub-components the diff requires,
// matching spec.md §4.8 exactly.
func (s *Surface) ConfigPut(patch []byte) (PutResult, error) {
	prev := s.cfg.Get()
	next, err := s.cfg.Put(patch)
	if err != nil {
		return PutResult{}, err
	}
	applied := s.coord.ApplyConfig(prev, next)
	return PutResult{Config: next, Applied: applied}, nil
}

// presetDefaults is the {density, smoothing} lookup table from spec.md
// §4.8, mirroring original_source/daemon/src/app/app.cpp's table shape.
var presetDefaults = map[string]struct{ Density, Smoothing float64 }{
	"ambient":    {0.20, 0.92},
	"percussive": {0.80, 0.35},
	"arp":        {0.55, 0.60},
	"drone":      {0.10, 0.95},
}

// PresetNames returns the four supported preset names in a fixed order.
func PresetNames() []string {
	return []string{"ambient", "percussive", "arp", "drone"}
}

// PresetsList returns the supported preset names.
func (s *Surface) PresetsList() []string {
	return PresetNames()
}

// ErrUnknownPreset is returned by PresetSelect for any name outside
// PresetNames().
type ErrUnknownPreset struct{ Name string }

func (e ErrUnknownPreset) Error() string {
	return fmt.Sprintf("control: unknown preset %q", e.Name)
}

// PresetSelect sets density/smoothing to name's defaults, persists the
// result, and hot-applies it to the running sequencer.
func (s *Surface) PresetSelect(name string) (config.Config, error) {
	defaults, ok := presetDefaults[name]
	if !ok {
		return config.Config{}, ErrUnknownPreset{Name: name}
	}

	patch, err := json.Marshal(map[string]interface{}{
		"music": map[string]interface{}{
			"preset":    name,
			"density":   defaults.Density,
			"smoothing": defaults.Smoothing,
		},
	})
	if err != nil {
		return config.Config{}, fmt.Errorf("control: marshal preset patch: %w", err)
	}

	res, err := s.ConfigPut(patch)
	if err != nil {
		return config.Config{}, err
	}
	return res.Config, nil
}

// AudioDevicesEnumerate lists the devices the audio backend can target.
func (s *Surface) AudioDevicesEnumerate() []audio.DeviceInfo {
	return audio.EnumerateDevices()
}

// AudioSetDevice sets config.audio.device and restarts the audio backend if
// it is enabled.
func (s *Surface) AudioSetDevice(device string) (PutResult, error) {
	patch, err := json.Marshal(map[string]interface{}{
		"audio": map[string]interface{}{"device": device},
	})
	if err != nil {
		return PutResult{}, fmt.Errorf("control: marshal device patch: %w", err)
	}
	return s.ConfigPut(patch)
}

// TestNote clamps and submits a test note to every ready sink.
func (s *Surface) TestNote(midi int, velocity, durS float64) error {
	return s.coord.TestNote(midi, velocity, durS)
}
