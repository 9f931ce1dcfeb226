package control

import (
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khor-project/khord/internal/config"
	"github.com/khor-project/khord/internal/coordinator"
	"github.com/khor-project/khord/internal/probe"
)

func newTestSurface(t *testing.T) (*Surface, *coordinator.Coordinator) {
	t.Helper()
	log := logr.Discard()

	cfg := config.Default()
	cfg.Features.BPF = false
	cfg.Features.Fake = true
	cfg.Features.Audio = false
	cfg.Features.Midi = false
	cfg.Features.Osc = false

	mgr, err := config.NewManager(
		config.WithLoader(&config.MemLoader{Config: cfg}),
		config.WithLogger(log),
	)
	require.NoError(t, err)

	fake := probe.NewFakeSource(log)
	coord := coordinator.New(log, fake)
	require.NoError(t, coord.Start(cfg))
	t.Cleanup(func() { _ = coord.Stop() })

	return NewSurface(log, mgr, coord), coord
}

func TestSurfaceHealthReflectsCoordinator(t *testing.T) {
	s, _ := newTestSurface(t)
	h := s.Health()
	assert.True(t, h.Probe.Enabled)
	assert.False(t, h.Audio.Enabled)
}

func TestSurfaceConfigGetPut(t *testing.T) {
	s, _ := newTestSurface(t)

	got := s.ConfigGet()
	assert.Equal(t, 110.0, got.Music.BPM)

	res, err := s.ConfigPut([]byte(`{"music":{"bpm":140}}`))
	require.NoError(t, err)
	assert.Equal(t, 140.0, res.Config.Music.BPM)
	assert.Equal(t, 140.0, s.ConfigGet().Music.BPM)
}

func TestSurfaceConfigPutRejectsOutOfBounds(t *testing.T) {
	s, _ := newTestSurface(t)

	_, err := s.ConfigPut([]byte(`{"music":{"bpm":5000}}`))
	assert.Error(t, err)
	assert.Equal(t, 110.0, s.ConfigGet().Music.BPM, "rejected patch must not mutate state")
}

func TestSurfacePresetSelectUnknown(t *testing.T) {
	s, _ := newTestSurface(t)

	_, err := s.PresetSelect("not-a-real-preset")
	require.Error(t, err)
	var unknown ErrUnknownPreset
	assert.ErrorAs(t, err, &unknown)
}

func TestSurfacePresetSelectAppliesDefaults(t *testing.T) {
	s, _ := newTestSurface(t)

	cfg, err := s.PresetSelect("percussive")
	require.NoError(t, err)
	assert.Equal(t, "percussive", cfg.Music.Preset)
	assert.Equal(t, 0.80, cfg.Music.Density)
	assert.Equal(t, 0.35, cfg.Music.Smoothing)
}

func TestSurfacePresetsListIsFixedOrder(t *testing.T) {
	s, _ := newTestSurface(t)
	assert.Equal(t, []string{"ambient", "percussive", "arp", "drone"}, s.PresetsList())
}

func TestSurfaceAudioDevicesEnumerate(t *testing.T) {
	s, _ := newTestSurface(t)
	assert.NotNil(t, s.AudioDevicesEnumerate())
}

func TestSurfaceTestNoteNoSinkReadyWhenEverythingDisabled(t *testing.T) {
	s, _ := newTestSurface(t)

	err := s.TestNote(60, 0.8, 0.25)
	assert.ErrorIs(t, err, coordinator.ErrNoSinkReady)
}
