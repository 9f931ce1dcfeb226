package coordinator

import (
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khor-project/khord/internal/config"
	"github.com/khor-project/khord/internal/probe"
)

func TestCoordinatorDegradedPathUsesFakeGenerator(t *testing.T) {
	log := logr.Discard()
	fake := probe.NewFakeSource(log)
	c := New(log, fake) // stand-in ProbeSource: never started here, since features.bpf is off and the coordinator's own fake generator drives totals

	cfg := config.Default()
	cfg.Features.BPF = false
	cfg.Features.Fake = true
	cfg.Features.Audio = true
	cfg.Audio.Backend = "null"
	cfg.Music.BPM = 400 - 1 // fast ticks so the test completes quickly
	cfg.Music.Density = 1
	cfg.Music.Preset = "drone"

	require.NoError(t, c.Start(cfg))
	defer c.Stop()

	assert.Eventually(t, func() bool {
		h := c.Health()
		return h.Audio.OK
	}, time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		snap := c.MetricsSnapshot(false, 0)
		return snap.Totals.EventsTotal > 0
	}, 2*time.Second, 20*time.Millisecond, "fake generator should be incrementing totals")
}

func TestCoordinatorStartStopIdempotent(t *testing.T) {
	log := logr.Discard()
	fake := probe.NewFakeSource(log)
	c := New(log, fake)

	cfg := config.Default()
	cfg.Features.BPF = false
	cfg.Features.Audio = false
	cfg.Features.Fake = true

	require.NoError(t, c.Start(cfg))
	assert.Error(t, c.Start(cfg), "starting twice without Stop should error")
	require.NoError(t, c.Stop())
	require.NoError(t, c.Stop(), "Stop must be idempotent")
}

func TestCoordinatorApplyConfigHotAppliesMusic(t *testing.T) {
	log := logr.Discard()
	fake := probe.NewFakeSource(log)
	c := New(log, fake)

	cfg := config.Default()
	cfg.Features.BPF = false
	cfg.Features.Fake = true
	cfg.Features.Audio = false
	require.NoError(t, c.Start(cfg))
	defer c.Stop()

	next := cfg
	next.Music.Preset = "arp"
	next.Music.Density = 0.9

	applied := c.ApplyConfig(cfg, next)
	assert.False(t, applied.AudioRestarted)
	assert.False(t, applied.MidiRestarted)
	assert.False(t, applied.OscRestarted)

	ctl := c.CurrentControls()
	assert.Equal(t, 0.9, ctl.Density)
}
