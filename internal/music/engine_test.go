package music

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khor-project/khord/internal/metrics"
)

func TestSilenceAmbientStaysEmpty(t *testing.T) {
	var e Engine
	cfg := Config{BPM: 110, KeyMidi: 62, Scale: "pentatonic_minor", Preset: "ambient", Density: 0.5}

	for i := 0; i < 64; i++ {
		f := e.Tick(metrics.Signal01{}, cfg)
		assert.Empty(t, f.Notes, "iteration %d must stay silent under zero signal", i)
	}
}

func TestDroneBaseline(t *testing.T) {
	var e Engine
	cfg := Config{BPM: 110, KeyMidi: 62, Scale: "pentatonic_minor", Preset: "drone", Density: 0.35}

	f0 := e.Tick(metrics.Signal01{}, cfg)
	require.Len(t, f0.Notes, 1)
	assert.Equal(t, 38, f0.Notes[0].Midi)
	assert.InDelta(t, 2.3, f0.Notes[0].DurS, 1e-9)

	for step := 1; step <= 7; step++ {
		f := e.Tick(metrics.Signal01{}, cfg)
		assert.Emptyf(t, f.Notes, "step %d must be silent", step)
	}

	f8 := e.Tick(metrics.Signal01{}, cfg)
	assert.Empty(t, f8.Notes, "step 8 with zero activity must not emit the high root")
}

func TestCursorAdvancesModulo16(t *testing.T) {
	var e Engine
	cfg := Config{BPM: 110, KeyMidi: 62, Scale: "pentatonic_minor", Preset: "ambient", Density: 0.0}

	const n = 37
	for i := 0; i < n; i++ {
		e.Tick(metrics.Signal01{}, cfg)
	}
	bar, step := e.Cursor()
	assert.Equal(t, uint32(n%16), step)
	assert.Equal(t, uint64(n/16), bar)
}

func TestDeterminism(t *testing.T) {
	cfg := Config{BPM: 110, KeyMidi: 62, Scale: "dorian", Preset: "percussive", Density: 0.8}
	sig := metrics.Signal01{Exec: 0.4, Rx: 0.3, Tx: 0.2, Csw: 0.6, IO: 0.5}

	var e1, e2 Engine
	for i := 0; i < 5; i++ {
		e1.Tick(sig, cfg)
		e2.Tick(sig, cfg)
	}
	f1 := e1.Tick(sig, cfg)
	f2 := e2.Tick(sig, cfg)
	assert.Equal(t, f1, f2, "identical (Signal01, Config, bar, step) must produce identical frames")
}

func TestTickMsClampsAndFallsBackToDefault(t *testing.T) {
	assert.InDelta(t, 60000.0/110/4, TickMs(1.0), 1e-9)
	assert.InDelta(t, 60000.0/110/4, TickMs(500), 1e-9)
	assert.InDelta(t, 500.0, TickMs(2.0), 1e-9)
	assert.InDelta(t, 60000.0/110/4, TickMs(110), 1e-9)
}

func TestScaleFallback(t *testing.T) {
	assert.Equal(t, scales["pentatonic_minor"], scaleFor("nonexistent"))
	assert.Equal(t, scales["dorian"], scaleFor("dorian"))
}
