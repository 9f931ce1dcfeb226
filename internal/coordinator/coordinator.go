// Package coordinator owns the lifecycle of every other component (probe,
// audio, MIDI, OSC) and the periodic sampler/sequencer loops that tie them
// together. Grounded on internal/runtime/manager.go's ticker-driven
// periodic-update loop and internal/instance/manager.go's Runnable shape in
// the teacher, generalized from a single update loop to the probe
// poller + sampler + sequencer + fake-generator loop set this daemon needs.
package coordinator

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/khor-project/khord/internal/audio"
	"github.com/khor-project/khord/internal/config"
	"github.com/khor-project/khord/internal/metrics"
	"github.com/khor-project/khord/internal/music"
	"github.com/khor-project/khord/internal/output"
	"github.com/khor-project/khord/internal/probe"
)

const historyCap = 600

// atomicF64 stores a float64 behind an atomic.Uint64 bit pattern, matching
// internal/audio.Engine's hot-parameter idiom: writers publish with a Store
// (release semantics on this architecture), readers Load with no further
// synchronization.
type atomicF64 struct{ bits atomic.Uint64 }

func (a *atomicF64) Store(v float64) { a.bits.Store(math.Float64bits(v)) }
func (a *atomicF64) Load() float64   { return math.Float64frombits(a.bits.Load()) }

// HistorySample is one sampler-loop snapshot kept in the bounded history
// ring surfaced by metrics(include_history).
type HistorySample struct {
	TsMs  int64
	Rates metrics.SignalRates
	Sig   metrics.Signal01
}

// Coordinator owns every sub-component's lifecycle plus the sampler,
// sequencer, probe-poller (delegated to the probe.Source's own consumer
// loop) and fake-generator loops. Start and Stop serialize on lifecycleMu;
// ApplyConfig and the sub-component restarts it triggers take no lifecycle
// lock and are not safe to run concurrently with each other or with
// Start/Stop.
type Coordinator struct {
	log logr.Logger

	totals *metrics.Totals
	cond   metrics.Conditioner
	music  music.Engine

	probeSrc probe.Source
	fake     *probe.FakeSource
	audio    *audio.Backend
	midi     *output.MidiSink
	osc      *output.OscSink
	notes    *output.Router

	// Hot controls, published by ApplyMusic/preset-select and read once per
	// sequencer tick.
	bpm       atomicF64
	density   atomicF64
	smoothing atomicF64
	keyMidi   atomic.Int32

	ctrlMu sync.Mutex
	scale  string
	preset string

	sigMu   sync.Mutex
	rates   metrics.SignalRates
	signals metrics.Signal01

	histMu  sync.Mutex
	history []HistorySample

	lifecycleMu sync.Mutex
	running     bool
	instanceID  string
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup

	probeCfgMu sync.Mutex
	probeCfg   probe.Config
	featFake   bool
	featBPF    bool
}

// New constructs a Coordinator. probeSrc is the real or fake ProbeSource the
// caller wants attached when features.bpf is enabled; a separate internal
// FakeSource instance is always available as the offline fallback.
func New(log logr.Logger, probeSrc probe.Source) *Coordinator {
	return &Coordinator{
		log:      log.WithName("coordinator"),
		totals:   &metrics.Totals{},
		probeSrc: probeSrc,
		audio:    audio.NewBackend(log),
		midi:     output.NewMidiSink(log),
		osc:      output.NewOscSink(log),
		notes:    output.NewRouter(log),
	}
}

// Running reports whether Start has been called without a matching Stop.
func (c *Coordinator) Running() bool {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()
	return c.running
}

// Start applies cfg to every sub-component and spawns the sampler and
// sequencer loops. Sub-component start failures are soft (see spec.md §7):
// Start itself only returns an error for a programmer mistake (calling
// Start twice without Stop).
func (c *Coordinator) Start(cfg config.Config) error {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()
	if c.running {
		return fmt.Errorf("coordinator: already running")
	}

	c.instanceID = uuid.NewString()
	log := c.log.WithValues("instance", c.instanceID)
	log.Info("coordinator starting")

	c.applyMusicLocked(cfg.Music)

	ctx, cancel := context.WithCancel(context.Background())
	c.ctx = ctx
	c.cancel = cancel

	c.probeCfgMu.Lock()
	c.probeCfg = probeConfigFrom(cfg.BPF)
	c.featBPF = cfg.Features.BPF
	c.featFake = cfg.Features.Fake
	c.probeCfgMu.Unlock()

	if cfg.Features.BPF {
		if err := c.probeSrc.Start(ctx, c.probeCfg, c.totals); err != nil {
			log.Error(err, "probe start reported a programmer error")
		}
	}
	if cfg.Features.Fake && (!cfg.Features.BPF || !c.probeSrc.Status().OK) {
		c.startFakeLocked(ctx)
	}

	if cfg.Features.Audio {
		if err := c.audio.Start(backendConfigFrom(cfg.Audio)); err != nil {
			log.Error(err, "audio start reported a programmer error")
		}
	}
	if cfg.Features.Midi {
		if err := c.midi.Start(output.NewLoggingPortWriter(c.log), cfg.Midi.Port, cfg.Midi.Channel); err != nil {
			log.Error(err, "midi start reported a programmer error")
		}
		c.notes.RegisterNoteSink(c.midi)
	}
	if cfg.Features.Osc {
		if err := c.osc.Start(cfg.Osc.Host, cfg.Osc.Port); err != nil {
			log.Error(err, "osc start reported a programmer error")
		}
		c.notes.RegisterNoteSink(c.osc)
	}

	c.wg.Add(2)
	go c.samplerLoop(ctx)
	go c.sequencerLoop(ctx)

	c.running = true
	log.Info("coordinator started")
	return nil
}

// startFakeLocked lazily constructs and starts the offline generator,
// distinct from whatever ProbeSource was injected via New (which may itself
// already be a *probe.FakeSource in an all-fake test configuration).
func (c *Coordinator) startFakeLocked(ctx context.Context) {
	if c.fake == nil {
		c.fake = probe.NewFakeSource(c.log)
	}
	if err := c.fake.Start(ctx, probe.Config{}, c.totals); err != nil {
		c.log.Error(err, "fake generator start reported a programmer error")
	}
}

// Stop signals every loop and sub-component to shut down and joins the loop
// goroutines before returning. Idempotent.
func (c *Coordinator) Stop() error {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()
	if !c.running {
		return nil
	}

	c.cancel()
	c.wg.Wait()

	_ = c.probeSrc.Stop()
	if c.fake != nil {
		_ = c.fake.Stop()
	}
	_ = c.audio.Stop()
	_ = c.midi.Stop()
	_ = c.osc.Stop()
	c.notes.Close()

	c.running = false
	c.log.Info("coordinator stopped")
	return nil
}

func probeConfigFrom(b config.BPFConfig) probe.Config {
	return probe.Config{
		EnabledMask:      b.EnabledMask,
		SampleIntervalMs: b.SampleIntervalMs,
		TgidAllow:        b.TgidAllow,
		TgidDeny:         b.TgidDeny,
		CgroupID:         b.CgroupID,
	}.Normalized()
}

func backendConfigFrom(a config.AudioConfig) audio.BackendConfig {
	return audio.BackendConfig{
		Backend:    a.Backend,
		Device:     a.Device,
		SampleRate: a.SampleRate,
		MasterGain: a.MasterGain,
	}
}
