package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/ebitengine/oto/v3"
	"github.com/go-logr/logr"
)

// DeviceInfo describes one enumerated playback device.
type DeviceInfo struct {
	ID      string
	Name    string
	Default bool
}

// BackendConfig mirrors the audio section of Config.
type BackendConfig struct {
	Backend    string // "" | "pulseaudio" | "alsa" | "null"
	Device     string // "id:<hex>" or a case-insensitive substring match
	SampleRate int
	MasterGain float64
}

// Status reports the playback backend's health.
type Status struct {
	Enabled bool
	OK      bool
	Backend string
	Device  string
	Error   string
}

// Backend owns the oto playback device and the Engine feeding it. oto
// abstracts device choice per-OS and does not expose a device enumeration
// API; EnumerateDevices therefore returns the single default device oto
// would open, and device/backend selection beyond "null" (the deterministic
// test/CI sink) is best-effort metadata rather than an oto-level override.
type Backend struct {
	log logr.Logger

	mu      sync.Mutex
	engine  *Engine
	ctx     *oto.Context
	player  *oto.Player
	cancel  context.CancelFunc
	status  Status
	nullRun sync.WaitGroup
}

func NewBackend(log logr.Logger) *Backend {
	return &Backend{log: log.WithName("audio-backend")}
}

func (b *Backend) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

func (b *Backend) Engine() *Engine {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.engine
}

// EnumerateDevices returns the devices this backend can target. See the
// Backend doc comment for the enumeration limitation.
func EnumerateDevices() []DeviceInfo {
	return []DeviceInfo{{ID: "id:default", Name: "default", Default: true}}
}

// Start opens the playback device and begins rendering. If cfg.Backend is
// "null" the engine still renders every block but the output is discarded,
// so the rest of the system can be exercised without real audio hardware.
// When a real device fails to open, Start records the error in Status and
// does not fall back to the null sink.
func (b *Backend) Start(cfg BackendConfig) error {
	b.Stop()

	sr := cfg.SampleRate
	if sr == 0 {
		sr = 48000
	}
	engine := NewEngine(float64(sr))
	engine.SetMasterGain(cfg.MasterGain)

	if strings.EqualFold(cfg.Backend, "null") {
		return b.startNull(engine, cfg)
	}

	ctxOpts := &oto.NewContextOptions{
		SampleRate:   sr,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	}

	ctx, ready, err := oto.NewContext(ctxOpts)
	if err != nil {
		b.setStatus(Status{Enabled: true, OK: false, Error: fmt.Sprintf("open context: %v", err)})
		return nil
	}
	<-ready

	player := ctx.NewPlayer(&engineReader{engine: engine})
	player.Play()

	b.mu.Lock()
	b.engine = engine
	b.ctx = ctx
	b.player = player
	b.status = Status{Enabled: true, OK: true, Backend: cfg.Backend, Device: cfg.Device}
	b.mu.Unlock()

	b.log.Info("audio device started", "sample_rate", sr, "backend", cfg.Backend)
	return nil
}

func (b *Backend) startNull(engine *Engine, cfg BackendConfig) error {
	ctx, cancel := context.WithCancel(context.Background())

	b.mu.Lock()
	b.engine = engine
	b.cancel = cancel
	b.status = Status{Enabled: true, OK: true, Backend: "null", Device: cfg.Device}
	b.mu.Unlock()

	b.nullRun.Add(1)
	go func() {
		defer b.nullRun.Done()
		buf := make([]float32, 2*int(engine.sampleRate/100)) // 10ms blocks
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				engine.Render(buf, len(buf)/2)
			}
		}
	}()
	b.log.Info("audio device started", "backend", "null")
	return nil
}

func (b *Backend) setStatus(s Status) {
	b.mu.Lock()
	b.status = s
	b.mu.Unlock()
}

func (b *Backend) Stop() error {
	b.mu.Lock()
	player := b.player
	ctx := b.ctx
	cancel := b.cancel
	b.player = nil
	b.ctx = nil
	b.cancel = nil
	b.engine = nil
	b.status = Status{}
	b.mu.Unlock()

	if cancel != nil {
		cancel()
		b.nullRun.Wait()
	}
	if player != nil {
		player.Close()
	}
	_ = ctx
	return nil
}

// Restart reopens the device with a new config, retrying transient open
// failures with backoff before giving up and reporting Status.Error: a
// bounded backoff.Retry (at most 3 tries) around the fallible operation
// rather than a hand-rolled NextBackOff loop.
func (b *Backend) Restart(cfg BackendConfig) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.MaxInterval = 1 * time.Second

	_, err := backoff.Retry(context.Background(), func() (struct{}, error) {
		if err := b.Start(cfg); err != nil {
			return struct{}{}, err
		}
		if !b.Status().OK {
			return struct{}{}, fmt.Errorf("audio: device open did not report ok")
		}
		return struct{}{}, nil
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(3))
	return err
}

// engineReader adapts Engine.Render to the io.Reader oto's player pulls
// from; each Read fills p with as many whole stereo f32 frames as fit.
type engineReader struct {
	engine *Engine
}

const bytesPerFrame = 4 * 2 // float32 * stereo

func (r *engineReader) Read(p []byte) (int, error) {
	frames := len(p) / bytesPerFrame
	if frames == 0 {
		return 0, nil
	}
	samples := make([]float32, frames*2)
	r.engine.Render(samples, frames)

	for i, s := range samples {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(s))
	}
	return frames * bytesPerFrame, nil
}
