package audio

import (
	"math"
	"sync/atomic"

	"github.com/khor-project/khord/internal/ring"
)

// atomicF64 stores a float64 behind an atomic.Uint64 bit pattern, matching
// the source specification's single-atomic-scalar hot parameters.
type atomicF64 struct{ bits atomic.Uint64 }

func (a *atomicF64) Store(v float64) { a.bits.Store(math.Float64bits(v)) }
func (a *atomicF64) Load() float64   { return math.Float64frombits(a.bits.Load()) }

// Engine renders the polyphonic synth graph. NoteEvents are pushed from the
// sequencer goroutine via Push; Render is called from the audio device
// callback and must never block or allocate.
type Engine struct {
	sampleRate float64
	queue      *ring.SPSC[NoteEvent]
	queueDrops atomic.Uint64

	voices [maxVoices]voice

	masterGain  atomicF64
	cutoff01    atomicF64
	resonance01 atomicF64
	delayMix01  atomicF64
	reverbMix01 atomicF64

	delay  *delayLine
	rev    *reverb
	limGain float64 // touched only on the render thread
}

// NewEngine constructs an Engine for the given sample rate. Call before
// starting the device.
func NewEngine(sr float64) *Engine {
	e := &Engine{
		sampleRate: sr,
		queue:      ring.New[NoteEvent](1024),
		delay:      newDelayLine(sr, 0.26, 0.28),
		rev:        newReverb(sr),
		limGain:    1.0,
	}
	e.masterGain.Store(0.25)
	e.cutoff01.Store(0.65)
	e.resonance01.Store(0.25)
	e.delayMix01.Store(0.10)
	e.reverbMix01.Store(0.15)
	return e
}

// Push enqueues a note for the next render blocks to consume. If the queue
// is full the note is dropped and the drop counter increments; an audible
// under-run is preferable to blocking the sequencer.
func (e *Engine) Push(n NoteEvent) {
	if !e.queue.Push(n) {
		e.queueDrops.Add(1)
	}
}

func (e *Engine) QueueDrops() uint64 { return e.queueDrops.Load() }

// SetMasterGain clamps and publishes the master gain, read once per render
// block.
func (e *Engine) SetMasterGain(v float64) { e.masterGain.Store(clampF(v, 0, 2)) }
func (e *Engine) SetCutoff01(v float64)    { e.cutoff01.Store(clamp01(v)) }
func (e *Engine) SetResonance01(v float64) { e.resonance01.Store(clamp01(v)) }
func (e *Engine) SetDelayMix01(v float64)  { e.delayMix01.Store(clamp01(v)) }
func (e *Engine) SetReverbMix01(v float64) { e.reverbMix01.Store(clamp01(v)) }

// Render fills out (interleaved stereo f32, len == 2*frames) for one device
// callback invocation. Must not block; all intake is a lock-free queue
// drain and all parameter reads are atomic loads.
func (e *Engine) Render(out []float32, frames int) {
	for i := range out {
		out[i] = 0
	}

	for {
		n, ok := e.queue.Pop()
		if !ok {
			break
		}
		e.allocateVoice(n)
	}

	cutoff01 := clamp01(e.cutoff01.Load())
	resonance01 := clamp01(e.resonance01.Load())
	fc := 80 * math.Pow(2, 6.8*cutoff01)
	g := math.Tan(math.Pi * fc / e.sampleRate)
	qParam := 0.55 + (1-resonance01)*7
	if qParam < 0.3 {
		qParam = 0.3
	}
	k := 1 / qParam

	masterGain := clampF(e.masterGain.Load(), 0, 2)
	delayMix := clamp01(e.delayMix01.Load())
	reverbMix := clamp01(e.reverbMix01.Load())
	wet := clamp01(delayMix + reverbMix)
	dryGain := 1 - wet*0.85

	for i := 0; i < frames; i++ {
		var l, r float64
		for vi := range e.voices {
			v := &e.voices[vi]
			if !v.active {
				continue
			}
			sample, ok := v.renderSample(e.sampleRate, g, k)
			if !ok {
				continue
			}
			pan := v.pan()
			l += sample * (1 - pan)
			r += sample * pan
		}

		dl, dr := e.delay.process(l, r)
		rvl, rvr := e.rev.process(l, r)

		outL := l*dryGain + dl*delayMix + rvl*reverbMix
		outR := r*dryGain + dr*delayMix + rvr*reverbMix

		outL *= masterGain
		outR *= masterGain

		peak := math.Max(math.Abs(outL), math.Abs(outR))
		if peak*e.limGain > 0.95 && peak > 1e-6 {
			target := 0.95 / peak
			if target < e.limGain {
				e.limGain = target
			}
		} else {
			e.limGain += (1 - e.limGain) * 0.0008
			if e.limGain > 1 {
				e.limGain = 1
			}
		}
		outL *= e.limGain
		outR *= e.limGain

		outL = sat(outL)
		outR = sat(outR)

		out[i*2+0] = float32(outL)
		out[i*2+1] = float32(outR)
	}
}

func sat(x float64) float64 {
	return x / (1 + math.Abs(x))
}

// allocateVoice finds a free voice, or steals the quietest one.
func (e *Engine) allocateVoice(n NoteEvent) {
	for i := range e.voices {
		if !e.voices[i].active {
			e.voices[i].trigger(e.sampleRate, n)
			return
		}
	}
	stolen := 0
	lowest := e.voices[0].env.value
	for i := 1; i < len(e.voices); i++ {
		if e.voices[i].env.value < lowest {
			lowest = e.voices[i].env.value
			stolen = i
		}
	}
	e.voices[stolen].trigger(e.sampleRate, n)
}
