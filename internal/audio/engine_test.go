package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeVoiceCount(e *Engine) int {
	n := 0
	for i := range e.voices {
		if e.voices[i].active {
			n++
		}
	}
	return n
}

func TestVoiceStealingTakesQuietestVoice(t *testing.T) {
	e := NewEngine(48000)

	for i := 0; i < maxVoices; i++ {
		e.allocateVoice(NoteEvent{Midi: 40 + i, Velocity: 0.8, DurS: 10})
	}
	require.Equal(t, maxVoices, activeVoiceCount(e))

	// Advance envelopes by differing amounts so voice 0 is the quietest by
	// construction: tick every other voice well into decay while voice 0
	// stays at the start of its attack (envelope value 0).
	for i := 0; i < 2000; i++ {
		for vi := 1; vi < maxVoices; vi++ {
			e.voices[vi].env.tick(48000)
		}
	}

	e.allocateVoice(NoteEvent{Midi: 90, Velocity: 0.9, DurS: 10})
	assert.Equal(t, maxVoices, activeVoiceCount(e), "stealing must not change the active voice count")
	assert.Equal(t, 90, e.voices[0].midi, "the quietest voice must be the one reassigned")
}

func TestNoteQueueSaturationDropsExcessAndCountsThem(t *testing.T) {
	e := NewEngine(48000)
	for i := 0; i < e.queue.Cap(); i++ {
		e.Push(NoteEvent{Midi: 60, Velocity: 0.5, DurS: 0.2})
	}
	e.Push(NoteEvent{Midi: 61, Velocity: 0.5, DurS: 0.2})
	e.Push(NoteEvent{Midi: 62, Velocity: 0.5, DurS: 0.2})

	assert.Equal(t, uint64(2), e.QueueDrops())

	out := make([]float32, 64)
	e.Render(out, 32)
	assert.Equal(t, maxVoices, activeVoiceCount(e), "consumer must remain uncorrupted after a saturated burst")
}

func TestRenderProducesNoNaNOrInf(t *testing.T) {
	e := NewEngine(48000)
	e.Push(NoteEvent{Midi: 60, Velocity: 0.8, DurS: 0.5})

	out := make([]float32, 2*512)
	e.Render(out, 512)
	for _, s := range out {
		f := float64(s)
		assert.False(t, f != f, "no NaN samples")
		assert.LessOrEqual(t, f, 2.0, "saturator should keep output in a small bounded range")
		assert.GreaterOrEqual(t, f, -2.0)
	}
}
