package config

import (
	"context"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerGetPut(t *testing.T) {
	mem := &MemLoader{Config: Default()}
	m, err := NewManager(WithLoader(mem), WithLogger(logr.Discard()))
	require.NoError(t, err)

	got := m.Get()
	assert.Equal(t, Default(), got)

	updated, err := m.Put([]byte(`{"music":{"preset":"drone","density":0.1,"smoothing":0.95}}`))
	require.NoError(t, err)
	assert.Equal(t, "drone", updated.Music.Preset)

	// Persisted through the loader (MemLoader is also a Saver).
	assert.Equal(t, "drone", mem.Config.Music.Preset)
	assert.Equal(t, "drone", m.Get().Music.Preset)
}

func TestManagerPutRejectsInvalidPatch(t *testing.T) {
	mem := &MemLoader{Config: Default()}
	m, err := NewManager(WithLoader(mem), WithLogger(logr.Discard()))
	require.NoError(t, err)

	_, err = m.Put([]byte(`{"audio":{"sample_rate":1}}`))
	assert.Error(t, err)
	// Rejected patch must not have mutated the stored config.
	assert.Equal(t, Default(), m.Get())
}

func TestManagerStartBlocksUntilCancel(t *testing.T) {
	mem := &MemLoader{Config: Default()}
	m, err := NewManager(WithLoader(mem), WithLogger(logr.Discard()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Start(ctx) }()

	select {
	case <-done:
		t.Fatal("Start returned before cancellation")
	case <-time.After(20 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancellation")
	}
}
