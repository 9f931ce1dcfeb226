package ring

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRoundsCapacityToPowerOfTwo(t *testing.T) {
	q := New[int](5)
	assert.Equal(t, 8, q.Cap())

	q2 := New[int](1)
	assert.Equal(t, 2, q2.Cap())
}

func TestPushPopOrder(t *testing.T) {
	q := New[int](4)
	require.True(t, q.Push(1))
	require.True(t, q.Push(2))
	v, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, 1, v)
	v, ok = q.Pop()
	require.True(t, ok)
	assert.Equal(t, 2, v)
	_, ok = q.Pop()
	assert.False(t, ok)
}

func TestPushDropsWhenFull(t *testing.T) {
	q := New[int](2)
	require.True(t, q.Push(1))
	require.True(t, q.Push(2))
	assert.False(t, q.Push(3), "queue at capacity must reject, not block or corrupt")

	v, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, 1, v)
	v, ok = q.Pop()
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

// TestConcurrentProducerConsumer exercises the real cross-goroutine
// acquire/release protocol rather than a single-threaded stand-in.
func TestConcurrentProducerConsumer(t *testing.T) {
	q := New[int](64)
	const n = 100_000

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			for !q.Push(i) {
			}
		}
	}()

	received := make([]int, 0, n)
	go func() {
		defer wg.Done()
		for len(received) < n {
			if v, ok := q.Pop(); ok {
				received = append(received, v)
			}
		}
	}()

	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("producer/consumer pair did not complete in time")
	}

	require.Len(t, received, n)
	for i, v := range received {
		require.Equal(t, i, v, "queue must preserve FIFO order under concurrency")
	}
}
