package probe

import (
	"context"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/khor-project/khord/internal/metrics"
)

// FakeSource injects synthetic counter increments so the system stays
// audible when no real probe is attached. Grounded on
// original_source/daemon/src/app/app.cpp's fake_loop: fixed 250ms period,
// a small xorshift-style generator seeded once at Start, magnitudes in the
// same relative proportion as the real per-CPU accumulator fields.
type FakeSource struct {
	log logr.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
	status Status
}

func NewFakeSource(log logr.Logger) *FakeSource {
	return &FakeSource{log: log.WithName("probe-fake")}
}

func (s *FakeSource) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *FakeSource) Start(ctx context.Context, cfg Config, totals *metrics.Totals) error {
	runCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.cancel = cancel
	s.status = Status{Enabled: true, OK: true}
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run(runCtx, totals)
	s.log.Info("fake probe generator started")
	return nil
}

func (s *FakeSource) ApplyConfig(cfg Config) error { return nil }

func (s *FakeSource) Stop() error {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.status = Status{}
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	return nil
}

func (s *FakeSource) run(ctx context.Context, totals *metrics.Totals) {
	defer s.wg.Done()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	var state uint64 = 0x9e3779b97f4a7c15

	next := func(lo, hi uint64) uint64 {
		state ^= state << 13
		state ^= state >> 7
		state ^= state << 17
		span := hi - lo + 1
		if span == 0 {
			return lo
		}
		return lo + state%span
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			totals.ExecTotal.Add(next(0, 6))
			totals.NetRxBytesTotal.Add(next(0, 20_000))
			totals.NetTxBytesTotal.Add(next(0, 12_000))
			totals.SchedSwitchTotal.Add(next(50, 4000))
			totals.BlkReadBytesTotal.Add(next(0, 40_000))
			totals.BlkWriteBytesTotal.Add(next(0, 15_000))
			totals.EventsTotal.Add(1)
		}
	}
}
