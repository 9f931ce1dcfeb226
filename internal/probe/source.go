package probe

import (
	"context"

	"github.com/khor-project/khord/internal/metrics"
)

// Status reports the current health of a ProbeSource, mirroring the
// BpfStatus accessor pattern: load/attach failures are soft and observed
// here rather than returned as fatal errors from Start.
type Status struct {
	Enabled bool
	OK      bool
	ErrCode int
	Error   string
}

// Source is the external collaborator the coordinator drives: it turns
// kernel-side counter flushes into Totals updates. RingbufSource and
// FakeSource both implement it.
type Source interface {
	// Start begins consuming samples into totals. Load/attach failure is
	// reported through Status, not through the returned error, except for
	// programmer errors (nil totals, etc.).
	Start(ctx context.Context, cfg Config, totals *metrics.Totals) error
	// Stop detaches and releases all resources. Idempotent.
	Stop() error
	// ApplyConfig pushes a new Config to a running Source. Safe to call
	// while Start's consumer loop is active.
	ApplyConfig(cfg Config) error
	Status() Status
}
