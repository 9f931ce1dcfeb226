// Package metrics holds the process-wide monotonic counters fed by the probe
// reader and the signal conditioner that turns them into bounded perceptual
// signals for the music engine.
package metrics

import "sync/atomic"

// Totals are process-wide, monotonically non-decreasing counters. Only the
// probe reader (or the fake generator standing in for it) mutates them; any
// number of readers may snapshot them concurrently.
type Totals struct {
	ExecTotal        atomic.Uint64
	NetRxBytesTotal  atomic.Uint64
	NetTxBytesTotal  atomic.Uint64
	SchedSwitchTotal atomic.Uint64
	BlkReadBytesTotal  atomic.Uint64
	BlkWriteBytesTotal atomic.Uint64

	EventsTotal   atomic.Uint64
	EventsDropped atomic.Uint64
}

// TotalsSnapshot is a plain-value copy of Totals taken at one instant. Cross-
// field tearing across a concurrent snapshot is acceptable: the signal
// conditioner tolerates small inconsistencies between counters that were
// each loaded independently.
type TotalsSnapshot struct {
	ExecTotal          uint64
	NetRxBytesTotal    uint64
	NetTxBytesTotal    uint64
	SchedSwitchTotal   uint64
	BlkReadBytesTotal  uint64
	BlkWriteBytesTotal uint64
	EventsTotal        uint64
	EventsDropped      uint64
}

// Snapshot loads every field with relaxed ordering (Go's atomic.Uint64.Load
// is already the relaxed-equivalent single-word load the audio/sampler loops
// need; there is no cheaper ordering to ask for on this architecture).
func (t *Totals) Snapshot() TotalsSnapshot {
	return TotalsSnapshot{
		ExecTotal:          t.ExecTotal.Load(),
		NetRxBytesTotal:    t.NetRxBytesTotal.Load(),
		NetTxBytesTotal:    t.NetTxBytesTotal.Load(),
		SchedSwitchTotal:   t.SchedSwitchTotal.Load(),
		BlkReadBytesTotal:  t.BlkReadBytesTotal.Load(),
		BlkWriteBytesTotal: t.BlkWriteBytesTotal.Load(),
		EventsTotal:        t.EventsTotal.Load(),
		EventsDropped:      t.EventsDropped.Load(),
	}
}

// ApplySample folds one probe sample's deltas into the totals. Called by the
// probe reader for every SAMPLE record; the reader counts EventsTotal itself,
// once per record, so ApplySample leaves it alone. The fake generator adds
// its synthetic increments to the fields directly.
func (t *Totals) ApplySample(execDelta, rxDelta, txDelta, cswDelta, blkRDelta, blkWDelta, lostDelta uint64) {
	t.ExecTotal.Add(execDelta)
	t.NetRxBytesTotal.Add(rxDelta)
	t.NetTxBytesTotal.Add(txDelta)
	t.SchedSwitchTotal.Add(cswDelta)
	t.BlkReadBytesTotal.Add(blkRDelta)
	t.BlkWriteBytesTotal.Add(blkWDelta)
	t.EventsDropped.Add(lostDelta)
}
