package coordinator

import (
	"github.com/khor-project/khord/internal/audio"
	"github.com/khor-project/khord/internal/output"
	"github.com/khor-project/khord/internal/probe"
)

// Health bundles every sub-component's status, matching spec.md §4.8's
// health operation.
type Health struct {
	Probe probe.Status
	Audio audio.Status
	Midi  output.MidiStatus
	Osc   output.OscStatus
}

// ProbeStatus reports the active probe's status: the real source if
// features.bpf was on at Start/restart, else the fake generator's, else the
// zero value (neither enabled).
func (c *Coordinator) ProbeStatus() probe.Status {
	c.probeCfgMu.Lock()
	featBPF := c.featBPF
	c.probeCfgMu.Unlock()
	if featBPF {
		return c.probeSrc.Status()
	}
	if c.fake != nil {
		return c.fake.Status()
	}
	return probe.Status{}
}

// Health returns a snapshot of every sub-component's current status.
func (c *Coordinator) Health() Health {
	return Health{
		Probe: c.ProbeStatus(),
		Audio: c.audio.Status(),
		Midi:  c.midi.Status(),
		Osc:   c.osc.Status(),
	}
}

// Metrics is the full metrics(include_history) response shape.
type Metrics struct {
	TsMs     int64
	Totals   MetricsTotals
	Rates    RatesView
	Controls Controls
	History  []HistorySample
}

type MetricsTotals struct {
	ExecTotal          uint64
	NetRxBytesTotal    uint64
	NetTxBytesTotal    uint64
	SchedSwitchTotal   uint64
	BlkReadBytesTotal  uint64
	BlkWriteBytesTotal uint64
	EventsTotal        uint64
	EventsDropped      uint64
}

type RatesView struct {
	ExecPerSec float64
	RxKBs      float64
	TxKBs      float64
	CswPerSec  float64
	BlkRKBs    float64
	BlkWKBs    float64
}

// MetricsSnapshot returns a point-in-time metrics bundle. includeHistory
// controls whether the (potentially 600-entry) History slice is populated.
func (c *Coordinator) MetricsSnapshot(includeHistory bool, nowUnixMs int64) Metrics {
	snap := c.totals.Snapshot()
	rates, _ := c.signalSnapshot()

	m := Metrics{
		TsMs: nowUnixMs,
		Totals: MetricsTotals{
			ExecTotal:          snap.ExecTotal,
			NetRxBytesTotal:    snap.NetRxBytesTotal,
			NetTxBytesTotal:    snap.NetTxBytesTotal,
			SchedSwitchTotal:   snap.SchedSwitchTotal,
			BlkReadBytesTotal:  snap.BlkReadBytesTotal,
			BlkWriteBytesTotal: snap.BlkWriteBytesTotal,
			EventsTotal:        snap.EventsTotal,
			EventsDropped:      snap.EventsDropped,
		},
		Rates: RatesView{
			ExecPerSec: rates.ExecPerSec,
			RxKBs:      rates.RxKBs,
			TxKBs:      rates.TxKBs,
			CswPerSec:  rates.CswPerSec,
			BlkRKBs:    rates.BlkRKBs,
			BlkWKBs:    rates.BlkWKBs,
		},
		Controls: c.CurrentControls(),
	}
	if includeHistory {
		m.History = c.History()
	}
	return m
}
