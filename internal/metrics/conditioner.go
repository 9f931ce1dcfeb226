package metrics

import "math"

// SignalRates are the six rate channels derived from two consecutive Totals
// snapshots, in physical units per second (byte counters in kB/s).
type SignalRates struct {
	ExecPerSec float64
	RxKBs      float64
	TxKBs      float64
	CswPerSec  float64
	BlkRKBs    float64
	BlkWKBs    float64
}

// Signal01 are the five bounded [0,1] perceptual signals the music engine
// consumes.
type Signal01 struct {
	Exec float64
	Rx   float64
	Tx   float64
	Csw  float64
	IO   float64
}

// Max returns the largest component, used as the silence-gate "activity"
// measure in the music engine.
func (s Signal01) Max() float64 {
	m := s.Exec
	if s.Rx > m {
		m = s.Rx
	}
	if s.Tx > m {
		m = s.Tx
	}
	if s.Csw > m {
		m = s.Csw
	}
	if s.IO > m {
		m = s.IO
	}
	return m
}

// anchors are not calibrations; they shape a pleasing, consistent dynamic
// range across several orders of magnitude of raw counter rate.
const (
	anchorExec = 250.0
	anchorRx   = 50000.0
	anchorTx   = 50000.0
	anchorCsw  = 120000.0
	anchorIO   = 80000.0
)

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func logNormalize(rate, anchor float64) float64 {
	return clamp01(math.Log1p(rate) / math.Log1p(anchor))
}

// Conditioner turns a stream of Totals snapshots into smoothed Signal01
// values. Not safe for concurrent use; the coordinator's sampler loop owns
// one instance and publishes its output under its own mutex.
type Conditioner struct {
	havePrev bool
	prev     TotalsSnapshot
	v        Signal01
}

// Update computes rates from (prev, cur, dt) and advances the smoothed
// Signal01 state. dt is the wall-clock elapsed time since the previous call;
// if dt <= 0 it is treated as 0.1s so the frame is always produced and
// division by zero never occurs. smoothing is clamped to [0,1] and capped at
// 0.98 so the signal can never fully freeze.
//
// On the first call there is no previous snapshot: the stored previous is
// set to cur, Signal01 remains all-zero, and the zero-value SignalRates is
// returned.
func (c *Conditioner) Update(cur TotalsSnapshot, dt float64, smoothing float64) (SignalRates, Signal01) {
	if !c.havePrev {
		c.havePrev = true
		c.prev = cur
		c.v = Signal01{}
		return SignalRates{}, c.v
	}

	if dt <= 0 {
		dt = 0.1
	}

	rates := SignalRates{
		ExecPerSec: nonNeg(float64(cur.ExecTotal-c.prev.ExecTotal)) / dt,
		RxKBs:      nonNeg(float64(cur.NetRxBytesTotal-c.prev.NetRxBytesTotal)) / 1024 / dt,
		TxKBs:      nonNeg(float64(cur.NetTxBytesTotal-c.prev.NetTxBytesTotal)) / 1024 / dt,
		CswPerSec:  nonNeg(float64(cur.SchedSwitchTotal-c.prev.SchedSwitchTotal)) / dt,
		BlkRKBs:    nonNeg(float64(cur.BlkReadBytesTotal-c.prev.BlkReadBytesTotal)) / 1024 / dt,
		BlkWKBs:    nonNeg(float64(cur.BlkWriteBytesTotal-c.prev.BlkWriteBytesTotal)) / 1024 / dt,
	}
	c.prev = cur

	x01 := Signal01{
		Exec: logNormalize(rates.ExecPerSec, anchorExec),
		Rx:   logNormalize(rates.RxKBs, anchorRx),
		Tx:   logNormalize(rates.TxKBs, anchorTx),
		Csw:  logNormalize(rates.CswPerSec, anchorCsw),
		IO:   logNormalize(rates.BlkRKBs+rates.BlkWKBs, anchorIO),
	}

	alpha := clamp01(smoothing) * 0.98
	c.v = Signal01{
		Exec: alpha*c.v.Exec + (1-alpha)*x01.Exec,
		Rx:   alpha*c.v.Rx + (1-alpha)*x01.Rx,
		Tx:   alpha*c.v.Tx + (1-alpha)*x01.Tx,
		Csw:  alpha*c.v.Csw + (1-alpha)*x01.Csw,
		IO:   alpha*c.v.IO + (1-alpha)*x01.IO,
	}

	return rates, c.v
}

func nonNeg(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
