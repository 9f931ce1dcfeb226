package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConditionerFirstUpdateIsZeroAndStoresPrevious(t *testing.T) {
	var c Conditioner
	rates, sig := c.Update(TotalsSnapshot{ExecTotal: 100}, 1.0, 0.85)
	assert.Equal(t, SignalRates{}, rates)
	assert.Equal(t, Signal01{}, sig)
}

func TestConditionerRateComputation(t *testing.T) {
	var c Conditioner
	c.Update(TotalsSnapshot{}, 1.0, 0.85)

	rates, sig := c.Update(TotalsSnapshot{
		ExecTotal:       100,
		NetRxBytesTotal: 10240,
	}, 1.0, 0.0)

	assert.Equal(t, 100.0, rates.ExecPerSec)
	assert.Equal(t, 10.0, rates.RxKBs)
	assert.Greater(t, sig.Exec, 0.0)
	assert.Greater(t, sig.Rx, 0.0)
}

func TestConditionerZeroOrNegativeDtTreatedAsPointOne(t *testing.T) {
	var c Conditioner
	c.Update(TotalsSnapshot{}, 1.0, 0.5)

	rates, _ := c.Update(TotalsSnapshot{ExecTotal: 10}, 0, 0.5)
	assert.InDelta(t, 100.0, rates.ExecPerSec, 1e-9)
}

func TestSignal01StaysInUnitRange(t *testing.T) {
	var c Conditioner
	c.Update(TotalsSnapshot{}, 1.0, 0.9)

	_, sig := c.Update(TotalsSnapshot{
		ExecTotal:          1 << 40,
		NetRxBytesTotal:    1 << 50,
		NetTxBytesTotal:    1 << 50,
		SchedSwitchTotal:   1 << 48,
		BlkReadBytesTotal:  1 << 50,
		BlkWriteBytesTotal: 1 << 50,
	}, 1.0, 0.9)

	for _, v := range []float64{sig.Exec, sig.Rx, sig.Tx, sig.Csw, sig.IO} {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestSmoothingCapsAtPoint98(t *testing.T) {
	var c Conditioner
	c.Update(TotalsSnapshot{}, 1.0, 1.0)
	_, sig1 := c.Update(TotalsSnapshot{ExecTotal: 1000}, 1.0, 1.0)
	assert.Greater(t, sig1.Exec, 0.0, "smoothing must never fully freeze the signal even at smoothing=1.0")
}
