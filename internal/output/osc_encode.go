package output

import (
	"encoding/binary"
	"math"
)

// padString null-terminates s and pads with further NUL bytes to a multiple
// of 4, per OSC 1.0's string encoding.
func padString(s string) []byte {
	b := append([]byte(s), 0)
	for len(b)%4 != 0 {
		b = append(b, 0)
	}
	return b
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// EncodeNote builds a /khor/note ",iff" message.
func EncodeNote(midi int, velocity, durS float64) []byte {
	velocity = clamp01(velocity)
	if durS < 0 {
		durS = 0
	}

	var buf []byte
	buf = append(buf, padString("/khor/note")...)
	buf = append(buf, padString(",iff")...)

	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(int32(midi)))
	buf = append(buf, tmp[:]...)
	binary.BigEndian.PutUint32(tmp[:], math.Float32bits(float32(velocity)))
	buf = append(buf, tmp[:]...)
	binary.BigEndian.PutUint32(tmp[:], math.Float32bits(float32(durS)))
	buf = append(buf, tmp[:]...)
	return buf
}

// EncodeSignal builds a /khor/signal ",sf" message.
func EncodeSignal(name string, value float64) []byte {
	var buf []byte
	buf = append(buf, padString("/khor/signal")...)
	buf = append(buf, padString(",sf")...)
	buf = append(buf, padString(name)...)

	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], math.Float32bits(float32(clamp01(value))))
	buf = append(buf, tmp[:]...)
	return buf
}

// EncodeMetrics builds a /khor/metrics ",ffffff" message: exec_s, rx_kbs,
// tx_kbs, csw_s, blk_r_kbs, blk_w_kbs, in that order.
func EncodeMetrics(m MetricsSnapshot) []byte {
	var buf []byte
	buf = append(buf, padString("/khor/metrics")...)
	buf = append(buf, padString(",ffffff")...)

	values := []float64{m.ExecPerSec, m.RxKBs, m.TxKBs, m.CswPerSec, m.BlkRKBs, m.BlkWKBs}
	var tmp [4]byte
	for _, v := range values {
		binary.BigEndian.PutUint32(tmp[:], math.Float32bits(float32(v)))
		buf = append(buf, tmp[:]...)
	}
	return buf
}
