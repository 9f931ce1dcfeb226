package output

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decodeOSCString reads a null-terminated, 4-padded OSC string starting at
// offset and returns it plus the offset of the next field.
func decodeOSCString(b []byte, off int) (string, int) {
	end := off
	for end < len(b) && b[end] != 0 {
		end++
	}
	s := string(b[off:end])
	next := end + 1
	for next%4 != 0 {
		next++
	}
	return s, next
}

func TestEncodeNoteRoundTrip(t *testing.T) {
	b := EncodeNote(64, 0.5, 0.25)
	require.Equal(t, 0, len(b)%4, "total length must be a multiple of 4")

	addr, off := decodeOSCString(b, 0)
	assert.Equal(t, "/khor/note", addr)

	tag, off := decodeOSCString(b, off)
	assert.Equal(t, ",iff", tag)

	midi := int32(binary.BigEndian.Uint32(b[off:]))
	off += 4
	vel := math.Float32frombits(binary.BigEndian.Uint32(b[off:]))
	off += 4
	dur := math.Float32frombits(binary.BigEndian.Uint32(b[off:]))

	assert.Equal(t, int32(64), midi)
	assert.InDelta(t, 0.5, vel, 1e-6)
	assert.InDelta(t, 0.25, dur, 1e-6)
}

func TestEncodeNoteClampsVelocityAndDuration(t *testing.T) {
	b := EncodeNote(64, 1.5, -1.0)
	_, off := decodeOSCString(b, 0)
	_, off = decodeOSCString(b, off)
	off += 4 // skip midi
	vel := math.Float32frombits(binary.BigEndian.Uint32(b[off:]))
	off += 4
	dur := math.Float32frombits(binary.BigEndian.Uint32(b[off:]))

	assert.InDelta(t, 1.0, vel, 1e-6)
	assert.InDelta(t, 0.0, dur, 1e-6)
}

func TestEncodeSignalAddressAndTag(t *testing.T) {
	b := EncodeSignal("exec", 0.75)
	addr, off := decodeOSCString(b, 0)
	tag, off := decodeOSCString(b, off)
	name, off := decodeOSCString(b, off)
	val := math.Float32frombits(binary.BigEndian.Uint32(b[off:]))

	assert.Equal(t, "/khor/signal", addr)
	assert.Equal(t, ",sf", tag)
	assert.Equal(t, "exec", name)
	assert.InDelta(t, 0.75, val, 1e-6)
}

func TestEncodeMetricsFieldOrder(t *testing.T) {
	m := MetricsSnapshot{ExecPerSec: 1, RxKBs: 2, TxKBs: 3, CswPerSec: 4, BlkRKBs: 5, BlkWKBs: 6}
	b := EncodeMetrics(m)
	addr, off := decodeOSCString(b, 0)
	tag, off := decodeOSCString(b, off)
	assert.Equal(t, "/khor/metrics", addr)
	assert.Equal(t, ",ffffff", tag)

	for i, want := range []float64{1, 2, 3, 4, 5, 6} {
		got := math.Float32frombits(binary.BigEndian.Uint32(b[off+i*4:]))
		assert.InDelta(t, want, got, 1e-6)
	}
}
