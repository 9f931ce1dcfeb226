package probe

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeRawRecord(t *testing.T, raw rawRecord) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, raw))
	return buf.Bytes()
}

func TestDecodeSampleRoundTrip(t *testing.T) {
	raw := rawRecord{
		TsNs: 123456789,
		Pid:  111,
		Tgid: 222,
		Type: eventSample,
		CPU:  3,
		U:    [8]uint64{7, 1024, 2048, 99, 4096, 8192, 5, 1},
	}
	copy(raw.Comm[:], "bash")

	b := encodeRawRecord(t, raw)
	s, err := decodeSample(b)
	require.NoError(t, err)

	assert.Equal(t, raw.TsNs, s.TsNs)
	assert.Equal(t, raw.Pid, s.Pid)
	assert.Equal(t, raw.Tgid, s.Tgid)
	assert.Equal(t, raw.CPU, s.CPU)
	assert.Equal(t, "bash", s.CommString())
	assert.Equal(t, uint64(7), s.ExecCount)
	assert.Equal(t, uint64(1024), s.NetRxBytes)
	assert.Equal(t, uint64(2048), s.NetTxBytes)
	assert.Equal(t, uint64(99), s.SchedSwitches)
	assert.Equal(t, uint64(4096), s.BlkReadBytes)
	assert.Equal(t, uint64(8192), s.BlkWriteBytes)
	assert.Equal(t, uint64(5), s.BlkIssueCount)
	assert.Equal(t, uint64(1), s.LostEvents)
}

func TestDecodeSampleRejectsUnsupportedType(t *testing.T) {
	raw := rawRecord{Type: 2}
	b := encodeRawRecord(t, raw)
	_, err := decodeSample(b)
	assert.Error(t, err)
}

func TestDecodeSampleRejectsShortRecord(t *testing.T) {
	_, err := decodeSample(make([]byte, 4))
	assert.Error(t, err)
}

func TestConfigNormalizedDefaultsInterval(t *testing.T) {
	c := Config{}.Normalized()
	assert.Equal(t, uint32(200), c.SampleIntervalMs)
}
