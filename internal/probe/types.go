// Package probe defines the wire contract between the in-kernel counter
// aggregator and userspace, and the ProbeSource interface the coordinator
// drives to consume it. The package ships two ProbeSource implementations:
// RingbufSource, a real github.com/cilium/ebpf ring-buffer consumer, and
// FakeSource, a synthetic generator used when no probe object is available.
package probe

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Event classes. EnabledMask is a bitset over these; zero means "all".
const (
	ClassExec  uint32 = 1 << 0
	ClassNet   uint32 = 1 << 1
	ClassSched uint32 = 1 << 2
	ClassBlock uint32 = 1 << 3

	classAll uint32 = ClassExec | ClassNet | ClassSched | ClassBlock
)

// eventSample is the only event kind this implementation supports (see Open
// Question #1 in the source specification: an older two-field {a,b} payload
// existed upstream and is intentionally not implemented here).
const eventSample uint32 = 1

// Config is the userspace -> kernel probe configuration, applied through the
// single-entry config map while the probe is running.
type Config struct {
	EnabledMask      uint32 // bitset over Class*; 0 means all
	SampleIntervalMs uint32 // 10..5000; 0 defaults to 200
	TgidAllow        uint32 // 0 disables the allow filter
	TgidDeny         uint32 // 0 disables the deny filter
	CgroupID         uint64 // 0 disables the cgroup filter
}

// Normalized returns cfg with its defaults applied, matching the
// accept-zero-as-default semantics the in-kernel side implements.
func (c Config) Normalized() Config {
	out := c
	if out.SampleIntervalMs == 0 {
		out.SampleIntervalMs = 200
	}
	return out
}

// Sample is one flushed SAMPLE record: the counter deltas accumulated by one
// CPU since its previous flush, plus identifying fields. This is the
// aggregate payload form; the deprecated {a,b} discrete-event form is not
// represented here at all.
type Sample struct {
	TsNs uint64
	Pid  uint32
	Tgid uint32
	CPU  uint32
	Comm [16]byte

	ExecCount     uint64
	NetRxBytes    uint64
	NetTxBytes    uint64
	SchedSwitches uint64
	BlkReadBytes  uint64
	BlkWriteBytes uint64
	BlkIssueCount uint64
	LostEvents    uint64
}

// CommString returns the command name as a Go string, trimmed at the first
// NUL.
func (s Sample) CommString() string {
	n := 0
	for n < len(s.Comm) && s.Comm[n] != 0 {
		n++
	}
	return string(s.Comm[:n])
}

// rawRecord mirrors the kernel-side record layout bit-for-bit:
// ts_ns:u64, pid:u32, tgid:u32, type:u32, cpu:u32, comm:[u8;16],
// u:union{sample:8xu64, _reserve:8xu64}. The union is always decoded as the
// 8-uint64 sample payload; any other type value is rejected by the caller.
type rawRecord struct {
	TsNs uint64
	Pid  uint32
	Tgid uint32
	Type uint32
	CPU  uint32
	Comm [16]byte
	U    [8]uint64
}

// decodeSample parses one ring-buffer record into a Sample. Returns an error
// if the record is shorter than the fixed layout or carries a type this
// implementation does not support.
func decodeSample(b []byte) (Sample, error) {
	const wireSize = 8 + 4 + 4 + 4 + 4 + 16 + 8*8
	if len(b) < wireSize {
		return Sample{}, fmt.Errorf("probe: short record: got %d bytes, want >= %d", len(b), wireSize)
	}

	var raw rawRecord
	if err := binary.Read(bytes.NewReader(b), binary.LittleEndian, &raw); err != nil {
		return Sample{}, fmt.Errorf("probe: decode record: %w", err)
	}
	if raw.Type != eventSample {
		return Sample{}, fmt.Errorf("probe: unsupported record type %d", raw.Type)
	}

	return Sample{
		TsNs:          raw.TsNs,
		Pid:           raw.Pid,
		Tgid:          raw.Tgid,
		CPU:           raw.CPU,
		Comm:          raw.Comm,
		ExecCount:     raw.U[0],
		NetRxBytes:    raw.U[1],
		NetTxBytes:    raw.U[2],
		SchedSwitches: raw.U[3],
		BlkReadBytes:  raw.U[4],
		BlkWriteBytes: raw.U[5],
		BlkIssueCount: raw.U[6],
		LostEvents:    raw.U[7],
	}, nil
}
