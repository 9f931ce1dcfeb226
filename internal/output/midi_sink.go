package output

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
)

// PortWriter is the external ALSA-sequencer collaborator: MidiSink only
// knows how to turn NoteEvents and CC updates into calls against this
// interface.
type PortWriter interface {
	NoteOn(channel, midi int, velocity float64) error
	NoteOff(channel, midi int) error
	ControlChange(channel, cc int, value float64) error
	Close() error
}

// MidiStatus mirrors the source specification's per-sink status accessor.
type MidiStatus struct {
	Enabled bool
	OK      bool
	Port    string
	Channel int
	Error   string
}

// MidiSink sends note-on immediately and schedules the matching note-off
// after DurS via a background timer, styled on leandrodaf-midi's
// options-constructed, logged MIDI output.
type MidiSink struct {
	log logr.Logger

	mu      sync.Mutex
	writer  PortWriter
	channel int
	status  MidiStatus

	pendingMu sync.Mutex
	pending   map[int]*time.Timer
}

func NewMidiSink(log logr.Logger) *MidiSink {
	return &MidiSink{
		log:     log.WithName("midi-sink"),
		pending: make(map[int]*time.Timer),
	}
}

func (m *MidiSink) Name() string { return "midi" }

func (m *MidiSink) Status() MidiStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *MidiSink) Start(writer PortWriter, port string, channel int) error {
	m.Stop()
	if channel < 1 {
		channel = 1
	}
	if channel > 16 {
		channel = 16
	}
	m.mu.Lock()
	m.writer = writer
	m.channel = channel
	m.status = MidiStatus{Enabled: true, OK: true, Port: port, Channel: channel}
	m.mu.Unlock()
	return nil
}

func (m *MidiSink) Stop() error {
	m.mu.Lock()
	writer := m.writer
	m.writer = nil
	m.status = MidiStatus{}
	m.mu.Unlock()

	m.pendingMu.Lock()
	for _, t := range m.pending {
		t.Stop()
	}
	m.pending = make(map[int]*time.Timer)
	m.pendingMu.Unlock()

	if writer != nil {
		return writer.Close()
	}
	return nil
}

func (m *MidiSink) SendNote(n NoteEvent) error {
	m.mu.Lock()
	writer := m.writer
	channel := m.channel
	m.mu.Unlock()
	if writer == nil {
		return fmt.Errorf("midi: not running")
	}

	midi := clampMidi(n.Midi)
	if err := writer.NoteOn(channel, midi, clamp01(n.Velocity)); err != nil {
		return err
	}

	dur := n.DurS
	if dur < 0.02 {
		dur = 0.02
	}
	timer := time.AfterFunc(time.Duration(dur*float64(time.Second)), func() {
		if err := writer.NoteOff(channel, midi); err != nil {
			m.log.V(1).Info("scheduled note-off failed", "midi", midi, "error", err)
		}
		m.pendingMu.Lock()
		delete(m.pending, midi)
		m.pendingMu.Unlock()
	})

	m.pendingMu.Lock()
	if old, ok := m.pending[midi]; ok {
		old.Stop()
	}
	m.pending[midi] = timer
	m.pendingMu.Unlock()
	return nil
}

// SendSignal maps a named signal channel to the fixed CC assignment from the
// source specification: exec=20, rx=21, tx=22, csw=23, io=24, cutoff=74.
func (m *MidiSink) SendSignal(channel string, value01 float64) error {
	m.mu.Lock()
	writer := m.writer
	ch := m.channel
	m.mu.Unlock()
	if writer == nil {
		return fmt.Errorf("midi: not running")
	}
	cc, ok := ccAssignments[channel]
	if !ok {
		return nil
	}
	return writer.ControlChange(ch, cc, clamp01(value01))
}

// SendMetrics is a no-op: MIDI mirrors only the CC-mapped signal channels,
// not the raw metrics bundle.
func (m *MidiSink) SendMetrics(MetricsSnapshot) error { return nil }

var ccAssignments = map[string]int{
	"exec":   20,
	"rx":     21,
	"tx":     22,
	"csw":    23,
	"io":     24,
	"cutoff": 74,
}

func clampMidi(m int) int {
	if m < 0 {
		return 0
	}
	if m > 127 {
		return 127
	}
	return m
}
