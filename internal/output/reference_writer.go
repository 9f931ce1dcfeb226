package output

import "github.com/go-logr/logr"

// LoggingPortWriter is a reference PortWriter for when no real ALSA-sequencer
// binding is wired in: it logs each call instead of reaching a device, so
// MidiSink (and the coordinator wiring around it) is exercisable end-to-end
// without the external ALSA collaborator present.
type LoggingPortWriter struct {
	log logr.Logger
}

func NewLoggingPortWriter(log logr.Logger) *LoggingPortWriter {
	return &LoggingPortWriter{log: log.WithName("midi-port-logging")}
}

func (w *LoggingPortWriter) NoteOn(channel, midi int, velocity float64) error {
	w.log.V(1).Info("note on", "channel", channel, "midi", midi, "velocity", velocity)
	return nil
}

func (w *LoggingPortWriter) NoteOff(channel, midi int) error {
	w.log.V(1).Info("note off", "channel", channel, "midi", midi)
	return nil
}

func (w *LoggingPortWriter) ControlChange(channel, cc int, value float64) error {
	w.log.V(2).Info("control change", "channel", channel, "cc", cc, "value", value)
	return nil
}

func (w *LoggingPortWriter) Close() error { return nil }
