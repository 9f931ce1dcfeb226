package output

import (
	"fmt"
	"net"
	"sync"

	"github.com/go-logr/logr"
	"golang.org/x/sys/unix"
)

// OscStatus mirrors the source specification's per-sink status accessor.
type OscStatus struct {
	Enabled bool
	OK      bool
	Host    string
	Port    int
	Error   string
}

// OscSink sends OSC messages over a raw, non-blocking UDP socket. Send
// failures are silently absorbed (fire-and-forget), matching
// original_source/daemon/src/osc/osc.cpp.
type OscSink struct {
	log logr.Logger

	mu     sync.Mutex
	fd     int
	addr   unix.Sockaddr
	status OscStatus
}

func NewOscSink(log logr.Logger) *OscSink {
	return &OscSink{log: log.WithName("osc-sink"), fd: -1}
}

func (o *OscSink) Name() string { return "osc" }

func (o *OscSink) Status() OscStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

func (o *OscSink) Start(host string, port int) error {
	o.Stop()

	ips, err := net.LookupIP(host)
	if err != nil || len(ips) == 0 {
		o.setError(host, port, fmt.Errorf("resolve host: %w", err))
		return nil
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM, 0)
	if err != nil {
		o.setError(host, port, fmt.Errorf("open socket: %w", err))
		return nil
	}

	var ip4 [4]byte
	if ip := ips[0].To4(); ip != nil {
		copy(ip4[:], ip)
	}

	o.mu.Lock()
	o.fd = fd
	o.addr = &unix.SockaddrInet4{Port: port, Addr: ip4}
	o.status = OscStatus{Enabled: true, OK: true, Host: host, Port: port}
	o.mu.Unlock()
	return nil
}

func (o *OscSink) setError(host string, port int, err error) {
	o.mu.Lock()
	o.status = OscStatus{Enabled: true, OK: false, Host: host, Port: port, Error: err.Error()}
	o.mu.Unlock()
	o.log.V(1).Info("osc sink start failed", "error", err)
}

func (o *OscSink) Stop() error {
	o.mu.Lock()
	fd := o.fd
	o.fd = -1
	o.addr = nil
	o.status = OscStatus{}
	o.mu.Unlock()
	if fd >= 0 {
		unix.Close(fd)
	}
	return nil
}

func (o *OscSink) send(b []byte) error {
	o.mu.Lock()
	fd := o.fd
	addr := o.addr
	o.mu.Unlock()
	if fd < 0 || addr == nil {
		return fmt.Errorf("osc: not running")
	}
	// MSG_DONTWAIT: never block the caller; errors (e.g. EAGAIN) are
	// returned to the caller, not retried.
	if err := unix.Sendto(fd, b, unix.MSG_DONTWAIT, addr); err != nil {
		return err
	}
	return nil
}

func (o *OscSink) SendNote(n NoteEvent) error {
	return o.send(EncodeNote(n.Midi, n.Velocity, n.DurS))
}

func (o *OscSink) SendSignal(channel string, value float64) error {
	return o.send(EncodeSignal(channel, value))
}

func (o *OscSink) SendMetrics(m MetricsSnapshot) error {
	return o.send(EncodeMetrics(m))
}
