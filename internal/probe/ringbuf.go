package probe

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/link"
	"github.com/cilium/ebpf/ringbuf"
	"github.com/cilium/ebpf/rlimit"
	"github.com/go-logr/logr"

	"github.com/khor-project/khord/internal/metrics"
)

// externalAllMask is the sentinel the control surface and Config use to mean
// "every class enabled". The kernel-side config map instead treats 0 as
// "all", so ApplyConfig translates between the two (see
// original_source/daemon/src/bpf/collector.cpp's apply_config).
const externalAllMask uint32 = 0xFFFFFFFF

// DefaultObjectPath is where RingbufSource expects to find the compiled probe
// collection. Loading and verifying this object is an external collaborator
// concern; RingbufSource only consumes the result.
const DefaultObjectPath = "ebpf/build/khor_probe.bpf.o"

// RingbufSource consumes a cilium/ebpf ring buffer fed by the compiled probe
// program. Grounded on internal/runtime/tracker's EBPFTracker: same
// load-collection / attach-tracepoints / poll-ring-buffer shape, same
// soft-failure posture on attach errors.
type RingbufSource struct {
	log        logr.Logger
	objectPath string

	mu      sync.Mutex
	coll    *ebpf.Collection
	cfgMap  *ebpf.Map
	links   []link.Link
	reader  *ringbuf.Reader
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	status  Status
}

// NewRingbufSource constructs a source that will load objectPath on Start.
// An empty objectPath uses DefaultObjectPath.
func NewRingbufSource(log logr.Logger, objectPath string) *RingbufSource {
	if objectPath == "" {
		objectPath = DefaultObjectPath
	}
	return &RingbufSource{
		log:        log.WithName("probe-ringbuf"),
		objectPath: objectPath,
	}
}

func (s *RingbufSource) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Start loads the probe collection, writes the initial config before
// attaching (so the first event observes the desired filter), attaches the
// tracepoints, and spawns the consumer loop. Load/attach failure is recorded
// in Status and Start returns nil: the rest of the system must keep running.
func (s *RingbufSource) Start(ctx context.Context, cfg Config, totals *metrics.Totals) error {
	if totals == nil {
		return fmt.Errorf("probe: Start called with nil totals")
	}

	s.mu.Lock()
	s.status = Status{Enabled: true}
	s.mu.Unlock()

	if err := rlimit.RemoveMemlock(); err != nil {
		s.log.Error(err, "failed to remove memlock rlimit")
	}

	spec, err := ebpf.LoadCollectionSpec(s.objectPath)
	if err != nil {
		s.setError(0, fmt.Errorf("load collection spec: %w", err))
		return nil
	}

	coll, err := ebpf.NewCollection(spec)
	if err != nil {
		s.setError(0, fmt.Errorf("new collection: %w", err))
		return nil
	}

	cfgMap, ok := coll.Maps["khor_cfg"]
	if !ok {
		coll.Close()
		s.setError(0, fmt.Errorf("config map %q not found in collection", "khor_cfg"))
		return nil
	}

	if err := writeConfig(cfgMap, cfg); err != nil {
		coll.Close()
		s.setError(0, fmt.Errorf("write initial config: %w", err))
		return nil
	}

	links, err := attachPrograms(coll)
	if err != nil {
		coll.Close()
		s.setError(0, fmt.Errorf("attach programs: %w", err))
		return nil
	}

	eventsMap, ok := coll.Maps["events"]
	if !ok {
		closeLinks(links)
		coll.Close()
		s.setError(0, fmt.Errorf("ring buffer map %q not found in collection", "events"))
		return nil
	}

	reader, err := ringbuf.NewReader(eventsMap)
	if err != nil {
		closeLinks(links)
		coll.Close()
		s.setError(0, fmt.Errorf("open ring buffer reader: %w", err))
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.coll = coll
	s.cfgMap = cfgMap
	s.links = links
	s.reader = reader
	s.cancel = cancel
	s.status = Status{Enabled: true, OK: true}
	s.mu.Unlock()

	s.wg.Add(1)
	go s.consume(runCtx, reader, totals)

	s.log.Info("probe attached", "object", s.objectPath)
	return nil
}

func (s *RingbufSource) setError(code int, err error) {
	s.mu.Lock()
	s.status = Status{Enabled: true, OK: false, ErrCode: code, Error: err.Error()}
	s.mu.Unlock()
	s.log.Error(err, "probe start failed (soft failure, continuing without kernel counters)")
}

// consume is the single-consumer loop. Poll errors are logged and retried
// with backoff rather than tearing the reader down; only Stop does that.
func (s *RingbufSource) consume(ctx context.Context, r *ringbuf.Reader, totals *metrics.Totals) {
	defer s.wg.Done()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond

	for {
		record, err := r.Read()
		if err != nil {
			if err == ringbuf.ErrClosed || ctx.Err() != nil {
				return
			}
			s.log.V(1).Info("ring buffer read error, retrying", "error", err)
			time.Sleep(b.NextBackOff())
			continue
		}
		b.Reset()

		totals.EventsTotal.Add(1)
		sample, err := decodeSample(record.RawSample)
		if err != nil {
			s.log.V(1).Info("dropping malformed record", "error", err)
			continue
		}

		totals.ApplySample(
			sample.ExecCount,
			sample.NetRxBytes,
			sample.NetTxBytes,
			sample.SchedSwitches,
			sample.BlkReadBytes,
			sample.BlkWriteBytes,
			sample.LostEvents,
		)
	}
}

// ApplyConfig writes a new config into the single-entry map while the
// reader keeps running.
func (s *RingbufSource) ApplyConfig(cfg Config) error {
	s.mu.Lock()
	cfgMap := s.cfgMap
	s.mu.Unlock()
	if cfgMap == nil {
		return fmt.Errorf("probe: not running")
	}
	return writeConfig(cfgMap, cfg)
}

func (s *RingbufSource) Stop() error {
	s.mu.Lock()
	cancel := s.cancel
	reader := s.reader
	links := s.links
	coll := s.coll
	s.cancel = nil
	s.reader = nil
	s.links = nil
	s.coll = nil
	s.cfgMap = nil
	s.status = Status{}
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if reader != nil {
		reader.Close()
	}
	s.wg.Wait()
	closeLinks(links)
	if coll != nil {
		coll.Close()
	}
	return nil
}

func closeLinks(links []link.Link) {
	for _, l := range links {
		l.Close()
	}
}

// wireConfig mirrors khor_bpf_config's field layout in the config map.
type wireConfig struct {
	EnabledMask      uint32
	SampleIntervalMs uint32
	TgidAllow        uint32
	TgidDeny         uint32
	CgroupID         uint64
}

func writeConfig(m *ebpf.Map, cfg Config) error {
	wc := wireConfig{
		EnabledMask:      cfg.EnabledMask,
		SampleIntervalMs: cfg.SampleIntervalMs,
		TgidAllow:        cfg.TgidAllow,
		TgidDeny:         cfg.TgidDeny,
		CgroupID:         cfg.CgroupID,
	}
	if wc.EnabledMask == externalAllMask {
		wc.EnabledMask = 0
	}
	var key uint32
	return m.Update(&key, &wc, ebpf.UpdateAny)
}

// attachPrograms attaches every tracepoint program the collection exports by
// its expected section name. A program missing from the collection is
// skipped silently rather than failing the whole attach, matching the
// teacher's cgroup-attach-is-non-fatal posture. Attach fails if a program
// that is present cannot be attached, or if none of the programs is present.
func attachPrograms(coll *ebpf.Collection) ([]link.Link, error) {
	attachments := []struct {
		prog  string
		group string
		name  string
	}{
		{"tp_execve", "sched", "sched_process_exec"},
		{"tp_net_rx", "net", "netif_receive_skb"},
		{"tp_net_tx", "net", "net_dev_start_xmit"},
		{"tp_sched_switch", "sched", "sched_switch"},
		{"tp_block_rq_issue", "block", "block_rq_issue"},
		{"tp_block_rq_complete", "block", "block_rq_complete"},
	}

	var links []link.Link
	for _, a := range attachments {
		prog, ok := coll.Programs[a.prog]
		if !ok {
			continue
		}
		l, err := link.Tracepoint(a.group, a.name, prog, nil)
		if err != nil {
			closeLinks(links)
			return nil, fmt.Errorf("attach %s/%s: %w", a.group, a.name, err)
		}
		links = append(links, l)
	}

	if len(links) == 0 {
		return nil, fmt.Errorf("no tracepoint programs attached")
	}
	return links, nil
}
