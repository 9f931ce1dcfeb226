package output

import (
	"sync"

	"github.com/go-logr/logr"
)

// Router fans out notes and signals to every registered sink, tolerating
// individual sink failures without affecting the others. Grounded on
// internal/metrics/router.go's Consumer registry.
type Router struct {
	log logr.Logger

	mu    sync.RWMutex
	notes map[string]NoteSink
	sigs  map[string]SignalSink
	closed bool
}

func NewRouter(log logr.Logger) *Router {
	return &Router{
		log:   log.WithName("output-router"),
		notes: make(map[string]NoteSink),
		sigs:  make(map[string]SignalSink),
	}
}

func (r *Router) RegisterNoteSink(s NoteSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes[s.Name()] = s
}

func (r *Router) UnregisterNoteSink(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.notes, name)
}

func (r *Router) RegisterSignalSink(s SignalSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sigs[s.Name()] = s
}

func (r *Router) UnregisterSignalSink(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sigs, name)
}

// HasReadySink reports whether at least one note sink is registered, used by
// test_note to fail fast when nothing would receive it.
func (r *Router) HasReadySink() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.notes) > 0
}

func (r *Router) PublishNote(n NoteEvent) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrRouterClosed
	}
	for name, s := range r.notes {
		if err := s.SendNote(n); err != nil {
			r.log.V(1).Info("note sink failed, continuing", "sink", name, "error", err)
		}
	}
	return nil
}

func (r *Router) PublishSignal(channel string, value float64) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrRouterClosed
	}
	for name, s := range r.sigs {
		if err := s.SendSignal(channel, value); err != nil {
			r.log.V(1).Info("signal sink failed, continuing", "sink", name, "error", err)
		}
	}
	return nil
}

func (r *Router) PublishMetrics(m MetricsSnapshot) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrRouterClosed
	}
	for name, s := range r.sigs {
		if err := s.SendMetrics(m); err != nil {
			r.log.V(1).Info("metrics sink failed, continuing", "sink", name, "error", err)
		}
	}
	return nil
}

func (r *Router) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.notes = make(map[string]NoteSink)
	r.sigs = make(map[string]SignalSink)
}
