package config

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-logr/logr"
)

// ManagerOption configures Manager, matching the teacher's functional-options
// constructor shape.
type ManagerOption func(m *Manager)

// WithLoader configures Manager's Loader.
func WithLoader(loader Loader) ManagerOption {
	return func(m *Manager) { m.loader = loader }
}

// WithLogger configures Manager's logger.
func WithLogger(logger logr.Logger) ManagerOption {
	return func(m *Manager) { m.logger = logger }
}

// NewManager creates a Manager and loads the initial config. An explicit
// WithLoader is required in tests; callers that want the file-backed default
// should pass WithLoader(NewFileLoader("", log)).
func NewManager(opts ...ManagerOption) (*Manager, error) {
	m := &Manager{}
	for _, opt := range opts {
		opt(m)
	}
	if m.loader == nil {
		return nil, fmt.Errorf("config: NewManager requires WithLoader")
	}
	m.logger = m.logger.WithName("config.manager")

	cur, err := m.loader.Load()
	if err != nil {
		return nil, fmt.Errorf("config: initial load: %w", err)
	}
	m.mu.Lock()
	m.current = cur
	m.mu.Unlock()
	return m, nil
}

// Manager owns the current Config value and hands out snapshots by value.
// Readers and writers never see a partially-updated Config: every mutation
// happens under mu and replaces the whole value.
type Manager struct {
	loader Loader
	logger logr.Logger

	mu      sync.RWMutex
	current Config
}

// Start blocks until ctx is cancelled, matching the teacher's
// manager.Runnable shape. It persists nothing on exit; Put and Replace
// already save every change.
func (m *Manager) Start(ctx context.Context) error {
	m.logger.Info("starting config manager")
	<-ctx.Done()
	m.logger.Info("config manager stopping due to context cancellation")
	return nil
}

// NeedLeaderElection always returns false: khord is a single-instance
// daemon and never participates in leader election. Kept as a no-cost stub
// because it matches the Runnable-family shape the teacher's manager.go
// implements, not because anything in this repo calls it through that
// interface.
func (m *Manager) NeedLeaderElection() bool { return false }

// Get returns a snapshot of the current config.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Put deep-merges patch onto the current config, validates the result, and
// — if it is valid — replaces the current config and persists it (if the
// loader is also a Saver). The caller gets the deep-merged result back
// whether or not persistence succeeds; Put only returns an error if the
// patch itself was malformed or produced an out-of-bounds document.
func (m *Manager) Put(patch []byte) (Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	merged, err := DeepMerge(m.current, patch)
	if err != nil {
		return Config{}, err
	}
	m.current = merged

	if saver, ok := m.loader.(Saver); ok {
		if err := saver.Save(merged); err != nil {
			m.logger.Error(err, "failed to persist config")
		}
	}
	return merged, nil
}

// Replace atomically sets the current config without going through
// DeepMerge's patch semantics, and persists it; used by cmd/khord to store
// the config with command-line flag overrides applied.
func (m *Manager) Replace(c Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = c
	if saver, ok := m.loader.(Saver); ok {
		return saver.Save(c)
	}
	return nil
}
