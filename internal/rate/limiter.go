package rate

import (
	"context"
	"sync"

	xrate "golang.org/x/time/rate"
)

// Config defines client-side throttling for calls to one backend endpoint.
type Config struct {
	RequestsPerSecond int
	Burst             int
}

// Enabled reports whether the config actually throttles anything.
func (c Config) Enabled() bool {
	return c.RequestsPerSecond > 0
}

// Manager holds one token bucket per endpoint key.
// A nil *Manager never blocks.
type Manager struct {
	mu       sync.RWMutex
	limiters map[string]*xrate.Limiter
	defaults Config
}

// NewManager returns nil when cfg disables throttling.
func NewManager(cfg Config) *Manager {
	if !cfg.Enabled() {
		return nil
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	return &Manager{
		limiters: make(map[string]*xrate.Limiter),
		defaults: cfg,
	}
}

// Limiter returns the bucket for key, creating it on first use.
func (m *Manager) Limiter(key string) *xrate.Limiter {
	m.mu.RLock()
	if lim, ok := m.limiters[key]; ok {
		m.mu.RUnlock()
		return lim
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if lim, ok := m.limiters[key]; ok {
		return lim
	}
	lim := xrate.NewLimiter(xrate.Limit(m.defaults.RequestsPerSecond), m.defaults.Burst)
	m.limiters[key] = lim
	return lim
}

// Allow takes a token for key without waiting.
func (m *Manager) Allow(key string) bool {
	if m == nil {
		return true
	}
	return m.Limiter(key).Allow()
}

// Wait blocks until key has a token or ctx is done.
func (m *Manager) Wait(ctx context.Context, key string) error {
	if m == nil {
		return nil
	}
	return m.Limiter(key).Wait(ctx)
}
