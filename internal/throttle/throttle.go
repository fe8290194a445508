// Package throttle counts failed logins per client and refuses further attempts
// once a client reaches the limit inside the window.
package throttle

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrUnavailable wraps backend failures. Callers fail open on it.
var ErrUnavailable = errors.New("throttle backend unavailable")

// Limiter is implemented by the in-memory and Redis backends.
type Limiter interface {
	// Check returns the remaining lock time, zero when the key may try again.
	Check(ctx context.Context, key string) (time.Duration, error)
	// Fail records a failed attempt.
	Fail(ctx context.Context, key string) error
	// Reset forgets the key after a successful login.
	Reset(ctx context.Context, key string) error
}

// Config bounds failed attempts per window. MaxAttempts <= 0 disables limiting.
type Config struct {
	MaxAttempts int
	Window      time.Duration
}

type attemptState struct {
	count        int
	firstAttempt time.Time
}

// Memory keeps counters in process memory.
type Memory struct {
	cfg      Config
	now      func() time.Time
	lock      sync.Mutex
	attempts  map[string]*attemptState
	lastSweep time.Time
}

var _ Limiter = (*Memory)(nil)

func NewMemory(cfg Config) *Memory {
	return &Memory{cfg: cfg, now: time.Now, attempts: make(map[string]*attemptState)}
}

func (m *Memory) Check(_ context.Context, key string) (time.Duration, error) {
	if m.cfg.MaxAttempts <= 0 {
		return 0, nil
	}
	m.lock.Lock()
	defer m.lock.Unlock()

	state, ok := m.attempts[key]
	if !ok {
		return 0, nil
	}
	expires := state.firstAttempt.Add(m.cfg.Window)
	now := m.now()
	if !now.Before(expires) {
		delete(m.attempts, key)
		return 0, nil
	}
	if state.count < m.cfg.MaxAttempts {
		return 0, nil
	}
	return expires.Sub(now), nil
}

func (m *Memory) Fail(_ context.Context, key string) error {
	if m.cfg.MaxAttempts <= 0 {
		return nil
	}
	m.lock.Lock()
	defer m.lock.Unlock()

	now := m.now()
	m.sweep(now)
	state, ok := m.attempts[key]
	if !ok || now.Sub(state.firstAttempt) >= m.cfg.Window {
		state = &attemptState{firstAttempt: now}
		m.attempts[key] = state
	}
	state.count++
	return nil
}

// sweep drops expired counters, at most once per window. Callers hold m.lock.
func (m *Memory) sweep(now time.Time) {
	if now.Sub(m.lastSweep) < m.cfg.Window {
		return
	}
	m.lastSweep = now
	for key, state := range m.attempts {
		if now.Sub(state.firstAttempt) >= m.cfg.Window {
			delete(m.attempts, key)
		}
	}
}

func (m *Memory) Reset(_ context.Context, key string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	delete(m.attempts, key)
	return nil
}
