// Package ratelimit provides the request gate used by the retrieval
// dispatcher.
package ratelimit

import (
	"sync"
	"time"

	"github.com/duhman/volterra-knowledge-engine/internal/core/ports/driven"
)

// Ensure FixedWindow implements the port.
var _ driven.RateLimiter = (*FixedWindow)(nil)

// Default limits for dispatcher requests.
const (
	DefaultLimit  = 60
	DefaultWindow = time.Minute
)

type window struct {
	start time.Time
	count int
}

// FixedWindow counts requests per client in fixed time windows. The
// first request of a new window resets the count; a full window
// rejects until it rolls over.
type FixedWindow struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	clients map[string]*window
	now     func() time.Time
}

// Option configures the limiter.
type Option func(*FixedWindow)

// WithLimit sets the per-window request budget.
func WithLimit(limit int) Option {
	return func(f *FixedWindow) { f.limit = limit }
}

// WithWindow sets the window duration.
func WithWindow(d time.Duration) Option {
	return func(f *FixedWindow) { f.window = d }
}

// withClock overrides the time source in tests.
func withClock(now func() time.Time) Option {
	return func(f *FixedWindow) { f.now = now }
}

// NewFixedWindow creates a limiter with the given options.
func NewFixedWindow(opts ...Option) *FixedWindow {
	f := &FixedWindow{
		limit:   DefaultLimit,
		window:  DefaultWindow,
		clients: make(map[string]*window),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// TryAcquire reports whether the client may proceed, consuming one
// unit of its window budget when it may.
func (f *FixedWindow) TryAcquire(clientID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	w, ok := f.clients[clientID]
	if !ok || now.Sub(w.start) >= f.window {
		f.clients[clientID] = &window{start: now, count: 1}
		return true
	}
	if w.count >= f.limit {
		return false
	}
	w.count++
	return true
}
