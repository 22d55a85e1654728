package connectors

import (
	"context"
	"sync"

	"github.com/duhman/volterra-knowledge-engine/internal/core/ports/driven"
)

// Base carries the shared initialization state for adapters.
// Embed it and delegate Initialize to Init with the adapter's connect
// function.
type Base struct {
	mu        sync.Mutex
	attempted bool
	err       error
	closed    bool
}

// Init runs fn at most once per adapter lifetime and remembers the
// outcome. Subsequent calls return the recorded result without calling
// fn again, which prevents redundant authentication round trips.
func (b *Base) Init(ctx context.Context, fn func(context.Context) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attempted {
		return b.err
	}
	b.attempted = true
	b.err = fn(ctx)
	return b.err
}

// IsInitialized reports whether initialization ran and succeeded.
func (b *Base) IsInitialized() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attempted && b.err == nil
}

// MarkClosed records that the adapter was closed.
func (b *Base) MarkClosed() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
}

// IsClosed reports whether the adapter was closed.
func (b *Base) IsClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// EnsureInitialized is the entry point other components use before
// calling into an adapter. It initializes at most once per adapter
// instance lifetime.
func EnsureInitialized(ctx context.Context, a driven.SourceAdapter) error {
	if a.IsInitialized() {
		return nil
	}
	return a.Initialize(ctx)
}
