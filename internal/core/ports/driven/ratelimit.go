package driven

// RateLimiter bounds request volume per client identity. The
// dispatcher consults it before any handler runs; requests beyond the
// ceiling are rejected without touching the backing store.
//
// Implementations are best-effort abuse mitigation, not a correctness
// guarantee: an in-memory fixed-window counter resets on process
// restart.
type RateLimiter interface {
	// TryAcquire reports whether clientID may issue another request in
	// the current window.
	TryAcquire(clientID string) bool
}
