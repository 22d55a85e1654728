package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedWindow_LimitsWithinWindow(t *testing.T) {
	f := NewFixedWindow(WithLimit(3), WithWindow(time.Minute))

	assert.True(t, f.TryAcquire("client"))
	assert.True(t, f.TryAcquire("client"))
	assert.True(t, f.TryAcquire("client"))
	assert.False(t, f.TryAcquire("client"))
}

func TestFixedWindow_IndependentClients(t *testing.T) {
	f := NewFixedWindow(WithLimit(1), WithWindow(time.Minute))

	assert.True(t, f.TryAcquire("a"))
	assert.False(t, f.TryAcquire("a"))
	assert.True(t, f.TryAcquire("b"))
}

func TestFixedWindow_ResetsAfterWindow(t *testing.T) {
	current := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f := NewFixedWindow(WithLimit(1), WithWindow(time.Minute), withClock(func() time.Time { return current }))

	assert.True(t, f.TryAcquire("client"))
	assert.False(t, f.TryAcquire("client"))

	current = current.Add(time.Minute)
	assert.True(t, f.TryAcquire("client"))
}
