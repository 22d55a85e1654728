package domain

import (
	"context"
	"errors"
	"strings"
)

// IsRetryable reports whether err is worth retrying in a later run.
// The classification is a pure function of the error; it is consulted
// by external retry wrappers, not by in-process backoff.
//
// Embedding errors are retryable when they indicate rate limiting or a
// temporary provider condition, and non-retryable on client-side
// cancellation. Database errors are retryable on transient connection
// problems. Source errors are retryable on network-level transience.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Caller-side cancellation is never retryable.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// Rate limiting clears on its own regardless of which layer hit it.
	if errors.Is(err, ErrRateLimited) {
		return true
	}

	msg := strings.ToLower(err.Error())

	switch KindOf(err) {
	case KindEmbedding:
		return containsAny(msg, "429", "rate", "temporary", "overloaded")
	case KindDatabase:
		return containsAny(msg, "connection", "locked", "busy", "timeout")
	case KindSource:
		return containsAny(msg, "429", "rate", "connection", "unavailable", "timeout", "temporary")
	case KindParsing, KindCompliance:
		// Deterministic failures; retrying the same content cannot help.
		return false
	}

	return false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
