package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("something broke"), false},
		{"embedding rate limit", NewError(KindEmbedding, "embed", errors.New("HTTP 429 too many requests")), true},
		{"embedding temporary", NewError(KindEmbedding, "embed", errors.New("temporary overload")), true},
		{"embedding bad input", NewError(KindEmbedding, "embed", errors.New("invalid model")), false},
		{"embedding cancelled", NewError(KindEmbedding, "embed", context.Canceled), false},
		{"embedding deadline", NewError(KindEmbedding, "embed", context.DeadlineExceeded), false},
		{"database connection", NewError(KindDatabase, "save", errors.New("connection reset by peer")), true},
		{"database locked", NewError(KindDatabase, "save", errors.New("database is locked")), true},
		{"database constraint", NewError(KindDatabase, "save", errors.New("UNIQUE constraint failed")), false},
		{"source network", NewError(KindSource, "list", errors.New("service unavailable")), true},
		{"source rate", NewError(KindSource, "list", errors.New("429 rate limited")), true},
		{"source auth", NewError(KindSource, "list", errors.New("invalid token")), false},
		{"parsing", NewError(KindParsing, "decode", errors.New("timeout reading body")), false},
		{"compliance", NewError(KindCompliance, "policy", errors.New("temporary")), false},
		{"wrapped cancellation", fmt.Errorf("outer: %w", context.Canceled), false},
		{"bare rate limited", fmt.Errorf("outer: %w", ErrRateLimited), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
