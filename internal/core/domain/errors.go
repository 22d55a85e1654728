package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown source or table type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrNotInitialized indicates an adapter was used before Initialize.
	ErrNotInitialized = errors.New("adapter not initialized")

	// ErrNotConfigured indicates required adapter configuration is missing.
	ErrNotConfigured = errors.New("adapter not configured")

	// ErrAdapterClosed indicates the adapter has been closed.
	ErrAdapterClosed = errors.New("adapter closed")

	// ErrRateLimited indicates the client exceeded its request window.
	ErrRateLimited = errors.New("rate limited")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Semantic search is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)

// ErrorKind classifies a processing failure. Kinds are machine-readable
// and drive the retry classification in retry.go.
type ErrorKind string

const (
	// KindParsing means content could not be extracted from raw bytes.
	KindParsing ErrorKind = "parsing"

	// KindEmbedding means an embedding provider call failed.
	KindEmbedding ErrorKind = "embedding"

	// KindDatabase means a backing-store call failed.
	KindDatabase ErrorKind = "database"

	// KindSource means a source-adapter call failed.
	KindSource ErrorKind = "source"

	// KindCompliance means content failed a policy check.
	KindCompliance ErrorKind = "compliance"
)

// Error is a classified processing error with diagnostic context.
type Error struct {
	// Kind is the machine-readable failure class.
	Kind ErrorKind

	// Op is the operation that failed (e.g. "embed chunk").
	Op string

	// Context carries free-form diagnostics (source path, chunk index).
	Context map[string]any

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Op)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a classified error wrapping cause.
func NewError(kind ErrorKind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

// WithContext attaches a diagnostic key-value pair and returns the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// KindOf extracts the error kind from err, unwrapping as needed.
// Returns empty string for unclassified errors.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
