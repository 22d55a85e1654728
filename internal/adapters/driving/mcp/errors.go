// Package mcp exposes the retrieval tool dispatcher over the Model
// Context Protocol. The catalog is closed: exactly the registered
// operations exist, every handler validates its own arguments against
// the schema registry, and failures are returned as IsError envelopes
// rather than protocol errors.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")

// ErrMissingTableStore is returned when the table store is not provided.
var ErrMissingTableStore = errors.New("mcp: table store is required")
