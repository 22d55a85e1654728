package mcp

import (
	"github.com/duhman/volterra-knowledge-engine/internal/core/ports/driven"
	"github.com/duhman/volterra-knowledge-engine/internal/core/ports/driving"
)

// Ports aggregates the interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search provides semantic search across partitions.
	Search driving.SearchService

	// Tables provides the structured browse, aggregation and traversal
	// surface.
	Tables driven.TableStore

	// Limiter gates requests per client. Optional; nil disables rate
	// limiting.
	Limiter driven.RateLimiter
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	if p.Tables == nil {
		return ErrMissingTableStore
	}
	return nil
}
