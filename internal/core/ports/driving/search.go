package driving

import (
	"context"

	"github.com/duhman/volterra-knowledge-engine/internal/core/domain"
)

// SearchService provides semantic search over the ingested knowledge base.
type SearchService interface {
	// Search queries the requested partitions concurrently and returns
	// hits grouped by partition. No cross-partition ordering is applied.
	Search(ctx context.Context, query string, opts domain.SearchOptions) (map[string][]domain.Match, error)

	// SearchAll queries all partitions and returns a single flat list
	// merged and ranked by similarity descending.
	SearchAll(ctx context.Context, query string, limit int) ([]domain.Match, error)
}
