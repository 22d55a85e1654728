package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/duhman/volterra-knowledge-engine/internal/core/domain"
	"github.com/duhman/volterra-knowledge-engine/internal/core/ports/driven"
	"github.com/duhman/volterra-knowledge-engine/internal/core/ports/driving"
	"github.com/duhman/volterra-knowledge-engine/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// Match count bounds for semantic search.
const (
	DefaultMatchCount = 10
	MaxMatchCount     = 50
)

// SearchService provides semantic search over the ingested knowledge
// base, one partition per backing table.
type SearchService struct {
	tableStore driven.TableStore
	embedder   driven.EmbeddingService
}

// NewSearchService creates a search service.
func NewSearchService(tableStore driven.TableStore, embedder driven.EmbeddingService) *SearchService {
	return &SearchService{
		tableStore: tableStore,
		embedder:   embedder,
	}
}

// partitionResult carries one partition's outcome across the fan-out
// join.
type partitionResult struct {
	partition string
	matches   []domain.Match
	err       error
}

// Search queries the requested partitions concurrently and returns hits
// grouped by partition. No cross-partition ordering is applied.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) (map[string][]domain.Match, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	partitions := opts.Partitions
	if len(partitions) == 0 {
		partitions = domain.Partitions
	}
	for _, p := range partitions {
		if !domain.IsPartition(p) {
			return nil, fmt.Errorf("%w: unknown partition %q", domain.ErrInvalidInput, p)
		}
	}

	limit := clampMatchCount(opts.MatchCount)
	logger.Debug("Semantic search: query=%q, partitions=%v, limit=%d", query, partitions, limit)

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results := s.fanOut(ctx, partitions, embedding, limit)

	grouped := make(map[string][]domain.Match, len(partitions))
	var firstErr error
	for _, r := range results {
		if r.err != nil {
			logger.Warn("Partition %s search failed: %v", r.partition, r.err)
			if firstErr == nil {
				firstErr = fmt.Errorf("search %s: %w", r.partition, r.err)
			}
			continue
		}
		grouped[r.partition] = r.matches
	}

	// All partitions failing is an error; a partial outage degrades to
	// the partitions that answered.
	if len(grouped) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return grouped, nil
}

// SearchAll queries every partition and returns a single flat list
// merged and ranked by similarity descending.
func (s *SearchService) SearchAll(ctx context.Context, query string, limit int) ([]domain.Match, error) {
	grouped, err := s.Search(ctx, query, domain.SearchOptions{MatchCount: limit})
	if err != nil {
		return nil, err
	}

	limit = clampMatchCount(limit)
	merged := make([]domain.Match, 0, limit)
	for _, matches := range grouped {
		merged = append(merged, matches...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Similarity > merged[j].Similarity
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

// fanOut runs one goroutine per partition and joins the results.
func (s *SearchService) fanOut(
	ctx context.Context, partitions []string, embedding []float32, limit int,
) []partitionResult {
	results := make([]partitionResult, len(partitions))

	var wg sync.WaitGroup
	for i, partition := range partitions {
		wg.Add(1)
		go func(i int, partition string) {
			defer wg.Done()
			matches, err := s.tableStore.Match(ctx, partition, embedding, limit)
			results[i] = partitionResult{partition: partition, matches: matches, err: err}
		}(i, partition)
	}
	wg.Wait()

	return results
}

// clampMatchCount folds a requested match count into [1, MaxMatchCount],
// zero meaning the default.
func clampMatchCount(n int) int {
	switch {
	case n <= 0:
		return DefaultMatchCount
	case n > MaxMatchCount:
		return MaxMatchCount
	default:
		return n
	}
}
