package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/duhman/volterra-knowledge-engine/internal/core/domain"
)

// KBSearchInput is the input schema for kb_search.
type KBSearchInput struct {
	Query      string   `json:"query" jsonschema:"the natural-language search query"`
	Partitions []string `json:"partitions,omitempty" jsonschema:"partitions to search (documents, conversations, messages, tickets, deals); empty searches all"`
	MatchCount int      `json:"match_count,omitempty" jsonschema:"maximum matches per partition (default 10, max 50)"`
}

// KBSearchAllInput is the input schema for kb_search_all.
type KBSearchAllInput struct {
	Query      string `json:"query" jsonschema:"the natural-language search query"`
	MatchCount int    `json:"match_count,omitempty" jsonschema:"maximum merged matches (default 10, max 50)"`
}

// PartitionSearchInput is the input schema for the fixed-partition
// search operations.
type PartitionSearchInput struct {
	Query      string `json:"query" jsonschema:"the natural-language search query"`
	MatchCount int    `json:"match_count,omitempty" jsonschema:"maximum matches (default 10, max 50)"`
}

// MatchOutput is one semantic search hit.
type MatchOutput struct {
	Partition  string         `json:"partition"`
	ID         string         `json:"id"`
	Title      string         `json:"title,omitempty"`
	Content    string         `json:"content"`
	Similarity float64        `json:"similarity"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// GroupedSearchOutput is the kb_search result, hits grouped by partition.
type GroupedSearchOutput struct {
	Partitions map[string][]MatchOutput `json:"partitions"`
	Count      int                      `json:"count"`
}

// FlatSearchOutput is a flat ranked hit list.
type FlatSearchOutput struct {
	Matches []MatchOutput `json:"matches"`
	Count   int           `json:"count"`
}

func (s *Server) registerSearchTools() {
	addTool(s, "search", &mcp.Tool{
		Name:        "kb_search",
		Description: "Semantic search across knowledge-base partitions, results grouped by partition",
	}, s.handleKBSearch)

	addTool(s, "search", &mcp.Tool{
		Name:        "kb_search_all",
		Description: "Semantic search across all partitions, merged and ranked by similarity",
	}, s.handleKBSearchAll)

	partitions := []struct {
		name        string
		partition   string
		description string
	}{
		{"search_documents", domain.PartitionDocuments, "Semantic search over ingested documents"},
		{"search_conversations", domain.PartitionConversations, "Semantic search over support conversations"},
		{"search_messages", domain.PartitionMessages, "Semantic search over chat messages"},
		{"search_tickets", domain.PartitionTickets, "Semantic search over support tickets"},
		{"search_deals", domain.PartitionDeals, "Semantic search over CRM deals"},
	}
	for _, p := range partitions {
		partition := p.partition
		addTool(s, "search", &mcp.Tool{
			Name:        p.name,
			Description: p.description,
		}, func(ctx context.Context, in PartitionSearchInput) (FlatSearchOutput, error) {
			return s.searchPartition(ctx, partition, in)
		})
	}
}

func (s *Server) handleKBSearch(ctx context.Context, in KBSearchInput) (GroupedSearchOutput, error) {
	grouped, err := s.ports.Search.Search(ctx, in.Query, domain.SearchOptions{
		Partitions: in.Partitions,
		MatchCount: in.MatchCount,
	})
	if err != nil {
		return GroupedSearchOutput{}, err
	}

	out := GroupedSearchOutput{Partitions: make(map[string][]MatchOutput, len(grouped))}
	for partition, matches := range grouped {
		out.Partitions[partition] = toMatchOutputs(matches)
		out.Count += len(matches)
	}
	return out, nil
}

func (s *Server) handleKBSearchAll(ctx context.Context, in KBSearchAllInput) (FlatSearchOutput, error) {
	matches, err := s.ports.Search.SearchAll(ctx, in.Query, in.MatchCount)
	if err != nil {
		return FlatSearchOutput{}, err
	}
	return FlatSearchOutput{Matches: toMatchOutputs(matches), Count: len(matches)}, nil
}

func (s *Server) searchPartition(ctx context.Context, partition string, in PartitionSearchInput) (FlatSearchOutput, error) {
	grouped, err := s.ports.Search.Search(ctx, in.Query, domain.SearchOptions{
		Partitions: []string{partition},
		MatchCount: in.MatchCount,
	})
	if err != nil {
		return FlatSearchOutput{}, err
	}
	matches := grouped[partition]
	return FlatSearchOutput{Matches: toMatchOutputs(matches), Count: len(matches)}, nil
}

func toMatchOutputs(matches []domain.Match) []MatchOutput {
	out := make([]MatchOutput, len(matches))
	for i, m := range matches {
		out[i] = MatchOutput{
			Partition:  m.Partition,
			ID:         m.ID,
			Title:      m.Title,
			Content:    m.Content,
			Similarity: m.Similarity,
			Metadata:   m.Metadata,
		}
	}
	return out
}
