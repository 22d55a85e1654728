package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/duhman/volterra-knowledge-engine/internal/core/domain"
	"github.com/duhman/volterra-knowledge-engine/internal/core/ports/driven"
)

// TraversalInput is the input schema shared by the relationship
// traversal operations: one parent key plus a row cap.
type TraversalInput struct {
	ID    string `json:"id" jsonschema:"the parent row's key"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum rows (default and cap 200)"`
}

func (s *Server) registerTraversalTools() {
	traversals := []struct {
		name        string
		description string
		table       string
		filterCol   string
		orderAsc    bool
	}{
		{"get_document_chunks", "All chunks of one document in index order", "document_chunks", "document_id", false},
		{"get_thread_messages", "All messages in one thread in chronological order", "messages", "thread_ts", true},
		{"get_conversation_messages", "All messages of one conversation in chronological order", "messages", "conversation_id", true},
		{"get_ticket_replies", "All replies on one ticket in chronological order", "ticket_replies", "ticket_id", true},
		{"get_deal_tickets", "All tickets associated with one deal", "tickets", "deal_id", true},
		{"get_channel_threads", "All conversations in one channel in chronological order", "conversations", "channel", true},
	}

	for _, tr := range traversals {
		tr := tr
		addTool(s, "traverse", &mcp.Tool{
			Name:        tr.name,
			Description: tr.description,
		}, func(ctx context.Context, in TraversalInput) (RowsOutput, error) {
			if in.ID == "" {
				return RowsOutput{}, fmt.Errorf("%w: id is required", domain.ErrInvalidInput)
			}
			rows, err := s.ports.Tables.QueryRows(ctx, driven.RowQuery{
				Table:    tr.table,
				Filters:  map[string]any{tr.filterCol: in.ID},
				OrderAsc: tr.orderAsc,
				Limit:    clampTraversal(in.Limit),
			})
			if err != nil {
				return RowsOutput{}, err
			}
			return RowsOutput{Table: tr.table, Rows: rows, Count: len(rows)}, nil
		})
	}
}
