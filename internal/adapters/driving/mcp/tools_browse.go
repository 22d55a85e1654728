package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/duhman/volterra-knowledge-engine/internal/core/domain"
	"github.com/duhman/volterra-knowledge-engine/internal/core/ports/driven"
)

// QueryTableInput is the input schema for query_table.
type QueryTableInput struct {
	Table    string         `json:"table" jsonschema:"the table to query (see list_tables)"`
	Filters  map[string]any `json:"filters,omitempty" jsonschema:"equality filters on allow-listed columns"`
	DateFrom string         `json:"date_from,omitempty" jsonschema:"inclusive lower bound on the table's date column (RFC3339 or YYYY-MM-DD)"`
	DateTo   string         `json:"date_to,omitempty" jsonschema:"inclusive upper bound on the table's date column"`
	OrderAsc bool           `json:"order_asc,omitempty" jsonschema:"order chronologically ascending instead of the default descending"`
	Limit    int            `json:"limit,omitempty" jsonschema:"maximum rows (default 20, max 100)"`
	Offset   int            `json:"offset,omitempty" jsonschema:"rows to skip for pagination"`
}

// ListDocumentsInput is the input schema for list_documents.
type ListDocumentsInput struct {
	SourceType string `json:"source_type,omitempty" jsonschema:"filter by source adapter (filesystem, notion, slack, hubspot)"`
	Limit      int    `json:"limit,omitempty" jsonschema:"maximum rows (default 20, max 100)"`
	Offset     int    `json:"offset,omitempty" jsonschema:"rows to skip"`
}

// ListConversationsInput is the input schema for list_conversations.
type ListConversationsInput struct {
	Channel string `json:"channel,omitempty" jsonschema:"filter by channel name"`
	Status  string `json:"status,omitempty" jsonschema:"filter by conversation status"`
	Limit   int    `json:"limit,omitempty" jsonschema:"maximum rows (default 20, max 100)"`
	Offset  int    `json:"offset,omitempty" jsonschema:"rows to skip"`
}

// ListMessagesInput is the input schema for list_messages.
type ListMessagesInput struct {
	Channel        string `json:"channel,omitempty" jsonschema:"filter by channel name"`
	ConversationID string `json:"conversation_id,omitempty" jsonschema:"filter by parent conversation"`
	Author         string `json:"author,omitempty" jsonschema:"filter by message author"`
	DateFrom       string `json:"date_from,omitempty" jsonschema:"inclusive lower bound on posted_at"`
	DateTo         string `json:"date_to,omitempty" jsonschema:"inclusive upper bound on posted_at"`
	Limit          int    `json:"limit,omitempty" jsonschema:"maximum rows (default 20, max 100)"`
	Offset         int    `json:"offset,omitempty" jsonschema:"rows to skip"`
}

// ListTicketsInput is the input schema for list_tickets.
type ListTicketsInput struct {
	Status   string `json:"status,omitempty" jsonschema:"filter by ticket status"`
	Pipeline string `json:"pipeline,omitempty" jsonschema:"filter by pipeline"`
	Priority string `json:"priority,omitempty" jsonschema:"filter by priority"`
	Owner    string `json:"owner,omitempty" jsonschema:"filter by owner"`
	DateFrom string `json:"date_from,omitempty" jsonschema:"inclusive lower bound on created_at"`
	DateTo   string `json:"date_to,omitempty" jsonschema:"inclusive upper bound on created_at"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum rows (default 20, max 100)"`
	Offset   int    `json:"offset,omitempty" jsonschema:"rows to skip"`
}

// ListDealsInput is the input schema for list_deals.
type ListDealsInput struct {
	Stage   string `json:"stage,omitempty" jsonschema:"filter by pipeline stage"`
	Owner   string `json:"owner,omitempty" jsonschema:"filter by owner"`
	Company string `json:"company,omitempty" jsonschema:"filter by company"`
	Limit   int    `json:"limit,omitempty" jsonschema:"maximum rows (default 20, max 100)"`
	Offset  int    `json:"offset,omitempty" jsonschema:"rows to skip"`
}

// GetByIDInput is the input schema for the single-row lookups.
type GetByIDInput struct {
	ID string `json:"id" jsonschema:"the row's primary key"`
}

// RowsOutput is a structured browse result.
type RowsOutput struct {
	Table string           `json:"table"`
	Rows  []map[string]any `json:"rows"`
	Count int              `json:"count"`
}

// RowOutput is a single-row lookup result.
type RowOutput struct {
	Table string         `json:"table"`
	Row   map[string]any `json:"row"`
}

func (s *Server) registerBrowseTools() {
	addTool(s, "browse", &mcp.Tool{
		Name:        "query_table",
		Description: "Query any allow-listed table with equality filters, a date range and pagination",
	}, s.handleQueryTable)

	addTool(s, "browse", &mcp.Tool{
		Name:        "list_documents",
		Description: "List ingested documents, optionally filtered by source type",
	}, func(ctx context.Context, in ListDocumentsInput) (RowsOutput, error) {
		filters := map[string]any{}
		if in.SourceType != "" {
			filters["source_type"] = in.SourceType
		}
		return s.queryRows(ctx, "documents", filters, "", "", false, in.Limit, in.Offset)
	})

	addTool(s, "browse", &mcp.Tool{
		Name:        "list_conversations",
		Description: "List support conversations, optionally filtered by channel or status",
	}, func(ctx context.Context, in ListConversationsInput) (RowsOutput, error) {
		filters := map[string]any{}
		if in.Channel != "" {
			filters["channel"] = in.Channel
		}
		if in.Status != "" {
			filters["status"] = in.Status
		}
		return s.queryRows(ctx, "conversations", filters, "", "", false, in.Limit, in.Offset)
	})

	addTool(s, "browse", &mcp.Tool{
		Name:        "list_messages",
		Description: "List chat messages, optionally filtered by channel, conversation or author",
	}, func(ctx context.Context, in ListMessagesInput) (RowsOutput, error) {
		filters := map[string]any{}
		if in.Channel != "" {
			filters["channel"] = in.Channel
		}
		if in.ConversationID != "" {
			filters["conversation_id"] = in.ConversationID
		}
		if in.Author != "" {
			filters["author"] = in.Author
		}
		return s.queryRows(ctx, "messages", filters, in.DateFrom, in.DateTo, false, in.Limit, in.Offset)
	})

	addTool(s, "browse", &mcp.Tool{
		Name:        "list_tickets",
		Description: "List support tickets, optionally filtered by status, pipeline, priority or owner",
	}, func(ctx context.Context, in ListTicketsInput) (RowsOutput, error) {
		filters := map[string]any{}
		if in.Status != "" {
			filters["status"] = in.Status
		}
		if in.Pipeline != "" {
			filters["pipeline"] = in.Pipeline
		}
		if in.Priority != "" {
			filters["priority"] = in.Priority
		}
		if in.Owner != "" {
			filters["owner"] = in.Owner
		}
		return s.queryRows(ctx, "tickets", filters, in.DateFrom, in.DateTo, false, in.Limit, in.Offset)
	})

	addTool(s, "browse", &mcp.Tool{
		Name:        "list_deals",
		Description: "List CRM deals, optionally filtered by stage, owner or company",
	}, func(ctx context.Context, in ListDealsInput) (RowsOutput, error) {
		filters := map[string]any{}
		if in.Stage != "" {
			filters["stage"] = in.Stage
		}
		if in.Owner != "" {
			filters["owner"] = in.Owner
		}
		if in.Company != "" {
			filters["company"] = in.Company
		}
		return s.queryRows(ctx, "deals", filters, "", "", false, in.Limit, in.Offset)
	})

	lookups := []struct {
		name        string
		table       string
		description string
	}{
		{"get_document", "documents", "Fetch one document row by ID"},
		{"get_ticket", "tickets", "Fetch one ticket row by ID"},
		{"get_deal", "deals", "Fetch one deal row by ID"},
	}
	for _, l := range lookups {
		table := l.table
		addTool(s, "browse", &mcp.Tool{
			Name:        l.name,
			Description: l.description,
		}, func(ctx context.Context, in GetByIDInput) (RowOutput, error) {
			if in.ID == "" {
				return RowOutput{}, fmt.Errorf("%w: id is required", domain.ErrInvalidInput)
			}
			row, err := s.ports.Tables.GetRow(ctx, table, in.ID)
			if err != nil {
				return RowOutput{}, err
			}
			return RowOutput{Table: table, Row: row}, nil
		})
	}
}

func (s *Server) handleQueryTable(ctx context.Context, in QueryTableInput) (RowsOutput, error) {
	return s.queryRows(ctx, in.Table, in.Filters, in.DateFrom, in.DateTo, in.OrderAsc, in.Limit, in.Offset)
}

// queryRows validates a browse request against the schema registry and
// executes it. Unknown tables and columns never reach the store.
func (s *Server) queryRows(
	ctx context.Context,
	table string,
	filters map[string]any,
	dateFrom, dateTo string,
	orderAsc bool,
	limit, offset int,
) (RowsOutput, error) {
	spec, err := domain.LookupTable(table)
	if err != nil {
		return RowsOutput{}, fmt.Errorf("%w: %s", err, table)
	}
	for column := range filters {
		if !spec.CanFilter(column) {
			return RowsOutput{}, fmt.Errorf("%w: column %q is not filterable on %s", domain.ErrInvalidInput, column, table)
		}
	}
	from, to, err := dateRange(dateFrom, dateTo)
	if err != nil {
		return RowsOutput{}, err
	}
	if (from != nil || to != nil) && spec.DateColumn == "" {
		return RowsOutput{}, fmt.Errorf("%w: table %s has no date column", domain.ErrInvalidInput, table)
	}

	rows, err := s.ports.Tables.QueryRows(ctx, driven.RowQuery{
		Table:    table,
		Filters:  filters,
		DateFrom: from,
		DateTo:   to,
		OrderAsc: orderAsc,
		Limit:    clampListLimit(limit),
		Offset:   clampOffset(offset),
	})
	if err != nil {
		return RowsOutput{}, err
	}
	return RowsOutput{Table: table, Rows: rows, Count: len(rows)}, nil
}
