package driven

import (
	"context"
	"time"

	"github.com/duhman/volterra-knowledge-engine/internal/core/domain"
)

// RowQuery is a structured browse request against one allow-listed table.
// Filters and returned columns are validated against the table's
// domain.TableSpec before the query reaches the store.
type RowQuery struct {
	// Table is the allow-listed table name.
	Table string

	// Filters are equality predicates on allow-listed columns.
	Filters map[string]any

	// DateFrom and DateTo bound the table's date column when set.
	DateFrom *time.Time
	DateTo   *time.Time

	// OrderAsc orders by the date column ascending (chronological)
	// instead of the default descending.
	OrderAsc bool

	// Limit and Offset paginate the result.
	Limit  int
	Offset int
}

// AggregateQuery is a grouped count or sum over one table.
type AggregateQuery struct {
	// Table is the allow-listed table name.
	Table string

	// Filters are equality predicates on allow-listed columns.
	Filters map[string]any

	// DateFrom and DateTo bound the table's date column when set.
	DateFrom *time.Time
	DateTo   *time.Time

	// GroupBy is the allow-listed grouping column.
	GroupBy string

	// SumColumn selects a sum metric; empty means count.
	SumColumn string

	// MaxGroups truncates the grouped result, which is sorted
	// descending by the aggregate value.
	MaxGroups int
}

// Group is one row of an aggregation result.
type Group struct {
	// Key is the grouping column value.
	Key string `json:"key"`

	// Count is the row count in the group.
	Count int `json:"count"`

	// Sum is the summed metric, when a SumColumn was requested.
	Sum float64 `json:"sum,omitempty"`
}

// TableRecord is a structured row emitted by a source adapter for one
// of the non-document tables (conversations, messages, tickets,
// ticket_replies, deals).
type TableRecord struct {
	// Table is the destination table name.
	Table string

	// Values maps column name to value. The primary key column "id"
	// must be present; upserts are keyed by it.
	Values map[string]any
}

// TableStore provides the structured retrieval surface over the
// backing store: allow-list-driven row queries, aggregations, semantic
// matching and structured-row upserts.
type TableStore interface {
	// QueryRows executes a validated structured browse.
	QueryRows(ctx context.Context, q RowQuery) ([]map[string]any, error)

	// GetRow fetches a single row by primary key.
	// Returns domain.ErrNotFound when absent.
	GetRow(ctx context.Context, table, id string) (map[string]any, error)

	// Aggregate executes a validated grouped count or sum.
	Aggregate(ctx context.Context, q AggregateQuery) ([]Group, error)

	// Match runs a nearest-neighbour query over embedded chunks in the
	// given partition, ordered by cosine similarity descending.
	Match(ctx context.Context, partition string, embedding []float32, limit int) ([]domain.Match, error)

	// UpsertRows writes structured rows keyed by their "id" value.
	UpsertRows(ctx context.Context, records []TableRecord) error
}
