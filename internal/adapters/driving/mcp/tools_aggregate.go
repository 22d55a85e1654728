package mcp

import (
	"context"
	"fmt"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/duhman/volterra-knowledge-engine/internal/core/domain"
	"github.com/duhman/volterra-knowledge-engine/internal/core/ports/driven"
)

// AggregateTableInput is the input schema for aggregate_table.
type AggregateTableInput struct {
	Table     string         `json:"table" jsonschema:"the table to aggregate (see list_tables)"`
	GroupBy   string         `json:"group_by" jsonschema:"allow-listed grouping column"`
	SumColumn string         `json:"sum_column,omitempty" jsonschema:"numeric column to sum; omit for row counts"`
	Filters   map[string]any `json:"filters,omitempty" jsonschema:"equality filters on allow-listed columns"`
	DateFrom  string         `json:"date_from,omitempty" jsonschema:"inclusive lower bound on the table's date column"`
	DateTo    string         `json:"date_to,omitempty" jsonschema:"inclusive upper bound on the table's date column"`
	MaxGroups int            `json:"max_groups,omitempty" jsonschema:"maximum groups returned (default 50)"`
}

// DateRangeInput is the input schema for the fixed aggregations that
// only take an optional date window.
type DateRangeInput struct {
	DateFrom string `json:"date_from,omitempty" jsonschema:"inclusive lower bound (RFC3339 or YYYY-MM-DD)"`
	DateTo   string `json:"date_to,omitempty" jsonschema:"inclusive upper bound"`
}

// GroupsOutput is an aggregation result, groups sorted descending by
// the aggregate value.
type GroupsOutput struct {
	Table   string         `json:"table"`
	GroupBy string         `json:"group_by"`
	Metric  string         `json:"metric"`
	Groups  []driven.Group `json:"groups"`
}

// ActivityBucket is one day of conversation activity.
type ActivityBucket struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// ActivityOutput is the conversation_activity result, days ascending.
type ActivityOutput struct {
	Days  []ActivityBucket `json:"days"`
	Total int              `json:"total"`
}

func (s *Server) registerAggregateTools() {
	addTool(s, "aggregate", &mcp.Tool{
		Name:        "aggregate_table",
		Description: "Grouped count or sum over any allow-listed table",
	}, s.handleAggregateTable)

	addTool(s, "aggregate", &mcp.Tool{
		Name:        "count_documents_by_source",
		Description: "Count ingested documents per source adapter",
	}, func(ctx context.Context, _ struct{}) (GroupsOutput, error) {
		return s.aggregate(ctx, "documents", "source_type", "", nil, "", "", 0)
	})

	addTool(s, "aggregate", &mcp.Tool{
		Name:        "ticket_volume_by_status",
		Description: "Count support tickets per status, optionally within a date window",
	}, func(ctx context.Context, in DateRangeInput) (GroupsOutput, error) {
		return s.aggregate(ctx, "tickets", "status", "", nil, in.DateFrom, in.DateTo, 0)
	})

	addTool(s, "aggregate", &mcp.Tool{
		Name:        "deal_value_by_stage",
		Description: "Sum deal amounts per pipeline stage",
	}, func(ctx context.Context, in DateRangeInput) (GroupsOutput, error) {
		return s.aggregate(ctx, "deals", "stage", "amount", nil, in.DateFrom, in.DateTo, 0)
	})

	addTool(s, "aggregate", &mcp.Tool{
		Name:        "message_volume_by_channel",
		Description: "Count chat messages per channel, optionally within a date window",
	}, func(ctx context.Context, in DateRangeInput) (GroupsOutput, error) {
		return s.aggregate(ctx, "messages", "channel", "", nil, in.DateFrom, in.DateTo, 0)
	})

	addTool(s, "aggregate", &mcp.Tool{
		Name:        "conversation_activity",
		Description: "Conversation counts per day, optionally within a date window",
	}, s.handleConversationActivity)
}

func (s *Server) handleAggregateTable(ctx context.Context, in AggregateTableInput) (GroupsOutput, error) {
	return s.aggregate(ctx, in.Table, in.GroupBy, in.SumColumn, in.Filters, in.DateFrom, in.DateTo, in.MaxGroups)
}

// aggregate validates a grouped query against the schema registry and
// executes it.
func (s *Server) aggregate(
	ctx context.Context,
	table, groupBy, sumColumn string,
	filters map[string]any,
	dateFrom, dateTo string,
	maxGroups int,
) (GroupsOutput, error) {
	spec, err := domain.LookupTable(table)
	if err != nil {
		return GroupsOutput{}, fmt.Errorf("%w: %s", err, table)
	}
	if !spec.CanGroupBy(groupBy) {
		return GroupsOutput{}, fmt.Errorf("%w: cannot group %s by %q", domain.ErrInvalidInput, table, groupBy)
	}
	if sumColumn != "" && !spec.CanSum(sumColumn) {
		return GroupsOutput{}, fmt.Errorf("%w: cannot sum %s.%s", domain.ErrInvalidInput, table, sumColumn)
	}
	for column := range filters {
		if !spec.CanFilter(column) {
			return GroupsOutput{}, fmt.Errorf("%w: column %q is not filterable on %s", domain.ErrInvalidInput, column, table)
		}
	}
	from, to, err := dateRange(dateFrom, dateTo)
	if err != nil {
		return GroupsOutput{}, err
	}

	if maxGroups <= 0 || maxGroups > MaxGroups {
		maxGroups = MaxGroups
	}

	groups, err := s.ports.Tables.Aggregate(ctx, driven.AggregateQuery{
		Table:     table,
		Filters:   filters,
		DateFrom:  from,
		DateTo:    to,
		GroupBy:   groupBy,
		SumColumn: sumColumn,
		MaxGroups: maxGroups,
	})
	if err != nil {
		return GroupsOutput{}, err
	}

	metric := "count"
	if sumColumn != "" {
		metric = "sum(" + sumColumn + ")"
	}
	return GroupsOutput{Table: table, GroupBy: groupBy, Metric: metric, Groups: groups}, nil
}

// handleConversationActivity buckets conversations per day. The date
// column carries RFC3339 UTC text, so the day is its first ten bytes.
func (s *Server) handleConversationActivity(ctx context.Context, in DateRangeInput) (ActivityOutput, error) {
	from, to, err := dateRange(in.DateFrom, in.DateTo)
	if err != nil {
		return ActivityOutput{}, err
	}

	rows, err := s.ports.Tables.QueryRows(ctx, driven.RowQuery{
		Table:    "conversations",
		DateFrom: from,
		DateTo:   to,
		OrderAsc: true,
		Limit:    500,
	})
	if err != nil {
		return ActivityOutput{}, err
	}

	counts := make(map[string]int)
	for _, row := range rows {
		started, _ := row["started_at"].(string)
		if len(started) < 10 {
			continue
		}
		counts[started[:10]]++
	}

	days := make([]ActivityBucket, 0, len(counts))
	for day, count := range counts {
		days = append(days, ActivityBucket{Date: day, Count: count})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })

	return ActivityOutput{Days: days, Total: len(rows)}, nil
}
