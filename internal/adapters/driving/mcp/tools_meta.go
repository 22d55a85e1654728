package mcp

import (
	"context"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/duhman/volterra-knowledge-engine/internal/core/domain"
)

// TableSchemaOutput describes one table's safe query surface.
type TableSchemaOutput struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Columns        []string `json:"columns"`
	FilterColumns  []string `json:"filter_columns"`
	GroupByColumns []string `json:"group_by_columns"`
	SumColumns     []string `json:"sum_columns,omitempty"`
	DateColumn     string   `json:"date_column,omitempty"`
}

// SchemaOutput is the describe_schema result.
type SchemaOutput struct {
	Tables     []TableSchemaOutput `json:"tables"`
	Partitions []string            `json:"partitions"`
}

// TableListOutput is the list_tables result.
type TableListOutput struct {
	Tables []TableSummary `json:"tables"`
}

// TableSummary is one list_tables entry.
type TableSummary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// SearchToolsInput is the input schema for search_tools.
type SearchToolsInput struct {
	Query string `json:"query" jsonschema:"keywords to match against operation names and descriptions"`
}

// SearchToolsOutput is the search_tools result, best matches first.
type SearchToolsOutput struct {
	Tools []toolInfo `json:"tools"`
}

// PingOutput is the ping result.
type PingOutput struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func (s *Server) registerMetaTools() {
	addTool(s, "meta", &mcp.Tool{
		Name:        "describe_schema",
		Description: "Describe every queryable table: columns, filters, groupings and date column",
	}, func(_ context.Context, _ struct{}) (SchemaOutput, error) {
		out := SchemaOutput{Partitions: domain.Partitions}
		for _, name := range domain.TableNames() {
			spec := domain.Tables[name]
			out.Tables = append(out.Tables, TableSchemaOutput{
				Name:           spec.Name,
				Description:    spec.Description,
				Columns:        spec.Columns,
				FilterColumns:  spec.FilterColumns,
				GroupByColumns: spec.GroupByColumns,
				SumColumns:     spec.SumColumns,
				DateColumn:     spec.DateColumn,
			})
		}
		return out, nil
	})

	addTool(s, "meta", &mcp.Tool{
		Name:        "list_tables",
		Description: "List the queryable table names with a one-line description each",
	}, func(_ context.Context, _ struct{}) (TableListOutput, error) {
		out := TableListOutput{}
		for _, name := range domain.TableNames() {
			spec := domain.Tables[name]
			out.Tables = append(out.Tables, TableSummary{Name: spec.Name, Description: spec.Description})
		}
		return out, nil
	})

	addTool(s, "meta", &mcp.Tool{
		Name:        "search_tools",
		Description: "Find catalog operations matching keywords; read-only over the catalog itself",
	}, s.handleSearchTools)

	addTool(s, "meta", &mcp.Tool{
		Name:        "ping",
		Description: "Liveness check",
	}, func(_ context.Context, _ struct{}) (PingOutput, error) {
		return PingOutput{Status: "ok", Version: Version}, nil
	})
}

// handleSearchTools scores catalog entries by substring and token
// overlap against the query.
func (s *Server) handleSearchTools(_ context.Context, in SearchToolsInput) (SearchToolsOutput, error) {
	query := strings.ToLower(strings.TrimSpace(in.Query))
	if query == "" {
		return SearchToolsOutput{Tools: s.catalog}, nil
	}
	tokens := strings.Fields(query)

	type scored struct {
		info  toolInfo
		score int
	}
	var matches []scored
	for _, info := range s.catalog {
		name := strings.ToLower(info.Name)
		desc := strings.ToLower(info.Description)

		score := 0
		if strings.Contains(name, query) {
			score += 3
		}
		if strings.Contains(desc, query) {
			score += 2
		}
		for _, token := range tokens {
			if strings.Contains(name, token) || strings.Contains(desc, token) {
				score++
			}
		}
		if score > 0 {
			matches = append(matches, scored{info: info, score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].info.Name < matches[j].info.Name
	})

	out := SearchToolsOutput{}
	for i, m := range matches {
		if i >= 10 {
			break
		}
		out.Tools = append(out.Tools, m.info)
	}
	return out, nil
}
