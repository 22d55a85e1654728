package domain

// TableSpec declares the safe query surface for one logical table.
// The dispatcher validates requests against these specs and the table
// store builds SQL only from declared columns, which is how raw or
// sensitive columns are kept off the retrieval surface.
type TableSpec struct {
	// Name is the table name exposed to clients.
	Name string

	// Description is shown by schema discovery.
	Description string

	// Columns is the allow-list of columns a query may return.
	Columns []string

	// FilterColumns is the allow-list of columns accepting equality filters.
	FilterColumns []string

	// GroupByColumns is the allow-list for aggregation grouping.
	GroupByColumns []string

	// SumColumns is the allow-list for sum aggregation metrics.
	SumColumns []string

	// DateColumn is the default ordering column; date-range bounds
	// apply against it.
	DateColumn string
}

// HasColumn reports whether name is in the returned-column allow-list.
func (t *TableSpec) HasColumn(name string) bool {
	return contains(t.Columns, name)
}

// CanFilter reports whether name accepts equality filters.
func (t *TableSpec) CanFilter(name string) bool {
	return contains(t.FilterColumns, name)
}

// CanGroupBy reports whether name is a valid grouping column.
func (t *TableSpec) CanGroupBy(name string) bool {
	return contains(t.GroupByColumns, name)
}

// CanSum reports whether name is a valid sum metric.
func (t *TableSpec) CanSum(name string) bool {
	return contains(t.SumColumns, name)
}

func contains(list []string, name string) bool {
	for _, c := range list {
		if c == name {
			return true
		}
	}
	return false
}

// Tables is the fixed registry of queryable tables. Unknown table names
// are a reported error, never a silent no-op.
var Tables = map[string]TableSpec{
	"documents": {
		Name:          "documents",
		Description:   "Ingested knowledge-base documents (one row per source document)",
		Columns:       []string{"id", "source_type", "source_path", "title", "chunk_count", "created_at", "updated_at"},
		FilterColumns: []string{"source_type", "title"},
		GroupByColumns: []string{
			"source_type",
		},
		DateColumn: "updated_at",
	},
	"document_chunks": {
		Name:           "document_chunks",
		Description:    "Retrieval chunks with section metadata (content only, no vectors)",
		Columns:        []string{"document_id", "chunk_index", "content", "section", "is_qa"},
		FilterColumns:  []string{"document_id", "section"},
		GroupByColumns: []string{"document_id", "section"},
		DateColumn:     "",
	},
	"conversations": {
		Name:           "conversations",
		Description:    "Support conversations imported from chat exports",
		Columns:        []string{"id", "channel", "subject", "status", "message_count", "started_at"},
		FilterColumns:  []string{"channel", "status"},
		GroupByColumns: []string{"channel", "status"},
		DateColumn:     "started_at",
	},
	"messages": {
		Name:           "messages",
		Description:    "Individual chat messages, threaded by thread_ts",
		Columns:        []string{"id", "conversation_id", "channel", "thread_ts", "author", "text", "posted_at"},
		FilterColumns:  []string{"conversation_id", "channel", "thread_ts", "author"},
		GroupByColumns: []string{"channel", "author"},
		DateColumn:     "posted_at",
	},
	"tickets": {
		Name:           "tickets",
		Description:    "Support tickets imported from the ticketing system",
		Columns:        []string{"id", "subject", "status", "pipeline", "priority", "owner", "deal_id", "created_at", "updated_at"},
		FilterColumns:  []string{"status", "pipeline", "priority", "owner", "deal_id"},
		GroupByColumns: []string{"status", "pipeline", "priority", "owner"},
		DateColumn:     "created_at",
	},
	"ticket_replies": {
		Name:           "ticket_replies",
		Columns:        []string{"id", "ticket_id", "author", "body", "posted_at"},
		Description:    "Threaded replies on support tickets",
		FilterColumns:  []string{"ticket_id", "author"},
		GroupByColumns: []string{"author"},
		DateColumn:     "posted_at",
	},
	"deals": {
		Name:           "deals",
		Description:    "CRM deals with pipeline stage and amount",
		Columns:        []string{"id", "name", "stage", "amount", "owner", "company", "created_at", "closed_at"},
		FilterColumns:  []string{"stage", "owner", "company"},
		GroupByColumns: []string{"stage", "owner", "company"},
		SumColumns:     []string{"amount"},
		DateColumn:     "created_at",
	},
}

// TableNames returns the allow-listed table names in stable order.
func TableNames() []string {
	return []string{
		"documents", "document_chunks", "conversations", "messages",
		"tickets", "ticket_replies", "deals",
	}
}

// LookupTable returns the schema entry for name, or ErrUnsupportedType.
func LookupTable(name string) (*TableSpec, error) {
	spec, ok := Tables[name]
	if !ok {
		return nil, ErrUnsupportedType
	}
	return &spec, nil
}
