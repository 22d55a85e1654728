package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/duhman/volterra-knowledge-engine/internal/core/domain"
	"github.com/duhman/volterra-knowledge-engine/internal/core/ports/driven"
)

// tableStore implements driven.TableStore. Every piece of SQL it builds
// comes from the domain.Tables allow-list; caller-supplied strings are
// only ever bound as parameters, never interpolated.
type tableStore struct {
	store *Store
}

var _ driven.TableStore = (*tableStore)(nil)

const (
	// DefaultRowLimit applies when a query does not set one.
	DefaultRowLimit = 50

	// MaxRowLimit caps any single structured query.
	MaxRowLimit = 500
)

// QueryRows executes a validated structured browse.
func (s *tableStore) QueryRows(ctx context.Context, q driven.RowQuery) ([]map[string]any, error) {
	spec, err := domain.LookupTable(q.Table)
	if err != nil {
		return nil, fmt.Errorf("%w: table %q", err, q.Table)
	}

	where, args, err := buildPredicates(spec, q.Filters, q.DateFrom, q.DateTo)
	if err != nil {
		return nil, err
	}

	query := "SELECT " + strings.Join(spec.Columns, ", ") + " FROM " + spec.Name
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += orderClause(spec, q.OrderAsc)

	limit := clampLimit(q.Limit)
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, max(q.Offset, 0))

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.NewError(domain.KindDatabase, "query rows", err).
			WithContext("table", q.Table)
	}
	defer rows.Close()

	return collectRows(rows, spec.Columns)
}

// GetRow fetches a single row by primary key.
func (s *tableStore) GetRow(ctx context.Context, table, id string) (map[string]any, error) {
	spec, err := domain.LookupTable(table)
	if err != nil {
		return nil, fmt.Errorf("%w: table %q", err, table)
	}
	if !spec.HasColumn("id") {
		return nil, fmt.Errorf("%w: table %q has no id column", domain.ErrInvalidInput, table)
	}

	query := "SELECT " + strings.Join(spec.Columns, ", ") + " FROM " + spec.Name + " WHERE id = ?"
	rows, err := s.store.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, domain.NewError(domain.KindDatabase, "get row", err).
			WithContext("table", table)
	}
	defer rows.Close()

	result, err := collectRows(rows, spec.Columns)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("%w: %s/%s", domain.ErrNotFound, table, id)
	}
	return result[0], nil
}

// Aggregate executes a validated grouped count or sum.
func (s *tableStore) Aggregate(ctx context.Context, q driven.AggregateQuery) ([]driven.Group, error) {
	spec, err := domain.LookupTable(q.Table)
	if err != nil {
		return nil, fmt.Errorf("%w: table %q", err, q.Table)
	}
	if !spec.CanGroupBy(q.GroupBy) {
		return nil, fmt.Errorf("%w: cannot group %s by %q", domain.ErrInvalidInput, q.Table, q.GroupBy)
	}
	if q.SumColumn != "" && !spec.CanSum(q.SumColumn) {
		return nil, fmt.Errorf("%w: cannot sum %s.%q", domain.ErrInvalidInput, q.Table, q.SumColumn)
	}

	where, args, err := buildPredicates(spec, q.Filters, q.DateFrom, q.DateTo)
	if err != nil {
		return nil, err
	}

	orderBy := "cnt"
	query := "SELECT " + q.GroupBy + ", COUNT(*) AS cnt"
	if q.SumColumn != "" {
		query += ", COALESCE(SUM(" + q.SumColumn + "), 0) AS total"
		orderBy = "total"
	}
	query += " FROM " + spec.Name
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " GROUP BY " + q.GroupBy + " ORDER BY " + orderBy + " DESC"

	maxGroups := q.MaxGroups
	if maxGroups <= 0 || maxGroups > MaxRowLimit {
		maxGroups = DefaultRowLimit
	}
	query += " LIMIT ?"
	args = append(args, maxGroups)

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.NewError(domain.KindDatabase, "aggregate", err).
			WithContext("table", q.Table)
	}
	defer rows.Close()

	var groups []driven.Group //nolint:prealloc // size unknown from query
	for rows.Next() {
		var g driven.Group
		var key sql.NullString
		if q.SumColumn != "" {
			if err := rows.Scan(&key, &g.Count, &g.Sum); err != nil {
				return nil, domain.NewError(domain.KindDatabase, "scan group", err)
			}
		} else {
			if err := rows.Scan(&key, &g.Count); err != nil {
				return nil, domain.NewError(domain.KindDatabase, "scan group", err)
			}
		}
		g.Key = key.String
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewError(domain.KindDatabase, "iterate groups", err)
	}
	return groups, nil
}

// Match runs an in-process cosine nearest-neighbour scan over embedded
// chunks in one partition. The corpus is small enough that a full scan
// beats maintaining an index.
func (s *tableStore) Match(ctx context.Context, partition string, embedding []float32, limit int) ([]domain.Match, error) {
	if !domain.IsPartition(partition) {
		return nil, fmt.Errorf("%w: partition %q", domain.ErrInvalidInput, partition)
	}
	if len(embedding) == 0 {
		return nil, fmt.Errorf("%w: empty query embedding", domain.ErrInvalidInput)
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT c.document_id, c.chunk_index, c.content, c.section, c.embedding,
			d.title, d.source_type, d.source_path
		FROM document_chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE d.search_partition = ? AND c.embedding IS NOT NULL
	`, partition)
	if err != nil {
		return nil, domain.NewError(domain.KindDatabase, "query embeddings", err).
			WithContext("partition", partition)
	}
	defer rows.Close()

	var matches []domain.Match //nolint:prealloc // size unknown from query
	for rows.Next() {
		var (
			documentID, content, section  string
			title, sourceType, sourcePath string
			chunkIndex                    int
			blob                          []byte
		)
		if err := rows.Scan(&documentID, &chunkIndex, &content, &section, &blob,
			&title, &sourceType, &sourcePath); err != nil {
			return nil, domain.NewError(domain.KindDatabase, "scan embedding", err)
		}

		similarity, ok := cosineSimilarity(embedding, bytesToFloat32Slice(blob))
		if !ok {
			continue
		}
		matches = append(matches, domain.Match{
			Partition:  partition,
			ID:         fmt.Sprintf("%s#%d", documentID, chunkIndex),
			Title:      title,
			Content:    content,
			Similarity: similarity,
			Metadata: map[string]any{
				"document_id": documentID,
				"chunk_index": chunkIndex,
				"section":     section,
				"source_type": sourceType,
				"source_path": sourcePath,
			},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewError(domain.KindDatabase, "iterate embeddings", err)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// UpsertRows writes structured rows keyed by their "id" value.
func (s *tableStore) UpsertRows(ctx context.Context, records []driven.TableRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.NewError(domain.KindDatabase, "begin transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, record := range records {
		spec, err := domain.LookupTable(record.Table)
		if err != nil {
			return fmt.Errorf("%w: table %q", err, record.Table)
		}
		if _, ok := record.Values["id"]; !ok {
			return fmt.Errorf("%w: record for %s has no id", domain.ErrInvalidInput, record.Table)
		}

		cols := make([]string, 0, len(record.Values))
		for col := range record.Values {
			if !spec.HasColumn(col) {
				return fmt.Errorf("%w: column %s.%q", domain.ErrInvalidInput, record.Table, col)
			}
			cols = append(cols, col)
		}
		sort.Strings(cols)

		placeholders := make([]string, len(cols))
		updates := make([]string, 0, len(cols))
		args := make([]any, len(cols))
		for i, col := range cols {
			placeholders[i] = "?"
			args[i] = record.Values[col]
			if col != "id" {
				updates = append(updates, col+" = excluded."+col)
			}
		}

		conflict := " ON CONFLICT(id) DO NOTHING"
		if len(updates) > 0 {
			conflict = " ON CONFLICT(id) DO UPDATE SET " + strings.Join(updates, ", ")
		}
		query := "INSERT INTO " + spec.Name + " (" + strings.Join(cols, ", ") + ") VALUES (" +
			strings.Join(placeholders, ", ") + ")" + conflict
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return domain.NewError(domain.KindDatabase, "upsert row", err).
				WithContext("table", record.Table)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.NewError(domain.KindDatabase, "commit transaction", err)
	}
	return nil
}

// buildPredicates converts filters and date bounds into WHERE clauses,
// rejecting anything outside the table's allow-list.
func buildPredicates(spec *domain.TableSpec, filters map[string]any, from, to *time.Time) ([]string, []any, error) {
	var where []string
	var args []any

	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if !spec.CanFilter(k) {
			return nil, nil, fmt.Errorf("%w: cannot filter %s by %q", domain.ErrInvalidInput, spec.Name, k)
		}
		where = append(where, k+" = ?")
		args = append(args, filters[k])
	}

	if from != nil || to != nil {
		if spec.DateColumn == "" {
			return nil, nil, fmt.Errorf("%w: table %s has no date column", domain.ErrInvalidInput, spec.Name)
		}
		if from != nil {
			where = append(where, spec.DateColumn+" >= ?")
			args = append(args, formatTime(*from))
		}
		if to != nil {
			where = append(where, spec.DateColumn+" <= ?")
			args = append(args, formatTime(*to))
		}
	}

	return where, args, nil
}

func orderClause(spec *domain.TableSpec, asc bool) string {
	if spec.DateColumn == "" {
		// Chunk listings have a natural hierarchical order instead.
		if spec.Name == "document_chunks" {
			return " ORDER BY document_id, chunk_index"
		}
		return ""
	}
	if asc {
		return " ORDER BY " + spec.DateColumn + " ASC"
	}
	return " ORDER BY " + spec.DateColumn + " DESC"
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultRowLimit
	}
	if limit > MaxRowLimit {
		return MaxRowLimit
	}
	return limit
}

// collectRows scans every row into a column-keyed map. Byte slices are
// converted to strings so JSON serialization stays readable.
func collectRows(rows *sql.Rows, columns []string) ([]map[string]any, error) {
	var result []map[string]any //nolint:prealloc // size unknown from query
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, domain.NewError(domain.KindDatabase, "scan row", err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			switch v := values[i].(type) {
			case []byte:
				row[col] = string(v)
			default:
				row[col] = v
			}
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewError(domain.KindDatabase, "iterate rows", err)
	}
	return result, nil
}

// cosineSimilarity returns the cosine of the angle between two vectors.
// Reports false on dimension mismatch or zero-magnitude input.
func cosineSimilarity(a, b []float32) (float64, bool) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, false
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), true
}
