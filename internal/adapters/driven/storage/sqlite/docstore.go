package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/duhman/volterra-knowledge-engine/internal/core/domain"
	"github.com/duhman/volterra-knowledge-engine/internal/core/ports/driven"
)

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

const documentColumns = `id, source_type, source_path, search_partition, title, content,
	content_hash, chunk_count, metadata, created_at, updated_at`

// GetByPath retrieves a document by its (sourceType, sourcePath) identity.
func (s *documentStore) GetByPath(ctx context.Context, sourceType, sourcePath string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT `+documentColumns+`
		FROM documents WHERE source_type = ? AND source_path = ?
	`, sourceType, sourcePath)

	return scanDocument(row)
}

// SaveDocument upserts a document keyed by (source_type, source_path).
// The row id of an existing document is preserved and written back to
// doc.ID so chunk rows keep their parent across re-ingestion.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	if doc.Partition == "" {
		doc.Partition = domain.PartitionDocuments
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO documents (id, source_type, source_path, search_partition, title, content,
			content_hash, chunk_count, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_type, source_path) DO UPDATE SET
			search_partition = excluded.search_partition,
			title = excluded.title,
			content = excluded.content,
			content_hash = excluded.content_hash,
			chunk_count = excluded.chunk_count,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`, doc.ID, doc.SourceType, doc.SourcePath, doc.Partition, doc.Title, doc.Content,
		doc.ContentHash, doc.ChunkCount, string(metadataJSON),
		formatTime(doc.CreatedAt), formatTime(doc.UpdatedAt))
	if err != nil {
		return domain.NewError(domain.KindDatabase, "save document", err)
	}

	// Read back the canonical row id; on conflict the insert's id is
	// discarded in favour of the existing row.
	row := s.store.db.QueryRowContext(ctx,
		"SELECT id, created_at FROM documents WHERE source_type = ? AND source_path = ?",
		doc.SourceType, doc.SourcePath)
	var createdAt string
	if err := row.Scan(&doc.ID, &createdAt); err != nil {
		return domain.NewError(domain.KindDatabase, "read back document id", err)
	}
	doc.CreatedAt = parseTime(createdAt)
	return nil
}

// SaveChunks upserts chunks keyed by (document_id, chunk_index).
func (s *documentStore) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.NewError(domain.KindDatabase, "begin transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO document_chunks (document_id, chunk_index, content, section, is_qa,
			start_char, end_char, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_id, chunk_index) DO UPDATE SET
			content = excluded.content,
			section = excluded.section,
			is_qa = excluded.is_qa,
			start_char = excluded.start_char,
			end_char = excluded.end_char,
			embedding = excluded.embedding
	`)
	if err != nil {
		return domain.NewError(domain.KindDatabase, "prepare statement", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		if _, err := stmt.ExecContext(ctx, chunk.DocumentID, chunk.Index, chunk.Content,
			chunk.Section, chunk.IsQA, chunk.StartChar, chunk.EndChar,
			float32SliceToBytes(chunk.Embedding)); err != nil {
			return domain.NewError(domain.KindDatabase, "save chunk", err).
				WithContext("document_id", chunk.DocumentID)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.NewError(domain.KindDatabase, "commit transaction", err)
	}
	return nil
}

// DeleteChunksFrom removes chunk rows with index >= fromIndex, so a
// shrinking re-ingestion leaves no stale tail rows behind.
func (s *documentStore) DeleteChunksFrom(ctx context.Context, documentID string, fromIndex int) error {
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM document_chunks WHERE document_id = ? AND chunk_index >= ?",
		documentID, fromIndex)
	if err != nil {
		return domain.NewError(domain.KindDatabase, "delete chunks", err)
	}
	return nil
}

// GetChunks retrieves all chunks for a document ordered by index.
func (s *documentStore) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT document_id, chunk_index, content, section, is_qa, start_char, end_char, embedding
		FROM document_chunks WHERE document_id = ?
		ORDER BY chunk_index
	`, documentID)
	if err != nil {
		return nil, domain.NewError(domain.KindDatabase, "query chunks", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunk domain.Chunk
		var embeddingBlob []byte
		if err := rows.Scan(&chunk.DocumentID, &chunk.Index, &chunk.Content, &chunk.Section,
			&chunk.IsQA, &chunk.StartChar, &chunk.EndChar, &embeddingBlob); err != nil {
			return nil, domain.NewError(domain.KindDatabase, "scan chunk", err)
		}
		chunk.Embedding = bytesToFloat32Slice(embeddingBlob)
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, domain.NewError(domain.KindDatabase, "iterate chunks", err)
	}
	return chunks, nil
}

// CountChunks returns the number of persisted chunk rows.
func (s *documentStore) CountChunks(ctx context.Context, documentID string) (int, error) {
	var count int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM document_chunks WHERE document_id = ?", documentID).Scan(&count)
	if err != nil {
		return 0, domain.NewError(domain.KindDatabase, "count chunks", err)
	}
	return count, nil
}

// DeleteDocument removes a document; chunks cascade.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return domain.NewError(domain.KindDatabase, "delete document", err)
	}
	return nil
}

// ListDocuments returns documents for a source type ordered by path.
func (s *documentStore) ListDocuments(ctx context.Context, sourceType string) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+documentColumns+`
		FROM documents WHERE source_type = ?
		ORDER BY source_path
	`, sourceType)
	if err != nil {
		return nil, domain.NewError(domain.KindDatabase, "query documents", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocumentRows(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, domain.NewError(domain.KindDatabase, "iterate documents", err)
	}
	return docs, nil
}

func scanDocument(row *sql.Row) (*domain.Document, error) {
	var doc domain.Document
	var metadataJSON, createdAt, updatedAt string

	if err := row.Scan(&doc.ID, &doc.SourceType, &doc.SourcePath, &doc.Partition,
		&doc.Title, &doc.Content, &doc.ContentHash, &doc.ChunkCount,
		&metadataJSON, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.NewError(domain.KindDatabase, "scan document", err)
	}

	return finishDocument(&doc, metadataJSON, createdAt, updatedAt)
}

func scanDocumentRows(rows *sql.Rows) (*domain.Document, error) {
	var doc domain.Document
	var metadataJSON, createdAt, updatedAt string

	if err := rows.Scan(&doc.ID, &doc.SourceType, &doc.SourcePath, &doc.Partition,
		&doc.Title, &doc.Content, &doc.ContentHash, &doc.ChunkCount,
		&metadataJSON, &createdAt, &updatedAt); err != nil {
		return nil, domain.NewError(domain.KindDatabase, "scan document", err)
	}

	return finishDocument(&doc, metadataJSON, createdAt, updatedAt)
}

func finishDocument(doc *domain.Document, metadataJSON, createdAt, updatedAt string) (*domain.Document, error) {
	if metadataJSON != "" && metadataJSON != "null" {
		if err := json.Unmarshal([]byte(metadataJSON), &doc.Metadata); err != nil {
			return nil, domain.NewError(domain.KindDatabase, "unmarshal metadata", err)
		}
	}
	doc.CreatedAt = parseTime(createdAt)
	doc.UpdatedAt = parseTime(updatedAt)
	return doc, nil
}

// Times are stored as RFC3339 UTC strings so date-range predicates in
// the table store compare correctly against adapter-written rows.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
