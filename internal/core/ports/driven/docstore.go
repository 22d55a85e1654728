package driven

import (
	"context"

	"github.com/duhman/volterra-knowledge-engine/internal/core/domain"
)

// DocumentStore persists documents and their chunks.
// Backed by SQLite.
type DocumentStore interface {
	// GetByPath retrieves a document by its global identity
	// (sourceType, sourcePath). Returns domain.ErrNotFound when absent.
	GetByPath(ctx context.Context, sourceType, sourcePath string) (*domain.Document, error)

	// SaveDocument upserts a document keyed by (sourceType, sourcePath).
	// The document's ID is preserved across re-ingestion.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// SaveChunks upserts chunks keyed by (documentID, index).
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// DeleteChunksFrom removes chunk rows with index >= fromIndex.
	// Called on every re-ingestion so the persisted row count exactly
	// equals the document's current chunk count.
	DeleteChunksFrom(ctx context.Context, documentID string, fromIndex int) error

	// GetChunks returns all chunks for a document ordered by index.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// CountChunks returns the number of persisted chunk rows.
	CountChunks(ctx context.Context, documentID string) (int, error)

	// DeleteDocument removes a document and its chunks.
	DeleteDocument(ctx context.Context, id string) error

	// ListDocuments returns documents for a source type.
	ListDocuments(ctx context.Context, sourceType string) ([]domain.Document, error)
}
