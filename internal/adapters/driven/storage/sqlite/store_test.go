package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duhman/volterra-knowledge-engine/internal/core/domain"
	"github.com/duhman/volterra-knowledge-engine/internal/core/ports/driven"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func saveTestDocument(t *testing.T, docs driven.DocumentStore, sourcePath, content string) *domain.Document {
	t.Helper()
	doc := &domain.Document{
		ID:          uuid.NewString(),
		SourceType:  domain.SourceFilesystem,
		SourcePath:  sourcePath,
		Partition:   domain.PartitionDocuments,
		Title:       sourcePath,
		Content:     content,
		ContentHash: "hash-" + sourcePath,
	}
	require.NoError(t, docs.SaveDocument(context.Background(), doc))
	return doc
}

func TestStore_MigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	first, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	// Reopening must not re-run applied migrations.
	second, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestDocumentStore_SaveAndGetByPath(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	saved := saveTestDocument(t, docs, "guide.md", "hello world")

	got, err := docs.GetByPath(ctx, domain.SourceFilesystem, "guide.md")
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, "hello world", got.Content)
	assert.Equal(t, domain.PartitionDocuments, got.Partition)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = docs.GetByPath(ctx, domain.SourceFilesystem, "missing.md")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_UpsertPreservesID(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	original := saveTestDocument(t, docs, "guide.md", "v1")

	// Re-ingesting the same (source_type, source_path) keeps the row id
	// even when the caller generated a fresh one.
	update := &domain.Document{
		ID:          uuid.NewString(),
		SourceType:  domain.SourceFilesystem,
		SourcePath:  "guide.md",
		Partition:   domain.PartitionDocuments,
		Content:     "v2",
		ContentHash: "hash-v2",
	}
	require.NoError(t, docs.SaveDocument(ctx, update))
	assert.Equal(t, original.ID, update.ID)

	got, err := docs.GetByPath(ctx, domain.SourceFilesystem, "guide.md")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Content)
	assert.Equal(t, original.CreatedAt, got.CreatedAt)
}

func TestDocumentStore_ChunkRoundTrip(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	doc := saveTestDocument(t, docs, "guide.md", "content")

	chunks := []domain.Chunk{
		{DocumentID: doc.ID, Index: 0, Content: "first", Section: "Intro", StartChar: 0, EndChar: 5, Embedding: []float32{0.1, 0.2}},
		{DocumentID: doc.ID, Index: 1, Content: "second", IsQA: true, StartChar: 5, EndChar: 11, Embedding: []float32{0.3, 0.4}},
	}
	require.NoError(t, docs.SaveChunks(ctx, chunks))

	got, err := docs.GetChunks(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Content)
	assert.Equal(t, "Intro", got[0].Section)
	assert.Equal(t, []float32{0.1, 0.2}, got[0].Embedding)
	assert.True(t, got[1].IsQA)

	count, err := docs.CountChunks(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestDocumentStore_DeleteChunksFrom(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	doc := saveTestDocument(t, docs, "guide.md", "content")
	require.NoError(t, docs.SaveChunks(ctx, []domain.Chunk{
		{DocumentID: doc.ID, Index: 0, Content: "a", EndChar: 1},
		{DocumentID: doc.ID, Index: 1, Content: "b", EndChar: 2},
		{DocumentID: doc.ID, Index: 2, Content: "c", EndChar: 3},
	}))

	// A shrinking re-ingestion deletes the stale tail.
	require.NoError(t, docs.DeleteChunksFrom(ctx, doc.ID, 1))

	got, err := docs.GetChunks(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Content)
}

func TestDocumentStore_DeleteDocumentCascades(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	doc := saveTestDocument(t, docs, "guide.md", "content")
	require.NoError(t, docs.SaveChunks(ctx, []domain.Chunk{
		{DocumentID: doc.ID, Index: 0, Content: "a", EndChar: 1},
	}))

	require.NoError(t, docs.DeleteDocument(ctx, doc.ID))

	count, err := docs.CountChunks(ctx, doc.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestTableStore_QueryRows(t *testing.T) {
	store := newTestStore(t)
	tables := store.TableStore()
	ctx := context.Background()

	require.NoError(t, tables.UpsertRows(ctx, []driven.TableRecord{
		{Table: "tickets", Values: map[string]any{"id": "1", "subject": "first", "status": "open", "created_at": "2024-03-01T10:00:00Z"}},
		{Table: "tickets", Values: map[string]any{"id": "2", "subject": "second", "status": "closed", "created_at": "2024-03-02T10:00:00Z"}},
		{Table: "tickets", Values: map[string]any{"id": "3", "subject": "third", "status": "open", "created_at": "2024-03-03T10:00:00Z"}},
	}))

	rows, err := tables.QueryRows(ctx, driven.RowQuery{
		Table:   "tickets",
		Filters: map[string]any{"status": "open"},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Default order is date descending.
	assert.Equal(t, "3", rows[0]["id"])
	assert.Equal(t, "1", rows[1]["id"])

	chrono, err := tables.QueryRows(ctx, driven.RowQuery{Table: "tickets", OrderAsc: true})
	require.NoError(t, err)
	assert.Equal(t, "1", chrono[0]["id"])
}

func TestTableStore_QueryRows_DateRange(t *testing.T) {
	store := newTestStore(t)
	tables := store.TableStore()
	ctx := context.Background()

	require.NoError(t, tables.UpsertRows(ctx, []driven.TableRecord{
		{Table: "deals", Values: map[string]any{"id": "a", "stage": "won", "created_at": "2024-01-15T00:00:00Z"}},
		{Table: "deals", Values: map[string]any{"id": "b", "stage": "won", "created_at": "2024-02-15T00:00:00Z"}},
	}))

	from := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	rows, err := tables.QueryRows(ctx, driven.RowQuery{Table: "deals", DateFrom: &from})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "b", rows[0]["id"])
}

func TestTableStore_QueryRows_RejectsUnknownTableAndColumn(t *testing.T) {
	store := newTestStore(t)
	tables := store.TableStore()
	ctx := context.Background()

	_, err := tables.QueryRows(ctx, driven.RowQuery{Table: "users"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)

	_, err = tables.QueryRows(ctx, driven.RowQuery{
		Table:   "tickets",
		Filters: map[string]any{"subject": "x"},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTableStore_GetRow(t *testing.T) {
	store := newTestStore(t)
	tables := store.TableStore()
	ctx := context.Background()

	require.NoError(t, tables.UpsertRows(ctx, []driven.TableRecord{
		{Table: "deals", Values: map[string]any{"id": "d1", "name": "Acme", "amount": 100.0}},
	}))

	row, err := tables.GetRow(ctx, "deals", "d1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", row["name"])

	_, err = tables.GetRow(ctx, "deals", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// document_chunks has a composite key, not an id column.
	_, err = tables.GetRow(ctx, "document_chunks", "x")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTableStore_Aggregate(t *testing.T) {
	store := newTestStore(t)
	tables := store.TableStore()
	ctx := context.Background()

	require.NoError(t, tables.UpsertRows(ctx, []driven.TableRecord{
		{Table: "deals", Values: map[string]any{"id": "1", "stage": "won", "amount": 100.0}},
		{Table: "deals", Values: map[string]any{"id": "2", "stage": "won", "amount": 50.0}},
		{Table: "deals", Values: map[string]any{"id": "3", "stage": "lost", "amount": 75.0}},
	}))

	counts, err := tables.Aggregate(ctx, driven.AggregateQuery{Table: "deals", GroupBy: "stage"})
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, driven.Group{Key: "won", Count: 2}, counts[0])

	sums, err := tables.Aggregate(ctx, driven.AggregateQuery{Table: "deals", GroupBy: "stage", SumColumn: "amount"})
	require.NoError(t, err)
	assert.Equal(t, "won", sums[0].Key)
	assert.Equal(t, 150.0, sums[0].Sum)

	_, err = tables.Aggregate(ctx, driven.AggregateQuery{Table: "deals", GroupBy: "amount"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = tables.Aggregate(ctx, driven.AggregateQuery{Table: "tickets", GroupBy: "status", SumColumn: "priority"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTableStore_Match(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()
	tables := store.TableStore()
	ctx := context.Background()

	doc := saveTestDocument(t, docs, "guide.md", "content")
	require.NoError(t, docs.SaveChunks(ctx, []domain.Chunk{
		{DocumentID: doc.ID, Index: 0, Content: "exact", EndChar: 5, Embedding: []float32{1, 0}},
		{DocumentID: doc.ID, Index: 1, Content: "orthogonal", EndChar: 10, Embedding: []float32{0, 1}},
		{DocumentID: doc.ID, Index: 2, Content: "no vector", EndChar: 9},
	}))

	matches, err := tables.Match(ctx, domain.PartitionDocuments, []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, "exact", matches[0].Content)
	assert.InDelta(t, 1.0, matches[0].Similarity, 1e-9)
	assert.InDelta(t, 0.0, matches[1].Similarity, 1e-9)
	assert.Equal(t, domain.PartitionDocuments, matches[0].Partition)
	assert.Equal(t, doc.ID, matches[0].Metadata["document_id"])

	// Other partitions see nothing.
	other, err := tables.Match(ctx, domain.PartitionTickets, []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Empty(t, other)

	_, err = tables.Match(ctx, "bogus", []float32{1, 0}, 10)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTableStore_UpsertRows_Validation(t *testing.T) {
	store := newTestStore(t)
	tables := store.TableStore()
	ctx := context.Background()

	err := tables.UpsertRows(ctx, []driven.TableRecord{
		{Table: "deals", Values: map[string]any{"name": "no id"}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = tables.UpsertRows(ctx, []driven.TableRecord{
		{Table: "deals", Values: map[string]any{"id": "1", "secret": "x"}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// Upserting twice by id overwrites instead of duplicating.
	require.NoError(t, tables.UpsertRows(ctx, []driven.TableRecord{
		{Table: "conversations", Values: map[string]any{"id": "c1", "subject": "old"}},
	}))
	require.NoError(t, tables.UpsertRows(ctx, []driven.TableRecord{
		{Table: "conversations", Values: map[string]any{"id": "c1", "subject": "new"}},
	}))

	rows, err := tables.QueryRows(ctx, driven.RowQuery{Table: "conversations"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "new", rows[0]["subject"])
}
