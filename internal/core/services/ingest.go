package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/duhman/volterra-knowledge-engine/internal/connectors"
	"github.com/duhman/volterra-knowledge-engine/internal/core/domain"
	"github.com/duhman/volterra-knowledge-engine/internal/core/ports/driven"
	"github.com/duhman/volterra-knowledge-engine/internal/core/ports/driving"
	"github.com/duhman/volterra-knowledge-engine/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.Ingestor = (*IngestService)(nil)

// IngestService orchestrates document ingestion: listing, hashing,
// chunking, embedding and persistence.
type IngestService struct {
	factory    driven.AdapterFactory
	docStore   driven.DocumentStore
	tableStore driven.TableStore
	pipeline   driven.PostProcessorPipeline
	embedder   driven.EmbeddingService
}

// NewIngestService creates an ingest service. The embedder is optional;
// when nil, documents are chunked and persisted without embeddings.
func NewIngestService(
	factory driven.AdapterFactory,
	docStore driven.DocumentStore,
	tableStore driven.TableStore,
	pipeline driven.PostProcessorPipeline,
	embedder driven.EmbeddingService,
) *IngestService {
	return &IngestService{
		factory:    factory,
		docStore:   docStore,
		tableStore: tableStore,
		pipeline:   pipeline,
		embedder:   embedder,
	}
}

// IngestSource runs one source's listing through the document pipeline.
// A single document's failure is recorded in the report and never
// aborts the batch.
func (s *IngestService) IngestSource(ctx context.Context, source domain.Source) (*domain.IngestReport, error) {
	report := &domain.IngestReport{SourceType: source.Type}

	adapter, err := s.factory.Create(source)
	if err != nil {
		return nil, fmt.Errorf("create adapter: %w", err)
	}
	defer adapter.Close()

	if !adapter.IsConfigured() {
		return nil, fmt.Errorf("source %s: %w", source.Type, domain.ErrNotConfigured)
	}
	if err := connectors.EnsureInitialized(ctx, adapter); err != nil {
		return nil, fmt.Errorf("initialize %s: %w", source.Type, err)
	}

	logger.Sectionf("Ingesting %s (%s)", source.Name, source.Type)

	// Adapters page their own APIs internally; an unbounded listing
	// avoids coupling the orchestrator to source-specific cursors.
	docs, err := adapter.ListDocuments(ctx, driven.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	for i := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		report.Total++
		if err := s.processDocument(ctx, adapter, source.Type, &docs[i], report); err != nil {
			logger.Warn("Failed to process %s: %v", docs[i].SourcePath, err)
			report.Record(docs[i].SourcePath, err)
		}
	}

	if err := s.ingestRecords(ctx, adapter, report); err != nil {
		return nil, err
	}

	logger.Info("Ingest complete for %s: %d processed, %d skipped, %d failed",
		source.Type, report.Processed, report.Skipped, report.Failed)
	return report, nil
}

// IngestAll runs every enabled source. A failed source is skipped with
// a warning; its report carries the failure so callers still see it.
func (s *IngestService) IngestAll(ctx context.Context, sources []domain.Source) ([]domain.IngestReport, error) {
	reports := make([]domain.IngestReport, 0, len(sources))

	for _, source := range sources {
		if !source.Enabled {
			continue
		}

		report, err := s.IngestSource(ctx, source)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return reports, err
			}
			logger.Warn("Skipping source %s: %v", source.Type, err)
			failed := domain.IngestReport{SourceType: source.Type}
			failed.Record(source.Type, err)
			reports = append(reports, failed)
			continue
		}
		reports = append(reports, *report)
	}

	return reports, nil
}

// processDocument runs the per-document pipeline: hash short-circuit,
// postprocessors, embedding, persistence, stale chunk cleanup.
func (s *IngestService) processDocument(
	ctx context.Context,
	adapter driven.SourceAdapter,
	sourceType string,
	src *domain.SourceDocument,
	report *domain.IngestReport,
) error {
	content := src.Content
	if len(content) == 0 {
		downloaded, err := adapter.Download(ctx, src)
		if err != nil {
			return fmt.Errorf("download: %w", err)
		}
		content = downloaded
	}

	hash := contentHash(content)

	existing, err := s.docStore.GetByPath(ctx, sourceType, src.SourcePath)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("lookup document: %w", err)
	}
	if existing != nil && existing.ContentHash == hash {
		logger.Debug("Unchanged, skipping: %s", src.SourcePath)
		report.Skipped++
		return nil
	}

	doc := &domain.Document{
		ID:          uuid.NewString(),
		SourceType:  sourceType,
		SourcePath:  src.SourcePath,
		Partition:   documentPartition(src),
		Title:       src.Name,
		Content:     string(content),
		ContentHash: hash,
		Metadata:    src.Metadata,
		UpdatedAt:   time.Now().UTC(),
	}
	if existing != nil {
		doc.ID = existing.ID
		doc.CreatedAt = existing.CreatedAt
	}

	chunks, err := s.pipeline.Process(ctx, doc)
	if err != nil {
		return fmt.Errorf("post-process: %w", err)
	}

	if s.embedder != nil && len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i := range chunks {
			texts[i] = chunks[i].Content
		}
		embeddings, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed chunks: %w", err)
		}
		for i := range chunks {
			chunks[i].Embedding = embeddings[i]
		}
	}

	doc.ChunkCount = len(chunks)
	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	for i := range chunks {
		chunks[i].DocumentID = doc.ID
	}
	if err := s.docStore.SaveChunks(ctx, chunks); err != nil {
		return fmt.Errorf("save chunks: %w", err)
	}

	// Shrinking documents leave stale rows beyond the new count.
	if err := s.docStore.DeleteChunksFrom(ctx, doc.ID, len(chunks)); err != nil {
		return fmt.Errorf("delete stale chunks: %w", err)
	}

	report.Processed++
	return nil
}

// ingestRecords upserts structured rows for adapters that carry
// relational data alongside documents.
func (s *IngestService) ingestRecords(ctx context.Context, adapter driven.SourceAdapter, report *domain.IngestReport) error {
	structured, ok := adapter.(driven.StructuredSource)
	if !ok {
		return nil
	}

	records, err := structured.ListRecords(ctx)
	if err != nil {
		return fmt.Errorf("list records: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	if err := s.tableStore.UpsertRows(ctx, records); err != nil {
		return fmt.Errorf("upsert records: %w", err)
	}

	logger.Debug("Upserted %d structured rows", len(records))
	return nil
}

// documentPartition reads the adapter-declared partition, defaulting to
// the documents partition.
func documentPartition(src *domain.SourceDocument) string {
	if p, ok := src.Metadata["partition"].(string); ok && domain.IsPartition(p) {
		return p
	}
	return domain.PartitionDocuments
}

// contentHash returns the SHA-256 hex digest used for the re-ingestion
// short circuit.
func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
