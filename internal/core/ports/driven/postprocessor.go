package driven

import (
	"context"

	"github.com/duhman/volterra-knowledge-engine/internal/core/domain"
)

// PostProcessor transforms document content into chunks, or transforms
// chunks produced by an earlier processor in the pipeline.
type PostProcessor interface {
	// Name returns the processor name for registry lookup and errors.
	Name() string

	// Process receives the document and the chunks produced so far.
	// The first processor in a pipeline receives nil chunks and is
	// expected to create them.
	Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline runs a document through an ordered chain of
// post-processors.
type PostProcessorPipeline interface {
	// Process runs the document through all processors in order.
	Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}
