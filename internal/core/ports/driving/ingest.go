package driving

import (
	"context"

	"github.com/duhman/volterra-knowledge-engine/internal/core/domain"
)

// Ingestor orchestrates document ingestion across configured sources.
type Ingestor interface {
	// IngestSource runs one source's listing through chunking,
	// embedding and persistence. Per-document failures are recorded in
	// the report; the batch never aborts on a single document.
	IngestSource(ctx context.Context, source domain.Source) (*domain.IngestReport, error)

	// IngestAll runs every enabled source. One source's failure must
	// not abort the others; failed sources are skipped with a warning
	// and reported alongside the successful ones.
	IngestAll(ctx context.Context, sources []domain.Source) ([]domain.IngestReport, error)
}
