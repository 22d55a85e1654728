package driven

import (
	"context"

	"github.com/duhman/volterra-knowledge-engine/internal/core/domain"
)

// SourceAdapter fetches documents from an external data source.
// Each source type (filesystem, notion, slack, hubspot) implements this
// interface.
//
// Lifecycle: IsConfigured is a pure check of configuration presence and
// never touches the network. Initialize authenticates and verifies
// reachability; it is idempotent and must leave IsInitialized reporting
// false when it fails, surfacing the error to the caller. Callers
// outside the connectors package should go through
// connectors.EnsureInitialized, which calls Initialize at most once per
// adapter instance.
type SourceAdapter interface {
	// Type returns the source type identifier.
	Type() string

	// IsConfigured reports whether required configuration is present.
	// Independent of network reachability.
	IsConfigured() bool

	// Initialize authenticates and verifies the source is reachable.
	Initialize(ctx context.Context) error

	// IsInitialized reports whether Initialize has succeeded.
	IsInitialized() bool

	// ListDocuments returns documents from the source. Content may be
	// left nil for lazy population via Download.
	ListDocuments(ctx context.Context, opts ListOptions) ([]domain.SourceDocument, error)

	// Download fetches the raw content bytes for a listed document.
	Download(ctx context.Context, doc *domain.SourceDocument) ([]byte, error)

	// Close releases resources.
	Close() error
}

// ListOptions bounds a source listing.
type ListOptions struct {
	// Limit caps the number of returned documents. Zero means no cap.
	Limit int

	// Cursor is a source-specific pagination token from a previous
	// listing. Empty starts from the beginning.
	Cursor string
}

// StructuredSource is an optional extension of SourceAdapter for
// sources that carry relational data beyond free text. Emitted records
// are upserted into the structured tables alongside the regular
// document pipeline.
type StructuredSource interface {
	// ListRecords returns structured rows for the non-document tables.
	ListRecords(ctx context.Context) ([]TableRecord, error)
}

// AdapterFactory constructs a source adapter from a source configuration.
// Implemented by the connectors registry so new source types can be
// registered without modifying a central switch.
type AdapterFactory interface {
	// Create builds an adapter for the given source.
	// Returns domain.ErrUnsupportedType for unknown source types.
	Create(source domain.Source) (SourceAdapter, error)

	// Types returns the registered source type identifiers.
	Types() []string
}
