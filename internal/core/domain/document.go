package domain

import "time"

// Document represents an ingested document with metadata.
// It is the canonical representation after normalisation and chunking.
type Document struct {
	// ID is the unique identifier for the document row.
	ID string

	// SourceType identifies the adapter that produced this document
	// (filesystem, notion, slack, hubspot).
	SourceType string

	// SourcePath is the stable source-native path used for deduplication.
	// Global identity is the tuple (SourceType, SourcePath).
	SourcePath string

	// Partition is the semantic search partition this document's chunks
	// belong to (documents, conversations, messages, tickets, deals).
	Partition string

	// Title is the human-readable title.
	Title string

	// Content is the full text content before chunking.
	Content string

	// ContentHash is the SHA-256 hex digest of Content. Re-ingestion of a
	// document with an unchanged hash skips chunking and embedding.
	ContentHash string

	// ChunkCount is the number of chunk rows currently persisted for
	// this document. Stale rows beyond this count must not exist.
	ChunkCount int

	// Metadata contains arbitrary key-value pairs from the source.
	Metadata map[string]any

	// CreatedAt is when the document was first ingested.
	CreatedAt time.Time

	// UpdatedAt is when the document was last re-ingested.
	UpdatedAt time.Time
}

// Chunk represents a retrieval unit within a document.
// Documents are split into chunks for granular semantic search.
type Chunk struct {
	// DocumentID links to the parent Document.
	DocumentID string

	// Index is the ordinal position within the document, starting at 0.
	Index int

	// Content is the text content of this chunk.
	Content string

	// Section is the heading this chunk belongs to, when the document
	// was split at markdown headings. Empty otherwise.
	Section string

	// IsQA marks chunks produced by question/answer segmentation.
	IsQA bool

	// StartChar and EndChar are the chunk's span in the original
	// document text. StartChar < EndChar always holds.
	StartChar int
	EndChar   int

	// Embedding is the vector representation for semantic search.
	Embedding []float32
}

// SourceDocument is a document listed by a source adapter before
// normalisation. Content may be populated lazily via Download.
type SourceDocument struct {
	// ID is the source-scoped identifier (not globally unique).
	ID string

	// Name is the display name from the source.
	Name string

	// SourcePath is the stable dedup path, reconstructible from
	// source-native identifiers alone (never derived from content).
	SourcePath string

	// MIMEType is the content type (e.g. "text/markdown").
	MIMEType string

	// Content is the raw bytes, when the listing already carries them.
	Content []byte

	// Metadata contains adapter-specific key-value pairs.
	Metadata map[string]any
}
