package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Note: the service generates vectors; the TableStore stores and
// searches them. Implementations truncate over-length input rather
// than erroring.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	// More efficient than calling Embed in a loop for large batches.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g. 1536).
	// Determined by the model; fixed for the service lifetime.
	Dimensions() int

	// ModelName returns the name of the embedding model in use.
	ModelName() string

	// Close releases resources.
	Close() error
}
