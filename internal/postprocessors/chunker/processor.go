// Package chunker provides boundary-seeking text chunking: markdown
// heading segmentation, question/answer segmentation, and a sliding
// window with overlap as the final fallback.
package chunker

import (
	"context"

	"github.com/duhman/volterra-knowledge-engine/internal/core/domain"
)

// Processor splits document content into retrieval chunks.
// It implements the PostProcessor interface.
type Processor struct {
	opts Options
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithMaxChunkSize sets the chunk size upper bound in characters.
func WithMaxChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.opts.MaxChunkSize = size
		}
	}
}

// WithMinChunkSize sets the chunk size lower bound in characters.
func WithMinChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.opts.MinChunkSize = size
		}
	}
}

// WithOverlap sets the overlap between sliding-window chunks.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.opts.Overlap = overlap
		}
	}
}

// WithHeaderSplitting enables or disables markdown heading segmentation.
func WithHeaderSplitting(enabled bool) Option {
	return func(p *Processor) {
		p.opts.SplitByHeaders = enabled
	}
}

// WithQAPreservation enables or disables question/answer segmentation.
func WithQAPreservation(enabled bool) Option {
	return func(p *Processor) {
		p.opts.PreserveQA = enabled
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{opts: DefaultOptions()}
	for _, opt := range opts {
		opt(p)
	}
	p.opts = p.opts.sanitized()
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from
// document content.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	segments := Split(doc.Content, p.opts)
	if len(segments) == 0 {
		return nil, nil
	}

	chunks := make([]domain.Chunk, len(segments))
	for i, seg := range segments {
		chunks[i] = domain.Chunk{
			DocumentID: doc.ID,
			Index:      seg.Index,
			Content:    seg.Content,
			Section:    seg.Section,
			IsQA:       seg.IsQA,
			StartChar:  seg.StartChar,
			EndChar:    seg.EndChar,
		}
	}
	return chunks, nil
}
