// Package postprocessors turns normalized document text into the chunk
// rows the knowledge store indexes. Stages run in sequence: compliance
// scrubbing first, then chunking.
package postprocessors

import (
	"context"
	"fmt"

	"github.com/duhman/volterra-knowledge-engine/internal/core/domain"
	"github.com/duhman/volterra-knowledge-engine/internal/core/ports/driven"
)

// Pipeline runs an ordered sequence of PostProcessors over a document.
// It implements driven.PostProcessorPipeline.
type Pipeline struct {
	stages []driven.PostProcessor
}

// NewPipeline builds a pipeline that runs the given stages in order.
func NewPipeline(stages ...driven.PostProcessor) *Pipeline {
	return &Pipeline{stages: stages}
}

// Process feeds the document through every stage. The chunk slice
// starts nil, so the first chunk-producing stage creates it and later
// stages rewrite or extend it. A stage error aborts the run.
func (p *Pipeline) Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("process document: %w", domain.ErrInvalidInput)
	}

	var chunks []domain.Chunk
	for _, stage := range p.stages {
		var err error
		if chunks, err = stage.Process(ctx, doc, chunks); err != nil {
			return nil, fmt.Errorf("stage %s: %w", stage.Name(), err)
		}
	}
	return chunks, nil
}

// Add appends a stage after the existing ones.
func (p *Pipeline) Add(stage driven.PostProcessor) {
	p.stages = append(p.stages, stage)
}

// Len reports how many stages the pipeline holds.
func (p *Pipeline) Len() int {
	return len(p.stages)
}
