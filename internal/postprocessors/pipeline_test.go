package postprocessors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duhman/volterra-knowledge-engine/internal/core/domain"
)

// stubStage returns its fixed chunks when set, otherwise passes the
// incoming chunks through untouched.
type stubStage struct {
	name   string
	chunks []domain.Chunk
	err    error
}

func (s *stubStage) Name() string { return s.name }

func (s *stubStage) Process(_ context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.chunks != nil {
		return s.chunks, nil
	}
	return chunks, nil
}

func faqDoc() *domain.Document {
	return &domain.Document{ID: "doc-faq", Content: "Q: how do refunds work?"}
}

func TestPipeline_StagesRunInOrder(t *testing.T) {
	p := NewPipeline(
		&stubStage{name: "chunker", chunks: []domain.Chunk{{Index: 0, Content: "raw"}}},
		&stubStage{name: "rewriter", chunks: []domain.Chunk{
			{Index: 0, Content: "scrubbed"},
			{Index: 1, Content: "appendix"},
		}},
	)

	chunks, err := p.Process(context.Background(), faqDoc())
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "scrubbed", chunks[0].Content)
}

func TestPipeline_PassthroughKeepsChunks(t *testing.T) {
	p := NewPipeline(
		&stubStage{name: "chunker", chunks: []domain.Chunk{{Index: 0, Content: "only"}}},
		&stubStage{name: "noop"},
	)

	chunks, err := p.Process(context.Background(), faqDoc())
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "only", chunks[0].Content)
}

func TestPipeline_EmptyPipelineYieldsNoChunks(t *testing.T) {
	chunks, err := NewPipeline().Process(context.Background(), faqDoc())
	require.NoError(t, err)
	assert.Nil(t, chunks)
}

func TestPipeline_NilDocument(t *testing.T) {
	_, err := NewPipeline().Process(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPipeline_StageErrorAborts(t *testing.T) {
	boom := errors.New("tokenizer crashed")
	p := NewPipeline(
		&stubStage{name: "broken", err: boom},
		&stubStage{name: "never-reached", chunks: []domain.Chunk{{Index: 0}}},
	)

	_, err := p.Process(context.Background(), faqDoc())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "broken", "error names the failing stage")
}

func TestPipeline_Add(t *testing.T) {
	p := NewPipeline()
	assert.Zero(t, p.Len())

	p.Add(&stubStage{name: "late"})
	assert.Equal(t, 1, p.Len())
}
