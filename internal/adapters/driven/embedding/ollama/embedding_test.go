package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duhman/volterra-knowledge-engine/internal/core/domain"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *EmbeddingService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewEmbeddingService(Config{BaseURL: server.URL})
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	svc := NewEmbeddingService(Config{})

	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, DefaultDimensions, svc.Dimensions())
}

func TestEmbed_SendsModelAndPrompt(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)

		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultModel, req.Model)
		assert.Equal(t, "refund policy", req.Prompt)

		_, _ = w.Write([]byte(`{"embedding": [0.25, -0.5]}`))
	})

	vec, err := svc.Embed(context.Background(), "refund policy")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, -0.5}, vec)
}

func TestEmbed_TruncatesLongInput(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.Prompt, MaxInputChars)
		_, _ = w.Write([]byte(`{"embedding": [0.1]}`))
	})

	long := make([]byte, MaxInputChars+1000)
	for i := range long {
		long[i] = 'x'
	}
	_, err := svc.Embed(context.Background(), string(long))
	require.NoError(t, err)
}

func TestEmbed_ServerError(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("model not loaded"))
	})

	_, err := svc.Embed(context.Background(), "text")
	require.Error(t, err)
	assert.Equal(t, domain.KindEmbedding, domain.KindOf(err))
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestEmbed_UnreachableHost(t *testing.T) {
	// Closed port, the daemon is not running.
	svc := NewEmbeddingService(Config{BaseURL: "http://127.0.0.1:1"})

	_, err := svc.Embed(context.Background(), "text")
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestEmbedBatch_Sequential(t *testing.T) {
	var calls int
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_, _ = w.Write([]byte(`{"embedding": [` + req.Prompt + `]}`))
	})

	embeddings, err := svc.EmbedBatch(context.Background(), []string{"1", "2", "3"})
	require.NoError(t, err)
	require.Len(t, embeddings, 3)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []float32{2}, embeddings[1])
}
