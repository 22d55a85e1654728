package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duhman/volterra-knowledge-engine/internal/connectors"
	"github.com/duhman/volterra-knowledge-engine/internal/core/domain"
	"github.com/duhman/volterra-knowledge-engine/internal/core/ports/driven"
)

func newTestAdapter(t *testing.T) (*Adapter, string) {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"readme.md":        "# Readme\n\ncontent",
		"guide.txt":        "plain guide",
		"sub/notes.md":     "nested notes",
		"image.png":        "binary",
		"sub/ignored.yaml": "key: value",
	}
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	a := New(map[string]string{"path": dir})
	require.NoError(t, a.Initialize(context.Background()))
	return a, dir
}

func TestAdapter_IsConfigured(t *testing.T) {
	assert.False(t, New(nil).IsConfigured())
	assert.True(t, New(map[string]string{"path": "/tmp"}).IsConfigured())
}

func TestAdapter_Initialize_MissingPath(t *testing.T) {
	a := New(map[string]string{"path": "/nonexistent/dir/for/test"})

	err := a.Initialize(context.Background())
	require.Error(t, err)
	assert.False(t, a.IsInitialized())
	assert.Equal(t, domain.KindSource, domain.KindOf(err))

	// The failed outcome is remembered; Initialize is once-per-lifetime.
	assert.ErrorIs(t, a.Initialize(context.Background()), err)
}

func TestAdapter_ListDocuments(t *testing.T) {
	a, _ := newTestAdapter(t)

	docs, err := a.ListDocuments(context.Background(), driven.ListOptions{})
	require.NoError(t, err)
	require.Len(t, docs, 3)

	// Sorted by relative path; binary and unmatched files excluded.
	assert.Equal(t, "guide.txt", docs[0].SourcePath)
	assert.Equal(t, "readme.md", docs[1].SourcePath)
	assert.Equal(t, "sub/notes.md", docs[2].SourcePath)
	assert.Equal(t, "text/markdown", docs[1].MIMEType)
	assert.Equal(t, domain.PartitionDocuments, docs[1].Metadata["partition"])
}

func TestAdapter_ListDocuments_LimitAndCursor(t *testing.T) {
	a, _ := newTestAdapter(t)
	ctx := context.Background()

	first, err := a.ListDocuments(ctx, driven.ListOptions{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)

	rest, err := a.ListDocuments(ctx, driven.ListOptions{Cursor: first[1].SourcePath})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "sub/notes.md", rest[0].SourcePath)
}

func TestAdapter_ListDocuments_RequiresInitialize(t *testing.T) {
	a := New(map[string]string{"path": t.TempDir()})

	_, err := a.ListDocuments(context.Background(), driven.ListOptions{})
	assert.ErrorIs(t, err, domain.ErrNotInitialized)
}

func TestAdapter_Download(t *testing.T) {
	a, _ := newTestAdapter(t)

	docs, err := a.ListDocuments(context.Background(), driven.ListOptions{Limit: 1})
	require.NoError(t, err)

	data, err := a.Download(context.Background(), &docs[0])
	require.NoError(t, err)
	assert.Equal(t, "plain guide", string(data))
}

func TestAdapter_Close(t *testing.T) {
	a, _ := newTestAdapter(t)
	require.NoError(t, a.Close())

	_, err := a.ListDocuments(context.Background(), driven.ListOptions{})
	assert.ErrorIs(t, err, domain.ErrAdapterClosed)
}

func TestEnsureInitialized(t *testing.T) {
	a := New(map[string]string{"path": t.TempDir()})

	require.NoError(t, connectors.EnsureInitialized(context.Background(), a))
	assert.True(t, a.IsInitialized())
	require.NoError(t, connectors.EnsureInitialized(context.Background(), a))
}
