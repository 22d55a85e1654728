package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := newTestConfig(t)

	require.NoError(t, store.Set("name", "vke"))
	require.NoError(t, store.Set("limit", 42))
	require.NoError(t, store.Set("enabled", true))
	require.NoError(t, store.Set("patterns", []string{"*.md", "*.txt"}))

	assert.Equal(t, "vke", store.GetString("name"))
	assert.Equal(t, 42, store.GetInt("limit"))
	assert.True(t, store.GetBool("enabled"))
	assert.Equal(t, []string{"*.md", "*.txt"}, store.GetStringSlice("patterns"))

	// Missing keys and type mismatches fall back to zero values.
	assert.Equal(t, "", store.GetString("missing"))
	assert.Equal(t, 0, store.GetInt("name"))
	assert.False(t, store.GetBool("limit"))
	assert.Nil(t, store.GetStringSlice("enabled"))
}

func TestConfigStore_PersistsAcrossReload(t *testing.T) {
	dir := t.TempDir()

	first, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Set("embedding_model", "text-embedding-3-small"))
	require.NoError(t, first.Set("chunk_size", 2000))

	second, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-3-small", second.GetString("embedding_model"))
	assert.Equal(t, 2000, second.GetInt("chunk_size"))

	info, err := os.Stat(second.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_FlattensNestedTables(t *testing.T) {
	dir := t.TempDir()
	content := []byte("[embedding]\nprovider = \"openai\"\n\n[sources.docs]\ntype = \"filesystem\"\npath = \"/srv/docs\"\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), content, 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "openai", store.GetString("embedding.provider"))
	assert.Equal(t, "filesystem", store.GetString("sources.docs.type"))
	assert.Equal(t, "/srv/docs", store.GetString("sources.docs.path"))
}

func TestConfigStore_Keys(t *testing.T) {
	store := newTestConfig(t)
	require.NoError(t, store.Set("b.two", 2))
	require.NoError(t, store.Set("a.one", 1))

	assert.Equal(t, []string{"a.one", "b.two"}, store.Keys())
}

func TestConfigStore_Delete(t *testing.T) {
	store := newTestConfig(t)
	require.NoError(t, store.Set("gone", "soon"))

	require.NoError(t, store.Delete("gone"))
	_, ok := store.Get("gone")
	assert.False(t, ok)

	// Deleting an absent key is a no-op.
	require.NoError(t, store.Delete("never-existed"))
}

func TestConfigStore_MissingFileStartsEmpty(t *testing.T) {
	store := newTestConfig(t)

	_, ok := store.Get("anything")
	assert.False(t, ok)
}

func TestConfigStore_CorruptedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("not toml {{{["), 0600))

	store, err := NewConfigStore(dir)
	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestConfigStore_ConcurrentAccess(t *testing.T) {
	store := newTestConfig(t)

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(id int) {
			key := "key" + string(rune('0'+id))
			_ = store.Set(key, id)
			_ = store.GetInt(key)
			done <- true
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}
}
