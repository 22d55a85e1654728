package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	configfile "github.com/duhman/volterra-knowledge-engine/internal/adapters/driven/config/file"
	"github.com/duhman/volterra-knowledge-engine/internal/core/domain"
)

func TestLoadSources(t *testing.T) {
	cfg, err := configfile.NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, cfg.Set("sources.docs.type", "filesystem"))
	require.NoError(t, cfg.Set("sources.docs.path", "/srv/docs"))
	require.NoError(t, cfg.Set("sources.wiki.type", "notion"))
	require.NoError(t, cfg.Set("sources.wiki.name", "Team wiki"))
	require.NoError(t, cfg.Set("sources.wiki.token", "secret"))
	require.NoError(t, cfg.Set("sources.wiki.enabled", false))
	require.NoError(t, cfg.Set("embedding.provider", "ollama"))

	sources := loadSources(cfg)
	require.Len(t, sources, 2)

	docs := sources[0]
	assert.Equal(t, "docs", docs.ID)
	assert.Equal(t, domain.SourceFilesystem, docs.Type)
	assert.Equal(t, "docs", docs.Name, "name defaults to the ID")
	assert.True(t, docs.Enabled)
	assert.Equal(t, "/srv/docs", docs.Config["path"])

	wiki := sources[1]
	assert.Equal(t, "Team wiki", wiki.Name)
	assert.False(t, wiki.Enabled)
	assert.Equal(t, "secret", wiki.Config["token"])
	assert.NotContains(t, wiki.Config, "type", "reserved fields stay out of adapter config")
}

func TestParseSettings(t *testing.T) {
	settings, err := parseSettings([]string{"path=/srv/docs", "include=*.md"})
	require.NoError(t, err)
	assert.Equal(t, "/srv/docs", settings["path"])
	assert.Equal(t, "*.md", settings["include"])

	_, err = parseSettings([]string{"no-equals"})
	assert.Error(t, err)

	_, err = parseSettings([]string{"=value"})
	assert.Error(t, err)
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "short", snippet("short", 10))
	assert.Equal(t, "0123456789...", snippet("0123456789abcdef", 10))
}

func TestBuildEmbedder(t *testing.T) {
	cfg, err := configfile.NewConfigStore(t.TempDir())
	require.NoError(t, err)

	// No provider configured disables semantic search.
	embedder, err := buildEmbedder(cfg)
	require.NoError(t, err)
	assert.Nil(t, embedder)

	require.NoError(t, cfg.Set("embedding.provider", "ollama"))
	embedder, err = buildEmbedder(cfg)
	require.NoError(t, err)
	require.NotNil(t, embedder)
	assert.NotEmpty(t, embedder.ModelName())

	require.NoError(t, cfg.Set("embedding.provider", "duckdb"))
	_, err = buildEmbedder(cfg)
	assert.Error(t, err)
}
