// Package cli provides the vke command line interface.
package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	configfile "github.com/duhman/volterra-knowledge-engine/internal/adapters/driven/config/file"
	ollamaembed "github.com/duhman/volterra-knowledge-engine/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/duhman/volterra-knowledge-engine/internal/adapters/driven/embedding/openai"
	"github.com/duhman/volterra-knowledge-engine/internal/adapters/driven/storage/sqlite"
	"github.com/duhman/volterra-knowledge-engine/internal/connectors/registry"
	"github.com/duhman/volterra-knowledge-engine/internal/core/domain"
	"github.com/duhman/volterra-knowledge-engine/internal/core/ports/driven"
	"github.com/duhman/volterra-knowledge-engine/internal/core/services"
	"github.com/duhman/volterra-knowledge-engine/internal/logger"
	"github.com/duhman/volterra-knowledge-engine/internal/postprocessors"
)

// version is set at build time via -ldflags.
var version = "dev"

// Wired services, populated by initServices before any command runs.
var (
	configStore   driven.ConfigStore
	store         *sqlite.Store
	ingestService *services.IngestService
	searchService *services.SearchService
)

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "vke",
	Short: "Knowledge-base ingestion and retrieval engine",
	Long: `vke ingests documents from filesystem, Notion, Slack export and
HubSpot sources into a local knowledge base, and serves retrieval
operations to AI assistants over the Model Context Protocol.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verboseFlag)
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		return initServices()
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if store != nil {
			store.Close() //nolint:errcheck
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// initServices wires the storage, embedding, pipeline and service
// layer from configuration.
func initServices() error {
	cfg, err := configfile.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	configStore = cfg

	store, err = sqlite.NewStore(cfg.GetString("storage.data_dir"))
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}
	if embedder == nil {
		logger.Warn("No embedding provider configured; semantic search is disabled")
	}

	pipeline, err := buildPipeline(cfg)
	if err != nil {
		return err
	}

	ingestService = services.NewIngestService(
		registry.Default(),
		store.DocumentStore(),
		store.TableStore(),
		pipeline,
		embedder,
	)
	searchService = services.NewSearchService(store.TableStore(), embedder)

	return nil
}

// buildEmbedder selects the embedding provider from config. The OpenAI
// key falls back to the OPENAI_API_KEY environment variable.
func buildEmbedder(cfg driven.ConfigStore) (driven.EmbeddingService, error) {
	provider := cfg.GetString("embedding.provider")
	switch provider {
	case "openai":
		apiKey := cfg.GetString("embedding.api_key")
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey: apiKey,
			Model:  cfg.GetString("embedding.model"),
		})
		if err != nil {
			return nil, fmt.Errorf("configuring openai embeddings: %w", err)
		}
		return svc, nil
	case "ollama":
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: cfg.GetString("embedding.base_url"),
			Model:   cfg.GetString("embedding.model"),
		}), nil
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q (want openai or ollama)", provider)
	}
}

// buildPipeline assembles the postprocessor chain: compliance check
// first, then the chunker.
func buildPipeline(cfg driven.ConfigStore) (driven.PostProcessorPipeline, error) {
	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry)

	chunkerCfg := map[string]any{}
	if size := cfg.GetInt("chunker.chunk_size"); size > 0 {
		chunkerCfg["chunk_size"] = size
	}
	if size := cfg.GetInt("chunker.min_chunk_size"); size > 0 {
		chunkerCfg["min_chunk_size"] = size
	}
	if overlap := cfg.GetInt("chunker.overlap"); overlap > 0 {
		chunkerCfg["overlap"] = overlap
	}

	compliance, err := registry.Build("compliance", nil)
	if err != nil {
		return nil, fmt.Errorf("building compliance processor: %w", err)
	}
	chunker, err := registry.Build("chunker", chunkerCfg)
	if err != nil {
		return nil, fmt.Errorf("building chunker: %w", err)
	}

	return postprocessors.NewPipeline(compliance, chunker), nil
}

// loadSources reconstructs source configurations from the flattened
// config keys under "sources.".
func loadSources(cfg driven.ConfigStore) []domain.Source {
	byID := make(map[string]*domain.Source)

	for _, key := range cfg.Keys() {
		rest, ok := strings.CutPrefix(key, "sources.")
		if !ok {
			continue
		}
		id, field, ok := strings.Cut(rest, ".")
		if !ok {
			continue
		}

		src := byID[id]
		if src == nil {
			src = &domain.Source{ID: id, Enabled: true, Config: make(map[string]string)}
			byID[id] = src
		}

		switch field {
		case "type":
			src.Type = cfg.GetString(key)
		case "name":
			src.Name = cfg.GetString(key)
		case "enabled":
			src.Enabled = cfg.GetBool(key)
		default:
			src.Config[field] = cfg.GetString(key)
		}
	}

	sources := make([]domain.Source, 0, len(byID))
	for _, src := range byID {
		if src.Name == "" {
			src.Name = src.ID
		}
		sources = append(sources, *src)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].ID < sources[j].ID })
	return sources
}
