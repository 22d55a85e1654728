package postprocessors

import (
	"github.com/duhman/volterra-knowledge-engine/internal/core/ports/driven"
	"github.com/duhman/volterra-knowledge-engine/internal/postprocessors/chunker"
	"github.com/duhman/volterra-knowledge-engine/internal/postprocessors/compliance"
)

// RegisterDefaults registers all built-in processors with the registry.
// Call this during application initialisation to enable standard processors.
func RegisterDefaults(r *Registry) {
	r.Register("compliance", buildCompliance)
	r.Register("chunker", buildChunker)
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - chunk_size (int): upper bound in characters (default: 2000)
//   - min_chunk_size (int): lower bound in characters (default: 200)
//   - overlap (int): overlapping characters between chunks (default: 100)
//   - split_headers (bool): split at markdown headings (default: true)
//   - preserve_qa (bool): split at Q: markers (default: true)
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	if cfg != nil {
		if size := getIntFromConfig(cfg, "chunk_size"); size > 0 {
			opts = append(opts, chunker.WithMaxChunkSize(size))
		}
		if size := getIntFromConfig(cfg, "min_chunk_size"); size > 0 {
			opts = append(opts, chunker.WithMinChunkSize(size))
		}
		if overlap := getIntFromConfig(cfg, "overlap"); overlap >= 0 {
			opts = append(opts, chunker.WithOverlap(overlap))
		}
		if v, ok := cfg["split_headers"].(bool); ok {
			opts = append(opts, chunker.WithHeaderSplitting(v))
		}
		if v, ok := cfg["preserve_qa"].(bool); ok {
			opts = append(opts, chunker.WithQAPreservation(v))
		}
	}

	return chunker.New(opts...), nil
}

// buildCompliance creates a compliance processor from generic config.
func buildCompliance(_ map[string]any) (driven.PostProcessor, error) {
	return compliance.New(), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
