package postprocessors

import (
	"fmt"
	"sort"

	"github.com/duhman/volterra-knowledge-engine/internal/core/ports/driven"
)

// BuilderFunc constructs a stage from its section of the user config.
type BuilderFunc func(cfg map[string]any) (driven.PostProcessor, error)

// Registry resolves stage names from config files to builders, so the
// pipeline composition stays data-driven.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]BuilderFunc)}
}

// Register binds a builder to a stage name. The name must match what
// the built stage reports from Name().
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Build constructs the named stage with its config.
func (r *Registry) Build(name string, cfg map[string]any) (driven.PostProcessor, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("unregistered processor %q", name)
	}
	return builder(cfg)
}

// Has reports whether a builder is registered under name.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names lists the registered stage names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
