// Package registry wires the built-in source adapters to their type
// identifiers. It lives outside package connectors so the adapters,
// which embed connectors.Base, can be imported here without a cycle.
package registry

import (
	"fmt"
	"sort"

	"github.com/duhman/volterra-knowledge-engine/internal/connectors/filesystem"
	"github.com/duhman/volterra-knowledge-engine/internal/connectors/hubspot"
	"github.com/duhman/volterra-knowledge-engine/internal/connectors/notion"
	"github.com/duhman/volterra-knowledge-engine/internal/connectors/slackexport"
	"github.com/duhman/volterra-knowledge-engine/internal/core/domain"
	"github.com/duhman/volterra-knowledge-engine/internal/core/ports/driven"
)

// Ensure Registry implements the factory port.
var _ driven.AdapterFactory = (*Registry)(nil)

// Constructor builds a source adapter from a source configuration.
type Constructor func(source domain.Source) (driven.SourceAdapter, error)

// Registry maps source type identifiers to adapter constructors.
// Open for extension: registering a new type requires no change to
// existing code.
type Registry struct {
	constructors map[string]Constructor
}

// New creates an empty adapter registry.
func New() *Registry {
	return &Registry{constructors: make(map[string]Constructor)}
}

// Default creates a registry with all built-in adapters.
func Default() *Registry {
	r := New()
	r.Register(domain.SourceFilesystem, func(s domain.Source) (driven.SourceAdapter, error) {
		return filesystem.New(s.Config), nil
	})
	r.Register(domain.SourceNotion, func(s domain.Source) (driven.SourceAdapter, error) {
		return notion.New(s.Config), nil
	})
	r.Register(domain.SourceSlack, func(s domain.Source) (driven.SourceAdapter, error) {
		return slackexport.New(s.Config), nil
	})
	r.Register(domain.SourceHubSpot, func(s domain.Source) (driven.SourceAdapter, error) {
		return hubspot.New(s.Config), nil
	})
	return r
}

// Register adds a constructor for a source type.
func (r *Registry) Register(sourceType string, ctor Constructor) {
	r.constructors[sourceType] = ctor
}

// Create builds an adapter for the given source configuration.
func (r *Registry) Create(source domain.Source) (driven.SourceAdapter, error) {
	ctor, ok := r.constructors[source.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, source.Type)
	}
	return ctor(source)
}

// Types returns the registered source type identifiers, sorted.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.constructors))
	for t := range r.constructors {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
