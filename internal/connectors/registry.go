// Package connectors wires the document source implementations into a
// registry so a collector can be assembled by name from configuration.
package connectors

import (
	"fmt"

	"github.com/poeticinspiired/llm-data-pipeline/internal/core/ports/driven"
)

// BuilderFunc creates a Collector from generic config.
type BuilderFunc func(cfg map[string]any) (driven.Collector, error)

// Registry maps collector names to their builders.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates a new collector registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]BuilderFunc),
	}
}

// Register adds a collector builder to the registry.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Build creates a collector by name with the given config.
func (r *Registry) Build(name string, cfg map[string]any) (driven.Collector, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown collector: %s", name)
	}
	return builder(cfg)
}

// Has returns true if a collector with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns all registered collector names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	return names
}
