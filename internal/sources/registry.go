package sources

import (
	"sync"

	"github.com/roody/paperscout/internal/domain"
)

// Registry holds the configured source adapters. Fan-out, retry and result
// ordering live in the aggregate package; the registry only provides
// thread-safe registration and lookup.
type Registry struct {
	mu      sync.RWMutex
	sources map[domain.SourceType]Source
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[domain.SourceType]Source)}
}

// Register adds a source, replacing any previous adapter for the same type.
func (r *Registry) Register(source Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[source.SourceType()] = source
}

// Get returns the adapter for a source type, or nil if none is registered.
func (r *Registry) Get(sourceType domain.SourceType) Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sources[sourceType]
}

// Enabled returns the enabled adapters in canonical source order.
func (r *Registry) Enabled() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Source, 0, len(r.sources))
	for _, st := range domain.AllSourceTypes {
		if s, ok := r.sources[st]; ok && s.IsEnabled() {
			out = append(out, s)
		}
	}
	return out
}

// EnabledTypes returns the source types of all enabled adapters in canonical
// order, for request defaulting and display.
func (r *Registry) EnabledTypes() []domain.SourceType {
	enabled := r.Enabled()
	out := make([]domain.SourceType, len(enabled))
	for i, s := range enabled {
		out[i] = s.SourceType()
	}
	return out
}
