package connection

import (
	"fmt"
	"sort"
	"sync"

	"github.com/llmstack/backend/internal/domain/connection"
	"github.com/llmstack/backend/internal/domain/shared"
)

// Registry holds the connection types this server can activate, keyed by
// provider and type slug.
type Registry struct {
	mu    sync.RWMutex
	types map[string]connection.Type
}

// NewRegistry creates a registry with the given types. It panics on duplicate
// keys since registration happens once at startup.
func NewRegistry(types ...connection.Type) *Registry {
	r := &Registry{types: make(map[string]connection.Type)}
	for _, t := range types {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a connection type
func (r *Registry) Register(t connection.Type) error {
	key := t.Descriptor().Key()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.types[key]; exists {
		return shared.NewDomainError("ALREADY_EXISTS", fmt.Sprintf("connection type %s already registered", key))
	}
	r.types[key] = t
	return nil
}

// Get resolves a connection type
func (r *Registry) Get(providerSlug, typeSlug string) (connection.Type, error) {
	key := connection.TypeKey(providerSlug, typeSlug)
	r.mu.RLock()
	t, ok := r.types[key]
	r.mu.RUnlock()
	if !ok {
		return nil, shared.NewDomainError("NOT_FOUND", fmt.Sprintf("connection type %s is not supported", key))
	}
	return t, nil
}

// Descriptors lists the registered types ordered by key
func (r *Registry) Descriptors() []connection.TypeDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]connection.TypeDescriptor, 0, len(r.types))
	for _, t := range r.types {
		out = append(out, t.Descriptor())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}
