// Package options resolves the named enumerations behind select fields.
package options

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/pscheid92/scopeconf/internal/domain"
)

// Static is a fixed enumeration, typically declared in the schema file.
type Static []domain.Option

func (s Static) Options(context.Context) ([]domain.Option, error) {
	return s, nil
}

// Registry maps option set names to their providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]domain.OptionsProvider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]domain.OptionsProvider)}
}

// FromSchema registers one Static provider per schema option set.
func FromSchema(sets map[string][]domain.Option) *Registry {
	r := NewRegistry()
	for name, set := range sets {
		r.Register(name, Static(set))
	}
	return r
}

func (r *Registry) Register(name string, provider domain.OptionsProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = provider
}

func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[name]
	return ok
}

// Names returns the registered option set names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve asks the named provider for its current options.
func (r *Registry) Resolve(ctx context.Context, name string) ([]domain.Option, error) {
	r.mu.RLock()
	provider, ok := r.providers[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown option set %q", name)
	}

	options, err := provider.Options(ctx)
	if err != nil {
		return nil, fmt.Errorf("option set %s: %w", name, err)
	}
	return options, nil
}
