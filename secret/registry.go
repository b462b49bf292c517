package secret

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// ProviderFactory creates a Provider from configuration.
type ProviderFactory func(cfg map[string]any) (Provider, error)

// Registry manages provider factories.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]ProviderFactory
}

// NewRegistry creates a new provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]ProviderFactory)}
}

// Register adds a provider factory.
func (r *Registry) Register(name string, factory ProviderFactory) error {
	name = strings.TrimSpace(name)
	if name == "" || factory == nil {
		return fmt.Errorf("%w: invalid registration", ErrInvalidRef)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("%w: %q", ErrProviderExists, name)
	}
	r.providers[name] = factory
	return nil
}

// Create instantiates a provider by name.
func (r *Registry) Create(name string, cfg map[string]any) (Provider, error) {
	name = strings.TrimSpace(name)

	r.mu.RLock()
	factory, ok := r.providers[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProviderNotRegistered, name)
	}

	return factory(cfg)
}

// List returns registered provider names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.providers))
}

// NewResolver instantiates the named providers with their configuration and
// returns a Resolver over them. On failure, providers already created are
// closed.
func (r *Registry) NewResolver(strict bool, configs map[string]map[string]any) (*Resolver, error) {
	var created []Provider
	for _, name := range slices.Sorted(maps.Keys(configs)) {
		p, err := r.Create(name, configs[name])
		if err != nil {
			for _, c := range created {
				err = errors.Join(err, c.Close())
			}
			return nil, err
		}
		created = append(created, p)
	}
	return NewResolver(strict, created...), nil
}

// DefaultRegistry is the global registry for secret providers. It has the
// "env" (cfg "prefix") and "file" (cfg "dir") providers registered.
var DefaultRegistry = newDefaultRegistry()

func newDefaultRegistry() *Registry {
	reg := NewRegistry()
	_ = reg.Register("env", func(cfg map[string]any) (Provider, error) {
		prefix, _ := cfg["prefix"].(string)
		return NewEnvProvider(prefix), nil
	})
	_ = reg.Register("file", func(cfg map[string]any) (Provider, error) {
		dir, _ := cfg["dir"].(string)
		if dir == "" {
			return nil, fmt.Errorf("%w: file provider requires dir", ErrInvalidRef)
		}
		return NewFileProvider(dir)
	})
	return reg
}
