package trustboundary

import (
	"context"
	"fmt"
	"sync"
)

// Registry manages provider registration and discovery.
// It provides thread-safe access to registered credential variants.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	factories map[string]ProviderFactory
}

// DefaultRegistry is the global provider registry.
// Credential variants register themselves via init() functions.
var DefaultRegistry = NewRegistry()

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		factories: make(map[string]ProviderFactory),
	}
}

// Register adds a provider to the registry.
// This is typically called from credential package init() functions.
func (r *Registry) Register(p Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("provider already registered: %s", name)
	}

	r.providers[name] = p
	return nil
}

// RegisterFactory adds a provider factory to the registry.
// Factories allow lazy/configured provider instantiation.
func (r *Registry) RegisterFactory(name string, f ProviderFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("provider factory already registered: %s", name)
	}

	r.factories[name] = f
	return nil
}

// Get retrieves a registered provider by name.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.providers[name]
	if !exists {
		return nil, ErrNotFound("provider", name)
	}
	return p, nil
}

// GetOrCreate retrieves a provider or creates one using the factory.
func (r *Registry) GetOrCreate(ctx context.Context, name string, config map[string]interface{}) (Provider, error) {
	// First try to get an existing provider
	r.mu.RLock()
	p, exists := r.providers[name]
	r.mu.RUnlock()

	if exists {
		return p, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock
	if p, exists = r.providers[name]; exists {
		return p, nil
	}

	factory, exists := r.factories[name]
	if !exists {
		return nil, ErrNotFound("provider or factory", name)
	}

	p, err := factory.Create(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider %s: %w", name, err)
	}

	r.providers[name] = p
	return p, nil
}

// List returns all registered provider names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}

// ListByCapability returns providers that have a specific capability.
func (r *Registry) ListByCapability(cap Capability) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for name, p := range r.providers {
		if p.HasCapability(cap) {
			names = append(names, name)
		}
	}
	return names
}

// Capabilities returns capabilities for a provider.
func (r *Registry) Capabilities(name string) ([]Capability, error) {
	p, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return p.Capabilities(), nil
}

// Unregister removes a provider from the registry.
// This is mainly useful for testing.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.providers, name)
}

// Clear removes all providers and factories from the registry.
// This is mainly useful for testing.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers = make(map[string]Provider)
	r.factories = make(map[string]ProviderFactory)
}

// Global convenience functions that use DefaultRegistry

// Register adds a provider to the default registry.
func Register(p Provider) error {
	return DefaultRegistry.Register(p)
}

// RegisterFactory adds a provider factory to the default registry.
func RegisterFactory(name string, f ProviderFactory) error {
	return DefaultRegistry.RegisterFactory(name, f)
}

// GetProvider retrieves a provider from the default registry.
func GetProvider(name string) (Provider, error) {
	return DefaultRegistry.Get(name)
}

// ListProviders returns all providers in the default registry.
func ListProviders() []string {
	return DefaultRegistry.List()
}

// ProviderInfo contains metadata about a registered provider.
type ProviderInfo struct {
	Name         string
	Capabilities []Capability
	Endpoint     string
}

// DescribeProviders returns detailed info about all registered providers.
func DescribeProviders() []ProviderInfo {
	registry := DefaultRegistry
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	var infos []ProviderInfo
	for name, p := range registry.providers {
		infos = append(infos, ProviderInfo{
			Name:         name,
			Capabilities: p.Capabilities(),
			Endpoint:     p.TrustBoundaryLookupEndpointURL(),
		})
	}
	return infos
}
