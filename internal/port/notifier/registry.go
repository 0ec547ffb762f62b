package notifier

import (
	"fmt"
	"slices"
	"sync"
)

// Factory builds a Notifier from per-request integration config.
type Factory func(config map[string]string) (Notifier, error)

// Registry maps provider names to factories. The zero value is ready to use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// Register adds a factory under name. Registering a name twice panics.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.factories == nil {
		r.factories = make(map[string]Factory)
	}
	if _, dup := r.factories[name]; dup {
		panic(fmt.Sprintf("notifier: duplicate registration for %q", name))
	}
	r.factories[name] = factory
}

// Build returns a Notifier for name configured with config.
func (r *Registry) Build(name string, config map[string]string) (Notifier, error) {
	r.mu.RLock()
	factory := r.factories[name]
	r.mu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("notifier: unknown provider %q", name)
	}
	return factory(config)
}

// Names lists registered providers in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// providers is filled by the adapter packages' init functions.
var providers Registry

// Register adds a factory to the process-wide registry.
func Register(name string, factory Factory) { providers.Register(name, factory) }

// New builds a notifier from the process-wide registry.
func New(name string, config map[string]string) (Notifier, error) {
	return providers.Build(name, config)
}

// Has reports whether the process-wide registry knows name.
func Has(name string) bool {
	return slices.Contains(providers.Names(), name)
}

// Available lists the providers in the process-wide registry.
func Available() []string { return providers.Names() }
