package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dcshock/corridor/pipeline"
)

// Factory builds a step from the args of a StepRef.
type Factory func(args map[string]interface{}) (pipeline.Binding, error)

type entry struct {
	binding pipeline.Binding
	factory Factory
}

// Registry maps step names to bindings or factories. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewRegistry returns an empty step registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds a binding (a pipeline.Step or pipeline.Binder) under name.
// Overwrites any existing registration.
func (r *Registry) Register(name string, b pipeline.Binding) {
	r.set(name, entry{binding: b})
}

// RegisterFactory adds a factory under name for steps that take args.
// Overwrites any existing registration.
func (r *Registry) RegisterFactory(name string, f Factory) {
	r.set(name, entry{factory: f})
}

func (r *Registry) set(name string, e entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries == nil {
		r.entries = make(map[string]entry)
	}
	r.entries[name] = e
}

// Get returns the binding registered under name. Factories are called without args.
func (r *Registry) Get(name string) (pipeline.Binding, bool) {
	b, err := r.Resolve(StepRef{Name: name})
	return b, err == nil
}

// MustGet returns the binding for name, or panics if not found.
func (r *Registry) MustGet(name string) pipeline.Binding {
	b, err := r.Resolve(StepRef{Name: name})
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return b
}

// Resolve returns the binding for ref, passing ref.Args to a factory.
// Args given for a plain binding are an error.
func (r *Registry) Resolve(ref StepRef) (pipeline.Binding, error) {
	r.mu.RLock()
	e, ok := r.entries[ref.Name]
	r.mu.RUnlock()
	switch {
	case !ok:
		return nil, fmt.Errorf("step %q not registered", ref.Name)
	case e.factory != nil:
		b, err := e.factory(ref.Args)
		if err != nil {
			return nil, fmt.Errorf("step %q: %w", ref.Name, err)
		}
		return b, nil
	case len(ref.Args) > 0:
		return nil, fmt.Errorf("step %q takes no args", ref.Name)
	default:
		return e.binding, nil
	}
}

// Names returns all registered step names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for n := range r.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
