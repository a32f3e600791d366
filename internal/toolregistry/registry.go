package toolregistry

import (
	"errors"
	"fmt"
	"sync"

	"tinygpt/internal/tool"
)

var (
	// ErrDuplicateName is returned when registering a name twice.
	ErrDuplicateName = errors.New("tool already registered")
	// ErrNotFound is returned for lookups of unregistered names.
	ErrNotFound = errors.New("tool not found")
)

// Snapshot is one registry entry as reported by List, for discovery and
// the administration surface.
type Snapshot struct {
	Name       string               `json:"name"`
	Category   string               `json:"category"`
	Enabled    bool                 `json:"enabled"`
	Definition tool.Definition      `json:"definition"`
	Schema     tool.ParameterSchema `json:"parameters"`
}

type entry struct {
	executor tool.Executor
	enabled  bool
}

// Registry holds the set of capability tools. Tools are registered at
// startup and never removed; disabling is the supported deactivation path.
// Toggles and lookups are linearizable under the mutex.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	order   []string
}

func New() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Register adds an executor, enabled, keyed by its metadata name.
func (r *Registry) Register(executor tool.Executor) error {
	name := executor.Metadata().Name
	if name == "" {
		return fmt.Errorf("tool has empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	r.entries[name] = &entry{executor: executor, enabled: true}
	r.order = append(r.order, name)
	return nil
}

// Get returns the executor and its enabled state.
func (r *Registry) Get(name string) (tool.Executor, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return nil, false, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return e.executor, e.enabled, nil
}

// SetEnabled toggles a tool and returns its previous state.
func (r *Registry) SetEnabled(name string, enabled bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[name]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	previous := e.enabled
	e.enabled = enabled
	return previous, nil
}

// List returns snapshots in registration order.
func (r *Registry) List() []Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Snapshot, 0, len(r.order))
	for _, name := range r.order {
		e := r.entries[name]
		def := e.executor.Definition()
		out = append(out, Snapshot{
			Name:       name,
			Category:   e.executor.Metadata().Category,
			Enabled:    e.enabled,
			Definition: def,
			Schema:     def.Parameters,
		})
	}
	return out
}
