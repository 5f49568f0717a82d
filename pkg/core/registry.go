package core

import (
	"fmt"
	"sync"
)

// Global registry populated by RegisterEntity during init().
var globalRegistry = &Registry{
	entities: make(map[EntityType]Entity),
}

// Registry holds the backend descriptor of each entity type.
type Registry struct {
	entities map[EntityType]Entity
	mu       sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		entities: make(map[EntityType]Entity),
	}
}

// RegisterEntity adds a descriptor to the global registry. Called from init().
func RegisterEntity(e Entity) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.entities[e.Type] = e
}

// GetGlobalRegistry returns a copy of the global registry so callers can
// apply overrides without affecting other users.
func GetGlobalRegistry() *Registry {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	registry := NewRegistry()
	for t, e := range globalRegistry.entities {
		registry.entities[t] = e
	}
	return registry
}

// Register adds an entity descriptor. Registering a type twice is an error.
func (r *Registry) Register(e Entity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !e.Type.Valid() {
		return fmt.Errorf("entity type %q is not a known type", e.Type)
	}
	if _, exists := r.entities[e.Type]; exists {
		return fmt.Errorf("entity %s already registered", e.Type)
	}
	r.entities[e.Type] = e
	return nil
}

// Get returns the descriptor for t.
func (r *Registry) Get(t EntityType) (Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.entities[t]
	if !exists {
		return Entity{}, fmt.Errorf("entity %s not registered", t)
	}
	return e, nil
}

// All returns registered descriptors in display order.
func (r *Registry) All() []Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entity, 0, len(r.entities))
	for _, t := range allEntityTypes {
		if e, ok := r.entities[t]; ok {
			out = append(out, e)
		}
	}
	return out
}

// OverridePermissions replaces the permission name of the given types.
// Unknown types and empty names are ignored.
func (r *Registry) OverridePermissions(overrides map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, perm := range overrides {
		t, err := ParseEntityType(name)
		if err != nil || perm == "" {
			continue
		}
		if e, ok := r.entities[t]; ok {
			e.Permission = perm
			r.entities[t] = e
		}
	}
}

// ResetPermissions restores the registered default permission of every
// type, then applies overrides. Config reloads use it so a removed override
// takes effect.
func (r *Registry) ResetPermissions(overrides map[string]string) {
	globalRegistry.mu.RLock()
	defaults := make(map[EntityType]string, len(globalRegistry.entities))
	for t, e := range globalRegistry.entities {
		defaults[t] = e.Permission
	}
	globalRegistry.mu.RUnlock()

	r.mu.Lock()
	for t, e := range r.entities {
		if perm, ok := defaults[t]; ok {
			e.Permission = perm
			r.entities[t] = e
		}
	}
	r.mu.Unlock()

	r.OverridePermissions(overrides)
}
