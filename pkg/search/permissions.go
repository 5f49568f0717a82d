package search

import (
	"github.com/rubiojr/estatedesk/pkg/core"
	"github.com/rubiojr/estatedesk/pkg/permission"
)

// PermissionMap flags, per entity type, whether the caller may search it.
// Missing types are not allowed.
type PermissionMap map[core.EntityType]bool

// PermissionsFor derives the map from a granted permission set using each
// entity's required permission name.
func PermissionsFor(registry *core.Registry, granted permission.Set) PermissionMap {
	m := PermissionMap{}
	for _, e := range registry.All() {
		m[e.Type] = granted.Has(e.Permission)
	}
	return m
}

// AllowAll grants every entity type.
func AllowAll() PermissionMap {
	m := PermissionMap{}
	for _, t := range core.AllEntityTypes() {
		m[t] = true
	}
	return m
}

// Allowed reports whether t may be searched.
func (m PermissionMap) Allowed(t core.EntityType) bool {
	return m[t]
}

// Any reports whether at least one type is allowed.
func (m PermissionMap) Any() bool {
	for _, ok := range m {
		if ok {
			return true
		}
	}
	return false
}

// Restrict narrows the map to the listed types. An empty list keeps the
// map unchanged. Restrict never grants a type the map denies.
func (m PermissionMap) Restrict(types []core.EntityType) PermissionMap {
	out := PermissionMap{}
	if len(types) == 0 {
		for t, ok := range m {
			out[t] = ok
		}
		return out
	}
	wanted := make(map[core.EntityType]bool, len(types))
	for _, t := range types {
		wanted[t] = true
	}
	for t, ok := range m {
		out[t] = ok && wanted[t]
	}
	return out
}
