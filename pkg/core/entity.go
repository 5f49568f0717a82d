package core

import (
	"fmt"
	"strings"
)

// EntityType tags one of the seven searchable backend collections.
type EntityType string

const (
	Properties EntityType = "properties"
	Agents     EntityType = "agents"
	Managers   EntityType = "managers"
	Brokerages EntityType = "brokerages"
	Estimates  EntityType = "estimates"
	Visits     EntityType = "visits"
	Admins     EntityType = "admins"
)

var allEntityTypes = []EntityType{
	Properties,
	Agents,
	Managers,
	Brokerages,
	Estimates,
	Visits,
	Admins,
}

// AllEntityTypes returns the entity types in display order.
func AllEntityTypes() []EntityType {
	out := make([]EntityType, len(allEntityTypes))
	copy(out, allEntityTypes)
	return out
}

// ParseEntityType accepts the tag in any case, plus singular forms
// ("agent", "property").
func ParseEntityType(s string) (EntityType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range allEntityTypes {
		if s == string(t) || s == t.Singular() {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown entity type %q", s)
}

// Valid reports whether t is one of the seven known tags.
func (t EntityType) Valid() bool {
	for _, known := range allEntityTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Singular returns the singular noun for the type ("property", "agent").
func (t EntityType) Singular() string {
	switch t {
	case Properties:
		return "property"
	default:
		return strings.TrimSuffix(string(t), "s")
	}
}

// Entity describes how one entity type is reached on the backend.
//
// LimitParam differs per endpoint: properties and admins page with
// "per_page", the rest with "limit".
type Entity struct {
	Type        EntityType
	Label       string
	Path        string
	LimitParam  string
	ResponseKey string
	FixedParams map[string]string
	// Permission is the permission name that grants searching this type.
	Permission string
	// WebPath is where the admin UI shows a single record, with {id}
	// replaced by the record identifier.
	WebPath string
}

// RecordURL returns the UI link for a record of this entity.
func (e Entity) RecordURL(id string) string {
	if e.WebPath == "" || id == "" {
		return ""
	}
	return strings.ReplaceAll(e.WebPath, "{id}", id)
}
