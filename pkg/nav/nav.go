// Package nav holds the back office navigation tree and filters it by the
// permissions the signed-in account holds.
package nav

import (
	"github.com/rubiojr/estatedesk/pkg/core"
	"github.com/rubiojr/estatedesk/pkg/permission"
)

// Item is one navigation entry. An empty Permission means always visible.
// Items with Children are groups; a group is shown only when at least one
// child is.
type Item struct {
	Key        string `json:"key"`
	Label      string `json:"label"`
	Path       string `json:"path,omitempty"`
	Permission string `json:"permission,omitempty"`
	Children   []Item `json:"children,omitempty"`
}

// Tree builds the navigation from the entity registry so permission
// overrides apply to menu entries too.
func Tree(registry *core.Registry) []Item {
	entity := func(t core.EntityType) Item {
		e, err := registry.Get(t)
		if err != nil {
			return Item{Key: string(t), Label: string(t), Path: "/" + string(t), Permission: "view_" + string(t)}
		}
		return Item{Key: string(t), Label: e.Label, Path: "/" + string(t), Permission: e.Permission}
	}

	return []Item{
		{Key: "dashboard", Label: "Dashboard", Path: "/"},
		{Key: "listings", Label: "Listings", Children: []Item{
			entity(core.Properties),
			entity(core.Estimates),
			entity(core.Visits),
		}},
		{Key: "people", Label: "People", Children: []Item{
			entity(core.Agents),
			entity(core.Managers),
			entity(core.Brokerages),
		}},
		{Key: "administration", Label: "Administration", Children: []Item{
			entity(core.Admins),
		}},
		{Key: "notifications", Label: "Notifications", Path: "/notifications"},
		{Key: "settings", Label: "Settings", Path: "/settings"},
	}
}

// Filter returns the items visible with granted. The input is not modified.
func Filter(items []Item, granted permission.Set) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it.Permission != "" && !granted.Has(it.Permission) {
			continue
		}
		if len(it.Children) > 0 {
			children := Filter(it.Children, granted)
			if len(children) == 0 {
				continue
			}
			it.Children = children
		}
		out = append(out, it)
	}
	return out
}

// Flatten lists leaf items depth first.
func Flatten(items []Item) []Item {
	var out []Item
	for _, it := range items {
		if len(it.Children) > 0 {
			out = append(out, Flatten(it.Children)...)
			continue
		}
		out = append(out, it)
	}
	return out
}
