package render

import (
	"html/template"

	"github.com/rubiojr/estatedesk/pkg/core"
)

// Item is a record prepared for the UI and the live search socket.
type Item struct {
	ID       string        `json:"id"`
	Type     string        `json:"type"`
	Title    string        `json:"title"`
	Subtitle string        `json:"subtitle,omitempty"`
	URL      string        `json:"url,omitempty"`
	HTML     template.HTML `json:"html"`
}

// Group is one entity type's slice of a result set.
type Group struct {
	Type  core.EntityType `json:"type"`
	Label string          `json:"label"`
	Items []Item          `json:"items"`
}

// Service turns search results into display items. It is safe for
// concurrent use.
type Service struct {
	registry *RendererRegistry
	entities *core.Registry
}

// NewService creates a Service. A nil renderer registry uses the global one.
func NewService(reg *RendererRegistry, entities *core.Registry) *Service {
	if reg == nil {
		reg = GetGlobalRegistry()
	}
	if entities == nil {
		entities = core.GetGlobalRegistry()
	}
	return &Service{registry: reg, entities: entities}
}

// RenderRecord renders a single record of type t.
func (s *Service) RenderRecord(t core.EntityType, record core.Record) Item {
	entity, err := s.entities.Get(t)
	if err != nil {
		entity = core.Entity{Type: t}
	}
	data := newTemplateData(entity, record)
	return Item{
		ID:       record.ID(),
		Type:     string(t),
		Title:    data.Title,
		Subtitle: data.Subtitle,
		URL:      data.URL,
		HTML:     s.registry.Render(entity, record),
	}
}

// RenderResults renders every slot of rs. The map has one entry per entity
// type present in rs, with an empty (non-nil) slice for empty slots.
func (s *Service) RenderResults(rs core.ResultSet) map[core.EntityType][]Item {
	out := make(map[core.EntityType][]Item, len(rs))
	for t, records := range rs {
		items := make([]Item, 0, len(records))
		for _, r := range records {
			items = append(items, s.RenderRecord(t, r))
		}
		out[t] = items
	}
	return out
}

// Groups renders rs in display order, skipping empty slots.
func (s *Service) Groups(rs core.ResultSet) []Group {
	var groups []Group
	for _, e := range s.entities.All() {
		records := rs.Get(e.Type)
		if len(records) == 0 {
			continue
		}
		g := Group{Type: e.Type, Label: e.Label, Items: make([]Item, 0, len(records))}
		for _, r := range records {
			g.Items = append(g.Items, s.RenderRecord(e.Type, r))
		}
		groups = append(groups, g)
	}
	return groups
}
