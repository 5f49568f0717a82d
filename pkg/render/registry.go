package render

import (
	"html/template"
	"sync"

	"github.com/rubiojr/estatedesk/pkg/core"
)

// RendererRegistry holds the entity specific renderers plus a fallback used
// when no renderer claims a record.
type RendererRegistry struct {
	mu              sync.RWMutex
	renderers       []RecordRenderer
	defaultRenderer RecordRenderer
}

// NewRendererRegistry creates an empty registry with the default fallback.
func NewRendererRegistry() *RendererRegistry {
	return &RendererRegistry{
		renderers:       make([]RecordRenderer, 0),
		defaultRenderer: NewDefaultRenderer(),
	}
}

// GetGlobalRegistry builds a registry from all init-registered renderers.
// Each call returns a fresh snapshot.
func GetGlobalRegistry() *RendererRegistry {
	reg := NewRendererRegistry()
	for _, r := range GetRegisteredRenderers() {
		reg.Register(r)
	}
	return reg
}

// Register adds a renderer. Earlier registrations win.
func (r *RendererRegistry) Register(renderer RecordRenderer) {
	if renderer == nil {
		return
	}
	r.mu.Lock()
	r.renderers = append(r.renderers, renderer)
	r.mu.Unlock()
}

// Render uses the first renderer that claims the entity type, falling back
// to the default renderer.
func (r *RendererRegistry) Render(entity core.Entity, record core.Record) template.HTML {
	if record == nil {
		return template.HTML("<!-- nil record -->")
	}
	if renderer := r.GetRenderer(entity.Type); renderer != nil {
		return renderer.Render(entity, record)
	}

	r.mu.RLock()
	def := r.defaultRenderer
	r.mu.RUnlock()
	if def != nil {
		return def.Render(entity, record)
	}
	return template.HTML("<!-- no renderer available -->")
}

// GetRenderer returns the specific renderer for t, or nil.
func (r *RendererRegistry) GetRenderer(t core.EntityType) RecordRenderer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, renderer := range r.renderers {
		if renderer.CanRender(t) {
			return renderer
		}
	}
	return nil
}

// ListEntityTypes returns the entity types with a specific renderer.
func (r *RendererRegistry) ListEntityTypes() []core.EntityType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]core.EntityType, 0, len(r.renderers))
	seen := make(map[core.EntityType]struct{})
	for _, ren := range r.renderers {
		t := ren.EntityType()
		if t == "" {
			continue
		}
		if _, exists := seen[t]; !exists {
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

// SetDefaultRenderer overrides the fallback renderer.
func (r *RendererRegistry) SetDefaultRenderer(rr RecordRenderer) {
	r.mu.Lock()
	r.defaultRenderer = rr
	r.mu.Unlock()
}

// DefaultRenderer returns the fallback renderer.
func (r *RendererRegistry) DefaultRenderer() RecordRenderer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultRenderer
}
