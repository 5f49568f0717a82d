package render

import (
	"embed"
	"html/template"
	"strings"

	"github.com/rubiojr/estatedesk/pkg/core"
)

//go:embed templates/*.html
var templateFS embed.FS

// TemplateRenderer renders one entity type with an embedded template.
type TemplateRenderer struct {
	entityType core.EntityType
	template   *template.Template
}

func init() {
	for file, types := range map[string][]core.EntityType{
		"templates/property.html":  {core.Properties},
		"templates/person.html":    {core.Agents, core.Managers, core.Admins},
		"templates/brokerage.html": {core.Brokerages},
		"templates/estimate.html":  {core.Estimates},
		"templates/visit.html":     {core.Visits},
	} {
		for _, t := range types {
			if r := NewTemplateRenderer(t, file); r != nil {
				RegisterRenderer(r)
			}
		}
	}
}

// NewTemplateRenderer parses the embedded template file for t. It returns
// nil when the template is missing or invalid.
func NewTemplateRenderer(t core.EntityType, file string) *TemplateRenderer {
	src, err := templateFS.ReadFile(file)
	if err != nil {
		return nil
	}
	tmpl, err := template.New(string(t)).Funcs(GetTemplateFuncs()).Parse(string(src))
	if err != nil {
		return nil
	}
	return &TemplateRenderer{entityType: t, template: tmpl}
}

func (r *TemplateRenderer) Render(entity core.Entity, record core.Record) template.HTML {
	var buf strings.Builder
	if err := r.template.Execute(&buf, newTemplateData(entity, record)); err != nil {
		return template.HTML("<!-- " + string(r.entityType) + " renderer error -->")
	}
	return template.HTML(buf.String())
}

func (r *TemplateRenderer) CanRender(t core.EntityType) bool {
	return t == r.entityType
}

func (r *TemplateRenderer) EntityType() core.EntityType {
	return r.entityType
}

// DefaultRenderer shows the display name, subtitle and a link for any
// record.
type DefaultRenderer struct {
	tmpl *template.Template
}

func NewDefaultRenderer() *DefaultRenderer {
	src, err := templateFS.ReadFile("templates/default.html")
	if err == nil {
		if t, err := template.New("default_renderer").Funcs(GetTemplateFuncs()).Parse(string(src)); err == nil {
			return &DefaultRenderer{tmpl: t}
		}
	}
	fallback := template.Must(template.New("fallback").Parse(`<div class="record">{{.Title}}</div>`))
	return &DefaultRenderer{tmpl: fallback}
}

func (r *DefaultRenderer) Render(entity core.Entity, record core.Record) template.HTML {
	if record == nil {
		return template.HTML("<!-- nil record -->")
	}
	var buf strings.Builder
	if err := r.tmpl.Execute(&buf, newTemplateData(entity, record)); err != nil {
		return template.HTML("<!-- default renderer error -->")
	}
	return template.HTML(buf.String())
}

// CanRender always returns true (catch-all fallback).
func (r *DefaultRenderer) CanRender(core.EntityType) bool { return true }

// EntityType returns "" to denote generic applicability.
func (r *DefaultRenderer) EntityType() core.EntityType { return "" }
