package components

import (
	"context"
	"embed"
	"html/template"
	"io"

	"github.com/a-h/templ"
	"github.com/rubiojr/estatedesk/cmd/web/components/types"
	"github.com/rubiojr/estatedesk/pkg/render"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	indexTemplate  = mustContent("index.html")
	searchTemplate = mustContent("search.html")
)

// mustContent parses the body of a page; the shell comes from Layout.
func mustContent(name string) *template.Template {
	return template.Must(template.New(name).Funcs(render.GetTemplateFuncs()).ParseFS(templateFS, "templates/"+name))
}

func page(data types.PageData, content *template.Template) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		ctx = templ.WithChildren(ctx, templ.FromGoHTML(content, data))
		return Layout(data).Render(ctx, w)
	})
}

// Index renders the dashboard.
func Index(data types.PageData) templ.Component {
	return page(data, indexTemplate)
}

// Search renders the server side search results page.
func Search(data types.PageData) templ.Component {
	return page(data, searchTemplate)
}
