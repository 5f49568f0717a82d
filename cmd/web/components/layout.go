package components

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"
	"github.com/rubiojr/estatedesk/cmd/web/components/types"
	"github.com/rubiojr/estatedesk/pkg/nav"
)

// Layout renders the page shell: top bar with the live search box, the
// permission filtered sidebar and the footer. Page content is passed as
// templ children.
func Layout(data types.PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		children := templ.GetChildren(ctx)
		ctx = templ.ClearChildren(ctx)

		h := &htmlWriter{w: w}
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1"><title>`)
		h.text(data.Title)
		h.raw(`</title><link rel="stylesheet" href="/static/style.css"></head><body>`)
		topbar(h, data)
		h.raw(`<div class="shell">`)
		sidebar(h, data.Nav, data.Path)
		h.raw(`<main>`)
		if data.Error != "" {
			h.raw(`<div class="error">`)
			h.text(data.Error)
			h.raw(`</div>`)
		}
		if h.err != nil {
			return h.err
		}
		if err := children.Render(ctx, w); err != nil {
			return err
		}
		h.raw(`</main></div><footer>estatedesk `)
		h.text(data.Version)
		h.raw(`</footer><script src="/static/app.js"></script></body></html>`)
		return h.err
	})
}

func topbar(h *htmlWriter, data types.PageData) {
	h.raw(`<header class="topbar"><a class="brand" href="/">estatedesk</a>`)
	h.raw(`<form class="search-box" action="/search" method="get" autocomplete="off">`)
	h.raw(`<input id="live-search" type="search" name="q" placeholder="Search properties, people, visits..." value="`)
	h.text(data.Query)
	h.raw(`" data-debounce="` + strconv.FormatInt(data.DebounceMS, 10) + `" data-limit="` + strconv.Itoa(data.Limit) + `">`)
	h.raw(`<div id="live-results" class="live-results" hidden></div></form>`)

	unread := ""
	if data.Menu != nil {
		unread = Badge(data.Menu.Unread)
	}
	h.raw(`<a class="notifications" href="/api/notifications" title="Notifications">Notifications <span id="unread-badge" class="badge">`)
	h.text(unread)
	h.raw(`</span></a>`)

	if acct := data.Account; acct.Name != "" || acct.Email != "" {
		label := acct.Name
		if label == "" {
			label = acct.Email
		}
		h.raw(`<span class="account" title="`)
		h.text(acct.Email)
		h.raw(`">`)
		h.text(label)
		if acct.Role != "" {
			h.text(" · " + acct.Role)
		}
		h.raw(`</span>`)
	}
	h.raw(`</header>`)
}

func sidebar(h *htmlWriter, items []nav.Item, current string) {
	h.raw(`<nav class="sidebar"><ul>`)
	for _, item := range items {
		if len(item.Children) == 0 {
			navLink(h, item, current)
			continue
		}
		h.raw(`<li class="nav-group"><span>`)
		h.text(item.Label)
		h.raw(`</span><ul>`)
		for _, child := range item.Children {
			navLink(h, child, current)
		}
		h.raw(`</ul></li>`)
	}
	h.raw(`</ul></nav>`)
}

func navLink(h *htmlWriter, item nav.Item, current string) {
	h.raw(`<li class="` + NavClass(item, current) + `"><a href="`)
	h.text(string(templ.URL(item.Path)))
	h.raw(`">`)
	h.text(item.Label)
	h.raw(`</a></li>`)
}

// htmlWriter keeps the first write error so markup can be emitted without
// checking every call.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}
