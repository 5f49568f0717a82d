package types

import (
	"github.com/rubiojr/estatedesk/pkg/nav"
	"github.com/rubiojr/estatedesk/pkg/notify"
	"github.com/rubiojr/estatedesk/pkg/render"
)

// PageData represents data passed to templates
type PageData struct {
	Title  string
	Path   string
	Query  string
	Nav    []nav.Item
	Menu   *notify.Menu
	Groups []render.Group
	Total  int
	Limit  int
	// DebounceMS configures the live search box script.
	DebounceMS int64
	Account    Account
	Error      string
	Version    string
}

// Account is the signed-in identity shown in the header.
type Account struct {
	Name   string
	Email  string
	Role   string
	Source string
}
