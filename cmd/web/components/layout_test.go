package components

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rubiojr/estatedesk/cmd/web/components/types"
	"github.com/rubiojr/estatedesk/pkg/nav"
	"github.com/rubiojr/estatedesk/pkg/notify"
)

func renderIndex(t *testing.T, data types.PageData) string {
	t.Helper()
	var buf bytes.Buffer
	if err := Index(data).Render(context.Background(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}

func TestLayoutWrapsPageContent(t *testing.T) {
	out := renderIndex(t, types.PageData{
		Title: "Dashboard <estatedesk>",
		Path:  "/agents",
		Nav: []nav.Item{
			{Key: "people", Label: "People", Children: []nav.Item{
				{Key: "agents", Label: "Agents", Path: "/agents"},
				{Key: "managers", Label: "Managers", Path: "/managers"},
			}},
		},
		Menu:       &notify.Menu{Unread: 120, Total: 130},
		Account:    types.Account{Email: "ann@example.com", Role: "agent"},
		DebounceMS: 300,
		Limit:      5,
		Version:    "v1",
	})

	for _, want := range []string{
		"<title>Dashboard &lt;estatedesk&gt;</title>",
		`<li class="nav-item active"><a href="/agents">Agents</a></li>`,
		`<li class="nav-item"><a href="/managers">Managers</a></li>`,
		`data-debounce="300" data-limit="5"`,
		`class="badge">99+</span>`,
		"ann@example.com · agent",
		"<h1>Dashboard</h1>",
		"No notifications.",
		"<footer>estatedesk v1</footer>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}
	if strings.Index(out, "<h1>Dashboard</h1>") > strings.Index(out, "</main>") {
		t.Errorf("page content must render inside main")
	}
}

func TestLayoutShowsErrorBanner(t *testing.T) {
	out := renderIndex(t, types.PageData{Title: "x", Error: "Could not load <permissions>"})
	if !strings.Contains(out, `<div class="error">Could not load &lt;permissions&gt;</div>`) {
		t.Fatalf("expected escaped error banner")
	}
	if strings.Contains(out, `class="account"`) {
		t.Fatalf("anonymous page must not show an account")
	}
}
