package render

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rubiojr/estatedesk/pkg/core"
)

func TestGlobalRegistryHasEntityRenderers(t *testing.T) {
	reg := GetGlobalRegistry()
	for _, et := range []core.EntityType{core.Properties, core.Agents, core.Managers, core.Admins, core.Brokerages, core.Estimates, core.Visits} {
		if reg.GetRenderer(et) == nil {
			t.Fatalf("no renderer registered for %s", et)
		}
	}
	if len(reg.ListEntityTypes()) != 7 {
		t.Fatalf("expected 7 renderer types, got %v", reg.ListEntityTypes())
	}
}

func TestPropertyRenderer(t *testing.T) {
	svc := NewService(nil, nil)
	item := svc.RenderRecord(core.Properties, core.Record{
		"id":      float64(42),
		"title":   "Smith House",
		"address": "1 Main St",
		"city":    "Springfield",
		"price":   float64(1250000),
		"status":  "under_offer",
	})

	if item.ID != "42" || item.URL != "/properties/42" {
		t.Fatalf("unexpected item %+v", item)
	}
	html := string(item.HTML)
	for _, want := range []string{"Smith House", "1 Main St, Springfield", "1,250,000", "Under Offer", `href="/properties/42"`} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in %s", want, html)
		}
	}
}

func TestRendererEscapesFields(t *testing.T) {
	svc := NewService(nil, nil)
	item := svc.RenderRecord(core.Agents, core.Record{"id": "1", "name": "<script>alert(1)</script>"})
	if strings.Contains(string(item.HTML), "<script>") {
		t.Fatalf("record fields must be escaped: %s", item.HTML)
	}
}

func TestDefaultRendererFallback(t *testing.T) {
	reg := NewRendererRegistry()
	out := reg.Render(core.Entity{Type: core.Visits, WebPath: "/visits/{id}"}, core.Record{"id": 3, "reference": "V-3"})
	if !strings.Contains(string(out), "V-3") || !strings.Contains(string(out), "/visits/3") {
		t.Fatalf("unexpected default output %s", out)
	}
}

func TestRenderResultsKeepsEmptySlots(t *testing.T) {
	svc := NewService(nil, nil)
	rs := core.NewResultSet()
	rs[core.Agents] = []core.Record{{"id": 1, "name": "Ann"}}

	out := svc.RenderResults(rs)
	if len(out) != 7 {
		t.Fatalf("expected 7 slots, got %d", len(out))
	}
	if out[core.Visits] == nil || len(out[core.Visits]) != 0 {
		t.Fatalf("empty slot should be an empty slice")
	}

	groups := svc.Groups(rs)
	if len(groups) != 1 || groups[0].Label != "Agents" {
		t.Fatalf("unexpected groups %+v", groups)
	}
}

func TestFormatters(t *testing.T) {
	if got := FormatMoney("2500.5"); got != "2,500.50" {
		t.Fatalf("FormatMoney = %q", got)
	}
	if got := FormatMoney(json.Number("1250000")); got != "1,250,000" {
		t.Fatalf("FormatMoney(json.Number) = %q", got)
	}
	if got := FormatMoney(json.Number("99.5")); got != "99.50" {
		t.Fatalf("FormatMoney(json.Number) = %q", got)
	}
	if got := FormatMoney("n/a"); got != "n/a" {
		t.Fatalf("non numeric value should pass through, got %q", got)
	}
	if got := FormatDate("2024-03-05"); got != "Mar 5, 2024" {
		t.Fatalf("FormatDate = %q", got)
	}
	if got := FormatDate("2024-03-05T14:30:00Z"); got != "Mar 5, 2024 14:30" {
		t.Fatalf("FormatDate = %q", got)
	}
	if got := Truncate("abcdefgh", 6); got != "abc..." {
		t.Fatalf("Truncate = %q", got)
	}
	if got := Title("pending_review"); got != "Pending Review" {
		t.Fatalf("Title = %q", got)
	}
	if got := FormatTime(time.Now().Add(-2 * time.Hour)); got != "2 hours ago" {
		t.Fatalf("FormatTime = %q", got)
	}
}
