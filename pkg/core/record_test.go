package core

import (
	"encoding/json"
	"testing"
)

func TestRecordID(t *testing.T) {
	cases := []struct {
		rec  Record
		want string
	}{
		{Record{"id": float64(42)}, "42"},
		{Record{"id": json.Number("9007199254740993")}, "9007199254740993"},
		{Record{"id": "abc"}, "abc"},
		{Record{"_id": "mongo-1"}, "mongo-1"},
		{Record{}, ""},
	}
	for _, c := range cases {
		if got := c.rec.ID(); got != c.want {
			t.Errorf("ID(%v): expected %q, got %q", c.rec, c.want, got)
		}
	}
}

func TestRecordDisplayName(t *testing.T) {
	cases := []struct {
		rec  Record
		want string
	}{
		{Record{"title": "Sea View Flat", "name": "ignored"}, "Sea View Flat"},
		{Record{"first_name": "Jane", "last_name": "Smith"}, "Jane Smith"},
		{Record{"email": "ops@example.com"}, "ops@example.com"},
		{Record{"id": float64(7)}, "#7"},
		{Record{}, "(unnamed)"},
	}
	for _, c := range cases {
		if got := c.rec.DisplayName(); got != c.want {
			t.Errorf("DisplayName(%v): expected %q, got %q", c.rec, c.want, got)
		}
	}
}

func TestRecordSubtitleSkipsDisplayName(t *testing.T) {
	rec := Record{"email": "a@example.com", "status": "active"}
	if got := rec.Subtitle(); got != "active" {
		t.Fatalf("expected status subtitle, got %q", got)
	}
}

func TestNewResultSetHasAllSlots(t *testing.T) {
	rs := NewResultSet()
	for _, typ := range AllEntityTypes() {
		records, ok := rs[typ]
		if !ok {
			t.Fatalf("slot %s missing", typ)
		}
		if records == nil || len(records) != 0 {
			t.Fatalf("slot %s should be an empty non-nil slice", typ)
		}
	}
	if !rs.Empty() {
		t.Fatalf("new result set should be empty")
	}
	rs[Agents] = append(rs[Agents], Record{"id": "1"})
	if rs.Total() != 1 {
		t.Fatalf("expected total 1, got %d", rs.Total())
	}
}
