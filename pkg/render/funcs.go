package render

import (
	"encoding/json"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/rubiojr/estatedesk/pkg/core"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// RecordRenderer renders one record of an entity type to trusted HTML.
// Implementations escape every record field they emit.
type RecordRenderer interface {
	Render(entity core.Entity, record core.Record) template.HTML
	CanRender(t core.EntityType) bool
	EntityType() core.EntityType
}

// TemplateData is passed to every record template.
type TemplateData struct {
	Entity   core.Entity
	Record   core.Record
	Title    string
	Subtitle string
	URL      string
}

func newTemplateData(entity core.Entity, record core.Record) TemplateData {
	return TemplateData{
		Entity:   entity,
		Record:   record,
		Title:    record.DisplayName(),
		Subtitle: record.Subtitle(),
		URL:      entity.RecordURL(record.ID()),
	}
}

var globalRenderers []RecordRenderer

// RegisterRenderer adds a renderer to the set picked up by GetGlobalRegistry.
// Called from init().
func RegisterRenderer(renderer RecordRenderer) {
	if renderer == nil {
		return
	}
	globalRenderers = append(globalRenderers, renderer)
}

func GetRegisteredRenderers() []RecordRenderer {
	out := make([]RecordRenderer, len(globalRenderers))
	copy(out, globalRenderers)
	return out
}

// FormatTime renders t relative to now.
func FormatTime(t time.Time) string {
	now := time.Now()
	diff := now.Sub(t)
	switch {
	case diff < 0:
		return t.Format("Jan 2, 2006 15:04")
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		m := int(diff.Minutes())
		if m == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", m)
	case diff < 24*time.Hour:
		h := int(diff.Hours())
		if h == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", h)
	case diff < 7*24*time.Hour:
		d := int(diff.Hours() / 24)
		if d == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", d)
	default:
		return t.Format("Jan 2, 2006")
	}
}

// FormatDate parses the common backend timestamp layouts and renders them
// for display. Unparseable values are returned unchanged.
func FormatDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			if layout == "2006-01-02" {
				return t.Format("Jan 2, 2006")
			}
			return t.Format("Jan 2, 2006 15:04")
		}
	}
	return s
}

// FormatMoney renders a numeric amount with thousands separators. Non
// numeric values are returned as-is.
func FormatMoney(v any) string {
	var f float64
	switch t := v.(type) {
	case nil:
		return ""
	case float64:
		f = t
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return message.NewPrinter(language.English).Sprintf("%d", n)
		}
		parsed, err := t.Float64()
		if err != nil {
			return t.String()
		}
		f = parsed
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return t
		}
		f = parsed
	default:
		return fmt.Sprint(t)
	}
	p := message.NewPrinter(language.English)
	if f == float64(int64(f)) {
		return p.Sprintf("%d", int64(f))
	}
	return p.Sprintf("%.2f", f)
}

// Truncate shortens s to at most length runes, adding an ellipsis.
func Truncate(s string, length int) string {
	r := []rune(s)
	if len(r) <= length {
		return s
	}
	if length <= 3 {
		return string(r[:length])
	}
	return string(r[:length-3]) + "..."
}

// Title title-cases s ("under_offer" becomes "Under Offer"). Casers keep
// state, so each call gets its own.
func Title(s string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(strings.TrimSpace(s), "_", " "))
}

func GetTemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatTime":  FormatTime,
		"formatDate":  FormatDate,
		"formatMoney": FormatMoney,
		"truncate":    Truncate,
		"title":       Title,
		"field": func(r core.Record, key string) string {
			return r.String(key)
		},
		"raw": func(r core.Record, key string) any {
			return r[key]
		},
		"default": func(def, val string) string {
			if strings.TrimSpace(val) == "" {
				return def
			}
			return val
		},
		"lower": strings.ToLower,
		"join":  strings.Join,
	}
}
