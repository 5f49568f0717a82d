package core

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Record is one loosely-typed item returned by the backend. Only an
// identifier is guaranteed; display fields vary by entity type.
type Record map[string]any

// ID returns the record identifier as a string, looking at "id" then "_id".
func (r Record) ID() string {
	for _, key := range []string{"id", "_id"} {
		if v, ok := r[key]; ok && v != nil {
			return stringify(v)
		}
	}
	return ""
}

// String returns the field as a string, or "" when absent.
func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(stringify(v))
}

// DisplayName picks the best human label available for the record.
func (r Record) DisplayName() string {
	for _, key := range []string{"title", "name", "full_name", "company_name", "brokerage_name"} {
		if s := r.String(key); s != "" {
			return s
		}
	}
	first, last := r.String("first_name"), r.String("last_name")
	if full := strings.TrimSpace(first + " " + last); full != "" {
		return full
	}
	for _, key := range []string{"email", "address", "reference"} {
		if s := r.String(key); s != "" {
			return s
		}
	}
	if id := r.ID(); id != "" {
		return "#" + id
	}
	return "(unnamed)"
}

// Subtitle returns a secondary line: address, email, status or date,
// whichever is present first and differs from DisplayName.
func (r Record) Subtitle() string {
	name := r.DisplayName()
	for _, key := range []string{"address", "city", "email", "phone", "status", "scheduled_at", "date"} {
		if s := r.String(key); s != "" && s != name {
			return s
		}
	}
	return ""
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case fmt.Stringer:
		return t.String()
	case map[string]any, []any:
		return ""
	default:
		return fmt.Sprint(t)
	}
}
