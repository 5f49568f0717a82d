// Package permission normalizes the permission lists returned by the backend
// and answers "is this permission granted" questions.
//
// The backend reports a user's permissions in one of two shapes:
//
//	["view_properties", "view_agents"]
//	[{"name": "view_properties"}, {"code": "view_agents", "permission": "edit_agents"}]
//
// Both are parsed into a Representation once, at the boundary, and then
// flattened into a Set. Anything else (numbers, objects, mixed arrays) is an
// invalid representation and grants nothing.
package permission

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Kind tags the shape a permission list arrived in.
type Kind int

const (
	KindAbsent Kind = iota
	KindStrings
	KindObjects
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindStrings:
		return "strings"
	case KindObjects:
		return "objects"
	default:
		return "invalid"
	}
}

// Object is one entry of the object-shaped permission list.
type Object struct {
	Name       string
	Code       string
	Permission string
}

// Representation is the parsed, shape-tagged permission list.
type Representation struct {
	Kind    Kind
	Strings []string
	Objects []Object
}

// Parse inspects a decoded JSON value (or a Go slice built by hand) and
// returns its tagged representation. It never panics.
func Parse(raw any) Representation {
	switch v := raw.(type) {
	case nil:
		return Representation{Kind: KindAbsent}
	case Representation:
		return v
	case []string:
		if len(v) == 0 {
			return Representation{Kind: KindAbsent}
		}
		return Representation{Kind: KindStrings, Strings: append([]string(nil), v...)}
	case []Object:
		if len(v) == 0 {
			return Representation{Kind: KindAbsent}
		}
		return Representation{Kind: KindObjects, Objects: append([]Object(nil), v...)}
	case []map[string]any:
		items := make([]any, len(v))
		for i := range v {
			items[i] = v[i]
		}
		return parseSlice(items)
	case []any:
		return parseSlice(v)
	default:
		return Representation{Kind: KindInvalid}
	}
}

func parseSlice(items []any) Representation {
	if len(items) == 0 {
		return Representation{Kind: KindAbsent}
	}
	switch items[0].(type) {
	case string:
		out := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				return Representation{Kind: KindInvalid}
			}
			out = append(out, s)
		}
		return Representation{Kind: KindStrings, Strings: out}
	case map[string]any:
		out := make([]Object, 0, len(items))
		for _, item := range items {
			m, ok := item.(map[string]any)
			if !ok {
				return Representation{Kind: KindInvalid}
			}
			out = append(out, Object{
				Name:       stringField(m, "name"),
				Code:       stringField(m, "code"),
				Permission: stringField(m, "permission"),
			})
		}
		return Representation{Kind: KindObjects, Objects: out}
	default:
		return Representation{Kind: KindInvalid}
	}
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// UnmarshalJSON lets a Representation be embedded directly in API payloads.
func (r *Representation) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = Representation{Kind: KindAbsent}
		return nil
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		*r = Representation{Kind: KindInvalid}
		return nil
	}
	*r = Parse(raw)
	return nil
}

// MarshalJSON writes the normalized names as a string array.
func (r Representation) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Set().Names())
}

// Set flattens the representation into the canonical name set.
func (r Representation) Set() Set {
	s := Set{}
	switch r.Kind {
	case KindStrings:
		for _, name := range r.Strings {
			s.add(name)
		}
	case KindObjects:
		for _, o := range r.Objects {
			s.add(o.Name)
			s.add(o.Code)
			s.add(o.Permission)
		}
	}
	return s
}

// Set is the collection of granted permission names.
type Set map[string]struct{}

// NewSet builds a Set from names, skipping empty ones.
func NewSet(names ...string) Set {
	s := Set{}
	for _, name := range names {
		s.add(name)
	}
	return s
}

// add stores name verbatim; membership is an exact string match.
func (s Set) add(name string) {
	if name == "" {
		return
	}
	s[name] = struct{}{}
}

// Has reports whether name is granted. A nil set grants nothing.
func (s Set) Has(name string) bool {
	if len(s) == 0 || name == "" {
		return false
	}
	_, ok := s[name]
	return ok
}

// Names returns the granted names sorted.
func (s Set) Names() []string {
	out := make([]string, 0, len(s))
	for name := range s {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Len is the number of granted names.
func (s Set) Len() int {
	return len(s)
}

// HasPermission answers whether name is granted by the raw permission list.
func HasPermission(name string, raw any) bool {
	return Parse(raw).Set().Has(name)
}
