package search

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rubiojr/estatedesk/pkg/core"
)

// Params is a search request decoded from an HTTP query string.
type Params struct {
	// Query is the free-text search; may be empty.
	Query string
	// Limit is the per-entity record cap (DefaultLimit when absent).
	Limit int
	// Entities narrows the search to these types. Empty means every type the
	// caller may see.
	Entities []core.EntityType
}

// ParseParams reads:
//   - q: search text
//   - limit: positive integer, capped at MaxLimit
//   - entity: entity type filter, repeatable or comma separated
//
// Unknown entity names are an error; a malformed limit falls back to the
// default.
func ParseParams(queryParams map[string][]string) (Params, error) {
	params := Params{Limit: DefaultLimit}

	if q := queryParams["q"]; len(q) > 0 {
		params.Query = strings.TrimSpace(q[0])
	}

	if limitStr := queryParams["limit"]; len(limitStr) > 0 && limitStr[0] != "" {
		if parsed, err := strconv.Atoi(limitStr[0]); err == nil && parsed > 0 {
			params.Limit = clampLimit(parsed)
		}
	}

	seen := map[core.EntityType]bool{}
	for _, raw := range queryParams["entity"] {
		for _, name := range strings.Split(raw, ",") {
			if strings.TrimSpace(name) == "" {
				continue
			}
			t, err := core.ParseEntityType(name)
			if err != nil {
				return params, fmt.Errorf("invalid entity filter: %w", err)
			}
			if !seen[t] {
				seen[t] = true
				params.Entities = append(params.Entities, t)
			}
		}
	}

	return params, nil
}
