package components

import (
	"strconv"
	"strings"

	"github.com/rubiojr/estatedesk/pkg/nav"
)

// NavClass returns the CSS class of a navigation entry, marking the one
// whose path prefixes the current page.
func NavClass(item nav.Item, current string) string {
	if item.Path == "" {
		return "nav-item"
	}
	if item.Path == current || (item.Path != "/" && strings.HasPrefix(current, item.Path+"/")) {
		return "nav-item active"
	}
	return "nav-item"
}

// Badge formats an unread counter, capping large values.
func Badge(n int) string {
	switch {
	case n <= 0:
		return ""
	case n > 99:
		return "99+"
	default:
		return strconv.Itoa(n)
	}
}
