package backend

import (
	"context"
	"net/http"

	"github.com/rubiojr/estatedesk/pkg/core"
	"github.com/rubiojr/estatedesk/pkg/permission"
)

// Profile is the authenticated account as reported by the backend.
type Profile struct {
	ID          any                       `json:"id"`
	Name        string                    `json:"name"`
	Email       string                    `json:"email"`
	Role        string                    `json:"role"`
	Permissions permission.Representation `json:"permissions"`
}

// IDString renders the profile identifier whether it arrived as a number
// or a string.
func (p *Profile) IDString() string {
	return core.Record{"id": p.ID}.ID()
}

// Me returns the profile behind the configured token. The backend answers
// either {"user": {...}} or the bare profile object.
func (c *Client) Me(ctx context.Context) (*Profile, error) {
	var payload struct {
		User *Profile `json:"user"`
		Profile
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &payload); err != nil {
		return nil, err
	}
	if payload.User != nil {
		return payload.User, nil
	}
	p := payload.Profile
	return &p, nil
}
