// Package account resolves the signed-in user's profile and permission set.
// Permissions come from the backend profile unless a static list is
// configured, which then takes precedence.
package account

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rubiojr/estatedesk/pkg/backend"
	"github.com/rubiojr/estatedesk/pkg/log"
	"github.com/rubiojr/estatedesk/pkg/permission"
)

// DefaultProfileTTL bounds how long a fetched profile is reused.
const DefaultProfileTTL = time.Minute

// ErrNoSource is returned when neither a backend nor a static list is set.
var ErrNoSource = errors.New("no profile source configured")

// ProfileSource fetches the current profile. *backend.Client satisfies it.
type ProfileSource interface {
	Me(ctx context.Context) (*backend.Profile, error)
}

type Resolver struct {
	source ProfileSource
	ttl    time.Duration
	now    func() time.Time
	logger *log.Logger

	mu        sync.RWMutex
	static    permission.Set
	hasStatic bool
	profile   *backend.Profile
	fetchedAt time.Time
}

func NewResolver(source ProfileSource) *Resolver {
	return &Resolver{
		source: source,
		ttl:    DefaultProfileTTL,
		now:    time.Now,
		logger: log.ForService("account"),
	}
}

// SetStatic installs a static permission list. A nil slice removes the
// override; an empty non-nil slice grants nothing.
func (r *Resolver) SetStatic(names []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if names == nil {
		r.static, r.hasStatic = nil, false
		return
	}
	r.static, r.hasStatic = permission.NewSet(names...), true
}

// Static returns the override, if any.
func (r *Resolver) Static() (permission.Set, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.static, r.hasStatic
}

// Invalidate drops the cached profile.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profile = nil
}

// Profile returns the current profile, fetching it when the cached copy is
// older than the TTL.
func (r *Resolver) Profile(ctx context.Context) (*backend.Profile, error) {
	r.mu.RLock()
	cached, fetchedAt := r.profile, r.fetchedAt
	r.mu.RUnlock()
	if cached != nil && r.now().Sub(fetchedAt) < r.ttl {
		return cached, nil
	}

	if r.source == nil {
		return nil, ErrNoSource
	}
	profile, err := r.source.Me(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching profile: %w", err)
	}

	r.mu.Lock()
	r.profile, r.fetchedAt = profile, r.now()
	r.mu.Unlock()
	r.logger.Debugf("loaded profile %s (%s) with %d permissions", profile.Email, profile.Role, profile.Permissions.Set().Len())
	return profile, nil
}

// Permissions returns the granted permission set. The static override wins
// and needs no backend call.
func (r *Resolver) Permissions(ctx context.Context) (permission.Set, error) {
	if set, ok := r.Static(); ok {
		return set, nil
	}
	profile, err := r.Profile(ctx)
	if err != nil {
		return nil, err
	}
	if profile.Permissions.Kind == permission.KindInvalid {
		r.logger.Warnf("profile permissions have an unrecognised shape, granting nothing")
	}
	return profile.Permissions.Set(), nil
}
