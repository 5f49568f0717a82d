package search

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rubiojr/estatedesk/pkg/backend"
	"github.com/rubiojr/estatedesk/pkg/core"
	"github.com/rubiojr/estatedesk/pkg/log"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultLimit is the per-entity record cap when none is given.
	DefaultLimit = 5
	// MaxLimit caps caller supplied limits.
	MaxLimit = 50
)

// Fetcher retrieves one page of records for an entity. *backend.Client
// satisfies it.
type Fetcher interface {
	ListEntity(ctx context.Context, entity core.Entity, params backend.ListParams) ([]core.Record, error)
}

// ErrorHook receives per-entity fetch failures after they have been folded
// into empty results.
type ErrorHook func(entity core.EntityType, err error)

// Service aggregates searches across entity types.
type Service struct {
	fetcher  Fetcher
	registry *core.Registry
	cache    *Cache
	onError  ErrorHook
	logger   *log.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCache replaces the default cache (for instance to share a clock in tests).
func WithCache(c *Cache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithRegistry sets the entity registry (defaults to the global one).
func WithRegistry(r *core.Registry) Option {
	return func(s *Service) {
		if r != nil {
			s.registry = r
		}
	}
}

// WithErrorHook installs a diagnostic hook for fetch failures.
func WithErrorHook(hook ErrorHook) Option {
	return func(s *Service) {
		s.onError = hook
	}
}

// NewService creates a search service reading through fetcher.
func NewService(fetcher Fetcher, opts ...Option) *Service {
	s := &Service{
		fetcher:  fetcher,
		registry: core.GetGlobalRegistry(),
		cache:    NewCache(DefaultCacheTTL),
		logger:   log.ForService("search"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the entity registry the service searches.
func (s *Service) Registry() *core.Registry {
	return s.registry
}

// Search runs query against every entity type granted in perms, at most
// limit records each. The returned set always has all seven slots. An empty
// query, or a map granting nothing, performs no fetch at all.
func (s *Service) Search(ctx context.Context, query string, limit int, perms PermissionMap) core.ResultSet {
	results := core.NewResultSet()

	q := strings.TrimSpace(query)
	if q == "" {
		return results
	}
	limit = clampLimit(limit)

	var targets []core.Entity
	for _, e := range s.registry.All() {
		if perms.Allowed(e.Type) {
			targets = append(targets, e)
		}
	}
	if len(targets) == 0 {
		return results
	}

	start := time.Now()
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for _, e := range targets {
		g.Go(func() error {
			records, err := s.fetchCached(ctx, e, q, limit)
			if err != nil {
				s.reportFailure(e.Type, q, err)
				return nil
			}
			mu.Lock()
			results[e.Type] = records
			mu.Unlock()
			return nil
		})
	}
	// Goroutines never return errors: every branch settles on its own.
	_ = g.Wait()

	s.logger.Debugf("searched %d entity types for %q in %s (%d records)", len(targets), q, time.Since(start), results.Total())
	return results
}

func (s *Service) fetchCached(ctx context.Context, e core.Entity, q string, limit int) ([]core.Record, error) {
	filters := map[string]string{"limit": strconv.Itoa(limit)}
	for k, v := range e.FixedParams {
		filters[k] = v
	}
	key := CacheKey(e.Type, q, filters)

	if records, ok := s.cache.Get(key); ok {
		return cloneRecords(records), nil
	}

	records, err := s.fetcher.ListEntity(ctx, e, backend.ListParams{Page: 1, Limit: limit, Search: q})
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []core.Record{}
	}
	s.cache.Set(key, records)
	return cloneRecords(records), nil
}

func (s *Service) reportFailure(t core.EntityType, q string, err error) {
	l := s.logger.With("entity", string(t)).With("query", q)
	if errors.Is(err, context.Canceled) {
		l.Debugf("fetch cancelled")
	} else {
		l.Warnf("fetch failed, using empty result: %v", err)
	}
	if s.onError != nil {
		s.onError(t, err)
	}
}

func cloneRecords(records []core.Record) []core.Record {
	out := make([]core.Record, len(records))
	copy(out, records)
	return out
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// CacheStats sweeps the cache and reports what is left.
func (s *Service) CacheStats() CacheStats {
	return s.cache.Stats()
}

// CacheTTL is how long results stay cached.
func (s *Service) CacheTTL() time.Duration {
	return s.cache.TTL()
}

// SweepCache drops expired entries.
func (s *Service) SweepCache() int {
	return s.cache.Sweep()
}

// ClearCache drops every cached entry.
func (s *Service) ClearCache() {
	s.cache.Clear()
}

// StartJanitor sweeps the cache every interval until ctx is done.
func (s *Service) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.cache.Sweep(); n > 0 {
					s.logger.Debugf("swept %d expired cache entries", n)
				}
			}
		}
	}()
}
