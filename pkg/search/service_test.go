package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rubiojr/estatedesk/pkg/backend"
	"github.com/rubiojr/estatedesk/pkg/core"
)

type fetchCall struct {
	entity core.EntityType
	params backend.ListParams
}

// countingFetcher records every call and answers from a canned table.
type countingFetcher struct {
	mu      sync.Mutex
	calls   []fetchCall
	records map[core.EntityType][]core.Record
	fail    map[core.EntityType]error
}

func newCountingFetcher() *countingFetcher {
	return &countingFetcher{
		records: map[core.EntityType][]core.Record{},
		fail:    map[core.EntityType]error{},
	}
}

func (f *countingFetcher) ListEntity(ctx context.Context, e core.Entity, p backend.ListParams) ([]core.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fetchCall{entity: e.Type, params: p})
	if err := f.fail[e.Type]; err != nil {
		return nil, err
	}
	return f.records[e.Type], nil
}

func (f *countingFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *countingFetcher) countFor(t core.EntityType) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.entity == t {
			n++
		}
	}
	return n
}

func assertAllSlots(t *testing.T, rs core.ResultSet) {
	t.Helper()
	if len(rs) != len(core.AllEntityTypes()) {
		t.Fatalf("expected %d slots, got %d", len(core.AllEntityTypes()), len(rs))
	}
	for _, et := range core.AllEntityTypes() {
		if rs[et] == nil {
			t.Fatalf("slot %s is nil", et)
		}
	}
}

func TestSearchEmptyQueryMakesNoCalls(t *testing.T) {
	f := newCountingFetcher()
	s := NewService(f)

	for _, q := range []string{"", "   ", "\t\n"} {
		rs := s.Search(context.Background(), q, 5, AllowAll())
		assertAllSlots(t, rs)
		if !rs.Empty() {
			t.Fatalf("expected empty results for %q", q)
		}
	}
	if f.count() != 0 {
		t.Fatalf("expected no fetches, got %d", f.count())
	}
}

func TestSearchWithoutPermissionsMakesNoCalls(t *testing.T) {
	f := newCountingFetcher()
	s := NewService(f)

	rs := s.Search(context.Background(), "smith", 5, PermissionMap{})
	assertAllSlots(t, rs)
	if f.count() != 0 {
		t.Fatalf("expected no fetches, got %d", f.count())
	}
}

func TestSearchOnlyAllowedEntities(t *testing.T) {
	f := newCountingFetcher()
	f.records[core.Properties] = []core.Record{{"id": 1, "title": "Smith House"}}
	f.records[core.Agents] = []core.Record{{"id": 2, "name": "Ann Smith"}}
	s := NewService(f)

	rs := s.Search(context.Background(), "smith", 5, PermissionMap{core.Properties: true})
	assertAllSlots(t, rs)

	if f.count() != 1 || f.countFor(core.Properties) != 1 {
		t.Fatalf("expected exactly one properties fetch, got %+v", f.calls)
	}
	if got := f.calls[0].params; got.Search != "smith" || got.Limit != 5 || got.Page != 1 {
		t.Fatalf("unexpected params %+v", got)
	}
	if len(rs[core.Properties]) != 1 {
		t.Fatalf("expected 1 property, got %d", len(rs[core.Properties]))
	}
	if len(rs[core.Agents]) != 0 {
		t.Fatalf("denied entity must stay empty")
	}
}

func TestSearchTrimsAndClampsLimit(t *testing.T) {
	f := newCountingFetcher()
	s := NewService(f)

	s.Search(context.Background(), "  smith  ", 500, PermissionMap{core.Visits: true})
	s.Search(context.Background(), "jones", 0, PermissionMap{core.Visits: true})

	if f.calls[0].params.Search != "smith" || f.calls[0].params.Limit != MaxLimit {
		t.Fatalf("unexpected params %+v", f.calls[0].params)
	}
	if f.calls[1].params.Limit != DefaultLimit {
		t.Fatalf("expected default limit, got %d", f.calls[1].params.Limit)
	}
}

func TestSearchFoldsFailuresIntoEmptySlots(t *testing.T) {
	f := newCountingFetcher()
	f.records[core.Agents] = []core.Record{{"id": 2, "name": "Ann"}}
	f.fail[core.Managers] = errors.New("boom")

	var (
		mu     sync.Mutex
		failed []core.EntityType
	)
	s := NewService(f, WithErrorHook(func(et core.EntityType, err error) {
		mu.Lock()
		defer mu.Unlock()
		failed = append(failed, et)
	}))

	rs := s.Search(context.Background(), "ann", 5, AllowAll())
	assertAllSlots(t, rs)

	if len(rs[core.Agents]) != 1 {
		t.Fatalf("successful entity lost its results")
	}
	if len(rs[core.Managers]) != 0 {
		t.Fatalf("failed entity must be empty")
	}
	if len(failed) != 1 || failed[0] != core.Managers {
		t.Fatalf("expected hook for managers, got %v", failed)
	}
	if f.count() != len(core.AllEntityTypes()) {
		t.Fatalf("expected one fetch per type, got %d", f.count())
	}
}

func TestSearchCachesForTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	cache := NewCache(5 * time.Minute)
	cache.SetClock(clock.Now)

	f := newCountingFetcher()
	f.records[core.Agents] = []core.Record{{"id": 1}}
	s := NewService(f, WithCache(cache))
	perms := PermissionMap{core.Agents: true}

	s.Search(context.Background(), "smith", 5, perms)
	clock.Advance(2 * time.Minute)
	rs := s.Search(context.Background(), "smith", 5, perms)

	if f.count() != 1 {
		t.Fatalf("expected one network call within ttl, got %d", f.count())
	}
	if len(rs[core.Agents]) != 1 {
		t.Fatalf("cached results not returned")
	}

	clock.Advance(3 * time.Minute)
	s.Search(context.Background(), "smith", 5, perms)
	if f.count() != 2 {
		t.Fatalf("expected refetch after ttl, got %d calls", f.count())
	}
}

func TestSearchCacheKeyIncludesLimit(t *testing.T) {
	f := newCountingFetcher()
	s := NewService(f)
	perms := PermissionMap{core.Agents: true}

	s.Search(context.Background(), "smith", 5, perms)
	s.Search(context.Background(), "smith", 10, perms)

	if f.count() != 2 {
		t.Fatalf("different limits must not share a cache entry, got %d calls", f.count())
	}
}

func TestSearchDoesNotCacheFailures(t *testing.T) {
	f := newCountingFetcher()
	f.fail[core.Agents] = errors.New("down")
	s := NewService(f)
	perms := PermissionMap{core.Agents: true}

	s.Search(context.Background(), "smith", 5, perms)
	delete(f.fail, core.Agents)
	s.Search(context.Background(), "smith", 5, perms)

	if f.count() != 2 {
		t.Fatalf("failure must not be cached, got %d calls", f.count())
	}
}

func TestCachedResultsDoNotLeakAcrossPermissions(t *testing.T) {
	f := newCountingFetcher()
	f.records[core.Admins] = []core.Record{{"id": 9, "name": "Root"}}
	f.records[core.Agents] = []core.Record{{"id": 1, "name": "Ann"}}
	s := NewService(f)

	full := s.Search(context.Background(), "r", 5, AllowAll())
	if len(full[core.Admins]) != 1 {
		t.Fatalf("expected admin result for unrestricted caller")
	}

	limited := s.Search(context.Background(), "r", 5, PermissionMap{core.Agents: true})
	if len(limited[core.Admins]) != 0 {
		t.Fatalf("cached admin results leaked into restricted search")
	}
	if len(limited[core.Agents]) != 1 {
		t.Fatalf("expected cached agent result")
	}
}

func TestCacheHitReturnsIndependentSlice(t *testing.T) {
	f := newCountingFetcher()
	f.records[core.Agents] = []core.Record{{"id": 1}}
	s := NewService(f)
	perms := PermissionMap{core.Agents: true}

	first := s.Search(context.Background(), "a", 5, perms)
	first[core.Agents][0] = core.Record{"id": 99}

	second := s.Search(context.Background(), "a", 5, perms)
	if second[core.Agents][0].ID() != "1" {
		t.Fatalf("caller mutation reached the cache: %v", second[core.Agents][0])
	}
}

func TestPermissionMapRestrict(t *testing.T) {
	m := PermissionMap{core.Agents: true, core.Admins: false, core.Visits: true}

	r := m.Restrict([]core.EntityType{core.Agents, core.Admins})
	if !r.Allowed(core.Agents) || r.Allowed(core.Admins) || r.Allowed(core.Visits) {
		t.Fatalf("unexpected restricted map %v", r)
	}
	if all := m.Restrict(nil); !all.Allowed(core.Visits) {
		t.Fatalf("empty restriction must keep the map")
	}
	if (PermissionMap{}).Any() {
		t.Fatalf("empty map grants nothing")
	}
}
