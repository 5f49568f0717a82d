package api

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rubiojr/estatedesk/pkg/account"
	"github.com/rubiojr/estatedesk/pkg/backend"
	"github.com/rubiojr/estatedesk/pkg/core"
	"github.com/rubiojr/estatedesk/pkg/notify"
	"github.com/rubiojr/estatedesk/pkg/realtime"
	"github.com/rubiojr/estatedesk/pkg/search"
)

type fakeFetcher struct {
	mu      sync.Mutex
	calls   []string
	records map[core.EntityType][]core.Record
	// hold, when set, blocks searches for "slow" until closed.
	hold chan struct{}
}

func (f *fakeFetcher) ListEntity(ctx context.Context, e core.Entity, p backend.ListParams) ([]core.Record, error) {
	f.mu.Lock()
	f.calls = append(f.calls, string(e.Type)+":"+p.Search)
	records, hold := f.records[e.Type], f.hold
	f.mu.Unlock()

	if hold != nil && p.Search == "slow" {
		select {
		case <-hold:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return records, nil
}

func (f *fakeFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeNotifications struct {
	items  []backend.Notification
	stats  backend.NotificationStats
	marked []string
}

func (f *fakeNotifications) Notifications(ctx context.Context, limit int) ([]backend.Notification, error) {
	return f.items, nil
}

func (f *fakeNotifications) NotificationStats(ctx context.Context) (backend.NotificationStats, error) {
	return f.stats, nil
}

func (f *fakeNotifications) MarkNotificationRead(ctx context.Context, id string) error {
	if id == "missing" {
		return &backend.StatusError{Method: "PUT", Path: "/api/notifications/missing/read", StatusCode: 404}
	}
	f.marked = append(f.marked, id)
	return nil
}

type testEnv struct {
	server   *httptest.Server
	fetcher  *fakeFetcher
	notes    *fakeNotifications
	hub      *realtime.Hub
	accounts *account.Resolver
}

func newTestEnv(t *testing.T, perms []string) *testEnv {
	t.Helper()
	fetcher := &fakeFetcher{records: map[core.EntityType][]core.Record{
		core.Properties: {{"id": float64(1), "title": "Smith House"}},
		core.Agents:     {{"id": float64(2), "name": "Ann Smith"}},
		core.Admins:     {{"id": float64(3), "name": "Root Smith"}},
	}}
	accounts := account.NewResolver(nil)
	accounts.SetStatic(perms)
	notes := &fakeNotifications{
		items: []backend.Notification{{ID: float64(5), Title: "Visit booked"}},
		stats: backend.NotificationStats{Total: 4, Unread: 1},
	}
	hub := realtime.NewHub(8)

	srv := NewServer(Options{
		Search:        search.NewService(fetcher),
		Accounts:      accounts,
		Notifications: notify.NewService(notes),
		Hub:           hub,
		Debounce:      100 * time.Millisecond,
	})
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	ts := httptest.NewServer(RequestIDMiddleware(CorsMiddleware(mux)))
	t.Cleanup(ts.Close)

	return &testEnv{server: ts, fetcher: fetcher, notes: notes, hub: hub, accounts: accounts}
}

func doRequest(t *testing.T, method, url string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	resp := doRequest(t, "GET", env.server.URL+"/health")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatalf("missing request id header")
	}
	var health HealthResponse
	decode(t, resp, &health)
	if health.Status != "ok" {
		t.Fatalf("unexpected health %+v", health)
	}
}

func TestRequestIDIsPropagated(t *testing.T) {
	env := newTestEnv(t, nil)
	req, _ := http.NewRequest("GET", env.server.URL+"/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.Header.Get("X-Request-ID") != "abc-123" {
		t.Fatalf("request id not echoed, got %q", resp.Header.Get("X-Request-ID"))
	}
}

func TestSearchEndpointRespectsPermissions(t *testing.T) {
	env := newTestEnv(t, []string{"view_properties", "view_agents"})

	resp := doRequest(t, "GET", env.server.URL+"/api/search?q=smith&limit=3")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body SearchResponse
	decode(t, resp, &body)

	if body.Query != "smith" || body.Limit != 3 {
		t.Fatalf("unexpected echo %+v", body)
	}
	if len(body.Results) != 7 {
		t.Fatalf("expected 7 result slots, got %d", len(body.Results))
	}
	if len(body.Results["properties"]) != 1 || len(body.Results["agents"]) != 1 {
		t.Fatalf("unexpected results %+v", body.Results)
	}
	if len(body.Results["admins"]) != 0 {
		t.Fatalf("admins must not be searched without permission")
	}
	if body.TotalCount != 2 || body.Counts["agents"] != 1 {
		t.Fatalf("unexpected counts %d %v", body.TotalCount, body.Counts)
	}
	if body.Results["properties"][0].URL != "/properties/1" || !strings.Contains(string(body.Results["properties"][0].HTML), "Smith House") {
		t.Fatalf("unexpected rendered item %+v", body.Results["properties"][0])
	}
	if env.fetcher.count() != 2 {
		t.Fatalf("expected 2 backend calls, got %d", env.fetcher.count())
	}
}

func TestSearchEndpointEntityFilter(t *testing.T) {
	env := newTestEnv(t, []string{"view_properties", "view_agents"})

	resp := doRequest(t, "GET", env.server.URL+"/api/search?q=smith&entity=agents&entity=admins")
	var body SearchResponse
	decode(t, resp, &body)

	if len(body.Results["properties"]) != 0 || len(body.Results["agents"]) != 1 || len(body.Results["admins"]) != 0 {
		t.Fatalf("entity filter not applied: %v", body.Counts)
	}
}

func TestSearchEndpointEmptyQuery(t *testing.T) {
	env := newTestEnv(t, []string{"view_agents"})

	resp := doRequest(t, "GET", env.server.URL+"/api/search?q=%20%20")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body SearchResponse
	decode(t, resp, &body)
	if body.TotalCount != 0 || len(body.Results) != 7 {
		t.Fatalf("expected all-empty result set, got %+v", body)
	}
	if env.fetcher.count() != 0 {
		t.Fatalf("empty query must not reach the backend")
	}
}

func TestSearchEndpointBadEntity(t *testing.T) {
	env := newTestEnv(t, nil)
	resp := doRequest(t, "GET", env.server.URL+"/api/search?q=a&entity=tenants")
	var body ErrorResponse
	decode(t, resp, &body)
	if resp.StatusCode != http.StatusBadRequest || body.Error == "" {
		t.Fatalf("expected 400 with error body, got %d %+v", resp.StatusCode, body)
	}
}

func TestSearchEndpointWithoutPermissionSource(t *testing.T) {
	env := newTestEnv(t, nil)
	resp := doRequest(t, "GET", env.server.URL+"/api/search?q=a")
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

func TestSearchResponseIsCompressed(t *testing.T) {
	env := newTestEnv(t, []string{"view_properties", "view_agents"})

	// Large enough to pass gzhttp's minimum size.
	env.fetcher.records[core.Agents] = nil
	for i := 0; i < 40; i++ {
		env.fetcher.records[core.Agents] = append(env.fetcher.records[core.Agents], core.Record{"id": float64(i), "name": "Agent Smith", "email": "agent@example.com"})
	}

	req, _ := http.NewRequest("GET", env.server.URL+"/api/search?q=smith&limit=50", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	tr := &http.Transport{DisableCompression: true}
	resp, err := (&http.Client{Transport: tr}).Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.Header.Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip response, got %q", resp.Header.Get("Content-Encoding"))
	}
	zr, err := gzip.NewReader(resp.Body)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	data, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var body SearchResponse
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Results["agents"]) != 40 {
		t.Fatalf("expected 40 agents, got %d", len(body.Results["agents"]))
	}
}

func TestCacheEndpoints(t *testing.T) {
	env := newTestEnv(t, []string{"view_agents"})
	doRequest(t, "GET", env.server.URL+"/api/search?q=smith").Body.Close()

	var stats CacheStatsResponse
	decode(t, doRequest(t, "GET", env.server.URL+"/api/search/cache"), &stats)
	if stats.Size != 1 || stats.TTL != "5m0s" {
		t.Fatalf("unexpected stats %+v", stats)
	}

	var sweep CacheSweepResponse
	decode(t, doRequest(t, "POST", env.server.URL+"/api/search/cache/sweep"), &sweep)
	if sweep.Removed != 0 || sweep.Size != 1 {
		t.Fatalf("fresh entries must survive a sweep: %+v", sweep)
	}

	resp := doRequest(t, "DELETE", env.server.URL+"/api/search/cache")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	decode(t, doRequest(t, "GET", env.server.URL+"/api/search/cache"), &stats)
	if stats.Size != 0 {
		t.Fatalf("cache should be empty, got %d", stats.Size)
	}
}

func TestNavigationAndMe(t *testing.T) {
	env := newTestEnv(t, []string{"view_agents"})

	var navResp NavigationResponse
	decode(t, doRequest(t, "GET", env.server.URL+"/api/navigation"), &navResp)
	keys := map[string]bool{}
	for _, it := range navResp.Items {
		keys[it.Key] = true
	}
	if !keys["people"] || keys["listings"] || keys["administration"] {
		t.Fatalf("unexpected navigation %v", keys)
	}

	var me MeResponse
	decode(t, doRequest(t, "GET", env.server.URL+"/api/me"), &me)
	if me.Source != "config" || len(me.Searchable) != 1 || me.Searchable[0] != "agents" {
		t.Fatalf("unexpected me %+v", me)
	}
}

func TestNotificationEndpoints(t *testing.T) {
	env := newTestEnv(t, []string{"view_agents"})

	var menu notify.Menu
	decode(t, doRequest(t, "GET", env.server.URL+"/api/notifications?limit=5"), &menu)
	if menu.Unread != 1 || len(menu.Items) != 1 || menu.Items[0].ID != "5" {
		t.Fatalf("unexpected menu %+v", menu)
	}

	var stats NotificationStatsResponse
	decode(t, doRequest(t, "GET", env.server.URL+"/api/notifications/stats"), &stats)
	if stats.Total != 4 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	resp := doRequest(t, "PUT", env.server.URL+"/api/notifications/5/read")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent || len(env.notes.marked) != 1 {
		t.Fatalf("mark read failed: %d %v", resp.StatusCode, env.notes.marked)
	}

	resp = doRequest(t, "PUT", env.server.URL+"/api/notifications/missing/read")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	resp = doRequest(t, "GET", env.server.URL+"/api/notifications?limit=zero")
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCorsPreflight(t *testing.T) {
	env := newTestEnv(t, nil)
	resp := doRequest(t, "OPTIONS", env.server.URL+"/api/search")
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("unexpected preflight response %d", resp.StatusCode)
	}
}

func TestWriteBackendErrorMapping(t *testing.T) {
	s := NewServer(Options{Search: search.NewService(&fakeFetcher{})})

	cases := []struct {
		err  error
		want int
	}{
		{&backend.StatusError{StatusCode: 404}, http.StatusNotFound},
		{&backend.StatusError{StatusCode: 403}, http.StatusForbidden},
		{&backend.StatusError{StatusCode: 500}, http.StatusBadGateway},
		{account.ErrNoSource, http.StatusServiceUnavailable},
		{errors.New("dial tcp: refused"), http.StatusBadGateway},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		s.writeBackendError(rec, "Thing", c.err)
		if rec.Code != c.want {
			t.Fatalf("%v: expected %d, got %d", c.err, c.want, rec.Code)
		}
	}
}
