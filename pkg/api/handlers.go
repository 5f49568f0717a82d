package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rubiojr/estatedesk/pkg/core"
	"github.com/rubiojr/estatedesk/pkg/nav"
	"github.com/rubiojr/estatedesk/pkg/render"
	"github.com/rubiojr/estatedesk/pkg/search"
	"github.com/rubiojr/estatedesk/pkg/version"
)

func (s *Server) HandleSearch(w http.ResponseWriter, r *http.Request) {
	params, err := search.ParseParams(r.URL.Query())
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid parameters", err.Error())
		return
	}
	if r.URL.Query().Get("limit") == "" {
		params.Limit = s.limit
	}

	perms, err := s.permissionMap(r.Context())
	if err != nil {
		s.writeBackendError(w, "Permissions", err)
		return
	}
	perms = perms.Restrict(params.Entities)

	results := s.search.Search(r.Context(), params.Query, params.Limit, perms)
	s.writeJSON(w, http.StatusOK, s.searchResponse(params.Query, params.Limit, results))
}

func (s *Server) searchResponse(query string, limit int, results core.ResultSet) SearchResponse {
	resp := SearchResponse{
		Query:      query,
		Limit:      limit,
		Results:    make(map[string][]render.Item, len(results)),
		Counts:     make(map[string]int, len(results)),
		TotalCount: results.Total(),
	}
	for t, items := range s.renderer.RenderResults(results) {
		resp.Results[string(t)] = items
		resp.Counts[string(t)] = len(items)
	}
	return resp
}

func (s *Server) HandleCacheStats(w http.ResponseWriter, r *http.Request) {
	stats := s.search.CacheStats()
	s.writeJSON(w, http.StatusOK, CacheStatsResponse{
		Size: stats.Size,
		Keys: stats.Keys,
		TTL:  s.search.CacheTTL().String(),
	})
}

func (s *Server) HandleCacheSweep(w http.ResponseWriter, r *http.Request) {
	removed := s.search.SweepCache()
	s.logger.Infof("cache sweep removed %d entries", removed)
	s.writeJSON(w, http.StatusOK, CacheSweepResponse{
		Removed: removed,
		Size:    s.search.CacheStats().Size,
	})
}

func (s *Server) HandleCacheClear(w http.ResponseWriter, r *http.Request) {
	s.search.ClearCache()
	s.logger.Infof("cache cleared")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) HandleNavigation(w http.ResponseWriter, r *http.Request) {
	set, err := s.accounts.Permissions(r.Context())
	if err != nil {
		s.writeBackendError(w, "Permissions", err)
		return
	}
	s.writeJSON(w, http.StatusOK, NavigationResponse{
		Items: nav.Filter(nav.Tree(s.search.Registry()), set),
	})
}

func (s *Server) HandleMe(w http.ResponseWriter, r *http.Request) {
	resp := MeResponse{Source: "config"}

	set, static := s.accounts.Static()
	if !static {
		profile, err := s.accounts.Profile(r.Context())
		if err != nil {
			s.writeBackendError(w, "Profile", err)
			return
		}
		resp.Source = "profile"
		resp.ID = profile.IDString()
		resp.Name = profile.Name
		resp.Email = profile.Email
		resp.Role = profile.Role
		set = profile.Permissions.Set()
	}

	resp.Permissions = set.Names()
	resp.Searchable = []string{}
	for _, e := range s.search.Registry().All() {
		if set.Has(e.Permission) {
			resp.Searchable = append(resp.Searchable, string(e.Type))
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) HandleNotifications(w http.ResponseWriter, r *http.Request) {
	if s.notifications == nil {
		s.writeError(w, http.StatusServiceUnavailable, "Notifications unavailable", "notifications are not configured")
		return
	}
	limit := s.menuLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "Invalid parameters", "limit must be a positive integer")
			return
		}
		limit = n
	}

	menu, err := s.notifications.Menu(r.Context(), limit)
	if err != nil {
		s.writeBackendError(w, "Notifications", err)
		return
	}
	s.writeJSON(w, http.StatusOK, menu)
}

func (s *Server) HandleNotificationStats(w http.ResponseWriter, r *http.Request) {
	if s.notifications == nil {
		s.writeError(w, http.StatusServiceUnavailable, "Notifications unavailable", "notifications are not configured")
		return
	}
	stats, err := s.notifications.Stats(r.Context())
	if err != nil {
		s.writeBackendError(w, "Notification stats", err)
		return
	}
	s.writeJSON(w, http.StatusOK, NotificationStatsResponse{Total: stats.Total, Unread: stats.Unread})
}

func (s *Server) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	if s.notifications == nil {
		s.writeError(w, http.StatusServiceUnavailable, "Notifications unavailable", "notifications are not configured")
		return
	}
	id := r.PathValue("id")
	if id == "" {
		s.writeError(w, http.StatusBadRequest, "Invalid path", "Notification id is required")
		return
	}
	if err := s.notifications.MarkRead(r.Context(), id); err != nil {
		s.writeBackendError(w, "Notification", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   version.APIVersion(),
	}

	s.writeJSON(w, http.StatusOK, health)
}
