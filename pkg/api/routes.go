package api

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
)

// RegisterRoutes mounts the API on mux. JSON routes are gzip compressed;
// the websocket route is not, since it needs the raw connection.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	gz := func(h http.HandlerFunc) http.Handler { return gzhttp.GzipHandler(h) }

	mux.Handle("GET /api/search", gz(s.HandleSearch))
	mux.HandleFunc("GET /api/search/ws", s.HandleSearchWS)
	mux.Handle("GET /api/search/cache", gz(s.HandleCacheStats))
	mux.Handle("POST /api/search/cache/sweep", gz(s.HandleCacheSweep))
	mux.Handle("DELETE /api/search/cache", gz(s.HandleCacheClear))
	mux.Handle("GET /api/navigation", gz(s.HandleNavigation))
	mux.Handle("GET /api/me", gz(s.HandleMe))
	mux.Handle("GET /api/notifications", gz(s.HandleNotifications))
	mux.Handle("GET /api/notifications/stats", gz(s.HandleNotificationStats))
	mux.Handle("PUT /api/notifications/{id}/read", gz(s.HandleMarkRead))
	mux.HandleFunc("GET /health", s.HandleHealth)
}
