package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rubiojr/estatedesk/pkg/account"
	"github.com/rubiojr/estatedesk/pkg/backend"
	"github.com/rubiojr/estatedesk/pkg/log"
	"github.com/rubiojr/estatedesk/pkg/notify"
	"github.com/rubiojr/estatedesk/pkg/realtime"
	"github.com/rubiojr/estatedesk/pkg/render"
	"github.com/rubiojr/estatedesk/pkg/search"
)

// Options wires the services behind the API. Notifications and Hub are
// optional; their endpoints answer 503 when unset.
type Options struct {
	Search        *search.Service
	Renderer      *render.Service
	Accounts      *account.Resolver
	Notifications *notify.Service
	Hub           *realtime.Hub
	// Limit is the per-entity default for searches without ?limit.
	Limit int
	// Debounce is the live search quiet period.
	Debounce  time.Duration
	MenuLimit int
}

type Server struct {
	search        *search.Service
	renderer      *render.Service
	accounts      *account.Resolver
	notifications *notify.Service
	hub           *realtime.Hub
	limit         int
	debounce      time.Duration
	menuLimit     int
	logger        *log.Logger
}

func NewServer(opts Options) *Server {
	s := &Server{
		search:        opts.Search,
		renderer:      opts.Renderer,
		accounts:      opts.Accounts,
		notifications: opts.Notifications,
		hub:           opts.Hub,
		limit:         opts.Limit,
		debounce:      opts.Debounce,
		menuLimit:     opts.MenuLimit,
		logger:        log.ForService("api"),
	}
	if s.renderer == nil {
		s.renderer = render.NewService(nil, opts.Search.Registry())
	}
	if s.accounts == nil {
		s.accounts = account.NewResolver(nil)
	}
	if s.limit <= 0 {
		s.limit = search.DefaultLimit
	}
	if s.menuLimit <= 0 {
		s.menuLimit = 10
	}
	return s
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Errorf("encoding JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, error, message string) {
	response := ErrorResponse{
		Error:   error,
		Message: message,
	}
	s.writeJSON(w, status, response)
}

// writeBackendError maps a backend failure to a response status.
func (s *Server) writeBackendError(w http.ResponseWriter, what string, err error) {
	var se *backend.StatusError
	switch {
	case errors.Is(err, backend.ErrNotFound):
		s.writeError(w, http.StatusNotFound, what+" not found", err.Error())
	case errors.As(err, &se) && (se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden):
		s.writeError(w, se.StatusCode, what+" not allowed", err.Error())
	case errors.Is(err, account.ErrNoSource):
		s.writeError(w, http.StatusServiceUnavailable, what+" unavailable", err.Error())
	case errors.Is(err, context.Canceled):
		s.writeError(w, http.StatusServiceUnavailable, "Request cancelled", err.Error())
	default:
		s.writeError(w, http.StatusBadGateway, what+" failed", err.Error())
	}
}

// permissionMap resolves the caller's searchable entity types.
func (s *Server) permissionMap(ctx context.Context) (search.PermissionMap, error) {
	set, err := s.accounts.Permissions(ctx)
	if err != nil {
		return nil, err
	}
	return search.PermissionsFor(s.search.Registry(), set), nil
}

type requestIDKey struct{}

// RequestID returns the id assigned by RequestIDMiddleware.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// RequestIDMiddleware tags each request with X-Request-ID, reusing the
// client's value when present.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func CorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
