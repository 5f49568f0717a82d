package cmd

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rubiojr/estatedesk/cmd/web/components"
	"github.com/rubiojr/estatedesk/cmd/web/components/types"
	"github.com/rubiojr/estatedesk/pkg/api"
	"github.com/rubiojr/estatedesk/pkg/config"
	"github.com/rubiojr/estatedesk/pkg/log"
	"github.com/rubiojr/estatedesk/pkg/nav"
	"github.com/rubiojr/estatedesk/pkg/notify"
	"github.com/rubiojr/estatedesk/pkg/realtime"
	"github.com/rubiojr/estatedesk/pkg/search"
	"github.com/rubiojr/estatedesk/pkg/version"
	"github.com/urfave/cli/v3"
)

//go:embed web/static/*
var staticFS embed.FS

// WebCommand creates the web command with both API and UI
func WebCommand() *cli.Command {
	return &cli.Command{
		Name:  "web",
		Usage: "Start web server with both API endpoints and HTML interface",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "port",
				Usage: "Port to listen on (defaults to web.port from the config)",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to bind to (defaults to web.host from the config)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return startWebServer(ctx, c.String("config"), c.String("host"), c.String("port"))
		},
	}
}

// WebServer holds the server configuration and dependencies
type WebServer struct {
	svc       *services
	hub       *realtime.Hub
	apiServer *api.Server
	logger    *log.Logger
}

func newWebServer(svc *services, hub *realtime.Hub) *WebServer {
	return &WebServer{
		svc: svc,
		hub: hub,
		apiServer: api.NewServer(api.Options{
			Search:        svc.search,
			Renderer:      svc.renderer,
			Accounts:      svc.accounts,
			Notifications: svc.notifications,
			Hub:           hub,
			Limit:         svc.cfg.Search.Limit,
			Debounce:      svc.cfg.Search.Debounce.Duration,
			MenuLimit:     svc.cfg.Notifications.MenuLimit,
		}),
		logger: log.ForService("web"),
	}
}

// Handler returns the full UI + API handler.
func (s *WebServer) Handler() http.Handler {
	mux := http.NewServeMux()

	s.apiServer.RegisterRoutes(mux)

	mux.Handle("GET /{$}", gzhttp.GzipHandler(http.HandlerFunc(s.handleHome)))
	mux.Handle("GET /search", gzhttp.GzipHandler(http.HandlerFunc(s.handleSearch)))
	mux.Handle("GET /static/", gzhttp.GzipHandler(http.HandlerFunc(s.handleStatic)))

	return api.RequestIDMiddleware(api.CorsMiddleware(mux))
}

// startWebServer starts the web server with both API and UI
func startWebServer(ctx context.Context, configPath, host, port string) error {
	svc, err := loadServices(configPath)
	if err != nil {
		return err
	}
	cfg := svc.cfg
	if host == "" {
		host = cfg.Web.Host
	}
	if port == "" {
		port = cfg.Web.Port
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hub := realtime.NewHub(0)
	webServer := newWebServer(svc, hub)
	logger := webServer.logger

	svc.search.StartJanitor(ctx, cfg.Search.SweepInterval.Duration)
	poller := notify.NewPoller(svc.client, hub, cfg.Notifications.PollInterval.Duration)
	go poller.Run(ctx)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", host, port),
		Handler:           webServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof("Starting web server on http://%s:%s (backend %s)", host, port, svc.client.BaseURL())
		logger.Infof("Available endpoints:")
		logger.Infof("  Web UI:")
		logger.Infof("    GET / - Dashboard")
		logger.Infof("    GET /search - Search across all permitted entity types")
		logger.Infof("  API:")
		logger.Infof("    GET /api/search - Aggregated search")
		logger.Infof("    GET /api/search/ws - Live search websocket")
		logger.Infof("    GET /api/search/cache - Cache statistics")
		logger.Infof("    GET /api/navigation - Permission filtered navigation")
		logger.Infof("    GET /api/me - Current account")
		logger.Infof("    GET /api/notifications - Notification menu")
		logger.Infof("    GET /health - Health check")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warnf("failed to create config file watcher: %v", err)
	} else {
		defer func() {
			if err := watcher.Close(); err != nil {
				logger.Warnf("failed to close config file watcher: %v", err)
			}
		}()
		if err := watcher.Add(configPath); err != nil {
			logger.Warnf("failed to watch config file %s: %v", configPath, err)
		} else {
			logger.Infof("Watching config file for changes: %s", configPath)
		}
	}

	for {
		select {
		case err := <-serverErr:
			return fmt.Errorf("web server: %w", err)
		case <-ctx.Done():
			return shutdown(server, logger)
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				logger.Infof("Received SIGHUP, reloading configuration...")
				reloadWebConfig(configPath, svc, logger)
				continue
			}
			return shutdown(server, logger)
		case event, ok := <-watcherEvents(watcher):
			if !ok {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				logger.Infof("Config file changed, reloading configuration...")
				reloadWebConfig(configPath, svc, logger)
			}
			// Editors replace the file on save; watch the new one.
			if event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				time.Sleep(100 * time.Millisecond)
				if err := watcher.Add(configPath); err != nil {
					logger.Warnf("failed to re-add config file watch: %v", err)
				} else {
					reloadWebConfig(configPath, svc, logger)
				}
			}
		case err, ok := <-watcherErrors(watcher):
			if ok {
				logger.Warnf("config file watcher error: %v", err)
			}
		}
	}
}

// watcherEvents returns nil (blocking forever in select) without a watcher.
func watcherEvents(w *fsnotify.Watcher) <-chan fsnotify.Event {
	if w == nil {
		return nil
	}
	return w.Events
}

func watcherErrors(w *fsnotify.Watcher) <-chan error {
	if w == nil {
		return nil
	}
	return w.Errors
}

func shutdown(server *http.Server, logger *log.Logger) error {
	logger.Infof("Shutting down web server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// reloadWebConfig re-reads the config file. A broken file keeps the running
// configuration.
func reloadWebConfig(configPath string, svc *services, logger *log.Logger) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Errorf("Failed to reload configuration: %v", err)
		return
	}
	if err := cfg.Validate(); err != nil {
		logger.Errorf("Ignoring invalid configuration: %v", err)
		return
	}
	if cfg.Backend != svc.cfg.Backend || cfg.Web != svc.cfg.Web {
		logger.Warnf("backend and web settings change only on restart")
	}
	svc.reload(cfg)
	logger.Infof("Configuration reloaded")
}

// pageData collects the header and sidebar content shared by all pages.
// Backend failures degrade to an error banner.
func (s *WebServer) pageData(r *http.Request, title string) types.PageData {
	data := types.PageData{
		Title:      title,
		Path:       r.URL.Path,
		Limit:      s.svc.cfg.Search.Limit,
		DebounceMS: s.svc.cfg.Search.Debounce.Milliseconds(),
		Version:    version.APIVersion(),
	}

	set, err := s.svc.accounts.Permissions(r.Context())
	if err != nil {
		s.logger.Warnf("resolving permissions: %v", err)
		data.Error = "Could not load your permissions from the backend."
	} else {
		data.Nav = nav.Filter(nav.Tree(s.svc.entities), set)
	}

	if _, static := s.svc.accounts.Static(); static {
		data.Account = types.Account{Name: "local", Source: "config"}
	} else if profile, err := s.svc.accounts.Profile(r.Context()); err == nil {
		data.Account = types.Account{
			Name:   profile.Name,
			Email:  profile.Email,
			Role:   profile.Role,
			Source: "profile",
		}
	}

	if menu, err := s.svc.notifications.Menu(r.Context(), s.svc.cfg.Notifications.MenuLimit); err != nil {
		s.logger.Debugf("loading notification menu: %v", err)
	} else {
		data.Menu = &menu
	}

	return data
}

// handleHome handles the home page
func (s *WebServer) handleHome(w http.ResponseWriter, r *http.Request) {
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		http.Redirect(w, r, "/search?q="+url.QueryEscape(q), http.StatusFound)
		return
	}

	data := s.pageData(r, "Dashboard - estatedesk")
	if err := components.Index(data).Render(r.Context(), w); err != nil {
		http.Error(w, fmt.Sprintf("Template error: %v", err), http.StatusInternalServerError)
	}
}

// handleSearch renders aggregated results server side; it backs the search
// form when scripts are disabled.
func (s *WebServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	params, err := search.ParseParams(r.URL.Query())
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid parameters: %v", err), http.StatusBadRequest)
		return
	}
	if r.URL.Query().Get("limit") == "" {
		params.Limit = s.svc.cfg.Search.Limit
	}

	data := s.pageData(r, "Search - estatedesk")
	data.Query = params.Query

	if params.Query != "" && data.Error == "" {
		set, err := s.svc.accounts.Permissions(r.Context())
		if err == nil {
			perms := search.PermissionsFor(s.svc.entities, set).Restrict(params.Entities)
			results := s.svc.search.Search(r.Context(), params.Query, params.Limit, perms)
			data.Groups = s.svc.renderer.Groups(results)
			data.Total = results.Total()
		}
	}

	if err := components.Search(data).Render(r.Context(), w); err != nil {
		http.Error(w, fmt.Sprintf("Template error: %v", err), http.StatusInternalServerError)
	}
}

// handleStatic serves static assets from embedded files
func (s *WebServer) handleStatic(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	filePath := "web/static/" + strings.TrimPrefix(path, "/static/")

	content, err := staticFS.ReadFile(filePath)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	switch {
	case strings.HasSuffix(path, ".css"):
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
	case strings.HasSuffix(path, ".js"):
		w.Header().Set("Content-Type", "application/javascript")
	case strings.HasSuffix(path, ".ico"):
		w.Header().Set("Content-Type", "image/x-icon")
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")

	if _, err := w.Write(content); err != nil {
		s.logger.Warnf("writing static content: %v", err)
	}
}
