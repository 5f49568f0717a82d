package cmd

import (
	"fmt"

	"github.com/rubiojr/estatedesk/pkg/account"
	"github.com/rubiojr/estatedesk/pkg/backend"
	"github.com/rubiojr/estatedesk/pkg/config"
	"github.com/rubiojr/estatedesk/pkg/core"
	"github.com/rubiojr/estatedesk/pkg/log"
	"github.com/rubiojr/estatedesk/pkg/notify"
	"github.com/rubiojr/estatedesk/pkg/render"
	"github.com/rubiojr/estatedesk/pkg/search"
)

// services bundles what the commands build from a config file.
type services struct {
	cfg           *config.Config
	client        *backend.Client
	entities      *core.Registry
	search        *search.Service
	accounts      *account.Resolver
	notifications *notify.Service
	renderer      *render.Service
}

// loadServices reads the config at configPath and wires the services.
func loadServices(configPath string) (*services, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return newServices(cfg)
}

func newServices(cfg *config.Config) (*services, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	client, err := backend.NewClient(backendOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("creating backend client: %w", err)
	}

	entities := core.GetGlobalRegistry()
	entities.OverridePermissions(cfg.Search.Permissions)

	logger := log.ForService("search")
	svc := search.NewService(client,
		search.WithRegistry(entities),
		search.WithCache(search.NewCache(cfg.Search.CacheTTL.Duration)),
		search.WithErrorHook(func(t core.EntityType, err error) {
			logger.Debugf("search of %s failed: %v", t, err)
		}),
	)

	accounts := account.NewResolver(client)
	applyStaticPermissions(accounts, cfg)

	return &services{
		cfg:           cfg,
		client:        client,
		entities:      entities,
		search:        svc,
		accounts:      accounts,
		notifications: notify.NewService(client),
		renderer:      render.NewService(nil, entities),
	}, nil
}

func backendOptions(cfg *config.Config) backend.Options {
	return backend.Options{
		BaseURL:           cfg.Backend.BaseURL,
		Token:             cfg.Backend.Token,
		Timeout:           cfg.Backend.Timeout.Duration,
		RequestsPerSecond: cfg.Backend.RequestsPerSecond,
	}
}

func applyStaticPermissions(accounts *account.Resolver, cfg *config.Config) {
	if cfg.HasStaticPermissions() {
		accounts.SetStatic(cfg.Permissions)
		return
	}
	accounts.SetStatic(nil)
}

// reload applies the parts of a new config that can change without a
// restart: permission overrides and the static permission list. The search
// cache is dropped since visible results may differ. s.cfg keeps the
// startup values.
func (s *services) reload(cfg *config.Config) {
	s.entities.ResetPermissions(cfg.Search.Permissions)
	applyStaticPermissions(s.accounts, cfg)
	s.accounts.Invalidate()
	s.search.ClearCache()
}
