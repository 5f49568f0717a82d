package config

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed config.toml.sample
var configTemplate string

// ErrNoBaseURL is returned by Validate when the backend base URL is unset.
var ErrNoBaseURL = errors.New("backend base_url is not configured")

const (
	DefaultBaseURL           = "http://localhost:3000"
	DefaultTimeout           = 15 * time.Second
	DefaultRequestsPerSecond = 20
	DefaultSearchLimit       = 5
	DefaultDebounce          = 300 * time.Millisecond
	DefaultCacheTTL          = 5 * time.Minute
	DefaultSweepInterval     = time.Minute
	DefaultHost              = "localhost"
	DefaultPort              = "8080"
	DefaultPollInterval      = 30 * time.Second
	DefaultMenuLimit         = 10
)

type Config struct {
	// Permissions, when set, replaces the list fetched from /api/auth/me.
	Permissions   []string            `toml:"permissions,omitempty"`
	Backend       BackendConfig       `toml:"backend"`
	Search        SearchConfig        `toml:"search"`
	Web           WebConfig           `toml:"web"`
	Notifications NotificationsConfig `toml:"notifications"`
}

type BackendConfig struct {
	BaseURL           string   `toml:"base_url"`
	Token             string   `toml:"token"`
	Timeout           Duration `toml:"timeout"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
}

type SearchConfig struct {
	Limit         int      `toml:"limit"`
	Debounce      Duration `toml:"debounce"`
	CacheTTL      Duration `toml:"cache_ttl"`
	SweepInterval Duration `toml:"sweep_interval"`
	// Permissions maps an entity type to the permission name it requires.
	Permissions map[string]string `toml:"permissions,omitempty"`
}

type WebConfig struct {
	Host string `toml:"host"`
	Port string `toml:"port"`
}

type NotificationsConfig struct {
	PollInterval Duration `toml:"poll_interval"`
	MenuLimit    int      `toml:"menu_limit"`
}

type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func GetDefaultConfig() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return GetDefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes TOML data and fills in defaults for missing values.
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	c.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(c.Backend.BaseURL), "/")
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = DefaultBaseURL
	}
	if c.Backend.Timeout.Duration <= 0 {
		c.Backend.Timeout = Duration{DefaultTimeout}
	}
	if c.Backend.RequestsPerSecond <= 0 {
		c.Backend.RequestsPerSecond = DefaultRequestsPerSecond
	}

	if c.Search.Limit <= 0 {
		c.Search.Limit = DefaultSearchLimit
	}
	if c.Search.Debounce.Duration <= 0 {
		c.Search.Debounce = Duration{DefaultDebounce}
	}
	if c.Search.CacheTTL.Duration <= 0 {
		c.Search.CacheTTL = Duration{DefaultCacheTTL}
	}
	if c.Search.SweepInterval.Duration <= 0 {
		c.Search.SweepInterval = Duration{DefaultSweepInterval}
	}

	if c.Web.Host == "" {
		c.Web.Host = DefaultHost
	}
	if c.Web.Port == "" {
		c.Web.Port = DefaultPort
	}

	if c.Notifications.PollInterval.Duration <= 0 {
		c.Notifications.PollInterval = Duration{DefaultPollInterval}
	}
	if c.Notifications.MenuLimit <= 0 {
		c.Notifications.MenuLimit = DefaultMenuLimit
	}
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		return ErrNoBaseURL
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid backend base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend base_url must be http or https, got %q", c.Backend.BaseURL)
	}
	return nil
}

// HasStaticPermissions reports whether the config overrides the profile
// permission list.
func (c *Config) HasStaticPermissions() bool {
	return c.Permissions != nil
}

// Addr is the listen address of the web server.
func (c *Config) Addr() string {
	return c.Web.Host + ":" + c.Web.Port
}

func (c *Config) SaveConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(configPath, data, 0600)
}

// SaveTemplateConfig writes the commented sample, pointing it at baseURL
// when one is given.
func (c *Config) SaveTemplateConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(configPath, []byte(c.generateConfigTemplate()), 0600)
}

func (c *Config) generateConfigTemplate() string {
	baseURL := c.Backend.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return strings.Replace(configTemplate, DefaultBaseURL, baseURL, 1)
}

// Template returns the embedded sample configuration.
func Template() string {
	return configTemplate
}

// GetConfigDir returns the configuration directory for estatedesk
func GetConfigDir() (string, error) {
	// Use XDG_CONFIG_HOME if set, otherwise use ~/.config
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	dir := filepath.Join(configDir, "estatedesk")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	return dir, nil
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}
