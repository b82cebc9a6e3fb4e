package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	FileName        = "config.toml"
	MappingFileName = "project_mapping.yml"
	CacheFileName   = "ledger_cache.yml"
	DataDirName     = "data"
	DBFileName      = "hourbridge.db"
)

type Config struct {
	Toggl         TogglConfig    `toml:"toggl"`
	Harvest       HarvestConfig  `toml:"harvest"`
	Notifications NotifyConfig   `toml:"notifications"`
	Calendar      CalendarConfig `toml:"calendar"`

	dir string
}

type TogglConfig struct {
	APIToken    string `toml:"api_token"`
	WorkspaceID string `toml:"workspace_id"`
	UserAgent   string `toml:"user_agent"`
	BaseURL     string `toml:"base_url"`
	// DownloadParams are passed through to the detailed report query.
	DownloadParams map[string]string `toml:"download_params"`
}

type HarvestConfig struct {
	AccountID string `toml:"account_id"`
	Token     string `toml:"token"`
	UserAgent string `toml:"user_agent"`
	BaseURL   string `toml:"base_url"`
}

type NotifyConfig struct {
	Enabled bool `toml:"enabled"`
}

// CalendarConfig selects an iCalendar feed as the tracker instead of Toggl.
type CalendarConfig struct {
	Enabled  bool   `toml:"enabled"`
	Source   string `toml:"source"` // ICS URL or file path
	Billable bool   `toml:"billable"`
}

func DefaultConfig() Config {
	return Config{
		Toggl: TogglConfig{
			UserAgent: "hourbridge",
		},
		Harvest: HarvestConfig{
			UserAgent: "hourbridge",
		},
		Notifications: NotifyConfig{
			Enabled: true,
		},
		Calendar: CalendarConfig{
			Enabled:  false,
			Billable: true,
		},
	}
}

// Dir picks the config directory: the flag value, then HOURBRIDGE_CONFIG,
// then ~/.config/hourbridge.
func Dir(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if v := os.Getenv("HOURBRIDGE_CONFIG"); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "hourbridge"), nil
}

// Load reads config.toml from dir. A missing file yields the defaults.
func Load(dir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.dir = dir

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return &cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TOGGL_API_TOKEN"); v != "" {
		cfg.Toggl.APIToken = v
	}
	if v := os.Getenv("TOGGL_WORKSPACE_ID"); v != "" {
		cfg.Toggl.WorkspaceID = v
	}
	if v := os.Getenv("HARVEST_ACCOUNT_ID"); v != "" {
		cfg.Harvest.AccountID = v
	}
	if v := os.Getenv("HARVEST_TOKEN"); v != "" {
		cfg.Harvest.Token = v
	}
}

func (c *Config) Dir() string         { return c.dir }
func (c *Config) Path() string        { return filepath.Join(c.dir, FileName) }
func (c *Config) MappingPath() string { return filepath.Join(c.dir, MappingFileName) }
func (c *Config) CachePath() string   { return filepath.Join(c.dir, CacheFileName) }
func (c *Config) DataDir() string     { return filepath.Join(c.dir, DataDirName) }
func (c *Config) DBPath() string      { return filepath.Join(c.dir, DBFileName) }

// CheckToggl reports which tracker credentials are missing.
func (c *Config) CheckToggl() error {
	var missing []string
	if c.Toggl.APIToken == "" {
		missing = append(missing, "toggl.api_token")
	}
	if c.Toggl.WorkspaceID == "" {
		missing = append(missing, "toggl.workspace_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing settings in %s: %s", c.Path(), strings.Join(missing, ", "))
	}
	return nil
}

func (c *Config) CheckHarvest() error {
	var missing []string
	if c.Harvest.AccountID == "" {
		missing = append(missing, "harvest.account_id")
	}
	if c.Harvest.Token == "" {
		missing = append(missing, "harvest.token")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing settings in %s: %s", c.Path(), strings.Join(missing, ", "))
	}
	return nil
}

// Set stores value under a dotted key such as "toggl.workspace_id" in the
// config file of dir. The file is read, modified and written back so other
// settings survive.
func Set(dir, key, value string) error {
	table, name, ok := strings.Cut(key, ".")
	if !ok || table == "" || name == "" {
		return fmt.Errorf("key %q must look like table.name", key)
	}

	path := filepath.Join(dir, FileName)
	cfg := make(map[string]any)

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config: %w", err)
	}
	if len(data) > 0 {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}

	t, ok := cfg[table].(map[string]any)
	if !ok {
		t = make(map[string]any)
	}
	t[name] = parseValue(value)
	cfg[table] = t

	// Reject anything the typed config would not load.
	check, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	probe := DefaultConfig()
	if err := toml.Unmarshal(check, &probe); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(path, check, 0600)
}

func parseValue(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}
