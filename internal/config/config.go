package config

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/ryanm101/vent/internal/logging"
	"github.com/ryanm101/vent/internal/tracing"
)

// ErrNoUser is returned when none of the user environment variables are set.
var ErrNoUser = errors.New("failed to determine who is running this script")

// Config holds application configuration. Empty paths are derived from the
// kiosk user's RetroPie layout by Load.
type Config struct {
	User          string `yaml:"user" env:"VENT_USER"`
	HomeDir       string `yaml:"home_dir"`
	RetroPieDir   string `yaml:"retropie_dir"`
	SteamDir      string `yaml:"steam_dir" env:"VENT_STEAM_DIR"`
	GameDir       string `yaml:"game_dir"`
	KeymapDir     string `yaml:"keymap_dir"`
	ActiveKeymap  string `yaml:"active_keymap"`
	DefaultKeymap string `yaml:"default_keymap"`
	CacheDir      string `yaml:"cache_dir" env:"VENT_CACHE_DIR"`
	KeydConfig    string `yaml:"keyd_config"`
	GamelistPath  string `yaml:"gamelist_path"`
	HistoryDB     string `yaml:"history_db" env:"VENT_HISTORY_DB"`
	MetricsFile   string `yaml:"metrics_file" env:"VENT_METRICS_FILE"`

	// FailureHold is how long the failure banner stays up before returning to the menu.
	FailureHold time.Duration `yaml:"failure_hold" env:"VENT_FAILURE_HOLD"`

	Launch  LaunchConfig   `yaml:"launch" envPrefix:"VENT_LAUNCH_"`
	Steam   SteamConfig    `yaml:"steam" envPrefix:"VENT_STEAM_"`
	Logging logging.Config `yaml:"logging" envPrefix:"VENT_LOG_"`
	Tracing tracing.Config `yaml:"tracing"`
}

// LaunchConfig is the process-table polling policy.
type LaunchConfig struct {
	Attempts int           `yaml:"attempts" env:"ATTEMPTS"`
	Interval time.Duration `yaml:"interval" env:"INTERVAL"`
}

// SteamConfig holds Valve endpoints and the steamcmd login.
type SteamConfig struct {
	APIBase   string `yaml:"api_base" env:"API_BASE"`
	StoreBase string `yaml:"store_base" env:"STORE_BASE"`
	Login     string `yaml:"login" env:"LOGIN"`
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		KeydConfig:  "/etc/keyd/default.conf",
		FailureHold: 3 * time.Minute,
		Launch: LaunchConfig{
			Attempts: 60,
			Interval: time.Second,
		},
		Steam: SteamConfig{
			APIBase:   "https://api.steampowered.com",
			StoreBase: "https://store.steampowered.com",
			Login:     "anonymous",
		},
		Logging: logging.DefaultConfig(),
		Tracing: tracing.DefaultConfig(),
	}
}

// configPaths returns the list of paths to search for config file.
func configPaths() []string {
	paths := []string{
		".vent.yaml",
		".vent.yml",
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "vent", "config.yaml"),
			filepath.Join(home, ".config", "vent", "config.yml"),
		)
	}

	return append(paths, "/etc/vent/config.yaml")
}

// Load loads configuration from file, applies environment overrides and
// derives the RetroPie paths.
// Priority: env VENT_CONFIG > search paths > defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if envPath := os.Getenv("VENT_CONFIG"); envPath != "" {
		if err := cfg.loadFromFile(envPath); err != nil {
			return nil, err
		}
	} else {
		for _, path := range configPaths() {
			if _, err := os.Stat(path); err == nil {
				if err := cfg.loadFromFile(path); err != nil {
					return nil, err
				}
				break
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.derivePaths(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // Operator supplied config path
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if c.Tracing.Endpoint != "" {
		c.Tracing.Enabled = true
	}
	return nil
}

// currentUser mirrors how the kiosk scripts are run: via sudo from the
// RetroPie menu, or directly.
func currentUser() string {
	for _, key := range []string{"__user", "SUDO_USER", "USER"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

func (c *Config) derivePaths() error {
	if c.User == "" {
		c.User = currentUser()
	}
	if c.User == "" {
		return ErrNoUser
	}

	if c.HomeDir == "" {
		u, err := user.Lookup(c.User)
		if err != nil {
			return fmt.Errorf("lookup home of %q: %w", c.User, err)
		}
		c.HomeDir = u.HomeDir
	}

	c.Derive()
	return nil
}

// Derive fills every empty path from HomeDir.
func (c *Config) Derive() {
	setDefault(&c.RetroPieDir, filepath.Join(c.HomeDir, "RetroPie"))
	setDefault(&c.SteamDir, filepath.Join(c.RetroPieDir, "steam"))
	setDefault(&c.GameDir, filepath.Join(c.SteamDir, "menu"))
	setDefault(&c.KeymapDir, filepath.Join(c.SteamDir, "keymaps"))
	setDefault(&c.ActiveKeymap, filepath.Join(c.KeymapDir, "active.conf"))
	setDefault(&c.DefaultKeymap, filepath.Join(c.KeymapDir, "default.conf"))
	setDefault(&c.CacheDir, filepath.Join(c.SteamDir, "cache"))
	setDefault(&c.HistoryDB, filepath.Join(c.SteamDir, "history.db"))
	setDefault(&c.GamelistPath, filepath.Join(c.HomeDir, ".emulationstation", "gamelists", "steam", "gamelist.xml"))
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

// KeymapFor returns the per-game keymap profile path.
func (c *Config) KeymapFor(appID string) string {
	return filepath.Join(c.KeymapDir, appID+".conf")
}

// GetLaunchAttempts returns the polling budget, applying defaults.
func (c *Config) GetLaunchAttempts() int {
	if c.Launch.Attempts > 0 {
		return c.Launch.Attempts
	}
	return 60
}

// GetLaunchInterval returns the polling interval, applying defaults.
func (c *Config) GetLaunchInterval() time.Duration {
	if c.Launch.Interval > 0 {
		return c.Launch.Interval
	}
	return time.Second
}
