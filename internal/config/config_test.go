package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 60, cfg.Launch.Attempts)
	assert.Equal(t, time.Second, cfg.Launch.Interval)
	assert.Equal(t, "https://api.steampowered.com", cfg.Steam.APIBase)
	assert.Equal(t, "https://store.steampowered.com", cfg.Steam.StoreBase)
	assert.Equal(t, "/etc/keyd/default.conf", cfg.KeydConfig)
	assert.Equal(t, 3*time.Minute, cfg.FailureHold)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestConfig_Derive(t *testing.T) {
	cfg := &Config{HomeDir: "/home/arcade"}
	cfg.Derive()

	assert.Equal(t, "/home/arcade/RetroPie", cfg.RetroPieDir)
	assert.Equal(t, "/home/arcade/RetroPie/steam", cfg.SteamDir)
	assert.Equal(t, "/home/arcade/RetroPie/steam/menu", cfg.GameDir)
	assert.Equal(t, "/home/arcade/RetroPie/steam/keymaps", cfg.KeymapDir)
	assert.Equal(t, "/home/arcade/RetroPie/steam/keymaps/active.conf", cfg.ActiveKeymap)
	assert.Equal(t, "/home/arcade/RetroPie/steam/keymaps/default.conf", cfg.DefaultKeymap)
	assert.Equal(t, "/home/arcade/RetroPie/steam/cache", cfg.CacheDir)
	assert.Equal(t, "/home/arcade/.emulationstation/gamelists/steam/gamelist.xml", cfg.GamelistPath)
	assert.Equal(t, "/home/arcade/RetroPie/steam/keymaps/620.conf", cfg.KeymapFor("620"))
}

func TestConfig_DeriveKeepsExplicitPaths(t *testing.T) {
	cfg := &Config{HomeDir: "/home/arcade", CacheDir: "/var/cache/vent"}
	cfg.Derive()

	assert.Equal(t, "/var/cache/vent", cfg.CacheDir)
}

func TestConfig_LaunchPolicyDefaults(t *testing.T) {
	tests := []struct {
		name     string
		launch   LaunchConfig
		attempts int
		interval time.Duration
	}{
		{"configured", LaunchConfig{Attempts: 10, Interval: 2 * time.Second}, 10, 2 * time.Second},
		{"zero falls back", LaunchConfig{}, 60, time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Launch: tt.launch}
			assert.Equal(t, tt.attempts, cfg.GetLaunchAttempts())
			assert.Equal(t, tt.interval, cfg.GetLaunchInterval())
		})
	}
}

func TestLoad_FromFileWithEnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
user: arcade
home_dir: /home/arcade
cache_dir: /srv/cache
launch:
  attempts: 30
  interval: 500ms
steam:
  login: LowellMakes
logging:
  format: json
  level: info
`
	err := os.WriteFile(configPath, []byte(configContent), 0644) // #nosec G306
	require.NoError(t, err)

	t.Setenv("VENT_CONFIG", configPath)
	t.Setenv("VENT_LAUNCH_ATTEMPTS", "45")
	t.Setenv("VENT_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "arcade", cfg.User)
	assert.Equal(t, "/srv/cache", cfg.CacheDir)
	assert.Equal(t, 45, cfg.Launch.Attempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Launch.Interval)
	assert.Equal(t, "LowellMakes", cfg.Steam.Login)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "/home/arcade/RetroPie/steam/menu", cfg.GameDir)
}

func TestLoad_InvalidFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("launch: [unterminated"), 0644)) // #nosec G306

	t.Setenv("VENT_CONFIG", configPath)

	_, err := Load()
	assert.Error(t, err)
}

func TestDerivePaths_NoUser(t *testing.T) {
	t.Setenv("__user", "")
	t.Setenv("SUDO_USER", "")
	t.Setenv("USER", "")

	cfg := DefaultConfig()
	err := cfg.derivePaths()
	assert.ErrorIs(t, err, ErrNoUser)
}

func TestCurrentUser_Priority(t *testing.T) {
	t.Setenv("__user", "")
	t.Setenv("SUDO_USER", "arcade")
	t.Setenv("USER", "root")

	assert.Equal(t, "arcade", currentUser())
}
