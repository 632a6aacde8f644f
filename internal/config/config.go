// package config loads the daemon's human configuration files.
//
// The loaded values are frozen: the core reads them and never writes them back.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	configFolder     = ".config/spotify-player"
	cacheFolder      = ".cache/spotify-player"
	tokenCacheFile   = ".spotify_token_cache.json"
	clientConfigFile = "client.toml"
	appConfigFile    = "app.toml"
)

//go:embed app.example.toml
var exampleConf []byte

// ClientConfig contains the Spotify application credentials loaded from client.toml.
type ClientConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// NotifyFormat contains the format strings used to render desktop notifications.
//
// The placeholders {track}, {artists} and {album} are substituted with the
// current track's data.
type NotifyFormat struct {
	Summary string `toml:"summary"`
	Body    string `toml:"body"`
}

// AppConfig represents the application configuration loaded from app.toml.
type AppConfig struct {
	ClientPort int `toml:"client_port"`

	DefaultDevice string `toml:"default_device"`
	DeviceName    string `toml:"device_name"`

	PlaybackUpdateDelayMs     int64 `toml:"playback_update_delay_in_ms"`
	AppRefreshDurationMs      int64 `toml:"app_refresh_duration_in_ms"`
	PlaybackRefreshDurationMs int64 `toml:"playback_refresh_duration_in_ms"`
	CacheDurationSecs         int64 `toml:"cache_duration_in_secs"`

	EnableCoverImageCache bool `toml:"enable_cover_image_cache"`
	EnableNotify          bool `toml:"enable_notify"`
	EnableFakeTrackRepeat bool `toml:"enable_fake_track_repeat_mode"`

	LikedTracksLimit int `toml:"liked_tracks_limit"`

	Notify NotifyFormat `toml:"notify_format"`
}

// Config aggregates the daemon configuration together with the resolved
// config and cache folder paths.
type Config struct {
	Client ClientConfig
	App    AppConfig

	ConfigDir string
	CacheDir  string
}

// CacheTTL returns the configured per-entry cache duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.App.CacheDurationSecs) * time.Second
}

// TokenCachePath returns the path of the on-disk token cache file.
func (c *Config) TokenCachePath() string {
	return filepath.Join(c.ConfigDir, tokenCacheFile)
}

// ImportsDir returns the root folder holding playlist import state files.
func (c *Config) ImportsDir() string {
	return filepath.Join(c.ConfigDir, "imports")
}

// ImageCacheDir returns the folder holding cached cover images.
func (c *Config) ImageCacheDir() string {
	return filepath.Join(c.CacheDir, "image")
}

// DefaultAppConfig returns an AppConfig with sensible defaults loaded from the embedded example config.
func DefaultAppConfig() AppConfig {
	var app AppConfig
	if err := toml.Unmarshal(exampleConf, &app); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return app
}

// ConfigFolderPath resolves the daemon's configuration folder under $HOME.
func ConfigFolderPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot find the home folder: %w", err)
	}
	return filepath.Join(home, configFolder), nil
}

// CacheFolderPath resolves the daemon's cache folder under $HOME.
func CacheFolderPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot find the home folder: %w", err)
	}
	return filepath.Join(home, cacheFolder), nil
}

// Load reads client.toml and app.toml from dir.
//
// client.toml is required; a missing or partial app.toml falls back to the
// embedded defaults.
func Load(dir, cacheDir string) (*Config, error) {
	cfg := &Config{
		App:       DefaultAppConfig(),
		ConfigDir: dir,
		CacheDir:  cacheDir,
	}

	data, err := os.ReadFile(filepath.Join(dir, clientConfigFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read client config file: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg.Client); err != nil {
		return nil, fmt.Errorf("failed to parse client config: %w", err)
	}

	if data, err := os.ReadFile(filepath.Join(dir, appConfigFile)); err == nil {
		if err := toml.Unmarshal(data, &cfg.App); err != nil {
			return nil, fmt.Errorf("failed to parse app config: %w", err)
		}
	}

	return cfg, nil
}

// CreateAppConfigFile creates an app.toml file at dir using the embedded example config.
func CreateAppConfigFile(dir string) error {
	path := filepath.Join(dir, appConfigFile)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
