// Package config loads client settings from ~/.milkyway/config.toml, a local
// .env file and MILKYWAY_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DefaultServerURL        = "http://localhost:8090"
	DefaultPollIntervalMS   = 3000
	DefaultRequestTimeoutMS = 15000
)

// DefaultRecorderCommand captures mono WAV audio from the default ALSA
// device. The output path is appended as the last argument.
var DefaultRecorderCommand = []string{"arecord", "-q", "-f", "cd", "-t", "wav"}

type Config struct {
	ServerURL            string   `toml:"server_url"`
	DataDir              string   `toml:"data_dir"`
	PollIntervalMS       int      `toml:"poll_interval_ms"`
	RequestTimeoutMS     int      `toml:"request_timeout_ms"`
	Debug                bool     `toml:"debug"`
	DesktopNotifications bool     `toml:"desktop_notifications"`
	RecorderCommand      []string `toml:"recorder_command"`
}

// GetConfigDir returns the path to the client directory (~/.milkyway).
func GetConfigDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".milkyway")
}

// GetConfigPath returns the default config file path.
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), "config.toml")
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ServerURL:        DefaultServerURL,
		DataDir:          GetConfigDir(),
		PollIntervalMS:   DefaultPollIntervalMS,
		RequestTimeoutMS: DefaultRequestTimeoutMS,
		RecorderCommand:  append([]string(nil), DefaultRecorderCommand...),
	}
}

// Load reads the TOML file at path (a missing file is not an error), then
// applies .env and environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = GetConfigPath()
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	// .env is optional; a missing file keeps the process environment as is.
	_ = godotenv.Load()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("MILKYWAY_SERVER_URL"); v != "" {
		c.ServerURL = v
	}
	if v := os.Getenv("MILKYWAY_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("MILKYWAY_POLL_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.PollIntervalMS = n
		}
	}
	if v := os.Getenv("MILKYWAY_DEBUG"); v != "" {
		c.Debug = parseBool(v)
	}
	if v := os.Getenv("MILKYWAY_NOTIFY"); v != "" {
		c.DesktopNotifications = parseBool(v)
	}
	if v := os.Getenv("MILKYWAY_RECORDER"); v != "" {
		c.RecorderCommand = strings.Fields(v)
	}
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// Validate checks the fields that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid server_url %q", c.ServerURL)
	}
	if c.PollIntervalMS <= 0 {
		return fmt.Errorf("poll_interval_ms must be positive, got %d", c.PollIntervalMS)
	}
	if c.RequestTimeoutMS <= 0 {
		return fmt.Errorf("request_timeout_ms must be positive, got %d", c.RequestTimeoutMS)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir cannot be empty")
	}
	if len(c.RecorderCommand) == 0 {
		return fmt.Errorf("recorder_command cannot be empty")
	}
	return nil
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

func (c *Config) SessionPath() string {
	return filepath.Join(c.DataDir, "session.yml")
}

func (c *Config) CachePath() string {
	return filepath.Join(c.DataDir, "cache.db")
}

func (c *Config) LogPath() string {
	return filepath.Join(c.DataDir, "milkyway.log")
}

// Save writes the configuration as TOML, creating the directory if needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}
