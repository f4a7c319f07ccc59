package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("MILKYWAY_SERVER_URL", "")
	t.Setenv("MILKYWAY_POLL_INTERVAL_MS", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultServerURL, cfg.ServerURL)
	assert.Equal(t, 3*time.Second, cfg.PollInterval())
	assert.Equal(t, DefaultRecorderCommand, cfg.RecorderCommand)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
server_url = "https://chat.example.com"
data_dir = "` + filepath.ToSlash(dir) + `"
poll_interval_ms = 5000
desktop_notifications = true
recorder_command = ["rec", "-q"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	t.Setenv("MILKYWAY_SERVER_URL", "")
	t.Setenv("MILKYWAY_POLL_INTERVAL_MS", "1500")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://chat.example.com", cfg.ServerURL)
	assert.Equal(t, 1500*time.Millisecond, cfg.PollInterval())
	assert.True(t, cfg.DesktopNotifications)
	assert.Equal(t, []string{"rec", "-q"}, cfg.RecorderCommand)
	assert.Equal(t, filepath.Join(dir, "session.yml"), filepath.FromSlash(cfg.SessionPath()))
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.ServerURL = "not a url"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.PollIntervalMS = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.RecorderCommand = nil
	assert.Error(t, cfg.Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.ServerURL = "http://10.0.0.2:8090"
	require.NoError(t, Save(path, cfg))

	t.Setenv("MILKYWAY_SERVER_URL", "")
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.2:8090", loaded.ServerURL)
}
