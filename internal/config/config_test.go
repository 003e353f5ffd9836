package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5000", cfg.APIBaseURL)
	assert.Equal(t, 300, cfg.RequestTimeoutSecs)
	assert.Contains(t, cfg.DownloadDir, ".dataops-tui")
	assert.Contains(t, cfg.LogFile, "dataops-tui.log")
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	appDir := filepath.Join(home, ".dataops-tui")
	require.NoError(t, os.MkdirAll(appDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(appDir, ConfigFileName), []byte(
		"api_base_url: http://backend:8080\nrequest_timeout_secs: 60\n",
	), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://backend:8080", cfg.APIBaseURL)
	assert.Equal(t, 60, cfg.RequestTimeoutSecs)
	assert.Contains(t, cfg.DownloadDir, "downloads", "untouched keys keep their defaults")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	appDir := filepath.Join(home, ".dataops-tui")
	require.NoError(t, os.MkdirAll(appDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(appDir, ConfigFileName), []byte(
		"api_base_url: http://backend:8080\n",
	), 0o644))
	t.Setenv("DATAOPS_API_BASE_URL", "http://env-wins:9000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://env-wins:9000", cfg.APIBaseURL)
}
