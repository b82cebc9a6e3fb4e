package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christopherklint97/hourbridge/internal/config"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"TOGGL_API_TOKEN", "TOGGL_WORKSPACE_ID", "HARVEST_ACCOUNT_ID", "HARVEST_TOKEN", "HOURBRIDGE_CONFIG"} {
		t.Setenv(k, "")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "hourbridge", cfg.Toggl.UserAgent)
	assert.True(t, cfg.Notifications.Enabled)
	assert.False(t, cfg.Calendar.Enabled)
	assert.Equal(t, filepath.Join(dir, "project_mapping.yml"), cfg.MappingPath())
	assert.Equal(t, filepath.Join(dir, "ledger_cache.yml"), cfg.CachePath())
	assert.Equal(t, filepath.Join(dir, "data"), cfg.DataDir())
	assert.Equal(t, filepath.Join(dir, "hourbridge.db"), cfg.DBPath())
	assert.Error(t, cfg.CheckToggl())
	assert.Error(t, cfg.CheckHarvest())
}

func TestLoad_FileAndEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`
[toggl]
api_token = "from-file"
workspace_id = "42"
user_agent = "me@example.com"

[toggl.download_params]
project_names = "Web"

[harvest]
account_id = "1234"
token = "secret"

[notifications]
enabled = false
`), 0644))
	t.Setenv("TOGGL_API_TOKEN", "from-env")

	cfg, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Toggl.APIToken)
	assert.Equal(t, "42", cfg.Toggl.WorkspaceID)
	assert.Equal(t, "me@example.com", cfg.Toggl.UserAgent)
	assert.Equal(t, map[string]string{"project_names": "Web"}, cfg.Toggl.DownloadParams)
	assert.Equal(t, "hourbridge", cfg.Harvest.UserAgent)
	assert.False(t, cfg.Notifications.Enabled)
	assert.NoError(t, cfg.CheckToggl())
	assert.NoError(t, cfg.CheckHarvest())
}

func TestLoad_BadTOML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[toggl\n"), 0644))

	_, err := config.Load(dir)

	assert.ErrorContains(t, err, "parsing config file")
}

func TestDir(t *testing.T) {
	clearEnv(t)

	dir, err := config.Dir("/explicit")
	require.NoError(t, err)
	assert.Equal(t, "/explicit", dir)

	t.Setenv("HOURBRIDGE_CONFIG", "/from-env")
	dir, err = config.Dir("")
	require.NoError(t, err)
	assert.Equal(t, "/from-env", dir)

	t.Setenv("HOURBRIDGE_CONFIG", "")
	t.Setenv("HOME", "/home/someone")
	dir, err = config.Dir("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/someone", ".config", "hourbridge"), dir)
}

func TestSet_PreservesOtherSettings(t *testing.T) {
	clearEnv(t)
	dir := filepath.Join(t.TempDir(), "cfg")

	require.NoError(t, config.Set(dir, "toggl.api_token", "tok"))
	require.NoError(t, config.Set(dir, "toggl.workspace_id", "42"))
	require.NoError(t, config.Set(dir, "notifications.enabled", "false"))

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "tok", cfg.Toggl.APIToken)
	assert.Equal(t, "42", cfg.Toggl.WorkspaceID)
	assert.False(t, cfg.Notifications.Enabled)
}

func TestSet_Rejects(t *testing.T) {
	dir := t.TempDir()

	assert.Error(t, config.Set(dir, "nodot", "x"))
	assert.Error(t, config.Set(dir, "notifications.enabled", "maybe"))

	_, err := os.Stat(filepath.Join(dir, "config.toml"))
	assert.True(t, os.IsNotExist(err))
}
