package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestInitializeWithoutConfigFile(t *testing.T) {
	chdir(t, t.TempDir())

	require.NoError(t, Initialize())
	assert.Equal(t, filepath.Join(ConfigDirName, "mirror.db"), GetString("db"))
	assert.Equal(t, 3, GetInt("sync.retries"))
}

func TestInitializeReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	configDir := filepath.Join(dir, ConfigDirName)
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yaml"),
		[]byte("db: custom.db\njira:\n  url: https://example.atlassian.net\n"), 0o600))
	chdir(t, dir)

	require.NoError(t, Initialize())
	assert.Equal(t, "custom.db", GetString("db"))
	assert.Equal(t, "https://example.atlassian.net", GetString("jira.url"))
}

func TestEnvOverridesConfig(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("JM_DB", "/tmp/env.db")

	require.NoError(t, Initialize())
	assert.Equal(t, "/tmp/env.db", GetString("db"))
}

func TestJiraSettingsEnvFallback(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("JIRA_URL", "https://env.atlassian.net")
	t.Setenv("JIRA_USERNAME", "env-user")
	t.Setenv("JIRA_API_TOKEN", "env-token")

	require.NoError(t, Initialize())
	settings := JiraSettings()
	assert.Equal(t, "https://env.atlassian.net", settings.URL)
	assert.Equal(t, "env-user", settings.Username)
	assert.Equal(t, "env-token", settings.APIToken)
	assert.NoError(t, settings.Validate())
}

func TestJiraSettingsValidate(t *testing.T) {
	assert.Error(t, Jira{}.Validate())
	assert.Error(t, Jira{URL: "https://x.atlassian.net"}.Validate())
	assert.NoError(t, Jira{URL: "https://x.atlassian.net", APIToken: "t"}.Validate())
}

func TestLoadLocalConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"),
		[]byte("db: local.db\njira-url: https://local.atlassian.net\nquiet: true\n"), 0o600))

	cfg := LoadLocalConfig(dir)
	assert.Equal(t, "local.db", cfg.Database)
	assert.Equal(t, "https://local.atlassian.net", cfg.JiraURL)
	assert.True(t, cfg.Quiet)

	// Missing file yields an empty config, not nil.
	empty := LoadLocalConfig(filepath.Join(dir, "nope"))
	require.NotNil(t, empty)
	assert.Empty(t, empty.Database)
}

func TestLoadLocalConfigWithEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"),
		[]byte("jira-url: https://file.atlassian.net\n"), 0o600))
	t.Setenv("JIRA_URL", "https://override.atlassian.net")

	cfg := LoadLocalConfigWithEnv(dir)
	assert.Equal(t, "https://override.atlassian.net", cfg.JiraURL)
}
