// Package config manages jiramirror configuration.
//
// Sources, lowest to highest precedence: built-in defaults, the
// .jiramirror/config.yaml file, and JM_* environment variables. Jira
// credentials additionally honor the conventional JIRA_URL,
// JIRA_USERNAME, and JIRA_API_TOKEN variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ConfigDirName is the per-project configuration directory.
const ConfigDirName = ".jiramirror"

var v *viper.Viper

// Initialize sets up the viper singleton. Safe to call once at process
// start; a missing config file is not an error.
func Initialize() error {
	v = viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if dir := FindConfigDir(); dir != "" {
		v.AddConfigPath(dir)
	}
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ConfigDirName))
	}

	v.SetEnvPrefix("JM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db", filepath.Join(ConfigDirName, "mirror.db"))
	v.SetDefault("cache-ttl", 15*time.Minute)
	v.SetDefault("sync.retries", 3)
}

// FindConfigDir walks up from the working directory looking for a
// .jiramirror directory. Returns "" when none exists.
func FindConfigDir() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for dir := cwd; ; dir = filepath.Dir(dir) {
		candidate := filepath.Join(dir, ConfigDirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
		if dir == filepath.Dir(dir) {
			return ""
		}
	}
}

// GetString returns a string config value, or "" before Initialize.
func GetString(key string) string {
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

// GetBool returns a boolean config value.
func GetBool(key string) bool {
	if v == nil {
		return false
	}
	return v.GetBool(key)
}

// GetInt returns an integer config value.
func GetInt(key string) int {
	if v == nil {
		return 0
	}
	return v.GetInt(key)
}

// GetDuration returns a duration config value.
func GetDuration(key string) time.Duration {
	if v == nil {
		return 0
	}
	return v.GetDuration(key)
}

// Jira holds the remote connection settings.
type Jira struct {
	URL      string
	Username string
	APIToken string
}

// JiraSettings resolves the Jira connection from config and the
// conventional JIRA_* environment variables (env wins).
func JiraSettings() Jira {
	settings := Jira{
		URL:      GetString("jira.url"),
		Username: GetString("jira.username"),
		APIToken: GetString("jira.api-token"),
	}
	if url := os.Getenv("JIRA_URL"); url != "" {
		settings.URL = url
	}
	if username := os.Getenv("JIRA_USERNAME"); username != "" {
		settings.Username = username
	}
	if token := os.Getenv("JIRA_API_TOKEN"); token != "" {
		settings.APIToken = token
	}
	return settings
}

// Validate checks that the settings are sufficient to reach Jira.
func (j Jira) Validate() error {
	if j.URL == "" {
		return fmt.Errorf("jira URL not configured (set jira.url or JIRA_URL)")
	}
	if j.APIToken == "" {
		return fmt.Errorf("jira API token not configured (set jira.api-token or JIRA_API_TOKEN)")
	}
	return nil
}
