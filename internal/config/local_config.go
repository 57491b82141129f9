package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LocalConfig is the subset of config.yaml read directly from the file
// rather than through the viper singleton. Needed when the working
// directory has changed since initialization, or when checking config
// before viper is initialized.
type LocalConfig struct {
	Database string `yaml:"db"`
	JiraURL  string `yaml:"jira-url"`
	Quiet    bool   `yaml:"quiet"`
}

// LoadLocalConfig reads and parses config.yaml directly from the given
// config directory, bypassing the viper singleton.
//
// Returns an empty LocalConfig (not nil) if the file doesn't exist or
// can't be parsed.
func LoadLocalConfig(configDir string) *LocalConfig {
	configPath := filepath.Join(configDir, "config.yaml")
	data, err := os.ReadFile(configPath) // #nosec G304 - config file path from configDir
	if err != nil {
		return &LocalConfig{}
	}

	var cfg LocalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return &LocalConfig{}
	}
	return &cfg
}

// LoadLocalConfigWithEnv reads config.yaml and applies environment
// variable overrides. Environment variables take precedence.
func LoadLocalConfigWithEnv(configDir string) *LocalConfig {
	cfg := LoadLocalConfig(configDir)
	if url := os.Getenv("JIRA_URL"); url != "" {
		cfg.JiraURL = url
	}
	if db := os.Getenv("JM_DB"); db != "" {
		cfg.Database = db
	}
	return cfg
}
