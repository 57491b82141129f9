package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jiramirror/jiramirror/internal/config"
	"github.com/jiramirror/jiramirror/internal/storage/sqlite"
)

const configTemplate = `# jiramirror configuration
#
# Credentials can also come from the JIRA_URL, JIRA_USERNAME, and
# JIRA_API_TOKEN environment variables, which take precedence.

# jira:
#   url: https://your-site.atlassian.net
#   username: you@example.com
#   api-token: your-token

db: %s
cache-ttl: 15m
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a mirror in the current directory",
	Long: `Creates a .jiramirror directory with a config.yaml skeleton and an
empty database. Safe to re-run: existing files are left alone.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := config.ConfigDirName
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}

		path := dbPath
		if path == "" {
			path = filepath.Join(dir, "mirror.db")
		}

		configPath := filepath.Join(dir, "config.yaml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			content := fmt.Sprintf(configTemplate, path)
			if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", configPath, err)
			}
		}

		db, err := sqlite.New(rootCtx, path)
		if err != nil {
			return fmt.Errorf("create database %s: %w", path, err)
		}
		if err := db.Close(); err != nil {
			return err
		}

		if jsonOutput {
			outputJSON(map[string]string{"config": configPath, "db": path})
			return nil
		}
		fmt.Printf("Initialized mirror: %s (db: %s)\n", configPath, path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
