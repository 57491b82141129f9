// Command jm mirrors Jira projects into a local SQLite database.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jiramirror/jiramirror/internal/cache"
	"github.com/jiramirror/jiramirror/internal/config"
	"github.com/jiramirror/jiramirror/internal/jira"
	"github.com/jiramirror/jiramirror/internal/storage/sqlite"
	"github.com/jiramirror/jiramirror/internal/sync"
	"github.com/jiramirror/jiramirror/internal/telemetry"
)

var (
	dbPath     string
	jsonOutput bool
	verbose    bool
	quiet      bool

	store   *sqlite.Store
	engine  *sync.Engine
	rootCtx context.Context
)

var rootCmd = &cobra.Command{
	Use:   "jm",
	Short: "Mirror Jira projects into a local database",
	Long: `jm maintains a local SQLite mirror of Jira projects.

Register a project once, then sync incrementally: project metadata
(lead, components, issue types, versions) refreshes atomically, and
issues are fetched only from the last successful sync onward.

Connection settings come from .jiramirror/config.yaml or the JIRA_URL,
JIRA_USERNAME, and JIRA_API_TOKEN environment variables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		rootCtx = cmd.Context()

		if err := telemetry.Init(rootCtx, "jm", version); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: telemetry init failed: %v\n", err)
		}

		// Version, help, and init don't need an open database or
		// credentials; init manages its own files.
		switch cmd.Name() {
		case "version", "help", "init":
			return nil
		}

		path := resolveDBPath(dbPath)
		if !quiet {
			if dir := config.FindConfigDir(); dir != "" {
				quiet = config.LoadLocalConfigWithEnv(dir).Quiet
			}
		}

		var err error
		store, err = sqlite.New(rootCtx, path)
		if err != nil {
			return fmt.Errorf("open database %s: %w", path, err)
		}

		settings := config.JiraSettings()
		client := jira.NewClient(settings.URL, settings.Username, settings.APIToken)

		engine = sync.NewEngine(store, client, cache.New())
		if ttl := config.GetDuration("cache-ttl"); ttl > 0 {
			engine.CacheTTL = ttl
		}
		if !quiet && !jsonOutput {
			engine.OnMessage = func(format string, args ...any) {
				fmt.Printf(format+"\n", args...)
			}
		}
		engine.OnWarning = func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if store != nil {
			_ = store.Close()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		telemetry.Shutdown(shutdownCtx)
	},
}

func init() {
	cobra.OnInitialize(func() {
		if err := config.Initialize(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	})

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (default from config)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress messages")
}

// resolveDBPath picks the database path: the --db flag wins, then the
// db entry in the nearest config.yaml. Relative paths from the file are
// resolved against the directory holding .jiramirror, so commands work
// from anywhere under the mirror root. Falls back to the configured
// default.
func resolveDBPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if dir := config.FindConfigDir(); dir != "" {
		if local := config.LoadLocalConfigWithEnv(dir); local.Database != "" {
			if filepath.IsAbs(local.Database) {
				return local.Database
			}
			return filepath.Join(filepath.Dir(dir), local.Database)
		}
	}
	return config.GetString("db")
}

// outputJSON writes v as indented JSON to stdout.
func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
