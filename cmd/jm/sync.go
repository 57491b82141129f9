package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cobra"

	"github.com/jiramirror/jiramirror/internal/config"
	"github.com/jiramirror/jiramirror/internal/jira"
	"github.com/jiramirror/jiramirror/internal/sync"
	"github.com/jiramirror/jiramirror/internal/types"
)

var syncRetries int

var syncCmd = &cobra.Command{
	Use:   "sync [key...]",
	Short: "Sync mirrored projects with Jira",
	Long: `Refreshes each project's metadata aggregate, then fetches issues
updated since the project's last successful sync. With no arguments all
mirrored projects are synced.

Transient failures (network, partial issue sync) are retried with
exponential backoff; anything reconciled before a failure stays
persisted either way.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.JiraSettings().Validate(); err != nil {
			return err
		}
		if !cmd.Flags().Changed("retries") {
			syncRetries = retriesFromConfig(syncRetries)
		}

		var projects []*types.Project
		if len(args) == 0 {
			var err error
			projects, err = store.ListProjects(rootCtx)
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				return fmt.Errorf("no projects mirrored (run 'jm project add <key>' first)")
			}
		} else {
			for _, key := range args {
				project, err := store.GetProjectByKey(rootCtx, key)
				if err != nil {
					return err
				}
				if project == nil {
					return fmt.Errorf("project %s is not mirrored", key)
				}
				projects = append(projects, project)
			}
		}

		type result struct {
			Project string `json:"project"`
			Issues  int    `json:"issues"`
		}
		var results []result

		for _, project := range projects {
			issues, err := syncWithRetry(project)
			if err != nil {
				return fmt.Errorf("sync %s: %w", project.JiraKey, err)
			}
			results = append(results, result{Project: project.JiraKey, Issues: issues})
		}

		if jsonOutput {
			outputJSON(results)
		}
		return nil
	},
}

// syncWithRetry runs a full project sync, retrying transient failures
// with exponential backoff. Permanent errors (bad credentials, unknown
// project, malformed data) abort immediately.
func syncWithRetry(project *types.Project) (int, error) {
	var issues int
	operation := func() error {
		n, err := engine.Sync(rootCtx, project)
		if err == nil {
			issues = n
			return nil
		}
		if isTransient(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(syncRetries)), // #nosec G115 - flag is non-negative
		rootCtx,
	)
	if err := backoff.RetryNotify(operation, policy, retryNotify(os.Stderr, project.JiraKey)); err != nil {
		return 0, err
	}
	return issues, nil
}

// retriesFromConfig returns the configured sync.retries value, or
// fallback when config has nothing useful.
func retriesFromConfig(fallback int) int {
	if n := config.GetInt("sync.retries"); n > 0 {
		return n
	}
	return fallback
}

// retryNotify reports backoff waits on w when --verbose is set.
func retryNotify(w io.Writer, projectKey string) backoff.Notify {
	return func(err error, wait time.Duration) {
		if !verbose {
			return
		}
		fmt.Fprintf(w, "Retrying %s in %s: %v\n", projectKey, wait.Round(time.Second), err)
	}
}

// isTransient reports whether err is worth retrying. A partial issue
// sync caused by a transport failure is transient: the watermark hasn't
// moved, so a retry re-covers the same window and upserts are
// idempotent.
func isTransient(err error) bool {
	if errors.Is(err, jira.ErrTransport) {
		return true
	}
	var partial *sync.PartialSyncError
	return errors.As(err, &partial) && errors.Is(partial.Err, jira.ErrTransport)
}

func init() {
	syncCmd.Flags().IntVar(&syncRetries, "retries", 3, "Max retries for transient failures (config: sync.retries)")
	rootCmd.AddCommand(syncCmd)
}
