package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jiramirror/jiramirror/internal/config"
	"github.com/jiramirror/jiramirror/internal/storage"
	"github.com/jiramirror/jiramirror/internal/types"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage mirrored projects",
}

var projectAddCmd = &cobra.Command{
	Use:   "add <key-or-id>",
	Short: "Start mirroring a Jira project",
	Long: `Registers a remote Jira project and runs the first full sync:
project metadata, lead, components, issue types, versions, and all
issues.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.JiraSettings().Validate(); err != nil {
			return err
		}

		project, err := engine.RegisterProject(rootCtx, args[0])
		if err != nil {
			if errors.Is(err, storage.ErrConflict) {
				return fmt.Errorf("project %s is already mirrored (use 'jm sync %s')", args[0], args[0])
			}
			return err
		}

		issues, err := engine.SyncIssues(rootCtx, project)
		if err != nil {
			return fmt.Errorf("project %s registered, but issue sync failed: %w", project.JiraKey, err)
		}

		if jsonOutput {
			outputJSON(map[string]any{
				"project": project,
				"issues":  issues,
			})
			return nil
		}
		fmt.Printf("Mirroring %s (%s): %d issues\n", project.JiraKey, project.DisplayName, issues)
		return nil
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List mirrored projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		projects, err := store.ListProjects(rootCtx)
		if err != nil {
			return err
		}

		if jsonOutput {
			if projects == nil {
				projects = []*types.Project{}
			}
			outputJSON(projects)
			return nil
		}

		if len(projects) == 0 {
			fmt.Println("No projects mirrored. Run 'jm project add <key>' to start.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tNAME\tISSUES\tLAST ISSUE SYNC")
		for _, p := range projects {
			count, err := store.CountIssues(rootCtx, p.ID)
			if err != nil {
				return err
			}
			lastSync := "never"
			if p.IssuesSyncedAt != nil {
				lastSync = p.IssuesSyncedAt.Local().Format("2006-01-02 15:04")
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", p.JiraKey, p.DisplayName, count, lastSync)
		}
		return w.Flush()
	},
}

var projectShowCmd = &cobra.Command{
	Use:   "show <key>",
	Short: "Show a mirrored project's details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := store.GetProjectByKey(rootCtx, args[0])
		if err != nil {
			return err
		}
		if project == nil {
			return fmt.Errorf("project %s is not mirrored", args[0])
		}

		components, err := store.ListComponents(rootCtx, project.ID)
		if err != nil {
			return err
		}
		issueTypes, err := store.ListIssueTypes(rootCtx, project.ID)
		if err != nil {
			return err
		}
		versions, err := store.ListVersions(rootCtx, project.ID)
		if err != nil {
			return err
		}
		issueCount, err := store.CountIssues(rootCtx, project.ID)
		if err != nil {
			return err
		}

		var lead *types.User
		if project.LeadAccountID != nil {
			lead, err = store.GetUserByAccountID(rootCtx, *project.LeadAccountID)
			if err != nil {
				return err
			}
		}

		if jsonOutput {
			outputJSON(map[string]any{
				"project":     project,
				"lead":        lead,
				"components":  components,
				"issue_types": issueTypes,
				"versions":    versions,
				"issue_count": issueCount,
			})
			return nil
		}

		fmt.Printf("%s - %s\n", project.JiraKey, project.DisplayName)
		if lead != nil {
			fmt.Printf("Lead: %s (%s)\n", lead.DisplayName, lead.AccountID)
		}
		if project.IssuesSyncedAt != nil {
			fmt.Printf("Last issue sync: %s\n", project.IssuesSyncedAt.Local().Format("2006-01-02 15:04:05"))
		} else {
			fmt.Println("Last issue sync: never")
		}
		fmt.Printf("Issues: %d\n", issueCount)

		if len(components) > 0 {
			fmt.Println("\nComponents:")
			for _, c := range components {
				fmt.Printf("  %s\n", c.Name)
			}
		}
		if len(issueTypes) > 0 {
			fmt.Println("\nIssue types:")
			for _, it := range issueTypes {
				suffix := ""
				if it.Subtask {
					suffix = " (subtask)"
				}
				fmt.Printf("  %s%s\n", it.Name, suffix)
			}
		}
		if len(versions) > 0 {
			fmt.Println("\nVersions:")
			for _, ver := range versions {
				state := ""
				switch {
				case ver.Archived:
					state = " [archived]"
				case ver.Released:
					state = " [released]"
				}
				fmt.Printf("  %s%s\n", ver.Name, state)
			}
		}
		return nil
	},
}

var projectIssuesCmd = &cobra.Command{
	Use:   "issues <key>",
	Short: "List mirrored issues for a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := store.GetProjectByKey(rootCtx, args[0])
		if err != nil {
			return err
		}
		if project == nil {
			return fmt.Errorf("project %s is not mirrored", args[0])
		}

		issues, err := store.ListIssues(rootCtx, project.ID)
		if err != nil {
			return err
		}

		if jsonOutput {
			if issues == nil {
				issues = []*types.Issue{}
			}
			outputJSON(issues)
			return nil
		}

		if len(issues) == 0 {
			fmt.Println("No issues mirrored yet.")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tUPDATED\tSUMMARY")
		for _, issue := range issues {
			fmt.Fprintf(w, "%s\t%s\t%s\n", issue.JiraKey,
				issue.RemoteUpdatedAt.Local().Format("2006-01-02"), issue.Summary)
		}
		return w.Flush()
	},
}

func init() {
	projectCmd.AddCommand(projectAddCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectShowCmd)
	projectCmd.AddCommand(projectIssuesCmd)
	rootCmd.AddCommand(projectCmd)
}
