// Package storage defines the persistence interface for mirrored
// tracker data.
package storage

import (
	"context"
	"time"

	"github.com/jiramirror/jiramirror/internal/types"
)

// Store is the interface for mirror persistence.
//
// Lookup methods return (nil, nil) when no matching row exists; errors
// are reserved for real failures.
type Store interface {
	// CreateProject inserts a new local project row. Returns ErrConflict
	// if a project with the same Jira ID or key already exists.
	CreateProject(ctx context.Context, project *types.Project) error

	// GetProject retrieves a project by local row ID.
	GetProject(ctx context.Context, id int64) (*types.Project, error)

	// GetProjectByJiraID retrieves a project by its remote numeric ID.
	GetProjectByJiraID(ctx context.Context, jiraID int64) (*types.Project, error)

	// GetProjectByKey retrieves a project by its remote key (e.g. "ABC").
	GetProjectByKey(ctx context.Context, key string) (*types.Project, error)

	// ListProjects returns all projects ordered by key.
	ListProjects(ctx context.Context) ([]*types.Project, error)

	// GetUserByAccountID retrieves a mirrored user by Jira account ID.
	GetUserByAccountID(ctx context.Context, accountID string) (*types.User, error)

	// GetIssueByJiraID retrieves a mirrored issue by its remote numeric ID.
	GetIssueByJiraID(ctx context.Context, jiraID int64) (*types.Issue, error)

	// ListIssues returns all mirrored issues for a project ordered by key.
	ListIssues(ctx context.Context, projectID int64) ([]*types.Issue, error)

	// CountIssues returns the number of mirrored issues for a project.
	CountIssues(ctx context.Context, projectID int64) (int, error)

	// UpsertIssue inserts or updates a mirrored issue by remote ID.
	// Used by incremental sync outside any wrapping transaction so each
	// reconciled issue persists independently.
	UpsertIssue(ctx context.Context, issue *types.Issue) error

	// AdvanceIssuesSyncedAt moves a project's issue-sync watermark
	// forward to ts. The watermark never regresses: a ts at or before
	// the current value is a no-op.
	AdvanceIssuesSyncedAt(ctx context.Context, projectID int64, ts time.Time) error

	// RunInTransaction executes fn within a single database transaction.
	// If fn returns an error the transaction is rolled back and no
	// partial writes survive.
	RunInTransaction(ctx context.Context, fn func(tx Transaction) error) error

	// Close releases the underlying database resources.
	Close() error
}

// Transaction is the write interface available inside RunInTransaction.
// Aggregate sync uses it so a project snapshot lands atomically:
// project scalars, lead, components, issue types, and versions commit
// together or not at all.
type Transaction interface {
	// SaveProject updates an existing project's scalar attributes.
	SaveProject(ctx context.Context, project *types.Project) error

	// UpsertUser inserts or updates a user by account ID.
	UpsertUser(ctx context.Context, user *types.User) error

	// UpsertComponent inserts or updates a component by (project, remote ID).
	UpsertComponent(ctx context.Context, component *types.Component) error

	// UpsertIssueType inserts or updates an issue type by (project, remote ID).
	UpsertIssueType(ctx context.Context, issueType *types.IssueType) error

	// UpsertVersion inserts or updates a version by (project, remote ID).
	UpsertVersion(ctx context.Context, version *types.Version) error

	// UpsertIssue inserts or updates an issue by remote ID.
	UpsertIssue(ctx context.Context, issue *types.Issue) error
}
