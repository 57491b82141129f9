package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jiramirror/jiramirror/internal/types"
)

// UpsertIssue inserts or updates a mirrored issue by remote ID. Each
// call is its own write; incremental sync relies on this so issues
// reconciled before a mid-page failure stay persisted.
func (s *Store) UpsertIssue(ctx context.Context, issue *types.Issue) error {
	return upsertIssue(ctx, s.db, issue)
}

// UpsertIssue inserts or updates an issue within the transaction.
func (t *txStore) UpsertIssue(ctx context.Context, issue *types.Issue) error {
	return upsertIssue(ctx, t.conn, issue)
}

func upsertIssue(ctx context.Context, q dbtx, issue *types.Issue) error {
	if err := issue.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	_, err := q.ExecContext(ctx, `
		INSERT INTO issues (project_id, jira_id, jira_key, summary, description,
			remote_created_at, remote_updated_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(jira_id) DO UPDATE SET
			jira_key = excluded.jira_key,
			summary = excluded.summary,
			description = excluded.description,
			remote_created_at = excluded.remote_created_at,
			remote_updated_at = excluded.remote_updated_at,
			updated_at = excluded.updated_at
	`, issue.ProjectID, issue.JiraID, issue.JiraKey, issue.Summary, issue.Description,
		issue.RemoteCreatedAt, issue.RemoteUpdatedAt, now, now)
	if err != nil {
		return wrapDBError("upsert issue", err)
	}
	return nil
}

// GetIssueByJiraID retrieves a mirrored issue by its remote numeric ID.
// Returns (nil, nil) when the issue is unknown locally.
func (s *Store) GetIssueByJiraID(ctx context.Context, jiraID int64) (*types.Issue, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, jira_id, jira_key, summary, description,
		       remote_created_at, remote_updated_at, created_at, updated_at
		FROM issues WHERE jira_id = ?
	`, jiraID)

	issue, err := scanIssue(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapDBError("get issue", err)
	}
	return issue, nil
}

// ListIssues returns all mirrored issues for a project ordered by key.
func (s *Store) ListIssues(ctx context.Context, projectID int64) ([]*types.Issue, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, jira_id, jira_key, summary, description,
		       remote_created_at, remote_updated_at, created_at, updated_at
		FROM issues WHERE project_id = ? ORDER BY jira_key
	`, projectID)
	if err != nil {
		return nil, wrapDBError("list issues", err)
	}
	defer func() { _ = rows.Close() }()

	var issues []*types.Issue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, wrapDBError("scan issue", err)
		}
		issues = append(issues, issue)
	}
	return issues, rows.Err()
}

// CountIssues returns the number of mirrored issues for a project.
func (s *Store) CountIssues(ctx context.Context, projectID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM issues WHERE project_id = ?`, projectID).Scan(&count)
	if err != nil {
		return 0, wrapDBError("count issues", err)
	}
	return count, nil
}

func scanIssue(row scanner) (*types.Issue, error) {
	var issue types.Issue
	var remoteCreated, remoteUpdated sql.NullTime

	err := row.Scan(&issue.ID, &issue.ProjectID, &issue.JiraID, &issue.JiraKey,
		&issue.Summary, &issue.Description, &remoteCreated, &remoteUpdated,
		&issue.CreatedAt, &issue.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if remoteCreated.Valid {
		issue.RemoteCreatedAt = remoteCreated.Time
	}
	if remoteUpdated.Valid {
		issue.RemoteUpdatedAt = remoteUpdated.Time
	}
	return &issue, nil
}
