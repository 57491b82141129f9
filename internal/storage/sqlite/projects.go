package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jiramirror/jiramirror/internal/types"
)

const projectColumns = `id, jira_id, jira_key, display_name, lead_account_id, issues_synced_at, created_at, updated_at`

// CreateProject inserts a new project row. The remote identity columns
// are unique, so registering the same Jira project twice fails with
// storage.ErrConflict.
func (s *Store) CreateProject(ctx context.Context, project *types.Project) error {
	if err := project.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	project.CreatedAt = now
	project.UpdatedAt = now

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (jira_id, jira_key, display_name, lead_account_id, issues_synced_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, project.JiraID, project.JiraKey, project.DisplayName,
		stringToNull(project.LeadAccountID), timeToNull(project.IssuesSyncedAt),
		project.CreatedAt, project.UpdatedAt)
	if err != nil {
		return wrapDBError("insert project", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return wrapDBError("get project row ID", err)
	}
	project.ID = id
	return nil
}

// GetProject retrieves a project by local row ID. Returns (nil, nil)
// when no such project exists.
func (s *Store) GetProject(ctx context.Context, id int64) (*types.Project, error) {
	return getProjectWhere(ctx, s.db, "id = ?", id)
}

// GetProjectByJiraID retrieves a project by its remote numeric ID.
func (s *Store) GetProjectByJiraID(ctx context.Context, jiraID int64) (*types.Project, error) {
	return getProjectWhere(ctx, s.db, "jira_id = ?", jiraID)
}

// GetProjectByKey retrieves a project by its remote key.
func (s *Store) GetProjectByKey(ctx context.Context, key string) (*types.Project, error) {
	return getProjectWhere(ctx, s.db, "jira_key = ?", key)
}

// ListProjects returns all projects ordered by key.
func (s *Store) ListProjects(ctx context.Context) ([]*types.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects ORDER BY jira_key`)
	if err != nil {
		return nil, wrapDBError("list projects", err)
	}
	defer func() { _ = rows.Close() }()

	var projects []*types.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, wrapDBError("scan project", err)
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

// AdvanceIssuesSyncedAt moves the issue-sync watermark forward. The
// WHERE clause enforces monotonicity: a timestamp at or before the
// current watermark changes nothing.
func (s *Store) AdvanceIssuesSyncedAt(ctx context.Context, projectID int64, ts time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE projects
		SET issues_synced_at = ?, updated_at = ?
		WHERE id = ? AND (issues_synced_at IS NULL OR issues_synced_at < ?)
	`, ts, time.Now(), projectID, ts)
	if err != nil {
		return wrapDBError("advance issue watermark", err)
	}
	return nil
}

// SaveProject updates an existing project's scalar attributes within
// the transaction.
func (t *txStore) SaveProject(ctx context.Context, project *types.Project) error {
	return saveProject(ctx, t.conn, project)
}

func saveProject(ctx context.Context, q dbtx, project *types.Project) error {
	if err := project.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	project.UpdatedAt = time.Now()
	result, err := q.ExecContext(ctx, `
		UPDATE projects
		SET jira_key = ?, display_name = ?, lead_account_id = ?, updated_at = ?
		WHERE id = ?
	`, project.JiraKey, project.DisplayName, stringToNull(project.LeadAccountID),
		project.UpdatedAt, project.ID)
	if err != nil {
		return wrapDBError("save project", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return wrapDBError("check rows affected", err)
	}
	if rows == 0 {
		return fmt.Errorf("project %d not found", project.ID)
	}
	return nil
}

func getProjectWhere(ctx context.Context, q dbtx, where string, args ...any) (*types.Project, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE `+where, args...)
	project, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapDBError("get project", err)
	}
	return project, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner) (*types.Project, error) {
	var project types.Project
	var lead sql.NullString
	var syncedAt sql.NullTime

	err := row.Scan(&project.ID, &project.JiraID, &project.JiraKey,
		&project.DisplayName, &lead, &syncedAt,
		&project.CreatedAt, &project.UpdatedAt)
	if err != nil {
		return nil, err
	}

	project.LeadAccountID = nullToString(lead)
	project.IssuesSyncedAt = nullToTime(syncedAt)
	return &project, nil
}
