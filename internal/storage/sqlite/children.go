package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jiramirror/jiramirror/internal/types"
)

// UpsertUser inserts or updates a user by account ID.
func (t *txStore) UpsertUser(ctx context.Context, user *types.User) error {
	return upsertUser(ctx, t.conn, user)
}

// GetUserByAccountID retrieves a mirrored user. Returns (nil, nil) when
// the account is unknown locally.
func (s *Store) GetUserByAccountID(ctx context.Context, accountID string) (*types.User, error) {
	var user types.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, account_id, display_name, email, active, created_at, updated_at
		FROM users WHERE account_id = ?
	`, accountID).Scan(&user.ID, &user.AccountID, &user.DisplayName,
		&user.Email, &user.Active, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapDBError("get user", err)
	}
	return &user, nil
}

func upsertUser(ctx context.Context, q dbtx, user *types.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	_, err := q.ExecContext(ctx, `
		INSERT INTO users (account_id, display_name, email, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(account_id) DO UPDATE SET
			display_name = excluded.display_name,
			email = excluded.email,
			active = excluded.active,
			updated_at = excluded.updated_at
	`, user.AccountID, user.DisplayName, user.Email, user.Active, now, now)
	if err != nil {
		return wrapDBError("upsert user", err)
	}
	return nil
}

// UpsertComponent inserts or updates a component by (project, remote ID).
func (t *txStore) UpsertComponent(ctx context.Context, component *types.Component) error {
	now := time.Now()
	_, err := t.conn.ExecContext(ctx, `
		INSERT INTO components (project_id, jira_id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id, jira_id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			updated_at = excluded.updated_at
	`, component.ProjectID, component.JiraID, component.Name, component.Description, now, now)
	if err != nil {
		return wrapDBError("upsert component", err)
	}
	return nil
}

// UpsertIssueType inserts or updates an issue type by (project, remote ID).
func (t *txStore) UpsertIssueType(ctx context.Context, issueType *types.IssueType) error {
	now := time.Now()
	_, err := t.conn.ExecContext(ctx, `
		INSERT INTO issue_types (project_id, jira_id, name, description, subtask, icon_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id, jira_id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			subtask = excluded.subtask,
			icon_url = excluded.icon_url,
			updated_at = excluded.updated_at
	`, issueType.ProjectID, issueType.JiraID, issueType.Name, issueType.Description,
		issueType.Subtask, issueType.IconURL, now, now)
	if err != nil {
		return wrapDBError("upsert issue type", err)
	}
	return nil
}

// UpsertVersion inserts or updates a version by (project, remote ID).
func (t *txStore) UpsertVersion(ctx context.Context, version *types.Version) error {
	now := time.Now()
	_, err := t.conn.ExecContext(ctx, `
		INSERT INTO versions (project_id, jira_id, name, description, archived, released, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id, jira_id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			archived = excluded.archived,
			released = excluded.released,
			updated_at = excluded.updated_at
	`, version.ProjectID, version.JiraID, version.Name, version.Description,
		version.Archived, version.Released, now, now)
	if err != nil {
		return wrapDBError("upsert version", err)
	}
	return nil
}

// ListComponents returns all components for a project ordered by name.
func (s *Store) ListComponents(ctx context.Context, projectID int64) ([]*types.Component, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, jira_id, name, description, created_at, updated_at
		FROM components WHERE project_id = ? ORDER BY name
	`, projectID)
	if err != nil {
		return nil, wrapDBError("list components", err)
	}
	defer func() { _ = rows.Close() }()

	var components []*types.Component
	for rows.Next() {
		var c types.Component
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.JiraID, &c.Name,
			&c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, wrapDBError("scan component", err)
		}
		components = append(components, &c)
	}
	return components, rows.Err()
}

// ListIssueTypes returns all issue types for a project ordered by name.
func (s *Store) ListIssueTypes(ctx context.Context, projectID int64) ([]*types.IssueType, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, jira_id, name, description, subtask, icon_url, created_at, updated_at
		FROM issue_types WHERE project_id = ? ORDER BY name
	`, projectID)
	if err != nil {
		return nil, wrapDBError("list issue types", err)
	}
	defer func() { _ = rows.Close() }()

	var issueTypes []*types.IssueType
	for rows.Next() {
		var it types.IssueType
		if err := rows.Scan(&it.ID, &it.ProjectID, &it.JiraID, &it.Name,
			&it.Description, &it.Subtask, &it.IconURL, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, wrapDBError("scan issue type", err)
		}
		issueTypes = append(issueTypes, &it)
	}
	return issueTypes, rows.Err()
}

// ListVersions returns all versions for a project ordered by name.
func (s *Store) ListVersions(ctx context.Context, projectID int64) ([]*types.Version, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, jira_id, name, description, archived, released, created_at, updated_at
		FROM versions WHERE project_id = ? ORDER BY name
	`, projectID)
	if err != nil {
		return nil, wrapDBError("list versions", err)
	}
	defer func() { _ = rows.Close() }()

	var versions []*types.Version
	for rows.Next() {
		var v types.Version
		if err := rows.Scan(&v.ID, &v.ProjectID, &v.JiraID, &v.Name,
			&v.Description, &v.Archived, &v.Released, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, wrapDBError("scan version", err)
		}
		versions = append(versions, &v)
	}
	return versions, rows.Err()
}
