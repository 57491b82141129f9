// Package types defines the local entities mirrored from Jira.
package types

import (
	"fmt"
	"time"
)

// Project is the local aggregate root for a mirrored Jira project.
// It owns components, issue types, versions, and issues, and carries the
// watermark used for incremental issue sync (nil = never synced).
type Project struct {
	ID             int64      `json:"id"`
	JiraID         int64      `json:"jira_id"`
	JiraKey        string     `json:"jira_key"`
	DisplayName    string     `json:"display_name,omitempty"`
	LeadAccountID  *string    `json:"lead_account_id,omitempty"`
	IssuesSyncedAt *time.Time `json:"issues_synced_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Validate checks that the project carries its remote identity.
func (p *Project) Validate() error {
	if p.JiraID <= 0 {
		return fmt.Errorf("project jira_id must be positive, got %d", p.JiraID)
	}
	if p.JiraKey == "" {
		return fmt.Errorf("project jira_key is required")
	}
	return nil
}

// User is a Jira account mirrored locally. Users are shared across projects;
// a project's lead is a weak reference by account ID.
type User struct {
	ID          int64     `json:"id"`
	AccountID   string    `json:"account_id"`
	DisplayName string    `json:"display_name,omitempty"`
	Email       string    `json:"email,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Validate checks that the user carries its remote identity.
func (u *User) Validate() error {
	if u.AccountID == "" {
		return fmt.Errorf("user account_id is required")
	}
	return nil
}

// Component is a project-scoped Jira component. Identified within its
// project by the remote-assigned jira_id; never deleted by sync.
type Component struct {
	ID          int64     `json:"id"`
	ProjectID   int64     `json:"project_id"`
	JiraID      int64     `json:"jira_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IssueType is a project-scoped Jira issue type.
type IssueType struct {
	ID          int64     `json:"id"`
	ProjectID   int64     `json:"project_id"`
	JiraID      int64     `json:"jira_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Subtask     bool      `json:"subtask"`
	IconURL     string    `json:"icon_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Version is a project-scoped Jira version (release).
type Version struct {
	ID          int64     `json:"id"`
	ProjectID   int64     `json:"project_id"`
	JiraID      int64     `json:"jira_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Archived    bool      `json:"archived"`
	Released    bool      `json:"released"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Issue is a project-scoped Jira issue, identified by its remote key
// (e.g. "ABC-123"). Upserted by the incremental fetcher; never deleted.
type Issue struct {
	ID          int64     `json:"id"`
	ProjectID   int64     `json:"project_id"`
	JiraID      int64     `json:"jira_id"`
	JiraKey     string    `json:"jira_key"`
	Summary     string    `json:"summary,omitempty"`
	Description string    `json:"description,omitempty"`
	// Remote timestamps as reported by Jira; distinct from the local
	// row timestamps below.
	RemoteCreatedAt time.Time `json:"remote_created_at"`
	RemoteUpdatedAt time.Time `json:"remote_updated_at"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Validate checks that the issue carries its remote identity and owner.
func (i *Issue) Validate() error {
	if i.ProjectID <= 0 {
		return fmt.Errorf("issue project_id must be positive, got %d", i.ProjectID)
	}
	if i.JiraKey == "" {
		return fmt.Errorf("issue jira_key is required")
	}
	return nil
}
