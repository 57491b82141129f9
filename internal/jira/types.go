// Package jira provides a typed HTTP client for the Jira REST API v3.
//
// The client is pure transport: it performs single requests and decodes
// responses. Pagination, caching, and reconciliation live in the sync
// layer.
package jira

import "encoding/json"

// RemoteProject is a Jira project snapshot, including the nested
// collections returned by the project endpoint.
type RemoteProject struct {
	ID         string            `json:"id"`
	Key        string            `json:"key"`
	Name       string            `json:"name"`
	Lead       *RemoteUser       `json:"lead"`
	Components []RemoteComponent `json:"components"`
	IssueTypes []RemoteIssueType `json:"issueTypes"`
	Versions   []RemoteVersion   `json:"versions"`
}

// RemoteUser is a Jira user (account).
type RemoteUser struct {
	AccountID    string `json:"accountId"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
	Active       bool   `json:"active"`
}

// RemoteComponent is a project component.
type RemoteComponent struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// RemoteIssueType is an issue type available in a project.
type RemoteIssueType struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Subtask     bool   `json:"subtask"`
	IconURL     string `json:"iconUrl"`
}

// RemoteVersion is a project version (release).
type RemoteVersion struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Archived    bool   `json:"archived"`
	Released    bool   `json:"released"`
}

// RemotePriority is a Jira priority.
type RemotePriority struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RemoteIssue is a Jira issue as returned by search/get.
type RemoteIssue struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Self   string      `json:"self"`
	Fields IssueFields `json:"fields"`
}

// IssueFields contains the issue fields requested during sync.
type IssueFields struct {
	Summary     string          `json:"summary"`
	Description json.RawMessage `json:"description"` // ADF (Atlassian Document Format) or plain text
	Created     string          `json:"created"`
	Updated     string          `json:"updated"`
}

// SearchResult is one page of a JQL search response.
type SearchResult struct {
	StartAt    int           `json:"startAt"`
	MaxResults int           `json:"maxResults"`
	Total      int           `json:"total"`
	Issues     []RemoteIssue `json:"issues"`
}
