package sync

import (
	"fmt"
	"strconv"

	"github.com/jiramirror/jiramirror/internal/jira"
	"github.com/jiramirror/jiramirror/internal/types"
)

// parseRemoteID converts Jira's string-encoded numeric IDs.
func parseRemoteID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid remote ID %q: %w", id, err)
	}
	return n, nil
}

func remoteIssueToLocal(projectID int64, remote jira.RemoteIssue) (*types.Issue, error) {
	jiraID, err := parseRemoteID(remote.ID)
	if err != nil {
		return nil, fmt.Errorf("issue %s: %w", remote.Key, err)
	}

	issue := &types.Issue{
		ProjectID:   projectID,
		JiraID:      jiraID,
		JiraKey:     remote.Key,
		Summary:     remote.Fields.Summary,
		Description: jira.DescriptionToPlainText(remote.Fields.Description),
	}

	if remote.Fields.Created != "" {
		created, err := jira.ParseTimestamp(remote.Fields.Created)
		if err != nil {
			return nil, fmt.Errorf("issue %s created: %w", remote.Key, err)
		}
		issue.RemoteCreatedAt = created
	}
	if remote.Fields.Updated != "" {
		updated, err := jira.ParseTimestamp(remote.Fields.Updated)
		if err != nil {
			return nil, fmt.Errorf("issue %s updated: %w", remote.Key, err)
		}
		issue.RemoteUpdatedAt = updated
	}

	return issue, nil
}

func remoteUserToLocal(remote *jira.RemoteUser) *types.User {
	return &types.User{
		AccountID:   remote.AccountID,
		DisplayName: remote.DisplayName,
		Email:       remote.EmailAddress,
		Active:      remote.Active,
	}
}

func remoteComponentToLocal(projectID int64, remote jira.RemoteComponent) (*types.Component, error) {
	jiraID, err := parseRemoteID(remote.ID)
	if err != nil {
		return nil, fmt.Errorf("component %q: %w", remote.Name, err)
	}
	return &types.Component{
		ProjectID:   projectID,
		JiraID:      jiraID,
		Name:        remote.Name,
		Description: remote.Description,
	}, nil
}

func remoteIssueTypeToLocal(projectID int64, remote jira.RemoteIssueType) (*types.IssueType, error) {
	jiraID, err := parseRemoteID(remote.ID)
	if err != nil {
		return nil, fmt.Errorf("issue type %q: %w", remote.Name, err)
	}
	return &types.IssueType{
		ProjectID:   projectID,
		JiraID:      jiraID,
		Name:        remote.Name,
		Description: remote.Description,
		Subtask:     remote.Subtask,
		IconURL:     remote.IconURL,
	}, nil
}

func remoteVersionToLocal(projectID int64, remote jira.RemoteVersion) (*types.Version, error) {
	jiraID, err := parseRemoteID(remote.ID)
	if err != nil {
		return nil, fmt.Errorf("version %q: %w", remote.Name, err)
	}
	return &types.Version{
		ProjectID:   projectID,
		JiraID:      jiraID,
		Name:        remote.Name,
		Description: remote.Description,
		Archived:    remote.Archived,
		Released:    remote.Released,
	}, nil
}
