package jira

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client provides HTTP access to a Jira instance.
//
// All methods are idempotent reads. Get* lookups return (nil, nil) when
// the remote entity does not exist; any other failure wraps ErrTransport.
type Client struct {
	URL        string
	Username   string
	APIToken   string
	HTTPClient *http.Client
}

// NewClient creates a new Jira client with a default request timeout.
func NewClient(url, username, apiToken string) *Client {
	return &Client{
		URL:      strings.TrimSuffix(url, "/"),
		Username: username,
		APIToken: apiToken,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetProject fetches a project snapshot by numeric ID or key.
// The project endpoint includes lead, components, issue types, and
// versions in one response.
func (c *Client) GetProject(ctx context.Context, idOrKey string) (*RemoteProject, error) {
	apiURL := fmt.Sprintf("%s/rest/api/3/project/%s", c.URL, url.PathEscape(idOrKey))

	body, err := c.doRequest(ctx, "GET", apiURL)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get project %s: %w", idOrKey, err)
	}

	var project RemoteProject
	if err := json.Unmarshal(body, &project); err != nil {
		return nil, fmt.Errorf("parse project response: %w", err)
	}
	return &project, nil
}

// GetUser fetches a user by account ID.
func (c *Client) GetUser(ctx context.Context, accountID string) (*RemoteUser, error) {
	params := url.Values{"accountId": {accountID}}
	apiURL := fmt.Sprintf("%s/rest/api/3/user?%s", c.URL, params.Encode())

	body, err := c.doRequest(ctx, "GET", apiURL)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user %s: %w", accountID, err)
	}

	var user RemoteUser
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("parse user response: %w", err)
	}
	return &user, nil
}

// GetPriority fetches a priority by ID.
func (c *Client) GetPriority(ctx context.Context, id string) (*RemotePriority, error) {
	apiURL := fmt.Sprintf("%s/rest/api/3/priority/%s", c.URL, url.PathEscape(id))

	body, err := c.doRequest(ctx, "GET", apiURL)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get priority %s: %w", id, err)
	}

	var priority RemotePriority
	if err := json.Unmarshal(body, &priority); err != nil {
		return nil, fmt.Errorf("parse priority response: %w", err)
	}
	return &priority, nil
}

// SearchIssues fetches a single page of a JQL search. Pagination is the
// caller's concern; the sync layer drives startAt/maxResults.
func (c *Client) SearchIssues(ctx context.Context, jql string, startAt, maxResults int, fields, expand []string, validateQuery bool) (*SearchResult, error) {
	params := url.Values{
		"jql":           {jql},
		"startAt":       {strconv.Itoa(startAt)},
		"maxResults":    {strconv.Itoa(maxResults)},
		"validateQuery": {strconv.FormatBool(validateQuery)},
	}
	if len(fields) > 0 {
		params.Set("fields", strings.Join(fields, ","))
	}
	if len(expand) > 0 {
		params.Set("expand", strings.Join(expand, ","))
	}

	apiURL := fmt.Sprintf("%s/rest/api/3/search?%s", c.URL, params.Encode())

	body, err := c.doRequest(ctx, "GET", apiURL)
	if err != nil {
		return nil, fmt.Errorf("search issues: %w", err)
	}

	var result SearchResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}
	return &result, nil
}

// doRequest executes an authenticated request and returns the response body.
func (c *Client) doRequest(ctx context.Context, method, apiURL string) ([]byte, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("jira URL not configured")
	}
	if c.APIToken == "" {
		return nil, fmt.Errorf("jira API token not configured")
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	c.setAuth(req)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "jiramirror/1.0")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RequestError{
			Method:     method,
			URL:        apiURL,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(respBody)),
		}
	}

	return respBody, nil
}

// setAuth sets the appropriate authentication header on the request.
func (c *Client) setAuth(req *http.Request) {
	isCloud := strings.Contains(c.URL, "atlassian.net")
	if (isCloud || c.Username != "") && c.Username != "" {
		auth := base64.StdEncoding.EncodeToString([]byte(c.Username + ":" + c.APIToken))
		req.Header.Set("Authorization", "Basic "+auth)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.APIToken)
	}
}

// DescriptionToPlainText extracts plain text from Jira's ADF
// (Atlassian Document Format). Jira v3 returns descriptions as ADF
// JSON, not plain text.
func DescriptionToPlainText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var doc struct {
		Type    string `json:"type"`
		Content []struct {
			Type    string `json:"type"`
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"content"`
	}

	if err := json.Unmarshal(raw, &doc); err != nil || doc.Type != "doc" {
		// Not ADF - treat as a plain text string
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
		return string(raw)
	}

	var parts []string
	for _, block := range doc.Content {
		var line []string
		for _, inline := range block.Content {
			if inline.Text != "" {
				line = append(line, inline.Text)
			}
		}
		if len(line) > 0 {
			parts = append(parts, strings.Join(line, ""))
		}
	}

	return strings.Join(parts, "\n")
}
