package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/jiramirror/jiramirror/internal/jira"
)

// DefaultPageSize is the search page size used for incremental fetch.
const DefaultPageSize = 50

// issueFields are the only fields requested during issue sync.
var issueFields = []string{"summary", "description", "created", "updated"}

// SearchClient is the search surface the fetcher needs from the Jira
// client.
type SearchClient interface {
	SearchIssues(ctx context.Context, jql string, startAt, maxResults int, fields, expand []string, validateQuery bool) (*jira.SearchResult, error)
}

// IssueFetcher pages through a JQL search and hands each issue to a
// callback.
type IssueFetcher struct {
	Client   SearchClient
	PageSize int // defaults to DefaultPageSize when zero
}

// BuildJQL returns the incremental search expression for a project.
// A nil since means first sync: fetch everything.
func BuildJQL(projectKey string, since *time.Time) string {
	jql := fmt.Sprintf("project = %s", projectKey)
	if since != nil {
		jql += fmt.Sprintf(" AND updated >= %s", jira.FormatJQLTime(*since))
	}
	return jql
}

// Fetch pages through the search results for jql, invoking fn once per
// issue in page order. It returns the number of issues fn completed.
//
// Paging stops on the first short or empty page. A run whose final page
// is exactly full therefore issues one trailing request that comes back
// empty; that extra round trip is harmless and keeps the loop free of
// any dependence on the server's total count, which Jira computes
// lazily and sometimes inaccurately.
func (f *IssueFetcher) Fetch(ctx context.Context, jql string, fn func(jira.RemoteIssue) error) (int, error) {
	size := f.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}

	processed := 0
	for page := 0; ; page++ {
		result, err := f.Client.SearchIssues(ctx, jql, page*size, size, issueFields, nil, false)
		if err != nil {
			return processed, fmt.Errorf("fetch page %d: %w", page, err)
		}
		recordPageFetched(ctx)

		for _, issue := range result.Issues {
			if err := fn(issue); err != nil {
				return processed, err
			}
			processed++
		}

		if len(result.Issues) < size {
			return processed, nil
		}
	}
}
