package sync

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jiramirror/jiramirror/internal/cache"
	"github.com/jiramirror/jiramirror/internal/jira"
	"github.com/jiramirror/jiramirror/internal/storage"
	"github.com/jiramirror/jiramirror/internal/storage/sqlite"
)

// fakeClient is an in-memory RemoteClient for engine tests.
type fakeClient struct {
	pagedSearch

	project      *jira.RemoteProject
	users        map[string]*jira.RemoteUser
	projectCalls int
	userCalls    int
	projectErr   error
}

func (f *fakeClient) GetProject(ctx context.Context, idOrKey string) (*jira.RemoteProject, error) {
	f.projectCalls++
	if f.projectErr != nil {
		return nil, f.projectErr
	}
	return f.project, nil
}

func (f *fakeClient) GetUser(ctx context.Context, accountID string) (*jira.RemoteUser, error) {
	f.userCalls++
	return f.users[accountID], nil
}

func newTestEngine(t *testing.T, client RemoteClient) (*Engine, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.New(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	engine := NewEngine(store, client, cache.New())
	engine.PageSize = 2
	return engine, store
}

func remoteFixture() *jira.RemoteProject {
	return &jira.RemoteProject{
		ID:   "10042",
		Key:  "ABC",
		Name: "Alphabet",
		Lead: &jira.RemoteUser{AccountID: "acct-lead", DisplayName: "Lead"},
		Components: []jira.RemoteComponent{
			{ID: "1", Name: "backend"},
			{ID: "2", Name: "frontend"},
		},
		IssueTypes: []jira.RemoteIssueType{
			{ID: "3", Name: "Bug"},
			{ID: "4", Name: "Task", Subtask: false},
		},
		Versions: []jira.RemoteVersion{
			{ID: "5", Name: "1.0", Released: true},
		},
	}
}

func TestRegisterProject(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{
		project: remoteFixture(),
		users: map[string]*jira.RemoteUser{
			"acct-lead": {AccountID: "acct-lead", DisplayName: "Lead", EmailAddress: "lead@example.com", Active: true},
		},
	}
	engine, store := newTestEngine(t, client)

	project, err := engine.RegisterProject(ctx, "ABC")
	if err != nil {
		t.Fatalf("RegisterProject: %v", err)
	}
	if project.JiraID != 10042 || project.JiraKey != "ABC" {
		t.Errorf("unexpected project: %+v", project)
	}
	if project.LeadAccountID == nil || *project.LeadAccountID != "acct-lead" {
		t.Errorf("lead not recorded: %v", project.LeadAccountID)
	}

	components, err := store.ListComponents(ctx, project.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(components) != 2 {
		t.Errorf("expected 2 components, got %d", len(components))
	}

	lead, err := store.GetUserByAccountID(ctx, "acct-lead")
	if err != nil {
		t.Fatal(err)
	}
	if lead == nil || lead.Email != "lead@example.com" {
		t.Errorf("lead profile not mirrored: %+v", lead)
	}

	// Registering again conflicts on the remote identity.
	_, err = engine.RegisterProject(ctx, "ABC")
	if !errors.Is(err, storage.ErrConflict) {
		t.Errorf("expected ErrConflict on re-register, got %v", err)
	}
}

func TestSyncProjectRefreshesAggregate(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{project: remoteFixture()}
	engine, store := newTestEngine(t, client)

	project, err := engine.RegisterProject(ctx, "ABC")
	if err != nil {
		t.Fatal(err)
	}

	// Remote renames the project and retires the lead.
	client.project.Name = "Alphabet v2"
	client.project.Lead = nil

	if err := engine.SyncProject(ctx, project, nil); err != nil {
		t.Fatalf("SyncProject: %v", err)
	}

	got, err := store.GetProject(ctx, project.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.DisplayName != "Alphabet v2" {
		t.Errorf("DisplayName = %q, want Alphabet v2", got.DisplayName)
	}
	if got.LeadAccountID != nil {
		t.Errorf("expected lead cleared, got %v", *got.LeadAccountID)
	}
}

func TestSyncProjectRollsBackOnBadChild(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{project: remoteFixture()}
	engine, store := newTestEngine(t, client)

	project, err := engine.RegisterProject(ctx, "ABC")
	if err != nil {
		t.Fatal(err)
	}

	// Remote rename plus a version whose ID won't parse: the aggregate
	// sync must fail as a unit, leaving the earlier stages unapplied.
	client.project.Name = "Alphabet v2"
	client.project.Versions = append(client.project.Versions,
		jira.RemoteVersion{ID: "not-a-number", Name: "2.0"})

	if err := engine.SyncProject(ctx, project, nil); err == nil {
		t.Fatal("expected error for malformed version ID")
	}

	got, err := store.GetProject(ctx, project.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.DisplayName != "Alphabet" {
		t.Errorf("DisplayName = %q, want rename rolled back", got.DisplayName)
	}

	versions, err := store.ListVersions(ctx, project.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(versions) != 1 {
		t.Errorf("expected 1 version from registration, got %d", len(versions))
	}
	components, err := store.ListComponents(ctx, project.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(components) != 2 {
		t.Errorf("expected 2 components, got %d", len(components))
	}
}

func TestSyncIssuesAdvancesWatermark(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{project: remoteFixture()}
	client.issues = makeRemoteIssues(3)
	engine, store := newTestEngine(t, client)

	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	engine.Now = func() time.Time { return start }

	project, err := engine.RegisterProject(ctx, "ABC")
	if err != nil {
		t.Fatal(err)
	}

	n, err := engine.SyncIssues(ctx, project)
	if err != nil {
		t.Fatalf("SyncIssues: %v", err)
	}
	if n != 3 {
		t.Errorf("reconciled %d issues, want 3", n)
	}

	got, err := store.GetProject(ctx, project.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.IssuesSyncedAt == nil || !got.IssuesSyncedAt.Equal(start) {
		t.Errorf("watermark = %v, want sync start %v", got.IssuesSyncedAt, start)
	}

	count, err := store.CountIssues(ctx, project.ID)
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("CountIssues = %d, want 3", count)
	}
}

func TestSyncIssuesUsesWatermarkInQuery(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{project: remoteFixture()}
	engine, _ := newTestEngine(t, client)

	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	engine.Now = func() time.Time { return start }

	project, err := engine.RegisterProject(ctx, "ABC")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := engine.SyncIssues(ctx, project); err != nil {
		t.Fatal(err)
	}
	if client.lastJQL != "project = ABC" {
		t.Errorf("first sync JQL = %q, want unbounded query", client.lastJQL)
	}

	// Second sync filters on the recorded watermark.
	engine.Now = func() time.Time { return start.Add(time.Hour) }
	if _, err := engine.SyncIssues(ctx, project); err != nil {
		t.Fatal(err)
	}
	want := `project = ABC AND updated >= "2024-06-01 12:00"`
	if client.lastJQL != want {
		t.Errorf("incremental JQL = %q, want %q", client.lastJQL, want)
	}
}

func TestSyncIssuesPartialFailure(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{project: remoteFixture()}
	client.issues = makeRemoteIssues(4)
	client.failAt = 2 // second page request fails
	engine, store := newTestEngine(t, client)

	project, err := engine.RegisterProject(ctx, "ABC")
	if err != nil {
		t.Fatal(err)
	}

	n, err := engine.SyncIssues(ctx, project)
	var partial *PartialSyncError
	if !errors.As(err, &partial) {
		t.Fatalf("expected PartialSyncError, got %v", err)
	}
	if partial.Reconciled != 2 || n != 2 {
		t.Errorf("Reconciled = %d (returned %d), want 2", partial.Reconciled, n)
	}

	// First page's issues survive the failure.
	count, err := store.CountIssues(ctx, project.ID)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("CountIssues = %d, want 2", count)
	}

	// Watermark untouched so the next sync re-covers the window.
	got, err := store.GetProject(ctx, project.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.IssuesSyncedAt != nil {
		t.Errorf("watermark advanced despite failure: %v", got.IssuesSyncedAt)
	}
}

func TestSyncIssuesBadIssueAborts(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{project: remoteFixture()}
	client.issues = makeRemoteIssues(3)
	client.issues[1].ID = "not-a-number"
	engine, _ := newTestEngine(t, client)

	project, err := engine.RegisterProject(ctx, "ABC")
	if err != nil {
		t.Fatal(err)
	}

	_, err = engine.SyncIssues(ctx, project)
	var partial *PartialSyncError
	if !errors.As(err, &partial) {
		t.Fatalf("expected PartialSyncError, got %v", err)
	}
	if partial.Reconciled != 1 {
		t.Errorf("Reconciled = %d, want 1", partial.Reconciled)
	}
}

func TestFindRemoteProjectCaching(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{project: remoteFixture()}
	engine, _ := newTestEngine(t, client)

	for i := 0; i < 3; i++ {
		project, err := engine.FindRemoteProject(ctx, ProjectRef{Key: "ABC"})
		if err != nil {
			t.Fatalf("FindRemoteProject: %v", err)
		}
		if project == nil || project.Key != "ABC" {
			t.Errorf("unexpected project: %+v", project)
		}
	}
	if client.projectCalls != 1 {
		t.Errorf("remote called %d times, want 1", client.projectCalls)
	}

	// ID and key lookups are distinct cache entries.
	if _, err := engine.FindRemoteProject(ctx, ProjectRef{JiraID: 10042}); err != nil {
		t.Fatal(err)
	}
	if client.projectCalls != 2 {
		t.Errorf("remote called %d times after ID lookup, want 2", client.projectCalls)
	}
}

func TestFindRemoteProjectCachesMiss(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{} // no project: remote returns not found
	engine, _ := newTestEngine(t, client)

	for i := 0; i < 2; i++ {
		project, err := engine.FindRemoteProject(ctx, ProjectRef{Key: "NOPE"})
		if err != nil {
			t.Fatalf("FindRemoteProject: %v", err)
		}
		if project != nil {
			t.Errorf("expected nil for unknown project, got %+v", project)
		}
	}
	if client.projectCalls != 1 {
		t.Errorf("negative result not cached: %d remote calls", client.projectCalls)
	}
}

func TestFindRemoteProjectDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{projectErr: fmt.Errorf("%w: connection refused", jira.ErrTransport)}
	engine, _ := newTestEngine(t, client)

	if _, err := engine.FindRemoteProject(ctx, ProjectRef{Key: "ABC"}); !errors.Is(err, jira.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}

	client.projectErr = nil
	client.project = remoteFixture()
	project, err := engine.FindRemoteProject(ctx, ProjectRef{Key: "ABC"})
	if err != nil {
		t.Fatalf("FindRemoteProject after recovery: %v", err)
	}
	if project == nil {
		t.Error("expected project after remote recovered")
	}
	if client.projectCalls != 2 {
		t.Errorf("remote called %d times, want 2", client.projectCalls)
	}
}

func TestFindRemoteUserCaching(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{
		users: map[string]*jira.RemoteUser{
			"acct-1": {AccountID: "acct-1", DisplayName: "Ada"},
		},
	}
	engine, _ := newTestEngine(t, client)

	for i := 0; i < 2; i++ {
		user, err := engine.FindRemoteUser(ctx, "acct-1")
		if err != nil {
			t.Fatal(err)
		}
		if user == nil || user.DisplayName != "Ada" {
			t.Errorf("unexpected user: %+v", user)
		}
	}
	if client.userCalls != 1 {
		t.Errorf("remote called %d times, want 1", client.userCalls)
	}
}

func makeRemoteIssues(n int) []jira.RemoteIssue {
	issues := make([]jira.RemoteIssue, n)
	for i := range issues {
		issues[i] = jira.RemoteIssue{
			ID:  fmt.Sprintf("%d", 5000+i),
			Key: fmt.Sprintf("ABC-%d", i+1),
			Fields: jira.IssueFields{
				Summary: fmt.Sprintf("issue %d", i+1),
				Created: "2024-05-01T09:00:00.000Z",
				Updated: "2024-05-02T09:00:00.000Z",
			},
		}
	}
	return issues
}
