// Package sync implements the mirror engine: aggregate project sync,
// watermark-based incremental issue fetch, and cached remote lookups.
package sync

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jiramirror/jiramirror/internal/cache"
	"github.com/jiramirror/jiramirror/internal/jira"
	"github.com/jiramirror/jiramirror/internal/storage"
	"github.com/jiramirror/jiramirror/internal/types"
)

// RemoteClient is the Jira surface the engine depends on.
type RemoteClient interface {
	GetProject(ctx context.Context, idOrKey string) (*jira.RemoteProject, error)
	GetUser(ctx context.Context, accountID string) (*jira.RemoteUser, error)
	SearchIssues(ctx context.Context, jql string, startAt, maxResults int, fields, expand []string, validateQuery bool) (*jira.SearchResult, error)
}

// Engine orchestrates mirroring between a Jira instance and the local
// store.
type Engine struct {
	Store  storage.Store
	Client RemoteClient
	Cache  *cache.Cache

	// CacheTTL bounds how long remote lookups stay fresh.
	// Defaults to cache.DefaultTTL.
	CacheTTL time.Duration

	// PageSize overrides the issue search page size (tests only).
	PageSize int

	// Now supplies the watermark clock; defaults to time.Now.
	Now func() time.Time

	// OnMessage is called with progress messages during sync (optional).
	OnMessage func(format string, args ...any)

	// OnWarning is called with warning messages during sync (optional).
	OnWarning func(format string, args ...any)
}

// NewEngine creates a sync engine with default clock and cache TTL.
func NewEngine(store storage.Store, client RemoteClient, lookupCache *cache.Cache) *Engine {
	return &Engine{
		Store:  store,
		Client: client,
		Cache:  lookupCache,
	}
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) cacheTTL() time.Duration {
	if e.CacheTTL > 0 {
		return e.CacheTTL
	}
	return cache.DefaultTTL
}

func (e *Engine) message(format string, args ...any) {
	if e.OnMessage != nil {
		e.OnMessage(format, args...)
	}
}

func (e *Engine) warn(format string, args ...any) {
	if e.OnWarning != nil {
		e.OnWarning(format, args...)
	}
}

// ProjectRef identifies a remote project by numeric ID or key. When
// both are set the numeric ID wins.
type ProjectRef struct {
	JiraID int64
	Key    string
}

// FindRemoteProject resolves a remote project through the lookup cache.
// Returns (nil, nil) when the project doesn't exist remotely; the
// negative result is cached too. Transport errors are never cached.
func (e *Engine) FindRemoteProject(ctx context.Context, ref ProjectRef) (*jira.RemoteProject, error) {
	var key string
	var idOrKey string
	switch {
	case ref.JiraID > 0:
		key = cache.Key("project", map[string]any{"project_id": ref.JiraID})
		idOrKey = strconv.FormatInt(ref.JiraID, 10)
	case ref.Key != "":
		key = cache.Key("project", map[string]any{"project_key": ref.Key})
		idOrKey = ref.Key
	default:
		return nil, fmt.Errorf("project ref needs an ID or key")
	}

	value, err := e.Cache.Remember(key, e.cacheTTL(), func() (any, error) {
		project, err := e.Client.GetProject(ctx, idOrKey)
		if err != nil {
			return nil, err
		}
		if project == nil {
			return nil, nil
		}
		return project, nil
	})
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, nil
	}
	return value.(*jira.RemoteProject), nil
}

// FindRemoteUser resolves a remote user by account ID through the
// lookup cache.
func (e *Engine) FindRemoteUser(ctx context.Context, accountID string) (*jira.RemoteUser, error) {
	if accountID == "" {
		return nil, fmt.Errorf("account ID is required")
	}

	key := cache.Key("user", map[string]any{"account_id": accountID})
	value, err := e.Cache.Remember(key, e.cacheTTL(), func() (any, error) {
		user, err := e.Client.GetUser(ctx, accountID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, nil
		}
		return user, nil
	})
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, nil
	}
	return value.(*jira.RemoteUser), nil
}

// RegisterProject mirrors a remote project locally for the first time:
// it resolves the remote project, creates the local row, and runs a
// full aggregate sync. Registering an already-mirrored project returns
// storage.ErrConflict.
func (e *Engine) RegisterProject(ctx context.Context, idOrKey string) (*types.Project, error) {
	snapshot, err := e.Client.GetProject(ctx, idOrKey)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, fmt.Errorf("project %s not found on remote", idOrKey)
	}

	jiraID, err := parseRemoteID(snapshot.ID)
	if err != nil {
		return nil, err
	}

	project := &types.Project{
		JiraID:      jiraID,
		JiraKey:     snapshot.Key,
		DisplayName: snapshot.Name,
	}
	if err := e.Store.CreateProject(ctx, project); err != nil {
		return nil, err
	}
	e.message("registered project %s (%s)", project.JiraKey, project.DisplayName)

	if err := e.syncSnapshot(ctx, project, snapshot); err != nil {
		return project, err
	}
	return project, nil
}

// SyncProject refreshes a mirrored project's aggregate from the remote:
// scalar attributes, lead, components, issue types, and versions, all
// within one transaction. A failure rolls back every write.
//
// Pass a snapshot when one is already in hand (registration); with nil
// the remote project is resolved through the lookup cache, by numeric
// ID first and key second.
func (e *Engine) SyncProject(ctx context.Context, project *types.Project, snapshot *jira.RemoteProject) error {
	if snapshot == nil {
		var err error
		snapshot, err = e.FindRemoteProject(ctx, ProjectRef{JiraID: project.JiraID})
		if err != nil {
			return fmt.Errorf("sync project %s: %w", project.JiraKey, err)
		}
		if snapshot == nil {
			// ID lookup missed; the project may have been recreated
			// under the same key.
			snapshot, err = e.FindRemoteProject(ctx, ProjectRef{Key: project.JiraKey})
			if err != nil {
				return fmt.Errorf("sync project %s: %w", project.JiraKey, err)
			}
		}
		if snapshot == nil {
			return fmt.Errorf("project %s no longer exists on remote", project.JiraKey)
		}
	}
	return e.syncSnapshot(ctx, project, snapshot)
}

// syncSnapshot applies a remote project snapshot to the local store.
// Remote fetches (the lead profile) happen before the transaction
// opens so no network call ever holds the write lock.
func (e *Engine) syncSnapshot(ctx context.Context, project *types.Project, snapshot *jira.RemoteProject) error {
	var lead *types.User
	if snapshot.Lead != nil && snapshot.Lead.AccountID != "" {
		remote, err := e.FindRemoteUser(ctx, snapshot.Lead.AccountID)
		if err != nil {
			return fmt.Errorf("sync project %s lead: %w", snapshot.Key, err)
		}
		if remote == nil {
			// Lead listed on the project but gone from the directory;
			// fall back to the embedded summary.
			e.warn("lead %s not found, using project-embedded profile", snapshot.Lead.AccountID)
			remote = snapshot.Lead
		}
		lead = remoteUserToLocal(remote)
	}

	err := e.Store.RunInTransaction(ctx, func(tx storage.Transaction) error {
		project.JiraKey = snapshot.Key
		project.DisplayName = snapshot.Name
		if lead != nil {
			project.LeadAccountID = &lead.AccountID
		} else {
			project.LeadAccountID = nil
		}
		if err := tx.SaveProject(ctx, project); err != nil {
			return err
		}

		if lead != nil {
			if err := tx.UpsertUser(ctx, lead); err != nil {
				return err
			}
		}

		for _, remote := range snapshot.Components {
			component, err := remoteComponentToLocal(project.ID, remote)
			if err != nil {
				return err
			}
			if err := tx.UpsertComponent(ctx, component); err != nil {
				return err
			}
		}

		for _, remote := range snapshot.IssueTypes {
			issueType, err := remoteIssueTypeToLocal(project.ID, remote)
			if err != nil {
				return err
			}
			if err := tx.UpsertIssueType(ctx, issueType); err != nil {
				return err
			}
		}

		for _, remote := range snapshot.Versions {
			version, err := remoteVersionToLocal(project.ID, remote)
			if err != nil {
				return err
			}
			if err := tx.UpsertVersion(ctx, version); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("sync project %s: %w", snapshot.Key, err)
	}

	recordProjectSynced(ctx, snapshot.Key)
	e.message("synced project %s: %d components, %d issue types, %d versions",
		snapshot.Key, len(snapshot.Components), len(snapshot.IssueTypes), len(snapshot.Versions))
	return nil
}

// SyncIssues runs an incremental issue sync for a mirrored project.
//
// The watermark is captured before the first request so remote edits
// racing the sync land inside the next window. Each issue is upserted
// individually: a mid-run failure keeps everything reconciled so far
// and returns a *PartialSyncError with the watermark untouched, so the
// next sync re-covers the whole window. Re-delivery is harmless because
// upserts are idempotent.
func (e *Engine) SyncIssues(ctx context.Context, project *types.Project) (int, error) {
	start := e.now()

	fetcher := &IssueFetcher{Client: e.Client, PageSize: e.PageSize}
	jql := BuildJQL(project.JiraKey, project.IssuesSyncedAt)

	reconciled, err := fetcher.Fetch(ctx, jql, func(remote jira.RemoteIssue) error {
		issue, err := remoteIssueToLocal(project.ID, remote)
		if err != nil {
			return err
		}
		return e.Store.UpsertIssue(ctx, issue)
	})
	recordIssuesReconciled(ctx, reconciled, project.JiraKey)

	if err != nil {
		recordSyncFailure(ctx, project.JiraKey)
		e.warn("issue sync for %s failed after %d issues: %v", project.JiraKey, reconciled, err)
		return reconciled, &PartialSyncError{Reconciled: reconciled, Err: err}
	}

	if err := e.Store.AdvanceIssuesSyncedAt(ctx, project.ID, start); err != nil {
		return reconciled, fmt.Errorf("advance watermark for %s: %w", project.JiraKey, err)
	}
	project.IssuesSyncedAt = &start

	e.message("synced %d issues for %s", reconciled, project.JiraKey)
	return reconciled, nil
}

// Sync refreshes a project's aggregate and then its issues.
func (e *Engine) Sync(ctx context.Context, project *types.Project) (int, error) {
	if err := e.SyncProject(ctx, project, nil); err != nil {
		return 0, err
	}
	return e.SyncIssues(ctx, project)
}
