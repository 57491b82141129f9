package sync

import (
	"context"
	stdsync "sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jiramirror/jiramirror/internal/telemetry"
)

// syncMetrics holds lazily-initialized OTel instruments for sync runs.
var syncMetrics struct {
	projectsSynced   metric.Int64Counter
	issuesReconciled metric.Int64Counter
	pagesFetched     metric.Int64Counter
	syncFailures     metric.Int64Counter
}

var syncMetricsOnce stdsync.Once

func initSyncMetrics() {
	m := telemetry.Meter("github.com/jiramirror/jiramirror/sync")
	syncMetrics.projectsSynced, _ = m.Int64Counter("jm.sync.projects",
		metric.WithDescription("Project aggregate syncs completed"),
		metric.WithUnit("{sync}"),
	)
	syncMetrics.issuesReconciled, _ = m.Int64Counter("jm.sync.issues",
		metric.WithDescription("Issues reconciled into the mirror"),
		metric.WithUnit("{issue}"),
	)
	syncMetrics.pagesFetched, _ = m.Int64Counter("jm.sync.pages",
		metric.WithDescription("Search pages fetched from the remote"),
		metric.WithUnit("{page}"),
	)
	syncMetrics.syncFailures, _ = m.Int64Counter("jm.sync.failures",
		metric.WithDescription("Issue syncs that aborted partway"),
		metric.WithUnit("{sync}"),
	)
}

func recordProjectSynced(ctx context.Context, projectKey string) {
	syncMetricsOnce.Do(initSyncMetrics)
	if syncMetrics.projectsSynced != nil {
		syncMetrics.projectsSynced.Add(ctx, 1,
			metric.WithAttributes(attribute.String("jm.project", projectKey)))
	}
}

func recordIssuesReconciled(ctx context.Context, n int, projectKey string) {
	syncMetricsOnce.Do(initSyncMetrics)
	if n > 0 && syncMetrics.issuesReconciled != nil {
		syncMetrics.issuesReconciled.Add(ctx, int64(n),
			metric.WithAttributes(attribute.String("jm.project", projectKey)))
	}
}

func recordPageFetched(ctx context.Context) {
	syncMetricsOnce.Do(initSyncMetrics)
	if syncMetrics.pagesFetched != nil {
		syncMetrics.pagesFetched.Add(ctx, 1)
	}
}

func recordSyncFailure(ctx context.Context, projectKey string) {
	syncMetricsOnce.Do(initSyncMetrics)
	if syncMetrics.syncFailures != nil {
		syncMetrics.syncFailures.Add(ctx, 1,
			metric.WithAttributes(attribute.String("jm.project", projectKey)))
	}
}
