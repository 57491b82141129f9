package sync

import "fmt"

// PartialSyncError reports an issue sync that aborted partway through.
// Issues reconciled before the failure remain persisted; the project
// watermark is left untouched so the next sync re-covers the window.
type PartialSyncError struct {
	Reconciled int
	Err        error
}

func (e *PartialSyncError) Error() string {
	return fmt.Sprintf("issue sync aborted after %d issues: %v", e.Reconciled, e.Err)
}

func (e *PartialSyncError) Unwrap() error { return e.Err }
