package domain

import "context"

// RunStore persists run bookkeeping: the record itself plus membership in
// the pending set awaiting terminal resolution. A run id is pending if and
// only if its record exists and the reconciliation sweep has not yet
// confirmed a terminal state.
type RunStore interface {
	// SaveRun writes the record and adds the id to the pending set.
	SaveRun(ctx context.Context, run Run) error
	// GetRun returns ErrNotFound when no record exists for the id.
	GetRun(ctx context.Context, runID string) (Run, error)
	// PendingRuns lists every run id awaiting terminal resolution.
	PendingRuns(ctx context.Context) ([]string, error)
	// RemovePending drops the id from the pending set, leaving the record.
	RemovePending(ctx context.Context, runID string) error
	// DeleteRun removes the record for the id.
	DeleteRun(ctx context.Context, runID string) error
	// MarkSent atomically claims the notification for the id. It returns
	// true exactly once per id; later calls return false. This is the
	// single idempotency authority shared by the interactive poll and the
	// reconciliation sweep.
	MarkSent(ctx context.Context, runID string) (bool, error)
	// ClearSent releases a claim so a failed send can be retried.
	ClearSent(ctx context.Context, runID string) error
}
