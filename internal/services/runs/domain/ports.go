package domain

import (
	"context"
	"time"
)

// RegistryPort is the sole authority over ImportRun rows and the uniqueness invariant
type RegistryPort interface {
	// FindBlockingRun returns the row in {pending, running, success} for the triple, or nil
	FindBlockingRun(ctx context.Context, supplier, contentHash string, asOfDate time.Time) (*ImportRun, error)

	// CreateRun inserts a fresh pending row
	// a concurrent blocking row for the same triple surfaces as ErrorCodeDuplicateKey,
	// enforced by the storage layer, never by check-then-insert
	CreateRun(ctx context.Context, in CreateInput) (*ImportRun, error)

	// CreateSkipped writes a terminal skipped row directly, no delegate work involved
	CreateSkipped(ctx context.Context, in SkipInput) (*ImportRun, error)

	// MarkRunning transitions pending -> running and stamps started_at
	MarkRunning(ctx context.Context, runID string) error

	// MarkTerminal completes a run as success or failed
	// rejects with ErrorCodeInvalidTransition when the row is already terminal
	MarkTerminal(ctx context.Context, in TerminalInput) error

	// MarkRolledBack force-closes pending|running rows, used by the reclaimer
	// losers of the completion race observe ErrorCodeInvalidTransition
	MarkRolledBack(ctx context.Context, runID, reason string) error

	// LatestSuccessEnvelope returns the envelope_id of the most recent success
	// row sharing contentHash, or nil when none exists
	LatestSuccessEnvelope(ctx context.Context, contentHash string) (*string, error)

	// GetRun looks a run up by id
	GetRun(ctx context.Context, runID string) (*ImportRun, error)

	// ListRecent pages run history ordered by (created_at, run_id) descending
	ListRecent(ctx context.Context, in ListInput) ([]ImportRun, AfterKey, error)

	// StalenessSummary aggregates freshness for one supplier
	StalenessSummary(ctx context.Context, supplier string) (StalenessSummary, error)

	// StaleRunning returns run ids stuck running since before cutoff
	StaleRunning(ctx context.Context, cutoff time.Time) ([]string, error)

	// StalePending returns run ids stuck pending since before cutoff
	StalePending(ctx context.Context, cutoff time.Time) ([]string, error)
}
