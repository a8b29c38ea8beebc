package domain

import "context"

// SweeperPort force-closes abandoned runs
type SweeperPort interface {
	// Reclaim performs one sweep; idempotent, safe to run concurrently with
	// live imports: losers of the completion race are skipped quietly
	Reclaim(ctx context.Context, p Policy) (Result, error)

	// Run sweeps on a fixed interval until ctx is done
	Run(ctx context.Context) error
}
