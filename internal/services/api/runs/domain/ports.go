package domain

import (
	"context"

	runsdomain "cellarbook/internal/services/runs/domain"
)

// ServicePort is the contract the http layer and other modules consume
type ServicePort interface {
	// List returns recent runs plus the cursor for the next page ("" = done)
	List(ctx context.Context, in ListQuery) ([]RunResponse, string, error)

	// Get returns one run by id
	Get(ctx context.Context, runID string) (RunResponse, error)

	// Staleness returns the freshness summary for one supplier
	Staleness(ctx context.Context, supplier string) (runsdomain.StalenessSummary, error)

	// Trigger runs a server side import of the given file and returns the terminal row
	Trigger(ctx context.Context, in TriggerImportInput) (RunResponse, error)
}
