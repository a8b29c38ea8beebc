package module

import (
	"context"

	"cellarbook/internal/services/api/runs/domain"
	rsvc "cellarbook/internal/services/api/runs/service"
	runsdomain "cellarbook/internal/services/runs/domain"
)

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

type adaptRunsPort struct{ svc rsvc.Service }

// List returns recent runs plus the next page cursor
func (a adaptRunsPort) List(ctx context.Context, in domain.ListQuery) ([]domain.RunResponse, string, error) {
	return a.svc.List(ctx, in)
}

// Get returns one run by id
func (a adaptRunsPort) Get(ctx context.Context, runID string) (domain.RunResponse, error) {
	return a.svc.Get(ctx, runID)
}

// Staleness returns the freshness summary for one supplier
func (a adaptRunsPort) Staleness(ctx context.Context, supplier string) (runsdomain.StalenessSummary, error) {
	return a.svc.Staleness(ctx, supplier)
}

// Trigger runs a server side import of the given file
func (a adaptRunsPort) Trigger(ctx context.Context, in domain.TriggerImportInput) (domain.RunResponse, error) {
	return a.svc.Trigger(ctx, in)
}
