// Package service contains runs API workflows over the worker ports
package service

import (
	"context"
	"time"

	perr "cellarbook/internal/platform/errors"
	"cellarbook/internal/services/api/runs/domain"
	importerdomain "cellarbook/internal/services/importer/domain"
	runsdomain "cellarbook/internal/services/runs/domain"
)

// Service defines the runs API service contract
type Service interface {
	domain.ServicePort
}

// Svc implements the runs API service over the registry and runner ports
type Svc struct {
	registry  runsdomain.RegistryPort
	runner    importerdomain.RunnerPort
	transform importerdomain.TransformFunc
}

// New constructs a runs API service
func New(
	registry runsdomain.RegistryPort,
	runner importerdomain.RunnerPort,
	transform importerdomain.TransformFunc,
) *Svc {
	if registry == nil {
		panic("runs API service requires a non nil RegistryPort")
	}
	if runner == nil {
		panic("runs API service requires a non nil RunnerPort")
	}
	return &Svc{registry: registry, runner: runner, transform: transform}
}

// List returns recent runs plus the next page cursor
func (s *Svc) List(ctx context.Context, in domain.ListQuery) ([]domain.RunResponse, string, error) {
	after, err := domain.DecodeCursor(in.Cursor)
	if err != nil {
		return nil, "", err
	}

	q := runsdomain.ListInput{
		Supplier: in.Supplier,
		After:    after,
		Limit:    in.Limit,
	}
	if in.Status != "" {
		st := runsdomain.Status(in.Status)
		if !st.Valid() {
			return nil, "", perr.InvalidArgf("unknown status %q", in.Status)
		}
		q.Status = st
	}
	if in.Since != "" {
		ts, terr := time.Parse(domain.DateLayout, in.Since)
		if terr != nil {
			return nil, "", perr.InvalidArgf("since must be YYYY-MM-DD")
		}
		q.Since = ts
	}
	if in.Until != "" {
		ts, terr := time.Parse(domain.DateLayout, in.Until)
		if terr != nil {
			return nil, "", perr.InvalidArgf("until must be YYYY-MM-DD")
		}
		q.Until = ts
	}

	rows, next, err := s.registry.ListRecent(ctx, q)
	if err != nil {
		return nil, "", err
	}
	return domain.FromRuns(rows), domain.EncodeCursor(next), nil
}

// Get returns one run by id
func (s *Svc) Get(ctx context.Context, runID string) (domain.RunResponse, error) {
	run, err := s.registry.GetRun(ctx, runID)
	if err != nil {
		return domain.RunResponse{}, err
	}
	return domain.FromRun(*run), nil
}

// Staleness returns the freshness summary for one supplier
func (s *Svc) Staleness(ctx context.Context, supplier string) (runsdomain.StalenessSummary, error) {
	return s.registry.StalenessSummary(ctx, supplier)
}

// Trigger runs a server side import of the given file and returns the terminal row
// delegate failures still produce a terminal row; the error carries the outcome
func (s *Svc) Trigger(ctx context.Context, in domain.TriggerImportInput) (domain.RunResponse, error) {
	asOf, err := time.Parse(domain.DateLayout, in.AsOfDate)
	if err != nil {
		return domain.RunResponse{}, perr.InvalidArgf("as_of_date must be YYYY-MM-DD")
	}
	run, err := s.runner.RunImport(ctx, importerdomain.RunRequest{
		Supplier:       in.Supplier,
		FilePath:       in.FilePath,
		AsOfDate:       asOf,
		TriggeredBy:    in.TriggeredBy,
		ProcessingMode: runsdomain.Mode(in.ProcessingMode),
		ImportConfig:   in.ImportConfig,
		Transform:      s.transform,
	})
	if err != nil {
		return domain.RunResponse{}, err
	}
	return domain.FromRun(*run), nil
}
