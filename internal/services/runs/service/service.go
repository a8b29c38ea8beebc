// Package service implements the run registry over the Postgres repo
package service

import (
	"context"
	"time"

	"cellarbook/internal/core/supplier"
	"cellarbook/internal/modkit/repokit"
	"cellarbook/internal/services/runs/domain"
	"cellarbook/internal/services/runs/repo"
)

// Config for the runs service
type Config struct {
	// HardLimit is the maximum allowed limit per ListRecent call; defaults to 200 if <=0
	HardLimit int
	// FailureWindow bounds recent_failure_count in staleness summaries; defaults to 7 days
	FailureWindow time.Duration
}

// Service implements domain.RegistryPort
type Service struct {
	DB     repokit.TxRunner
	Binder repokit.Binder[repo.Storage]
	Cfg    Config
}

// New constructs a new runs service
func New(db repokit.TxRunner, b repokit.Binder[repo.Storage], cfg Config) *Service {
	if cfg.HardLimit <= 0 {
		cfg.HardLimit = 200
	}
	if cfg.FailureWindow <= 0 {
		cfg.FailureWindow = 7 * 24 * time.Hour
	}
	return &Service{DB: db, Binder: b, Cfg: cfg}
}

// FindBlockingRun implements domain.RegistryPort
func (s *Service) FindBlockingRun(
	ctx context.Context,
	supp, contentHash string,
	asOfDate time.Time,
) (*domain.ImportRun, error) {
	var out *domain.ImportRun
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		out, err = s.Binder.Bind(q).FindBlockingRun(ctx, supplier.Key(supp), contentHash, asOfDate)
		return err
	})
	return out, err
}

// CreateRun implements domain.RegistryPort
func (s *Service) CreateRun(ctx context.Context, in domain.CreateInput) (*domain.ImportRun, error) {
	in.Supplier = supplier.Key(in.Supplier)
	if in.ProcessingMode == "" {
		in.ProcessingMode = domain.ModeAtomic
	}
	var out *domain.ImportRun
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		out, err = s.Binder.Bind(q).CreateRun(ctx, in)
		return err
	})
	return out, err
}

// CreateSkipped implements domain.RegistryPort
func (s *Service) CreateSkipped(ctx context.Context, in domain.SkipInput) (*domain.ImportRun, error) {
	in.Supplier = supplier.Key(in.Supplier)
	if in.ProcessingMode == "" {
		in.ProcessingMode = domain.ModeAtomic
	}
	var out *domain.ImportRun
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		out, err = s.Binder.Bind(q).CreateSkipped(ctx, in)
		return err
	})
	return out, err
}

// MarkRunning implements domain.RegistryPort
func (s *Service) MarkRunning(ctx context.Context, runID string) error {
	return s.DB.Tx(ctx, func(q repokit.Queryer) error {
		return s.Binder.Bind(q).MarkRunning(ctx, runID)
	})
}

// MarkTerminal implements domain.RegistryPort
func (s *Service) MarkTerminal(ctx context.Context, in domain.TerminalInput) error {
	return s.DB.Tx(ctx, func(q repokit.Queryer) error {
		return s.Binder.Bind(q).MarkTerminal(ctx, in)
	})
}

// MarkRolledBack implements domain.RegistryPort
func (s *Service) MarkRolledBack(ctx context.Context, runID, reason string) error {
	return s.DB.Tx(ctx, func(q repokit.Queryer) error {
		return s.Binder.Bind(q).MarkRolledBack(ctx, runID, reason)
	})
}

// LatestSuccessEnvelope implements domain.RegistryPort
func (s *Service) LatestSuccessEnvelope(ctx context.Context, contentHash string) (*string, error) {
	var out *string
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		out, err = s.Binder.Bind(q).LatestSuccessEnvelope(ctx, contentHash)
		return err
	})
	return out, err
}

// GetRun implements domain.RegistryPort
func (s *Service) GetRun(ctx context.Context, runID string) (*domain.ImportRun, error) {
	var out *domain.ImportRun
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		out, err = s.Binder.Bind(q).GetRun(ctx, runID)
		return err
	})
	return out, err
}

// ListRecent implements domain.RegistryPort
func (s *Service) ListRecent(ctx context.Context, in domain.ListInput) ([]domain.ImportRun, domain.AfterKey, error) {
	if in.Supplier != "" {
		in.Supplier = supplier.Key(in.Supplier)
	}
	limit := in.Limit
	if limit <= 0 || limit > s.Cfg.HardLimit {
		limit = s.Cfg.HardLimit
	}

	var rows []domain.ImportRun
	var next domain.AfterKey
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		rows, next, err = s.Binder.Bind(q).ListRecent(ctx, in, limit)
		return err
	})
	if err != nil {
		return nil, domain.AfterKey{}, err
	}
	return rows, next, nil
}

// StalenessSummary implements domain.RegistryPort
func (s *Service) StalenessSummary(ctx context.Context, supp string) (domain.StalenessSummary, error) {
	var out domain.StalenessSummary
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		out, err = s.Binder.Bind(q).StalenessSummary(ctx, supplier.Key(supp), s.Cfg.FailureWindow)
		return err
	})
	if err != nil {
		return domain.StalenessSummary{}, err
	}
	if out.LastSuccessAt != nil {
		hrs := time.Since(*out.LastSuccessAt).Hours()
		out.HoursSinceSuccess = &hrs
	}
	return out, nil
}

// StaleRunning implements domain.RegistryPort
func (s *Service) StaleRunning(ctx context.Context, cutoff time.Time) ([]string, error) {
	var out []string
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		out, err = s.Binder.Bind(q).StaleRunning(ctx, cutoff)
		return err
	})
	return out, err
}

// StalePending implements domain.RegistryPort
func (s *Service) StalePending(ctx context.Context, cutoff time.Time) ([]string, error) {
	var out []string
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		out, err = s.Binder.Bind(q).StalePending(ctx, cutoff)
		return err
	})
	return out, err
}
