// Package service implements the stale run reclaimer
package service

import (
	"context"
	"time"

	perr "cellarbook/internal/platform/errors"
	"cellarbook/internal/platform/logger"
	"cellarbook/internal/services/reclaimer/domain"
	runsdomain "cellarbook/internal/services/runs/domain"
)

// Config controls sweep cadence and default thresholds
type Config struct {
	Interval time.Duration // defaults to 15m
	Policy   domain.Policy
}

// Service implements domain.SweeperPort
type Service struct {
	Registry runsdomain.RegistryPort
	Cfg      Config
	Log      logger.Logger

	// now is a seam for tests
	now func() time.Time
}

// New constructs the reclaimer
func New(registry runsdomain.RegistryPort, cfg Config, log logger.Logger) *Service {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Minute
	}
	if cfg.Policy.RunningTimeout <= 0 {
		cfg.Policy.RunningTimeout = 2 * time.Hour
	}
	if cfg.Policy.PendingTimeout <= 0 {
		cfg.Policy.PendingTimeout = 10 * time.Minute
	}
	return &Service{Registry: registry, Cfg: cfg, Log: log, now: time.Now}
}

// Reclaim implements domain.SweeperPort
// a second sweep right after the first finds nothing: the first already moved
// the stale set out of the scanned states
func (s *Service) Reclaim(ctx context.Context, p domain.Policy) (domain.Result, error) {
	if p.RunningTimeout <= 0 {
		p.RunningTimeout = s.Cfg.Policy.RunningTimeout
	}
	if p.PendingTimeout <= 0 {
		p.PendingTimeout = s.Cfg.Policy.PendingTimeout
	}
	now := s.now()

	var out domain.Result

	running, err := s.Registry.StaleRunning(ctx, now.Add(-p.RunningTimeout))
	if err != nil {
		return out, err
	}
	out.RolledBackRunning = s.rollBack(ctx, running, "stale: exceeded running timeout")

	pending, err := s.Registry.StalePending(ctx, now.Add(-p.PendingTimeout))
	if err != nil {
		return out, err
	}
	out.RolledBackPending = s.rollBack(ctx, pending, "stale: exceeded pending timeout")

	if out.RolledBackRunning+out.RolledBackPending > 0 {
		s.Log.Info().
			Int("running", out.RolledBackRunning).
			Int("pending", out.RolledBackPending).
			Msg("reclaimed stale runs")
	}
	return out, nil
}

// rollBack force-closes each run, counting the transitions that landed
// an InvalidTransition means the run finished normally between scan and write,
// which is the race resolving in the live process's favor
func (s *Service) rollBack(ctx context.Context, runIDs []string, reason string) int {
	n := 0
	for _, id := range runIDs {
		err := s.Registry.MarkRolledBack(ctx, id, reason)
		switch {
		case err == nil:
			n++
		case perr.IsCode(err, perr.ErrorCodeInvalidTransition):
			s.Log.Debug().Str("run_id", id).Msg("run completed before reclaim, skipping")
		default:
			s.Log.Error().Err(err).Str("run_id", id).Msg("reclaim rollback failed")
		}
	}
	return n
}

// Run implements domain.SweeperPort
func (s *Service) Run(ctx context.Context) error {
	t := time.NewTicker(s.Cfg.Interval)
	defer t.Stop()

	s.Log.Info().
		Dur("interval", s.Cfg.Interval).
		Dur("running_timeout", s.Cfg.Policy.RunningTimeout).
		Dur("pending_timeout", s.Cfg.Policy.PendingTimeout).
		Msg("reclaimer loop started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if _, err := s.Reclaim(ctx, s.Cfg.Policy); err != nil {
				s.Log.Error().Err(err).Msg("reclaim sweep failed")
			}
		}
	}
}
