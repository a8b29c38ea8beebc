// Package service implements the import orchestrator
package service

import (
	"context"
	"time"

	"cellarbook/internal/core/fingerprint"
	"cellarbook/internal/modkit/repokit"
	perr "cellarbook/internal/platform/errors"
	"cellarbook/internal/platform/logger"
	"cellarbook/internal/platform/store"
	ptime "cellarbook/internal/platform/time"
	envdomain "cellarbook/internal/services/envelopes/domain"
	"cellarbook/internal/services/importer/domain"
	runsdomain "cellarbook/internal/services/runs/domain"
)

// Service implements domain.RunnerPort
// it owns no storage of its own: every durable effect goes through the
// registry, the tracker, or the delegate's own writes
type Service struct {
	DB       repokit.TxRunner
	Registry runsdomain.RegistryPort
	Tracker  envdomain.TrackerPort
	Audit    store.Clickhouse // optional, nil disables the mirror
	Log      logger.Logger
}

// New constructs the orchestrator
func New(
	db repokit.TxRunner,
	registry runsdomain.RegistryPort,
	tracker envdomain.TrackerPort,
	audit store.Clickhouse,
	log logger.Logger,
) *Service {
	return &Service{DB: db, Registry: registry, Tracker: tracker, Audit: audit, Log: log}
}

// RunImport implements domain.RunnerPort
func (s *Service) RunImport(ctx context.Context, req domain.RunRequest) (*runsdomain.ImportRun, error) {
	if req.ProcessingMode == "" {
		req.ProcessingMode = runsdomain.ModeAtomic
	}

	fp, err := fingerprint.File(req.FilePath)
	if err != nil {
		return nil, err
	}

	blocking, err := s.Registry.FindBlockingRun(ctx, req.Supplier, fp.Hash, req.AsOfDate)
	if err != nil {
		return nil, err
	}
	if blocking != nil {
		return s.skip(ctx, req, fp)
	}

	run, err := s.Registry.CreateRun(ctx, runsdomain.CreateInput{
		Supplier:       req.Supplier,
		AsOfDate:       req.AsOfDate,
		ContentHash:    fp.Hash,
		SourceFilename: req.FilePath,
		FileSizeBytes:  fp.SizeBytes,
		TriggeredBy:    req.TriggeredBy,
		ProcessingMode: req.ProcessingMode,
		ImportConfig:   req.ImportConfig,
	})
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeDuplicateKey) {
			// a concurrent attempt won the race between check and create,
			// semantically the same outcome as finding the blocking row first
			return s.skip(ctx, req, fp)
		}
		return nil, err
	}

	ctx = logger.WithImport(ctx, run.Supplier, run.RunID)
	log := logger.C(ctx)

	if err := s.Registry.MarkRunning(ctx, run.RunID); err != nil {
		return nil, err
	}

	// best-effort, a nil id means the import proceeds unlinked
	envID := s.Tracker.LinkOrCreate(ctx, envdomain.LinkInput{
		ContentHash:    fp.Hash,
		SourceFilename: req.FilePath,
		FileSizeBytes:  fp.SizeBytes,
		Supplier:       run.Supplier,
		AsOfDate:       req.AsOfDate,
		Metadata:       req.ImportConfig,
	})

	raw, terr := s.transform(ctx, req, run.RunID, envID)
	metrics := NormalizeMetrics(raw)

	if terr != nil {
		ferr := s.Registry.MarkTerminal(ctx, runsdomain.TerminalInput{
			RunID:        run.RunID,
			Status:       runsdomain.StatusFailed,
			Metrics:      metrics,
			ErrorSummary: perr.Root(terr).Error(),
			ErrorDetails: map[string]any{"error": terr.Error()},
		})
		if ferr != nil && !perr.IsCode(ferr, perr.ErrorCodeInvalidTransition) {
			log.Error().Err(ferr).Msg("failed to record import failure")
		}
		out, gerr := s.Registry.GetRun(ctx, run.RunID)
		if gerr != nil {
			out = run
		}
		s.mirror(ctx, out)
		// the one error class that must reach the caller
		return out, perr.TransformFailed(terr, "import %s failed", run.RunID)
	}

	if err := s.Registry.MarkTerminal(ctx, runsdomain.TerminalInput{
		RunID:   run.RunID,
		Status:  runsdomain.StatusSuccess,
		Metrics: metrics,
	}); err != nil {
		// reclaimed mid-flight: the resurrection write loses, per the
		// optimistic precondition; surface what actually persisted
		if perr.IsCode(err, perr.ErrorCodeInvalidTransition) {
			log.Warn().Msg("terminal write rejected, run was reclaimed")
			return s.Registry.GetRun(ctx, run.RunID)
		}
		return nil, err
	}

	out, err := s.Registry.GetRun(ctx, run.RunID)
	if err != nil {
		return nil, err
	}
	log.Info().
		Int64("rows", out.Metrics.TotalRowsProcessed).
		Int64("skipped", out.Metrics.RowsSkipped).
		Msg("import succeeded")
	s.mirror(ctx, out)
	return out, nil
}

// skip writes the terminal skipped row, copying envelope linkage forward from
// the most recent success for the same content. No delegate work happens here
func (s *Service) skip(
	ctx context.Context,
	req domain.RunRequest,
	fp fingerprint.Fingerprint,
) (*runsdomain.ImportRun, error) {
	envID, err := s.Registry.LatestSuccessEnvelope(ctx, fp.Hash)
	if err != nil {
		return nil, err
	}
	run, err := s.Registry.CreateSkipped(ctx, runsdomain.SkipInput{
		Supplier:       req.Supplier,
		AsOfDate:       req.AsOfDate,
		ContentHash:    fp.Hash,
		SourceFilename: req.FilePath,
		FileSizeBytes:  fp.SizeBytes,
		TriggeredBy:    req.TriggeredBy,
		ProcessingMode: req.ProcessingMode,
		EnvelopeID:     envID,
	})
	if err != nil {
		return nil, err
	}
	logger.C(ctx).Info().
		Str("run_id", run.RunID).
		Str("supplier", run.Supplier).
		Msg("duplicate import skipped")
	s.mirror(ctx, run)
	return run, nil
}

// transform invokes the delegate with a storage handle matching the mode:
// atomic wraps the whole delegate in one transaction, chunked hands it the
// runner so it can commit its own batches
func (s *Service) transform(
	ctx context.Context,
	req domain.RunRequest,
	runID string,
	envID *string,
) (domain.RawMetrics, error) {
	if req.Transform == nil {
		return nil, perr.InvalidArgf("transform delegate is required")
	}
	treq := domain.TransformRequest{
		Supplier:   req.Supplier,
		FilePath:   req.FilePath,
		AsOfDate:   req.AsOfDate,
		RunID:      runID,
		EnvelopeID: envID,
	}
	if req.ProcessingMode == runsdomain.ModeChunked {
		return req.Transform(ctx, s.DB, treq)
	}
	var raw domain.RawMetrics
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var terr error
		raw, terr = req.Transform(ctx, q, treq)
		return terr
	})
	return raw, err
}

// mirror appends a terminal run event to the audit feed, best-effort
func (s *Service) mirror(ctx context.Context, run *runsdomain.ImportRun) {
	if s.Audit == nil || run == nil {
		return
	}
	finished := ptime.Deref(run.FinishedAt).UTC()
	if finished.IsZero() {
		finished = time.Now().UTC()
	}
	err := s.Audit.Insert(ctx, "import_audit_feed", [][]any{{
		run.RunID,
		run.Supplier,
		run.AsOfDate,
		run.ContentHash,
		string(run.Status),
		run.Metrics.TotalRowsProcessed,
		run.Metrics.RowsSkipped,
		run.ErrorSummary,
		finished,
	}})
	if err != nil {
		logger.C(ctx).Warn().Err(err).Str("run_id", run.RunID).Msg("audit mirror write failed")
	}
}
