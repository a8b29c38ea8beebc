// Package repo provides the Postgres repository for import runs
package repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cellarbook/internal/modkit/repokit"
	perr "cellarbook/internal/platform/errors"
	"cellarbook/internal/platform/store"
	"cellarbook/internal/services/runs/domain"

	"github.com/google/uuid"
)

type binder struct{}

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// Storage defines the import run repository
type Storage interface {
	FindBlockingRun(ctx context.Context, supplier, contentHash string, asOfDate time.Time) (*domain.ImportRun, error)
	CreateRun(ctx context.Context, in domain.CreateInput) (*domain.ImportRun, error)
	CreateSkipped(ctx context.Context, in domain.SkipInput) (*domain.ImportRun, error)
	MarkRunning(ctx context.Context, runID string) error
	MarkTerminal(ctx context.Context, in domain.TerminalInput) error
	MarkRolledBack(ctx context.Context, runID, reason string) error
	LatestSuccessEnvelope(ctx context.Context, contentHash string) (*string, error)
	GetRun(ctx context.Context, runID string) (*domain.ImportRun, error)
	ListRecent(ctx context.Context, in domain.ListInput, hardLimit int) ([]domain.ImportRun, domain.AfterKey, error)
	StalenessSummary(ctx context.Context, supplier string, failureWindow time.Duration) (domain.StalenessSummary, error)
	StaleRunning(ctx context.Context, cutoff time.Time) ([]string, error)
	StalePending(ctx context.Context, cutoff time.Time) ([]string, error)
}

type pg struct{ q repokit.Queryer }

// selectCols is the canonical column list every run read uses
const selectCols = `
	r.run_id::text,
	r.supplier,
	r.as_of_date,
	r.source_filename,
	r.content_hash,
	r.file_size_bytes,
	r.status::text,
	r.created_at,
	r.updated_at,
	r.started_at,
	r.finished_at,
	COALESCE(r.triggered_by, ''),
	r.processing_mode::text,
	r.total_rows_processed,
	r.rows_skipped,
	r.new_sku_count,
	r.updated_sku_count,
	r.new_winery_count,
	r.quarantine_count,
	COALESCE(r.error_summary, ''),
	COALESCE(r.error_details, '{}'::jsonb),
	COALESCE(r.artifact_paths, '[]'::jsonb),
	COALESCE(r.import_config, '{}'::jsonb),
	r.envelope_id::text`

func scanRun(row store.Row) (domain.ImportRun, error) {
	var r domain.ImportRun
	var status, mode string
	err := row.Scan(
		&r.RunID, &r.Supplier, &r.AsOfDate, &r.SourceFilename, &r.ContentHash,
		&r.FileSizeBytes, &status, &r.CreatedAt, &r.UpdatedAt, &r.StartedAt,
		&r.FinishedAt, &r.TriggeredBy, &mode,
		&r.Metrics.TotalRowsProcessed, &r.Metrics.RowsSkipped,
		&r.Metrics.NewSKUCount, &r.Metrics.UpdatedSKUCount,
		&r.Metrics.NewWineryCount, &r.Metrics.QuarantineCount,
		&r.ErrorSummary, &r.ErrorDetails, &r.ArtifactPaths, &r.ImportConfig,
		&r.EnvelopeID,
	)
	if err != nil {
		return domain.ImportRun{}, err
	}
	r.Status = domain.Status(status)
	r.ProcessingMode = domain.Mode(mode)
	return r, nil
}

// FindBlockingRun implements Storage
func (s *pg) FindBlockingRun(
	ctx context.Context,
	supplier, contentHash string,
	asOfDate time.Time,
) (*domain.ImportRun, error) {
	run, err := store.One(ctx, s.q, scanRun, `
		SELECT `+selectCols+`
		FROM import_runs r
		WHERE r.supplier = $1 AND r.content_hash = $2 AND r.as_of_date = $3
			AND r.status IN ('pending', 'running', 'success')
		LIMIT 1`,
		supplier, contentHash, asOfDate,
	)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return nil, nil
		}
		return nil, perr.FromPostgres(err, "find blocking run")
	}
	return &run, nil
}

// CreateRun implements Storage
// the partial unique index over blocking statuses makes the insert atomic with
// respect to the triple, losers surface ErrorCodeDuplicateKey
func (s *pg) CreateRun(ctx context.Context, in domain.CreateInput) (*domain.ImportRun, error) {
	runID := uuid.NewString()
	run, err := store.One(ctx, s.q, scanRun, `
		INSERT INTO import_runs AS r (
			run_id, supplier, as_of_date, source_filename, content_hash,
			file_size_bytes, status, triggered_by, processing_mode, import_config
		)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, 'pending', $7, $8, $9)
		RETURNING `+selectCols,
		runID, in.Supplier, in.AsOfDate, in.SourceFilename, in.ContentHash,
		in.FileSizeBytes, in.TriggeredBy, string(in.ProcessingMode), in.ImportConfig,
	)
	if err != nil {
		return nil, perr.FromPostgresf(err, "create run for %s", in.Supplier)
	}
	return &run, nil
}

// CreateSkipped implements Storage
// writes the terminal skipped row in one insert, no pending hop
func (s *pg) CreateSkipped(ctx context.Context, in domain.SkipInput) (*domain.ImportRun, error) {
	runID := uuid.NewString()
	run, err := store.One(ctx, s.q, scanRun, `
		INSERT INTO import_runs AS r (
			run_id, supplier, as_of_date, source_filename, content_hash,
			file_size_bytes, status, triggered_by, processing_mode, envelope_id, finished_at
		)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, 'skipped', $7, $8, $9::uuid, now())
		RETURNING `+selectCols,
		runID, in.Supplier, in.AsOfDate, in.SourceFilename, in.ContentHash,
		in.FileSizeBytes, in.TriggeredBy, string(in.ProcessingMode), in.EnvelopeID,
	)
	if err != nil {
		return nil, perr.FromPostgresf(err, "create skipped run for %s", in.Supplier)
	}
	return &run, nil
}

// MarkRunning implements Storage
func (s *pg) MarkRunning(ctx context.Context, runID string) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE import_runs
		SET status = 'running', started_at = now(), updated_at = now()
		WHERE run_id = $1::uuid AND status = 'pending'`,
		runID,
	)
	if err != nil {
		return perr.FromPostgresf(err, "mark running %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return perr.InvalidTransitionf("run %s is not pending", runID)
	}
	return nil
}

// MarkTerminal implements Storage
// the WHERE status predicate is the optimistic precondition: a row already
// terminal (completed or reclaimed) rejects the write with zero rows affected
func (s *pg) MarkTerminal(ctx context.Context, in domain.TerminalInput) error {
	if in.Status != domain.StatusSuccess && in.Status != domain.StatusFailed {
		return perr.InvalidTransitionf("terminal status %q not allowed", in.Status)
	}
	tag, err := s.q.Exec(ctx, `
		UPDATE import_runs
		SET status = $2,
			finished_at = now(),
			updated_at = now(),
			total_rows_processed = $3,
			rows_skipped = $4,
			new_sku_count = $5,
			updated_sku_count = $6,
			new_winery_count = $7,
			quarantine_count = $8,
			error_summary = NULLIF($9, ''),
			error_details = $10
		WHERE run_id = $1::uuid AND status IN ('pending', 'running')`,
		in.RunID, string(in.Status),
		in.Metrics.TotalRowsProcessed, in.Metrics.RowsSkipped,
		in.Metrics.NewSKUCount, in.Metrics.UpdatedSKUCount,
		in.Metrics.NewWineryCount, in.Metrics.QuarantineCount,
		in.ErrorSummary, in.ErrorDetails,
	)
	if err != nil {
		return perr.FromPostgresf(err, "mark terminal %s", in.RunID)
	}
	if tag.RowsAffected() == 0 {
		return perr.InvalidTransitionf("run %s is not pending or running", in.RunID)
	}
	return nil
}

// MarkRolledBack implements Storage
func (s *pg) MarkRolledBack(ctx context.Context, runID, reason string) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE import_runs
		SET status = 'rolled_back', finished_at = now(), updated_at = now(),
			error_summary = $2
		WHERE run_id = $1::uuid AND status IN ('pending', 'running')`,
		runID, reason,
	)
	if err != nil {
		return perr.FromPostgresf(err, "mark rolled back %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return perr.InvalidTransitionf("run %s is not pending or running", runID)
	}
	return nil
}

// LatestSuccessEnvelope implements Storage
// most recent success row by created_at, tie-broken by run_id
func (s *pg) LatestSuccessEnvelope(ctx context.Context, contentHash string) (*string, error) {
	type envRow struct{ ID *string }
	row, err := store.One(ctx, s.q,
		func(r store.Row) (envRow, error) {
			var e envRow
			return e, r.Scan(&e.ID)
		}, `
		SELECT envelope_id::text
		FROM import_runs
		WHERE content_hash = $1 AND status = 'success'
		ORDER BY created_at DESC, run_id DESC
		LIMIT 1`,
		contentHash,
	)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return nil, nil
		}
		return nil, perr.FromPostgres(err, "latest success envelope")
	}
	return row.ID, nil
}

// GetRun implements Storage
func (s *pg) GetRun(ctx context.Context, runID string) (*domain.ImportRun, error) {
	run, err := store.One(ctx, s.q, scanRun, `
		SELECT `+selectCols+`
		FROM import_runs r
		WHERE r.run_id = $1::uuid`,
		runID,
	)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return nil, perr.NotFoundf("run %s", runID)
		}
		return nil, perr.FromPostgresf(err, "get run %s", runID)
	}
	return &run, nil
}

// ListRecent implements Storage
// newest first, keyset over (created_at, run_id) descending
func (s *pg) ListRecent(
	ctx context.Context,
	in domain.ListInput,
	hardLimit int,
) ([]domain.ImportRun, domain.AfterKey, error) {
	var sb strings.Builder
	var args []any
	arg := func(v any) string { args = append(args, v); return fmt.Sprintf("$%d", len(args)) }

	sb.WriteString(`
		SELECT ` + selectCols + `
		FROM import_runs r
		WHERE TRUE
	`)

	if in.Supplier != "" {
		sb.WriteString("  AND r.supplier = " + arg(in.Supplier) + "\n")
	}
	if in.Status != "" {
		sb.WriteString("  AND r.status = " + arg(string(in.Status)) + "::import_run_status\n")
	}
	if !in.Since.IsZero() {
		sb.WriteString("  AND r.created_at >= " + arg(in.Since) + "\n")
	}
	if !in.Until.IsZero() {
		sb.WriteString("  AND r.created_at < " + arg(in.Until) + "\n")
	}

	// Keyset only when AfterKey is set (avoid ""::uuid on first page)
	if in.After.RunID != "" {
		sb.WriteString("  AND (r.created_at, r.run_id) < (" + arg(in.After.CreatedAt) + ", " + arg(in.After.RunID) + "::uuid)\n")
	}

	sb.WriteString("ORDER BY r.created_at DESC, r.run_id DESC\nLIMIT " + arg(hardLimit))

	rows, err := store.Many(ctx, s.q, scanRun, sb.String(), args...)
	if err != nil {
		return nil, domain.AfterKey{}, perr.FromPostgres(err, "list recent runs")
	}

	var last domain.AfterKey
	if n := len(rows); n > 0 {
		last = domain.AfterKey{CreatedAt: rows[n-1].CreatedAt, RunID: rows[n-1].RunID}
	}
	return rows, last, nil
}

// StalenessSummary implements Storage
func (s *pg) StalenessSummary(
	ctx context.Context,
	supplier string,
	failureWindow time.Duration,
) (domain.StalenessSummary, error) {
	out := domain.StalenessSummary{Supplier: supplier}
	err := s.q.QueryRow(ctx, `
		SELECT
			max(finished_at) FILTER (WHERE status = 'success'),
			count(*) FILTER (WHERE status = 'failed' AND created_at >= now() - $2::interval),
			COALESCE(bool_or(status = 'running'), FALSE)
		FROM import_runs
		WHERE supplier = $1`,
		supplier, failureWindow,
	).Scan(&out.LastSuccessAt, &out.RecentFailureCount, &out.CurrentlyRunning)
	if err != nil {
		return domain.StalenessSummary{}, perr.FromPostgresf(err, "staleness summary for %s", supplier)
	}
	return out, nil
}

// StaleRunning implements Storage
func (s *pg) StaleRunning(ctx context.Context, cutoff time.Time) ([]string, error) {
	ids, err := store.Many(ctx, s.q,
		func(r store.Row) (string, error) {
			var id string
			return id, r.Scan(&id)
		}, `
		SELECT run_id::text FROM import_runs
		WHERE status = 'running' AND started_at < $1
		ORDER BY started_at`,
		cutoff,
	)
	if err != nil {
		return nil, perr.FromPostgres(err, "scan stale running")
	}
	return ids, nil
}

// StalePending implements Storage
func (s *pg) StalePending(ctx context.Context, cutoff time.Time) ([]string, error) {
	ids, err := store.Many(ctx, s.q,
		func(r store.Row) (string, error) {
			var id string
			return id, r.Scan(&id)
		}, `
		SELECT run_id::text FROM import_runs
		WHERE status = 'pending' AND created_at < $1
		ORDER BY created_at`,
		cutoff,
	)
	if err != nil {
		return nil, perr.FromPostgres(err, "scan stale pending")
	}
	return ids, nil
}
