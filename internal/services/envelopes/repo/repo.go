// Package repo provides the Postgres repository for envelopes
package repo

import (
	"context"

	"cellarbook/internal/modkit/repokit"
	perr "cellarbook/internal/platform/errors"
	"cellarbook/internal/platform/store"
	"cellarbook/internal/services/envelopes/domain"

	"github.com/google/uuid"
)

type binder struct{}

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// Storage defines the envelope repository
type Storage interface {
	// Insert creates an envelope with a generated id
	// a hash collision surfaces as ErrorCodeDuplicateKey
	Insert(ctx context.Context, in domain.LinkInput) (string, error)
	// ByHash returns the envelope id for a content hash
	ByHash(ctx context.Context, contentHash string) (string, error)
	// TableExists probes the backing table at construction time
	TableExists(ctx context.Context) (bool, error)
}

type pg struct{ q repokit.Queryer }

// Insert implements Storage
func (s *pg) Insert(ctx context.Context, in domain.LinkInput) (string, error) {
	id := uuid.NewString()
	_, err := s.q.Exec(ctx, `
		INSERT INTO import_envelopes (envelope_id, content_hash, source_filename, file_size_bytes, metadata)
		VALUES ($1::uuid, $2, $3, $4, $5)`,
		id, in.ContentHash, in.SourceFilename, in.FileSizeBytes, in.Metadata,
	)
	if err != nil {
		return "", perr.FromPostgres(err, "insert envelope")
	}
	return id, nil
}

// ByHash implements Storage
// the winner's committed row is visible here after a lost insert race
func (s *pg) ByHash(ctx context.Context, contentHash string) (string, error) {
	id, err := store.Scalar[string](ctx, s.q, `
		SELECT envelope_id::text FROM import_envelopes WHERE content_hash = $1`,
		contentHash,
	)
	if err != nil {
		return "", perr.FromPostgres(err, "envelope by hash")
	}
	return id, nil
}

// TableExists implements Storage
func (s *pg) TableExists(ctx context.Context) (bool, error) {
	ok, err := store.Scalar[bool](ctx, s.q,
		`SELECT to_regclass('public.import_envelopes') IS NOT NULL`)
	if err != nil {
		return false, perr.FromPostgres(err, "probe envelope table")
	}
	return ok, nil
}
