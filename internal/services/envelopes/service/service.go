// Package service implements the envelope tracker
// two implementations share domain.TrackerPort: a storage-backed tracker and a
// no-op tracker selected at startup when the backing table is not provisioned
package service

import (
	"context"

	"cellarbook/internal/modkit/repokit"
	perr "cellarbook/internal/platform/errors"
	"cellarbook/internal/platform/logger"
	"cellarbook/internal/services/envelopes/domain"
	"cellarbook/internal/services/envelopes/repo"
)

// Service is the storage-backed tracker
type Service struct {
	DB     repokit.TxRunner
	Binder repokit.Binder[repo.Storage]
	Log    logger.Logger
}

// New constructs a storage-backed tracker
func New(db repokit.TxRunner, b repokit.Binder[repo.Storage], log logger.Logger) *Service {
	return &Service{DB: db, Binder: b, Log: log}
}

// LinkOrCreate implements domain.TrackerPort
// insert first, fall back to the winner's row on a hash collision, swallow
// everything else with a nil result
func (s *Service) LinkOrCreate(ctx context.Context, in domain.LinkInput) *string {
	var id string
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		id, err = s.Binder.Bind(q).Insert(ctx, in)
		return err
	})
	if err == nil {
		return &id
	}

	if perr.IsCode(err, perr.ErrorCodeDuplicateKey) {
		// another run created the envelope for this hash, reuse it
		lerr := s.DB.Tx(ctx, func(q repokit.Queryer) error {
			var err error
			id, err = s.Binder.Bind(q).ByHash(ctx, in.ContentHash)
			return err
		})
		if lerr == nil {
			return &id
		}
		s.Log.Warn().Err(lerr).Str("content_hash", in.ContentHash).
			Msg("envelope conflict fallback lookup failed, proceeding unlinked")
		return nil
	}

	s.Log.Warn().Err(err).Str("content_hash", in.ContentHash).
		Msg("envelope link failed, proceeding unlinked")
	return nil
}

// Noop is the degraded-mode tracker used when the backing table is absent
type Noop struct{}

// LinkOrCreate implements domain.TrackerPort by doing nothing
func (Noop) LinkOrCreate(context.Context, domain.LinkInput) *string { return nil }
