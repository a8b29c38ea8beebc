package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"cellarbook/internal/modkit/repokit"
	perr "cellarbook/internal/platform/errors"
	"cellarbook/internal/platform/store"
	"cellarbook/internal/services/envelopes/domain"
	"cellarbook/internal/services/envelopes/repo"
)

type fakeTag struct{}

func (fakeTag) String() string      { return "FAKE" }
func (fakeTag) RowsAffected() int64 { return 0 }

type fakeDB struct{}

func (fakeDB) Exec(context.Context, string, ...any) (store.CommandTag, error) {
	return fakeTag{}, nil
}
func (fakeDB) Query(context.Context, string, ...any) (store.Rows, error) { return nil, nil }
func (fakeDB) QueryRow(context.Context, string, ...any) store.Row        { return nil }
func (db fakeDB) Tx(_ context.Context, fn func(q store.RowQuerier) error) error {
	return fn(db)
}

// fakeStorage scripts the repo surface per test
type fakeStorage struct {
	insertID  string
	insertErr error
	byHashID  string
	byHashErr error

	inserts int
	lookups int
}

func (f *fakeStorage) Insert(context.Context, domain.LinkInput) (string, error) {
	f.inserts++
	return f.insertID, f.insertErr
}

func (f *fakeStorage) ByHash(context.Context, string) (string, error) {
	f.lookups++
	return f.byHashID, f.byHashErr
}

func (f *fakeStorage) TableExists(context.Context) (bool, error) { return true, nil }

type fakeBinder struct{ st *fakeStorage }

func (b fakeBinder) Bind(repokit.Queryer) repo.Storage { return b.st }

func newTracker(st *fakeStorage) *Service {
	return New(fakeDB{}, fakeBinder{st: st}, zerolog.Nop())
}

func TestLinkOrCreate_FreshHash(t *testing.T) {
	t.Parallel()

	st := &fakeStorage{insertID: "env-1"}
	id := newTracker(st).LinkOrCreate(context.Background(), domain.LinkInput{ContentHash: "h1"})

	if id == nil || *id != "env-1" {
		t.Fatalf("id = %v", id)
	}
	if st.inserts != 1 || st.lookups != 0 {
		t.Fatalf("calls = %d inserts, %d lookups", st.inserts, st.lookups)
	}
}

func TestLinkOrCreate_ConflictReusesWinner(t *testing.T) {
	t.Parallel()

	st := &fakeStorage{
		insertErr: perr.DuplicateKeyf("hash exists"),
		byHashID:  "env-winner",
	}
	id := newTracker(st).LinkOrCreate(context.Background(), domain.LinkInput{ContentHash: "h1"})

	if id == nil || *id != "env-winner" {
		t.Fatalf("conflict must resolve to the winner's id, got %v", id)
	}
	if st.lookups != 1 {
		t.Fatalf("lookups = %d", st.lookups)
	}
}

func TestLinkOrCreate_ConflictThenLookupFailure(t *testing.T) {
	t.Parallel()

	st := &fakeStorage{
		insertErr: perr.DuplicateKeyf("hash exists"),
		byHashErr: errors.New("connection reset"),
	}
	if id := newTracker(st).LinkOrCreate(context.Background(), domain.LinkInput{ContentHash: "h1"}); id != nil {
		t.Fatalf("failed fallback must yield nil, got %v", id)
	}
}

func TestLinkOrCreate_SwallowsStorageErrors(t *testing.T) {
	t.Parallel()

	st := &fakeStorage{insertErr: errors.New("disk on fire")}
	if id := newTracker(st).LinkOrCreate(context.Background(), domain.LinkInput{ContentHash: "h1"}); id != nil {
		t.Fatalf("tracker must never fail an import, got %v", id)
	}
}

func TestNoop(t *testing.T) {
	t.Parallel()

	if id := (Noop{}).LinkOrCreate(context.Background(), domain.LinkInput{ContentHash: "h1"}); id != nil {
		t.Fatalf("noop must return nil, got %v", id)
	}
}
