package service

import (
	"context"
	"testing"
	"time"

	"cellarbook/internal/modkit/repokit"
	"cellarbook/internal/platform/store"
	"cellarbook/internal/services/runs/domain"
	"cellarbook/internal/services/runs/repo"
)

type fakeTag struct{}

func (fakeTag) String() string      { return "FAKE" }
func (fakeTag) RowsAffected() int64 { return 1 }

type fakeDB struct{}

func (fakeDB) Exec(context.Context, string, ...any) (store.CommandTag, error) {
	return fakeTag{}, nil
}
func (fakeDB) Query(context.Context, string, ...any) (store.Rows, error) { return nil, nil }
func (fakeDB) QueryRow(context.Context, string, ...any) store.Row        { return nil }
func (db fakeDB) Tx(_ context.Context, fn func(q store.RowQuerier) error) error {
	return fn(db)
}

// recordingStorage captures the arguments the service hands the repo
type recordingStorage struct {
	createIn  domain.CreateInput
	skipIn    domain.SkipInput
	listIn    domain.ListInput
	listLimit int

	stalenessSupplier string
	stalenessWindow   time.Duration
	stalenessOut      domain.StalenessSummary

	findSupplier string
}

func (r *recordingStorage) FindBlockingRun(
	_ context.Context, supplier, _ string, _ time.Time,
) (*domain.ImportRun, error) {
	r.findSupplier = supplier
	return nil, nil
}

func (r *recordingStorage) CreateRun(_ context.Context, in domain.CreateInput) (*domain.ImportRun, error) {
	r.createIn = in
	return &domain.ImportRun{RunID: "r1", Supplier: in.Supplier, ProcessingMode: in.ProcessingMode}, nil
}

func (r *recordingStorage) CreateSkipped(_ context.Context, in domain.SkipInput) (*domain.ImportRun, error) {
	r.skipIn = in
	return &domain.ImportRun{RunID: "r2", Supplier: in.Supplier, Status: domain.StatusSkipped}, nil
}

func (r *recordingStorage) MarkRunning(context.Context, string) error { return nil }
func (r *recordingStorage) MarkTerminal(context.Context, domain.TerminalInput) error {
	return nil
}
func (r *recordingStorage) MarkRolledBack(context.Context, string, string) error { return nil }
func (r *recordingStorage) LatestSuccessEnvelope(context.Context, string) (*string, error) {
	return nil, nil
}
func (r *recordingStorage) GetRun(context.Context, string) (*domain.ImportRun, error) {
	return &domain.ImportRun{RunID: "r1"}, nil
}

func (r *recordingStorage) ListRecent(
	_ context.Context, in domain.ListInput, hardLimit int,
) ([]domain.ImportRun, domain.AfterKey, error) {
	r.listIn = in
	r.listLimit = hardLimit
	return nil, domain.AfterKey{}, nil
}

func (r *recordingStorage) StalenessSummary(
	_ context.Context, supplier string, window time.Duration,
) (domain.StalenessSummary, error) {
	r.stalenessSupplier = supplier
	r.stalenessWindow = window
	out := r.stalenessOut
	out.Supplier = supplier
	return out, nil
}

func (r *recordingStorage) StaleRunning(context.Context, time.Time) ([]string, error) {
	return nil, nil
}
func (r *recordingStorage) StalePending(context.Context, time.Time) ([]string, error) {
	return nil, nil
}

type fakeBinder struct{ st *recordingStorage }

func (b fakeBinder) Bind(repokit.Queryer) repo.Storage { return b.st }

func newSvc(st *recordingStorage, cfg Config) *Service {
	return New(fakeDB{}, fakeBinder{st: st}, cfg)
}

func TestCreateRun_CanonicalizesAndDefaults(t *testing.T) {
	t.Parallel()

	st := &recordingStorage{}
	run, err := newSvc(st, Config{}).CreateRun(context.Background(), domain.CreateInput{
		Supplier:    "  Ridge  VINEYARDS ",
		ContentHash: "h1",
	})
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if st.createIn.Supplier != "ridge vineyards" {
		t.Fatalf("supplier reached repo as %q", st.createIn.Supplier)
	}
	if st.createIn.ProcessingMode != domain.ModeAtomic {
		t.Fatalf("mode = %q, want atomic default", st.createIn.ProcessingMode)
	}
	if run.RunID != "r1" {
		t.Fatalf("run = %+v", run)
	}
}

func TestFindBlockingRun_Canonicalizes(t *testing.T) {
	t.Parallel()

	st := &recordingStorage{}
	if _, err := newSvc(st, Config{}).FindBlockingRun(
		context.Background(), "RIDGE vineyards", "h1", time.Now(),
	); err != nil {
		t.Fatalf("FindBlockingRun: %v", err)
	}
	if st.findSupplier != "ridge vineyards" {
		t.Fatalf("supplier reached repo as %q", st.findSupplier)
	}
}

func TestListRecent_LimitCapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		limit int
		want  int
	}{
		{"zero falls back to cap", 0, 200},
		{"negative falls back to cap", -5, 200},
		{"over cap clamps", 1000, 200},
		{"under cap passes through", 25, 25},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			st := &recordingStorage{}
			if _, _, err := newSvc(st, Config{}).ListRecent(
				context.Background(), domain.ListInput{Limit: c.limit},
			); err != nil {
				t.Fatalf("ListRecent: %v", err)
			}
			if st.listLimit != c.want {
				t.Fatalf("limit reached repo as %d, want %d", st.listLimit, c.want)
			}
		})
	}
}

func TestStalenessSummary_ComputesHours(t *testing.T) {
	t.Parallel()

	last := time.Now().UTC().Add(-36 * time.Hour)
	st := &recordingStorage{stalenessOut: domain.StalenessSummary{LastSuccessAt: &last}}

	out, err := newSvc(st, Config{}).StalenessSummary(context.Background(), "Ridge Vineyards")
	if err != nil {
		t.Fatalf("StalenessSummary: %v", err)
	}
	if st.stalenessSupplier != "ridge vineyards" {
		t.Fatalf("supplier reached repo as %q", st.stalenessSupplier)
	}
	if st.stalenessWindow != 7*24*time.Hour {
		t.Fatalf("failure window = %v, want 7d default", st.stalenessWindow)
	}
	if out.HoursSinceSuccess == nil {
		t.Fatal("hours since success should be derived")
	}
	if h := *out.HoursSinceSuccess; h < 35.9 || h > 36.1 {
		t.Fatalf("hours = %v, want about 36", h)
	}
}

func TestStalenessSummary_NoSuccessYet(t *testing.T) {
	t.Parallel()

	st := &recordingStorage{}
	out, err := newSvc(st, Config{}).StalenessSummary(context.Background(), "ridge")
	if err != nil {
		t.Fatalf("StalenessSummary: %v", err)
	}
	if out.LastSuccessAt != nil || out.HoursSinceSuccess != nil {
		t.Fatalf("no-success summary must keep nils: %+v", out)
	}
}
