package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	perr "cellarbook/internal/platform/errors"
	"cellarbook/internal/services/reclaimer/domain"
	runsdomain "cellarbook/internal/services/runs/domain"
)

// sweepRegistry fakes just the scan and rollback surface the sweeper touches
type sweepRegistry struct {
	runsdomain.RegistryPort // panic on anything the sweeper should not call

	mu      sync.Mutex
	running map[string]time.Time // run id -> started_at
	pending map[string]time.Time // run id -> created_at
	closed  map[string]string    // run id -> reason

	// ghostRunning is returned by the scan but absent from the store, the
	// shape of a run that completed between scan and rollback
	ghostRunning []string
}

func newSweepRegistry() *sweepRegistry {
	return &sweepRegistry{
		running: map[string]time.Time{},
		pending: map[string]time.Time{},
		closed:  map[string]string{},
	}
}

func (f *sweepRegistry) StaleRunning(_ context.Context, cutoff time.Time) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for id, started := range f.running {
		if started.Before(cutoff) {
			out = append(out, id)
		}
	}
	out = append(out, f.ghostRunning...)
	return out, nil
}

func (f *sweepRegistry) StalePending(_ context.Context, cutoff time.Time) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for id, created := range f.pending {
		if created.Before(cutoff) {
			out = append(out, id)
		}
	}
	return out, nil
}

func (f *sweepRegistry) MarkRolledBack(_ context.Context, runID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.running[runID]; ok {
		delete(f.running, runID)
		f.closed[runID] = reason
		return nil
	}
	if _, ok := f.pending[runID]; ok {
		delete(f.pending, runID)
		f.closed[runID] = reason
		return nil
	}
	return perr.InvalidTransitionf("run %s is not pending or running", runID)
}

func newSweeper(reg *sweepRegistry, now time.Time) *Service {
	s := New(reg, Config{}, zerolog.Nop())
	s.now = func() time.Time { return now }
	return s
}

func TestReclaim_RollsBackStaleRuns(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	reg := newSweepRegistry()
	reg.running["r-old"] = now.Add(-3 * time.Hour)   // past the 2h default
	reg.running["r-fresh"] = now.Add(-5 * time.Minute)
	reg.pending["p-old"] = now.Add(-20 * time.Minute) // past the 10m default
	reg.pending["p-fresh"] = now.Add(-1 * time.Minute)

	res, err := newSweeper(reg, now).Reclaim(context.Background(), domain.Policy{})
	if err != nil {
		t.Fatalf("Reclaim: %v", err)
	}
	if res.RolledBackRunning != 1 || res.RolledBackPending != 1 {
		t.Fatalf("result = %+v", res)
	}
	if got := reg.closed["r-old"]; got != "stale: exceeded running timeout" {
		t.Fatalf("running reason = %q", got)
	}
	if got := reg.closed["p-old"]; got != "stale: exceeded pending timeout" {
		t.Fatalf("pending reason = %q", got)
	}
	if _, ok := reg.closed["r-fresh"]; ok {
		t.Fatal("fresh running run must survive the sweep")
	}
	if _, ok := reg.closed["p-fresh"]; ok {
		t.Fatal("fresh pending run must survive the sweep")
	}
}

func TestReclaim_SecondSweepFindsNothing(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	reg := newSweepRegistry()
	reg.running["r1"] = now.Add(-5 * time.Hour)
	reg.pending["p1"] = now.Add(-1 * time.Hour)

	sw := newSweeper(reg, now)
	first, err := sw.Reclaim(context.Background(), domain.Policy{})
	if err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	if first.RolledBackRunning+first.RolledBackPending != 2 {
		t.Fatalf("first sweep = %+v", first)
	}

	second, err := sw.Reclaim(context.Background(), domain.Policy{})
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if second.RolledBackRunning+second.RolledBackPending != 0 {
		t.Fatalf("second sweep must be a no-op, got %+v", second)
	}
}

func TestReclaim_CustomPolicy(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	reg := newSweepRegistry()
	reg.running["r1"] = now.Add(-30 * time.Minute)

	// default 2h would spare it; a tighter policy reclaims it
	res, err := newSweeper(reg, now).Reclaim(context.Background(), domain.Policy{
		RunningTimeout: 15 * time.Minute,
		PendingTimeout: 10 * time.Minute,
	})
	if err != nil {
		t.Fatalf("Reclaim: %v", err)
	}
	if res.RolledBackRunning != 1 {
		t.Fatalf("result = %+v", res)
	}
}

func TestReclaim_CompletionRaceIsQuiet(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	reg := newSweepRegistry()
	reg.running["r-old"] = now.Add(-5 * time.Hour)
	reg.ghostRunning = []string{"r-finished"} // completed between scan and rollback

	res, err := newSweeper(reg, now).Reclaim(context.Background(), domain.Policy{})
	if err != nil {
		t.Fatalf("a lost completion race must not fail the sweep: %v", err)
	}
	if res.RolledBackRunning != 1 {
		t.Fatalf("only the genuinely stale run counts: %+v", res)
	}
	if _, ok := reg.closed["r-finished"]; ok {
		t.Fatal("finished run must not be rolled back")
	}
}
