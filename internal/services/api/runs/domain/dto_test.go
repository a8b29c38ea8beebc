package domain

import (
	"testing"
	"time"

	perr "cellarbook/internal/platform/errors"
	runsdomain "cellarbook/internal/services/runs/domain"
)

func TestCursorRoundTrip(t *testing.T) {
	t.Parallel()

	key := runsdomain.AfterKey{
		CreatedAt: time.Date(2026, 8, 1, 9, 30, 0, 123456789, time.UTC),
		RunID:     "7c9d6f3a-1b2c-4d5e-8f90-0a1b2c3d4e5f",
	}
	cur := EncodeCursor(key)
	if cur == "" {
		t.Fatal("non-zero key must encode to a token")
	}

	got, err := DecodeCursor(cur)
	if err != nil {
		t.Fatalf("DecodeCursor: %v", err)
	}
	if !got.CreatedAt.Equal(key.CreatedAt) || got.RunID != key.RunID {
		t.Fatalf("round trip lost data: %+v", got)
	}
}

func TestCursorZeroAndEmpty(t *testing.T) {
	t.Parallel()

	if EncodeCursor(runsdomain.AfterKey{}) != "" {
		t.Fatal("zero key must encode to empty, meaning no next page")
	}
	key, err := DecodeCursor("")
	if err != nil {
		t.Fatalf("empty cursor must decode cleanly: %v", err)
	}
	if key.RunID != "" {
		t.Fatalf("empty cursor must decode to zero key: %+v", key)
	}
}

func TestDecodeCursor_Malformed(t *testing.T) {
	t.Parallel()

	for _, bad := range []string{
		"%%%not-base64%%%",
		"aGVsbG8",           // valid base64, no separator
		"fA",                // "|" alone
		"bm90YXRpbWV8cnVu",  // "notatime|run"
	} {
		_, err := DecodeCursor(bad)
		if err == nil {
			t.Fatalf("cursor %q should fail", bad)
		}
		if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
			t.Fatalf("cursor %q: code = %d, want InvalidArgument", bad, perr.CodeOf(err))
		}
	}
}

func TestFromRun(t *testing.T) {
	t.Parallel()

	started := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	envID := "env-1"
	out := FromRun(runsdomain.ImportRun{
		RunID:          "r1",
		Supplier:       "ridge vineyards",
		AsOfDate:       time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		Status:         runsdomain.StatusSuccess,
		StartedAt:      &started,
		ProcessingMode: runsdomain.ModeAtomic,
		Metrics:        runsdomain.Metrics{TotalRowsProcessed: 10},
		EnvelopeID:     &envID,
	})

	if out.AsOfDate != "2026-08-01" {
		t.Fatalf("as_of_date = %q", out.AsOfDate)
	}
	if out.Status != "success" || out.ProcessingMode != "atomic" {
		t.Fatalf("enums = %q %q", out.Status, out.ProcessingMode)
	}
	if out.Metrics.TotalRowsProcessed != 10 {
		t.Fatalf("metrics = %+v", out.Metrics)
	}
	if out.EnvelopeID == nil || *out.EnvelopeID != "env-1" {
		t.Fatalf("envelope = %v", out.EnvelopeID)
	}
	if out.StartedAt == nil || !out.StartedAt.Equal(started) {
		t.Fatalf("started_at = %v", out.StartedAt)
	}
}
