package errors_test

import (
	stderrs "errors"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	perr "cellarbook/internal/platform/errors"
)

func TestHTTPStatusCode_Table(t *testing.T) {
	t.Parallel()

	cases := []struct {
		code perr.ErrorCode
		want int
	}{
		{perr.ErrorCodeNotFound, http.StatusNotFound},
		{perr.ErrorCodeInvalidArgument, http.StatusUnprocessableEntity},
		{perr.ErrorCodeDuplicateKey, http.StatusConflict},
		{perr.ErrorCodeConflict, http.StatusConflict},
		{perr.ErrorCodeInvalidTransition, http.StatusConflict},
		{perr.ErrorCodeValidation, http.StatusBadRequest},
		{perr.ErrorCodeJSON, http.StatusBadRequest},
		{perr.ErrorCodeUnavailable, http.StatusServiceUnavailable},
		{perr.ErrorCodeTransform, http.StatusInternalServerError},
		{perr.ErrorCodeDB, http.StatusInternalServerError},
		{perr.ErrorCodePanic, http.StatusInternalServerError},
		{perr.ErrorCodeUnknown, http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := perr.HTTPStatusCode(c.code); got != c.want {
			t.Errorf("HTTPStatusCode(%d) = %d, want %d", c.code, got, c.want)
		}
	}
}

func TestWrapAndCodeOf(t *testing.T) {
	t.Parallel()

	cause := stderrs.New("boom")
	err := perr.Wrapf(cause, perr.ErrorCodeDB, "saving run %s", "r1")

	if !perr.IsCode(err, perr.ErrorCodeDB) {
		t.Fatalf("code = %d, want DB", perr.CodeOf(err))
	}
	if perr.Root(err) != cause {
		t.Fatalf("Root did not reach the cause: %v", perr.Root(err))
	}
	if !stderrs.Is(err, cause) {
		t.Fatalf("errors.Is should see the wrapped cause")
	}
}

func TestTransformFailedKeepsCause(t *testing.T) {
	t.Parallel()

	cause := stderrs.New("csv row 7: bad price")
	err := perr.TransformFailed(cause, "import %s failed", "r9")

	if !perr.IsCode(err, perr.ErrorCodeTransform) {
		t.Fatalf("code = %d, want Transform", perr.CodeOf(err))
	}
	if got := perr.Root(err).Error(); got != "csv row 7: bad price" {
		t.Fatalf("root = %q", got)
	}
	if perr.HTTPStatus(err) != http.StatusInternalServerError {
		t.Fatalf("status = %d", perr.HTTPStatus(err))
	}
}

func TestCodeOfForeignError(t *testing.T) {
	t.Parallel()

	err := stderrs.New("plain")
	if perr.CodeOf(err) != perr.ErrorCodeUnknown {
		t.Fatalf("foreign errors must map to Unknown")
	}
	w := perr.WireFrom(err)
	if w.Code != perr.ErrorCodeUnknown || w.Message != "plain" {
		t.Fatalf("wire = %+v", w)
	}
}

func TestFromPostgres_Mapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		sqlstate string
		want     perr.ErrorCode
	}{
		{"23505", perr.ErrorCodeDuplicateKey},
		{"42P01", perr.ErrorCodeUnavailable},
		{"23503", perr.ErrorCodeInvalidArgument},
		{"23502", perr.ErrorCodeValidation},
		{"40001", perr.ErrorCodeDB},
		{"99999", perr.ErrorCodeDB},
	}
	for _, c := range cases {
		pgErr := &pgconn.PgError{Code: c.sqlstate, Message: "x"}
		err := perr.FromPostgres(pgErr, "op")
		if got := perr.CodeOf(err); got != c.want {
			t.Errorf("sqlstate %s mapped to %d, want %d", c.sqlstate, got, c.want)
		}
	}

	if perr.FromPostgres(nil, "op") != nil {
		t.Fatal("nil in must be nil out")
	}
}

func TestIsDuplicateKeyThroughWrap(t *testing.T) {
	t.Parallel()

	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "ux_import_runs_blocking"}
	err := perr.FromPostgresf(pgErr, "create run for %s", "ridge")

	if !perr.IsDuplicateKey(err) {
		t.Fatal("IsDuplicateKey should see through the wrap")
	}
	if got := perr.UniqueConstraint(err); got != "ux_import_runs_blocking" {
		t.Fatalf("constraint = %q", got)
	}
}

func TestWithFieldCopies(t *testing.T) {
	t.Parallel()

	base := perr.InvalidArgf("bad date")
	with := perr.WithField(base, "as_of_date")

	if w := perr.WireFrom(with); w.Field != "as_of_date" {
		t.Fatalf("field = %q", w.Field)
	}
	if w := perr.WireFrom(base); w.Field != "" {
		t.Fatal("WithField must not mutate the original")
	}
}

func TestRetryable(t *testing.T) {
	t.Parallel()

	if !perr.Retryable(&pgconn.PgError{Code: "40P01"}) {
		t.Fatal("deadlock should be retryable")
	}
	if perr.Retryable(&pgconn.PgError{Code: "23505"}) {
		t.Fatal("duplicate key is not retryable")
	}
	if perr.Retryable(nil) {
		t.Fatal("nil is not retryable")
	}
}
