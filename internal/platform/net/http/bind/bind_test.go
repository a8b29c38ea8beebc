package bind_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	"cellarbook/internal/platform/net/http/bind"

	perr "cellarbook/internal/platform/errors"
)

type payload struct {
	Supplier string `json:"supplier" validate:"required,min=1,max=200"`
	AsOfDate string `json:"as_of_date" validate:"required,dateonly"`
	Mode     string `json:"mode" validate:"omitempty,oneof=atomic chunked"`
}

func TestParseJSONValid(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(
		`{"supplier":"ridge vineyards","as_of_date":"2026-08-01","mode":"chunked"}`))

	got, err := bind.ParseJSON[payload](r)
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if got.Supplier != "ridge vineyards" || got.AsOfDate != "2026-08-01" || got.Mode != "chunked" {
		t.Fatalf("payload = %+v", got)
	}
}

func TestParseJSONFailures(t *testing.T) {
	cases := []struct {
		name string
		body string
		code perr.ErrorCode
	}{
		{"missing supplier", `{"as_of_date":"2026-08-01"}`, perr.ErrorCodeValidation},
		{"bad date", `{"supplier":"ridge","as_of_date":"2026-13-99"}`, perr.ErrorCodeValidation},
		{"bad mode", `{"supplier":"ridge","as_of_date":"2026-08-01","mode":"turbo"}`, perr.ErrorCodeValidation},
		{"unknown field", `{"supplier":"ridge","as_of_date":"2026-08-01","surprise":1}`, perr.ErrorCodeJSON},
		{"malformed", `{"supplier":`, perr.ErrorCodeJSON},
		{"trailing data", `{"supplier":"ridge","as_of_date":"2026-08-01"}{"again":true}`, perr.ErrorCodeJSON},
		{"empty body", ``, perr.ErrorCodeJSON},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/", strings.NewReader(tc.body))
			_, err := bind.ParseJSON[payload](r)
			if err == nil {
				t.Fatal("want error")
			}
			if !perr.IsCode(err, tc.code) {
				t.Fatalf("code = %d, want %d (err: %v)", perr.CodeOf(err), tc.code, err)
			}
		})
	}
}

func TestParseJSONEmptyBodyOnGet(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)

	got, err := bind.ParseJSON[payload](r)
	if err != nil {
		t.Fatalf("empty GET body should bind the zero value, got %v", err)
	}
	if got.Supplier != "" {
		t.Fatalf("payload = %+v", got)
	}
}

func TestValidationFieldAndMessage(t *testing.T) {
	err := bind.Get().Validator.Struct(payload{Supplier: "ridge", AsOfDate: "not a date"})
	if err == nil {
		t.Fatal("want validation error")
	}
	field, msg := bind.ValidationFieldAndMessage(err)
	if field != "as_of_date" {
		t.Fatalf("field = %q", field)
	}
	if !strings.Contains(msg, "YYYY-MM-DD") {
		t.Fatalf("message = %q", msg)
	}
}
