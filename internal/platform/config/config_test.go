package config

import (
	"testing"
	"time"

	kit "cellarbook/internal/platform/testkit"
)

func TestPrefixAndKey(t *testing.T) {
	root := New()
	api := root.Prefix("CORE_API_")
	if got := api.key("PORT"); got != "CORE_API_PORT" {
		t.Fatalf("key() = %q, want %q", got, "CORE_API_PORT")
	}
	// nested prefix
	apiLog := api.Prefix("LOG_")
	if got := apiLog.key("LEVEL"); got != "CORE_API_LOG_LEVEL" {
		t.Fatalf("nested key() = %q, want %q", got, "CORE_API_LOG_LEVEL")
	}
}

// Must* panics

func TestMustString(t *testing.T) {
	c := New().Prefix("APP_")
	t.Setenv("APP_NAME", "  cellarbook ")
	got := c.MustString("NAME")
	if got != "cellarbook" {
		t.Fatalf("MustString = %q, want %q", got, "cellarbook")
	}

	kit.MustPanic(t, func() { _ = c.MustString("MISSING") })
}

func TestMustInt(t *testing.T) {
	c := New().Prefix("SVC_")
	t.Setenv("SVC_WORKERS", "  8 ")
	if got := c.MustInt("WORKERS"); got != 8 {
		t.Fatalf("MustInt = %d, want %d", got, 8)
	}
	kit.MustPanic(t, func() { _ = c.MustInt("MISSING") })
	t.Setenv("SVC_BAD", "x")
	kit.MustPanic(t, func() { _ = c.MustInt("BAD") })
}

func TestMustDuration(t *testing.T) {
	c := New().Prefix("D_")
	t.Setenv("D_TIMEOUT", " 250ms ")
	if got := c.MustDuration("TIMEOUT"); got != 250*time.Millisecond {
		t.Fatalf("MustDuration = %v, want %v", got, 250*time.Millisecond)
	}
	t.Setenv("D_BAD", "nope")
	kit.MustPanic(t, func() { _ = c.MustDuration("BAD") })
}

func TestMustPort(t *testing.T) {
	c := New().Prefix("P_")
	t.Setenv("P_PORT", "4000")
	if got := c.MustPort("PORT"); got != ":4000" {
		t.Fatalf("MustPort = %q, want %q", got, ":4000")
	}
	t.Setenv("P_HIGH", "70000")
	kit.MustPanic(t, func() { _ = c.MustPort("HIGH") })
	t.Setenv("P_BAD", "web")
	kit.MustPanic(t, func() { _ = c.MustPort("BAD") })
}

// May* defaults

func TestMayString(t *testing.T) {
	c := New().Prefix("M_")
	if got := c.MayString("MISSING", "fallback"); got != "fallback" {
		t.Fatalf("MayString default = %q", got)
	}
	t.Setenv("M_SET", " value ")
	if got := c.MayString("SET", "fallback"); got != "value" {
		t.Fatalf("MayString = %q", got)
	}
}

func TestMayInt(t *testing.T) {
	c := New().Prefix("M_")
	if got := c.MayInt("MISSING", 7); got != 7 {
		t.Fatalf("MayInt default = %d", got)
	}
	t.Setenv("M_N", "12")
	if got := c.MayInt("N", 7); got != 12 {
		t.Fatalf("MayInt = %d", got)
	}
	// bad value falls back instead of panicking
	t.Setenv("M_NBAD", "twelve")
	if got := c.MayInt("NBAD", 7); got != 7 {
		t.Fatalf("MayInt bad value = %d, want default", got)
	}
}

func TestMayBool(t *testing.T) {
	c := New().Prefix("M_")
	if got := c.MayBool("MISSING", true); !got {
		t.Fatal("MayBool default should hold")
	}
	t.Setenv("M_FLAG", "false")
	if got := c.MayBool("FLAG", true); got {
		t.Fatal("MayBool should parse false")
	}
	t.Setenv("M_FLAGBAD", "yep")
	if got := c.MayBool("FLAGBAD", true); !got {
		t.Fatal("MayBool bad value should use default")
	}
}

func TestMayDuration(t *testing.T) {
	c := New().Prefix("M_")
	if got := c.MayDuration("MISSING", time.Minute); got != time.Minute {
		t.Fatalf("MayDuration default = %v", got)
	}
	t.Setenv("M_EVERY", "15m")
	if got := c.MayDuration("EVERY", time.Minute); got != 15*time.Minute {
		t.Fatalf("MayDuration = %v", got)
	}
	t.Setenv("M_EVERYBAD", "soon")
	if got := c.MayDuration("EVERYBAD", time.Minute); got != time.Minute {
		t.Fatalf("MayDuration bad value = %v, want default", got)
	}
}

func TestMayEnum(t *testing.T) {
	c := New().Prefix("E_")
	if got := c.MayEnum("MISSING", "atomic", "atomic", "chunked"); got != "atomic" {
		t.Fatalf("MayEnum default = %q", got)
	}
	t.Setenv("E_MODE", "Chunked")
	if got := c.MayEnum("MODE", "atomic", "atomic", "chunked"); got != "Chunked" {
		t.Fatalf("MayEnum = %q", got)
	}
	t.Setenv("E_MODEBAD", "turbo")
	kit.MustPanic(t, func() { _ = c.MayEnum("MODEBAD", "atomic", "atomic", "chunked") })
}
