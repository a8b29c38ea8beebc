package supplier

import "testing"

// Test table covers each stage and combined pipelines.
func TestKey_Table(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		out  string
	}{
		{
			name: "identity ascii",
			in:   "ridge vineyards",
			out:  "ridge vineyards",
		},
		{
			name: "case fold",
			in:   "Ridge VINEYARDS",
			out:  "ridge vineyards",
		},
		{
			name: "utf8 repair drops invalid bytes",
			in:   string([]byte{0xff, 'r', 'i', 'd', 'g', 'e', 0x80}),
			out:  "ridge",
		},
		{
			name: "remove zero-widths",
			in:   "rid​ge‍ vineyards",
			out:  "ridge vineyards",
		},
		{
			name: "width fold fullwidth",
			in:   "ＲＩＤＧＥ vineyards",
			out:  "ridge vineyards",
		},
		{
			name: "collapse whitespace",
			in:   "  ridge\t\tvineyards \n ",
			out:  "ridge vineyards",
		},
		{
			name: "empty",
			in:   "",
			out:  "",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Key(tc.in); got != tc.out {
				t.Fatalf("Key(%q) = %q, want %q", tc.in, got, tc.out)
			}
		})
	}
}

// Spellings that differ only in case, width or stray whitespace must collide
// on one key so they share idempotency triples.
func TestKey_Equivalence(t *testing.T) {
	t.Parallel()

	variants := []string{
		"Ridge Vineyards",
		"ridge  vineyards",
		" RIDGE VINEYARDS ",
		"ｒｉｄｇｅ ｖｉｎｅｙａｒｄｓ",
	}
	want := Key(variants[0])
	for _, v := range variants[1:] {
		if got := Key(v); got != want {
			t.Fatalf("Key(%q) = %q, want %q", v, got, want)
		}
	}
}

func TestKey_Idempotent(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"Ridge Vineyards", "ＣＨＡＴＥＡＵ x", "a  b\tc"} {
		once := Key(s)
		if twice := Key(once); twice != once {
			t.Fatalf("Key not idempotent: %q -> %q -> %q", s, once, twice)
		}
	}
}

func TestKey_ConcurrentUse(t *testing.T) {
	t.Parallel()

	// the transformer pool must hand every goroutine a clean chain
	done := make(chan string, 32)
	for i := 0; i < 32; i++ {
		go func() { done <- Key("Ridge VINEYARDS") }()
	}
	for i := 0; i < 32; i++ {
		if got := <-done; got != "ridge vineyards" {
			t.Fatalf("concurrent Key returned %q", got)
		}
	}
}
