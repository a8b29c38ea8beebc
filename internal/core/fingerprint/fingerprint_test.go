package fingerprint

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// sha256("abc"), the FIPS 180 test vector
const abcHash = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"

func TestReader(t *testing.T) {
	t.Parallel()

	fp, err := Reader(strings.NewReader("abc"))
	if err != nil {
		t.Fatalf("Reader: %v", err)
	}
	if fp.Hash != abcHash {
		t.Fatalf("hash = %q, want %q", fp.Hash, abcHash)
	}
	if fp.SizeBytes != 3 {
		t.Fatalf("size = %d, want 3", fp.SizeBytes)
	}
}

func TestReader_Empty(t *testing.T) {
	t.Parallel()

	fp, err := Reader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Reader: %v", err)
	}
	// sha256 of the empty string
	if fp.Hash != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Fatalf("empty hash = %q", fp.Hash)
	}
	if fp.SizeBytes != 0 {
		t.Fatalf("size = %d, want 0", fp.SizeBytes)
	}
}

func TestFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "list.csv")
	if err := os.WriteFile(path, []byte("abc"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	fp, err := File(path)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if fp.Hash != abcHash || fp.SizeBytes != 3 {
		t.Fatalf("got %+v", fp)
	}
}

func TestFile_SameBytesDifferentName(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := filepath.Join(dir, "a.csv")
	b := filepath.Join(dir, "renamed.csv")
	for _, p := range []string{a, b} {
		if err := os.WriteFile(p, []byte("sku,winery,price\n1,x,2.50\n"), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	fa, err := File(a)
	if err != nil {
		t.Fatalf("File(a): %v", err)
	}
	fb, err := File(b)
	if err != nil {
		t.Fatalf("File(b): %v", err)
	}
	if fa.Hash != fb.Hash {
		t.Fatalf("identical content hashed differently: %q vs %q", fa.Hash, fb.Hash)
	}
}

func TestFile_Missing(t *testing.T) {
	t.Parallel()

	if _, err := File(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
