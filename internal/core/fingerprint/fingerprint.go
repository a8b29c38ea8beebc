// Package fingerprint computes stable content hashes for import files
// Identical bytes always yield the identical digest regardless of filename,
// timestamps, or filesystem metadata
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	perr "cellarbook/internal/platform/errors"
)

// Fingerprint is the digest and byte length of one input
type Fingerprint struct {
	Hash      string // lowercase hex sha256
	SizeBytes int64
}

// Reader streams r through sha256 exactly once without buffering the whole input
// read failures propagate untouched
func Reader(r io.Reader) (Fingerprint, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return Fingerprint{}, err
	}
	return Fingerprint{
		Hash:      hex.EncodeToString(h.Sum(nil)),
		SizeBytes: n,
	}, nil
}

// File opens and fingerprints the file at path
func File(path string) (Fingerprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return Fingerprint{}, err
	}
	defer func() { _ = f.Close() }()
	fp, err := Reader(f)
	if err != nil {
		return Fingerprint{}, perr.Wrapf(err, perr.CodeOf(err), "fingerprint %s", path)
	}
	return fp, nil
}
