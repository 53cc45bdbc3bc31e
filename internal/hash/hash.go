// Package hash computes the content fingerprint used as the dedup and
// identity key for font files. The algorithm is part of the persisted data
// model: changing it is a breaking migration, not a transparent swap.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// HexLength is the length of an encoded digest.
const HexLength = sha256.Size * 2

// Sum returns the hex-encoded sha256 digest of b.
func Sum(b []byte) string {
	d := sha256.Sum256(b)
	return hex.EncodeToString(d[:])
}

// SumReader returns the hex-encoded sha256 digest of everything read from r.
func SumReader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("failed to read content: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Normalize lowercases a client-supplied digest. Hex is case-insensitive but
// the digest is a persisted identity key, so the same bytes reported as AB
// and ab must resolve to one canonical form before any lookup or insert.
func Normalize(s string) string {
	return strings.ToLower(s)
}

// Valid reports whether s looks like a digest produced by Sum.
func Valid(s string) bool {
	if len(s) != HexLength {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
