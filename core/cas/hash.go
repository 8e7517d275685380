// Package cas computes content digests of converted files and records them
// in a manifest. Every file is identified by its SHA-256 hash; a BLAKE3 hash
// is kept alongside for fast verification.
package cas

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"regexp"

	"github.com/zeebo/blake3"
)

// sha256Pattern matches a valid lowercase 256-bit hex digest (64 characters).
var sha256Pattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// HashResult contains both SHA-256 and BLAKE3 hashes for a blob.
type HashResult struct {
	SHA256 string `json:"sha256"`
	BLAKE3 string `json:"blake3"`
	Size   int64  `json:"size"`
}

// Sum hashes data with both algorithms.
func Sum(data []byte) HashResult {
	s := sha256.Sum256(data)
	b := blake3.Sum256(data)
	return HashResult{
		SHA256: hex.EncodeToString(s[:]),
		BLAKE3: hex.EncodeToString(b[:]),
		Size:   int64(len(data)),
	}
}

// SumReader hashes everything read from r with both algorithms.
func SumReader(r io.Reader) (HashResult, error) {
	s := sha256.New()
	b := blake3.New()
	n, err := io.Copy(io.MultiWriter(s, b), r)
	if err != nil {
		return HashResult{}, fmt.Errorf("failed to hash: %w", err)
	}
	return HashResult{
		SHA256: hex.EncodeToString(s.Sum(nil)),
		BLAKE3: hex.EncodeToString(b.Sum(nil)),
		Size:   n,
	}, nil
}

// isValidHash checks if a hash string is a valid 256-bit hex string.
func isValidHash(hash string) bool {
	return sha256Pattern.MatchString(hash)
}
