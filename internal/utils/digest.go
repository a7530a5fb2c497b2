package utils

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Keccak256Hex returns the 0x-prefixed keccak256 digest of text, the same
// value the client commits on chain as a review hash.
func Keccak256Hex(text string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(text))
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

// SameDigest compares two hex digests ignoring case and the 0x prefix.
func SameDigest(a, b string) bool {
	trim := func(s string) string {
		s = strings.ToLower(strings.TrimSpace(s))
		return strings.TrimPrefix(s, "0x")
	}
	return trim(a) == trim(b)
}
