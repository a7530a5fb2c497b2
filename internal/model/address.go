package model

import "strings"

// NormalizeAddress returns the canonical stored form of a wallet address:
// trimmed and lower-cased.  No format check is applied here.
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}
