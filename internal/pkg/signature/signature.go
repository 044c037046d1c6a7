// Package signature implements the platform's webhook signature check: the
// token, timestamp and nonce are sorted, concatenated and SHA-1 hashed.
package signature

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strings"
)

// Compute returns the uppercase hex SHA-1 of the lexicographically sorted
// concatenation of token, timestamp and nonce.
func Compute(token, timestamp, nonce string) string {
	parts := []string{token, timestamp, nonce}
	sort.Strings(parts)
	sum := sha1.Sum([]byte(strings.Join(parts, "")))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// Verify reports whether signature matches the digest of (token, timestamp, nonce).
// The comparison ignores case. Any empty input yields false.
func Verify(signature, timestamp, nonce, token string) bool {
	if signature == "" || timestamp == "" || nonce == "" || token == "" {
		return false
	}
	return Compute(token, timestamp, nonce) == strings.ToUpper(signature)
}
