// Package fingerprint centralizes the SHA-1 hashing used throughout the
// engine: chunk content hashes, file content hashes, and the
// project-hash that namespaces a project's data directory.
package fingerprint

import (
	"crypto/sha1"
	"encoding/hex"
)

// Hex returns the lowercase hex SHA-1 digest of data.
func Hex(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}

// HexString is a convenience wrapper for string input.
func HexString(s string) string {
	return Hex([]byte(s))
}

// ProjectHash derives the stable, short directory name for a project root:
// SHA-1 of the absolute path, truncated to 16 hex characters. Truncation is
// safe here — collisions only matter within one user's data directory, and
// 64 bits of a cryptographic hash is far beyond that threshold.
func ProjectHash(absRoot string) string {
	full := HexString(absRoot)
	return full[:16]
}
