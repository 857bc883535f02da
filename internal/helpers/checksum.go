package helpers

import (
	"crypto/sha256"
	"encoding/hex"
)

// shortChecksumLen is how many hex digits of a checksum are shown in logs and transcripts.
const shortChecksumLen = 8

// SHA256 returns the hex SHA-256 of s.
func SHA256(s string) string {
	return SHA256Bytes([]byte(s))
}

// SHA256Bytes returns the hex SHA-256 of b.
func SHA256Bytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// ShortChecksum abbreviates a hex checksum for display.
func ShortChecksum(sum string) string {
	if len(sum) <= shortChecksumLen {
		return sum
	}
	return sum[:shortChecksumLen]
}
