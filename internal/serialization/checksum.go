package serialization

import (
	"crypto/sha256"
	"encoding/hex"
)

// checksum returns the hex-encoded SHA-256 of data.
func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// validateChecksum compares the SHA-256 of data with the stored hex digest.
// Returns ErrChecksumMismatch if they differ.
func validateChecksum(data []byte, stored string) error {
	if checksum(data) != stored {
		return ErrChecksumMismatch
	}
	return nil
}
