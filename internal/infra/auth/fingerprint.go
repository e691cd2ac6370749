package auth

import (
	"crypto/sha256"
	"encoding/hex"

	"gestor/internal/domain/service"
)

// sha256Fingerprint digests client device fingerprints for equality
// comparison. One-way; the raw fingerprint is never stored.
type sha256Fingerprint struct{}

// NewFingerprintHasher is the constructor for the SHA-256 fingerprint digester.
func NewFingerprintHasher() service.FingerprintHasher {
	return &sha256Fingerprint{}
}

// Digest returns the hex SHA-256 of the fingerprint string.
func (sha256Fingerprint) Digest(fingerprint string) string {
	sum := sha256.Sum256([]byte(fingerprint))

	return hex.EncodeToString(sum[:])
}
