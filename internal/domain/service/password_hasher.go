// Package service defines interfaces for core, stateless domain logic.
// These services encapsulate business rules that don't naturally fit within a single entity.
package service

// MinSecretLength is the minimum length accepted for passwords and
// quick-access PINs. Enforced before hashing.
const MinSecretLength = 8

// PasswordHasher defines the interface for secret hashing and verification.
// It is consumed opaquely: hash(secret) -> digest, verify(secret, digest) -> bool.
// Implementations must reject secrets shorter than MinSecretLength.
type PasswordHasher interface {
	// Hash generates a salted digest from a plaintext secret.
	Hash(secret string) (string, error)

	// Check compares a plaintext secret with a digest in constant time.
	Check(secret, digest string) bool
}
