package service

import (
	"time"

	"github.com/google/uuid"
)

// AccessTokenClaims is the decoded content of a verified access credential.
type AccessTokenClaims struct {
	UserID          uuid.UUID
	TenantID        uuid.UUID
	FingerprintHash string
}

// RefreshTokenClaims is the decoded envelope of a presented refresh
// credential. It carries the digest of the embedded secret, never the
// secret itself, plus the family the credential claims to belong to.
type RefreshTokenClaims struct {
	TokenHash string
	FamilyID  uuid.UUID
}

// IssuedRefreshToken is the result of minting a refresh credential: the
// signed envelope handed to the client and the secret digest persisted by
// the store.
type IssuedRefreshToken struct {
	Token     string
	TokenHash string
	FamilyID  uuid.UUID
	ExpiresAt time.Time
}

// TokenService is the access credential codec. Issue and verify are pure
// in-memory operations: verification needs no store lookup, and all
// verification failures are uniform to the caller.
type TokenService interface {
	// IssueAccessToken mints a short-lived signed credential binding the
	// identity, its tenant, and (when supplied) the client fingerprint.
	IssueAccessToken(userID, tenantID uuid.UUID, deviceFingerprint string) (token string, expiresAt time.Time, err error)

	// VerifyAccessToken checks signature, expiry, type tag and fingerprint.
	// Every failure surfaces as the same invalid-credential error.
	VerifyAccessToken(token, deviceFingerprint string) (*AccessTokenClaims, error)

	// IssueRefreshToken mints a long-lived credential envelope around a
	// fresh high-entropy secret, bound to the given rotation family. A nil
	// family id starts a new family.
	IssueRefreshToken(familyID uuid.UUID) (*IssuedRefreshToken, error)

	// DecodeRefreshToken verifies the envelope and returns the secret
	// digest for store lookup.
	DecodeRefreshToken(token string) (*RefreshTokenClaims, error)

	// AccessTokenTTL returns the configured access credential lifetime.
	AccessTokenTTL() time.Duration

	// RefreshTokenTTL returns the configured refresh credential lifetime.
	RefreshTokenTTL() time.Duration
}

// FingerprintHasher produces one-way digests of client-supplied device
// fingerprints, compared by equality only.
type FingerprintHasher interface {
	Digest(fingerprint string) string
}
