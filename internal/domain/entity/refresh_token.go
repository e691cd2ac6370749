package entity

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken is one node in a rotation chain (a "family"). A family starts
// at login and grows by one node per successful rotation. Within a family at
// most one node is active (revoked = false) at any instant: the chain head.
// Rows are never deleted while relevant; the chain is the replay-detection
// audit trail.
type RefreshToken struct {
	ID         uuid.UUID  // Unique ID for this specific credential record.
	UserID     uuid.UUID  // The session owner.
	FamilyID   uuid.UUID  // Identifies the rotation chain this node belongs to.
	TokenHash  string     // SHA-256 digest of the raw secret. Unique system-wide.
	DeviceHash string     // SHA-256 digest of the client device fingerprint.
	ExpiresAt  time.Time  // Hard expiry of this credential.
	Revoked    bool       // True once rotated away or explicitly revoked.
	ReplacedBy *uuid.UUID // Set if and only if this node was consumed by a successful rotation.
	CreatedAt  time.Time
}

// IsExpired compares the credential expiry against the given clock reading.
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}

// WasRotated distinguishes "rotated away" from "explicitly revoked".
func (t *RefreshToken) WasRotated() bool {
	return t.Revoked && t.ReplacedBy != nil
}
