// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"time"

	"gestor/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Domain-specific errors for refresh credential persistence.
var (
	// ErrRefreshTokenNotFound is returned when no row matches a presented secret digest.
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	// ErrRefreshTokenExists is returned on a secret digest collision.
	ErrRefreshTokenExists = errors.New("refresh token already exists")
)

// RefreshTokenRepository is the refresh credential store: it persists
// rotation-chain state and exposes the atomic operations the rotation
// engine is built on. Rows transition exactly once, from active to either
// rotated-away or revoked, and are kept for replay detection.
type RefreshTokenRepository interface {
	// CreateRefreshToken persists a new chain node. The caller supplies the
	// secret digest; the raw secret never reaches this layer.
	CreateRefreshToken(ctx context.Context, token *entity.RefreshToken) error

	// FindRefreshTokenByHash retrieves a chain node by its secret digest.
	// Expiry is not checked here; the rotation engine compares expiry
	// against its own clock reading taken at operation start.
	FindRefreshTokenByHash(ctx context.Context, tokenHash string) (*entity.RefreshToken, error)

	// RotateRefreshToken atomically consumes the old node and inserts its
	// replacement as one all-or-nothing unit. The old row is updated to
	// revoked with replaced_by = newToken.ID only if it is still active;
	// zero rows affected means the node was already consumed and the whole
	// unit is rolled back. That outcome is the reuse signal and is reported
	// as (false, nil), never as an error. Genuine storage failures return a
	// non-nil error.
	RotateRefreshToken(ctx context.Context, oldID uuid.UUID, newToken *entity.RefreshToken) (bool, error)

	// RevokeFamily sets revoked on every non-revoked node of the family.
	// Idempotent: revoking an already fully-revoked family is a no-op.
	RevokeFamily(ctx context.Context, familyID uuid.UUID) error

	// FindFamily returns all nodes of a family, newest first. Used by
	// session inspection and tests, not by the rotation fast path.
	FindFamily(ctx context.Context, familyID uuid.UUID) ([]*entity.RefreshToken, error)

	// DeleteExpiredRefreshTokens removes rows whose expiry passed longer ago
	// than the retention window. Periodic cleanup only.
	DeleteExpiredRefreshTokens(ctx context.Context, retention time.Duration) error
}
