// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"
	"time"

	"gestor/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// LoginInput defines the data required for a staff member to log in.
// PresentedRefreshToken carries the refresh cookie that accompanied the
// login request, if any; its rotation family is retired so a fresh login
// always starts a clean chain.
type LoginInput struct {
	Identifier            string
	Password              string
	DeviceID              string
	PresentedRefreshToken string
}

// RefreshInput defines the data required to rotate a refresh credential.
type RefreshInput struct {
	RefreshToken string
	DeviceID     string
}

// LogoutInput defines the data required to end a session.
type LogoutInput struct {
	RefreshToken string
}

// --- Output DTOs ---

// TokenPairOutput returns a freshly minted credential pair together with
// the identity it was minted for.
type TokenPairOutput struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
	User             *entity.User
}

// AuthUsecase defines the interface for session lifecycle operations.
// This is the contract the delivery layer depends on.
type AuthUsecase interface {
	// Login authenticates an identifier/password pair and mints a new
	// credential pair on a fresh rotation family.
	Login(ctx context.Context, input LoginInput) (*TokenPairOutput, error)

	// Refresh rotates the presented refresh credential and mints a new
	// pair. A replayed credential revokes its whole family.
	Refresh(ctx context.Context, input RefreshInput) (*TokenPairOutput, error)

	// Logout revokes the presented credential's family. Idempotent: an
	// invalid or already-revoked credential still reports success.
	Logout(ctx context.Context, input LogoutInput) error

	// CurrentUser returns the identity bound to a verified access
	// credential.
	CurrentUser(ctx context.Context, userID uuid.UUID) (*entity.User, error)

	// CleanupExpiredCredentials deletes refresh rows expired beyond the
	// retention window. Invoked by the periodic janitor.
	CleanupExpiredCredentials(ctx context.Context) error
}
