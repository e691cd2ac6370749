package repository

import (
	"context"

	"gestor/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Domain-specific errors for user persistence.
var (
	// ErrUserNotFound is returned when a user lookup matches no row.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when a unique login identifier collides.
	ErrUserExists = errors.New("user already exists")
)

// UserRepository defines persistence operations on tenant-scoped principals.
type UserRepository interface {
	// Create persists a new user. The caller is responsible for hashing
	// secrets and deriving MaxPrivilegeLevel from the role set beforehand.
	Create(ctx context.Context, user *entity.User) error

	// FindByID retrieves a user by its stable identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)

	// FindByIdentifier resolves a login identifier (email or nickname) to a
	// user, including the stored secret digests. Login path only.
	FindByIdentifier(ctx context.Context, identifier string) (*entity.User, error)

	// Update persists mutated profile/role fields. MaxPrivilegeLevel must
	// already be recomputed when roles changed.
	Update(ctx context.Context, user *entity.User) error

	// TouchLastLogin stamps last_login_at with the store clock.
	TouchLastLogin(ctx context.Context, id uuid.UUID) error
}
