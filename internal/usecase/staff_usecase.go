package usecase

import (
	"context"

	"gestor/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// CreateStaffInput defines the data required to provision a staff account.
// The new account is always created in the actor's tenant.
type CreateStaffInput struct {
	Actor          entity.SecurityContext
	Name           string
	Nickname       string
	Email          string
	Password       string
	QuickAccessPin string
	Roles          []string
}

// UpdateStaffInput defines the data for a partial staff update. Nil fields
// are left untouched.
type UpdateStaffInput struct {
	Actor          entity.SecurityContext
	TargetID       uuid.UUID
	Name           *string
	Nickname       *string
	Email          *string
	Password       *string
	QuickAccessPin *string
	Roles          *[]string
	Active         *bool
}

// --- Output DTOs ---

// StaffOutput returns the staff account after a management operation.
type StaffOutput struct {
	User *entity.User
}

// StaffUsecase defines the interface for staff account management. Every
// operation runs inside the actor's bound security context and is gated by
// privilege resolution.
type StaffUsecase interface {
	CreateStaff(ctx context.Context, input CreateStaffInput) (*StaffOutput, error)
	UpdateStaff(ctx context.Context, input UpdateStaffInput) (*StaffOutput, error)
	GetStaff(ctx context.Context, actor entity.SecurityContext, targetID uuid.UUID) (*StaffOutput, error)
}
