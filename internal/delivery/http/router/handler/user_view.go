// Package handler contains the HTTP handlers for the application.
package handler

import (
	"time"

	"gestor/internal/domain/entity"

	"github.com/google/uuid"
)

// UserView is the client-facing projection of a user. Secret digests and
// tenant internals never leave the server.
type UserView struct {
	ID                uuid.UUID  `json:"id"`
	Name              string     `json:"name"`
	Nickname          string     `json:"nickname,omitempty"`
	Email             string     `json:"email"`
	Roles             []string   `json:"roles"`
	MaxPrivilegeLevel int        `json:"maxPrivilegeLevel"`
	Active            bool       `json:"active"`
	LastLoginAt       *time.Time `json:"lastLoginAt,omitempty"`
}

func newUserView(u *entity.User) *UserView {
	if u == nil {
		return nil
	}

	return &UserView{
		ID:                u.ID,
		Name:              u.Name,
		Nickname:          u.Nickname,
		Email:             u.Email,
		Roles:             u.Roles.ToStrings(),
		MaxPrivilegeLevel: u.MaxPrivilegeLevel,
		Active:            u.Active,
		LastLoginAt:       u.LastLoginAt,
	}
}
