// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is a tenant-scoped principal. Everything the authentication core
// needs to know about a person lives here; the commerce-side profile data
// (sales, credit, tax indicators) is owned by the business layer.
type User struct {
	ID                 uuid.UUID  // Stable opaque identifier for this principal.
	TenantID           uuid.UUID  // The tenant this principal belongs to. All access is scoped to it.
	Name               string     // Display name.
	Nickname           string     // Optional short name shown on staff surfaces.
	Email              string     // Login identifier.
	Roles              Roles      // Named capability tags; privilege level is derived from these.
	MaxPrivilegeLevel  int        // Pure function of Roles, recomputed whenever roles change.
	Active             bool       // Deactivated users cannot authenticate. The flip is owned by the business layer.
	PasswordHash       string     // bcrypt digest of the password. Never the raw secret.
	QuickAccessPinHash string     // Optional bcrypt digest of the quick-access PIN.
	LastLoginAt        *time.Time // Set on each successful login.
	CreatedBy          *uuid.UUID // The staff member who provisioned this account, if any.
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// CanAuthenticate reports whether this user may log into staff surfaces.
// Privilege level 0 means the role set is client-only.
func (u *User) CanAuthenticate() bool {
	return u.Active && u.MaxPrivilegeLevel > 0
}

// SecurityContext builds the request-scoped binding values for this user.
func (u *User) SecurityContext() SecurityContext {
	return SecurityContext{
		UserID:       u.ID,
		TenantID:     u.TenantID,
		Roles:        u.Roles,
		MaxPrivilege: u.MaxPrivilegeLevel,
	}
}
