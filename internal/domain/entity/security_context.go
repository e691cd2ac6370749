package entity

import "github.com/google/uuid"

// SecurityContext carries the values bound into a request-scoped data-access
// session for the row-level security policy engine. It is a plain value:
// the binding itself (and its teardown) is owned by the persistence layer,
// and a bound context never outlives its transaction.
type SecurityContext struct {
	UserID       uuid.UUID
	TenantID     uuid.UUID
	Roles        Roles
	MaxPrivilege int
}
