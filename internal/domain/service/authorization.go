package service

import (
	"gestor/internal/domain/entity"

	"github.com/google/uuid"
)

// DenyReason identifies why a management action was refused. Reasons are
// for internal logs only; clients receive a uniform forbidden response.
type DenyReason string

const (
	// DenyCrossTenant rejects any action targeting another tenant.
	DenyCrossTenant DenyReason = "cross_tenant"
	// DenyPrivilegeEscalation rejects granting a role set more powerful
	// than the actor's own privilege level.
	DenyPrivilegeEscalation DenyReason = "privilege_escalation"
	// DenyMissingManagementRole rejects non-management actors granting any
	// non-zero privilege.
	DenyMissingManagementRole DenyReason = "missing_management_role"
)

// Decision is the outcome of privilege resolution.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

// Allow is the positive decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny builds a negative decision with its internal reason.
func Deny(reason DenyReason) Decision {
	return Decision{Reason: reason}
}

// AuthorizeManagement decides whether the acting identity may create or
// update a user carrying the proposed role set. The rules, in order:
// cross-tenant actions are denied outright; an actor can never grant a role
// set whose max privilege exceeds its own (equality is allowed); and only
// management-tagged roles may grant any non-zero privilege to others.
func AuthorizeManagement(actor entity.SecurityContext, proposedRoles entity.Roles, targetTenantID uuid.UUID) Decision {
	if actor.TenantID != targetTenantID {
		return Deny(DenyCrossTenant)
	}

	proposedPrivilege := proposedRoles.MaxPrivilege()
	if proposedPrivilege > actor.MaxPrivilege {
		return Deny(DenyPrivilegeEscalation)
	}

	if proposedPrivilege > 0 && !actor.Roles.HasManagementRole() {
		return Deny(DenyMissingManagementRole)
	}

	return Allow()
}
