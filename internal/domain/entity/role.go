// Package entity contains the core business objects of the project.
package entity

import "slices"

// Role represents a named capability tag a user can hold.
type Role string

const (
	// RoleAdmin has full control over a tenant.
	RoleAdmin Role = "ADMIN"
	// RoleGerente manages staff and day-to-day operations.
	RoleGerente Role = "GERENTE"
	// RoleFiscalCaixa supervises cashier activity.
	RoleFiscalCaixa Role = "FISCAL_CAIXA"
	// RoleContador has read access to fiscal and accounting data.
	RoleContador Role = "CONTADOR"
	// RoleEstoquista manages stock and suppliers.
	RoleEstoquista Role = "ESTOQUISTA"
	// RoleCaixa operates a point of sale.
	RoleCaixa Role = "CAIXA"
	// RoleCliente is a customer account with no staff access.
	RoleCliente Role = "CLIENTE"
)

// privilegeLevels maps each role to its privilege level. A user's max
// privilege level is the highest level among their roles; CLIENTE carries
// level 0 and grants no staff access on its own.
var privilegeLevels = map[Role]int{
	RoleAdmin:       100,
	RoleGerente:     80,
	RoleFiscalCaixa: 60,
	RoleContador:    50,
	RoleEstoquista:  40,
	RoleCaixa:       30,
	RoleCliente:     0,
}

// managementRoles are the roles allowed to grant non-zero privilege to others.
var managementRoles = Roles{RoleAdmin, RoleGerente, RoleFiscalCaixa}

// String returns the string representation of the Role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the Role is a valid value.
func (r Role) IsValid() bool {
	_, ok := privilegeLevels[r]

	return ok
}

// PrivilegeLevel returns the privilege level of this role; unknown roles are 0.
func (r Role) PrivilegeLevel() int {
	return privilegeLevels[r]
}

// Roles is a slice of Role for convenience.
type Roles []Role

// Contains checks if the roles slice contains a specific role.
func (rs Roles) Contains(role Role) bool {
	return slices.Contains(rs, role)
}

// MaxPrivilege returns the highest privilege level among the roles.
// It is the single source of truth for a user's MaxPrivilegeLevel.
func (rs Roles) MaxPrivilege() int {
	maxLevel := 0
	for _, r := range rs {
		if level := r.PrivilegeLevel(); level > maxLevel {
			maxLevel = level
		}
	}

	return maxLevel
}

// HasManagementRole reports whether any role in the set is management-tagged.
func (rs Roles) HasManagementRole() bool {
	for _, r := range rs {
		if managementRoles.Contains(r) {
			return true
		}
	}

	return false
}

// ToStrings converts Roles to []string for token claims and session config.
func (rs Roles) ToStrings() []string {
	result := make([]string, len(rs))
	for i, r := range rs {
		result[i] = r.String()
	}

	return result
}

// RolesFromStrings converts []string to Roles, filtering out invalid role strings.
func RolesFromStrings(ss []string) Roles {
	result := make(Roles, 0, len(ss))
	for _, s := range ss {
		role := Role(s)
		if role.IsValid() {
			result = append(result, role)
		}
	}

	return result
}
