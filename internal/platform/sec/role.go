// Copyright (c) 2026 MotoWorld. All rights reserved.
// Author: dev@motoworld.shop

package sec

// # User Roles

// UserRole represents the authorization level granted to an account.
type UserRole string

const (
	// Full system access, including staff management
	RoleSuperadmin UserRole = "superadmin"

	// Can manage the catalog, orders, and review moderation
	RoleAdmin UserRole = "admin"

	// Default role for standard registered shoppers
	RoleCustomer UserRole = "customer"
)

// IsValid reports whether r is a recognised [UserRole] value.
func (r UserRole) IsValid() bool {
	switch r {
	case RoleSuperadmin, RoleAdmin, RoleCustomer:
		return true
	}
	return false
}

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.level() >= target.level()
}

// IsStaff reports whether the role carries back-office privileges.
func (r UserRole) IsStaff() bool {
	return r.AtLeast(RoleAdmin)
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r UserRole) level() int {

	// Linear scale (10-30) allows for future intermediate roles
	switch r {
	case RoleSuperadmin:
		return 30
	case RoleAdmin:
		return 20
	case RoleCustomer:
		return 10
	default:
		return 0
	}
}
