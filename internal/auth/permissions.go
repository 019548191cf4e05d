package auth

import "strings"

// Role names as stored on the users table. Comparison is always done on the
// lowercased form, so "Admin" and "admin" resolve to the same row of the
// permission table.
const (
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleTechnician = "technician"
	RoleEmployee   = "employee"
	RoleViewer     = "viewer"
)

// Permission keys gate mutating operations. Reads only require a valid
// session. There is no per-object scoping: this is coarse role-based access
// control, nine boolean flags per role.
const (
	PermManageUsers       = "manage_users"
	PermManageEquipment   = "manage_equipment"
	PermManageClients     = "manage_clients"
	PermManageEvents      = "manage_events"
	PermManageQuotes      = "manage_quotes"
	PermManageRentals     = "manage_rentals"
	PermManageMaintenance = "manage_maintenance"
	PermManagePartners    = "manage_partners"
	PermViewReports       = "view_reports"
)

// permissions is the static role -> permission table. It is fixed at compile
// time; changing access rules means shipping a new build.
var permissions = map[string]map[string]bool{
	RoleAdmin: {
		PermManageUsers:       true,
		PermManageEquipment:   true,
		PermManageClients:     true,
		PermManageEvents:      true,
		PermManageQuotes:      true,
		PermManageRentals:     true,
		PermManageMaintenance: true,
		PermManagePartners:    true,
		PermViewReports:       true,
	},
	RoleManager: {
		PermManageEquipment:   true,
		PermManageClients:     true,
		PermManageEvents:      true,
		PermManageQuotes:      true,
		PermManageRentals:     true,
		PermManageMaintenance: true,
		PermManagePartners:    true,
		PermViewReports:       true,
	},
	RoleTechnician: {
		PermManageEquipment:   true,
		PermManageMaintenance: true,
	},
	RoleEmployee: {
		PermManageClients: true,
		PermManageEvents:  true,
		PermManageQuotes:  true,
	},
	RoleViewer: {},
}

// Allowed reports whether role holds the given permission. Unknown roles
// hold nothing.
func Allowed(role, permission string) bool {
	perms, ok := permissions[strings.ToLower(strings.TrimSpace(role))]
	if !ok {
		return false
	}
	return perms[permission]
}

// ValidRole reports whether role names a row of the permission table.
func ValidRole(role string) bool {
	_, ok := permissions[strings.ToLower(strings.TrimSpace(role))]
	return ok
}

// Roles returns the known role names. Used by the user admin endpoints to
// validate input.
func Roles() []string {
	return []string{RoleAdmin, RoleManager, RoleTechnician, RoleEmployee, RoleViewer}
}
