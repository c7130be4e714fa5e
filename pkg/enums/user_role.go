package enums

import "fmt"

// UserRole identifies what a platform account may do in the withdrawal
// workflow. Site engineers raise requests, warehouse officers verify and
// release, project managers approve, admins can do everything.
type UserRole string

const (
	UserRoleSiteEngineer     UserRole = "site_engineer"
	UserRoleWarehouseOfficer UserRole = "warehouse_officer"
	UserRoleProjectManager   UserRole = "project_manager"
	UserRoleAdmin            UserRole = "admin"
)

var validUserRoles = []UserRole{
	UserRoleSiteEngineer,
	UserRoleWarehouseOfficer,
	UserRoleProjectManager,
	UserRoleAdmin,
}

func (r UserRole) String() string {
	return string(r)
}

func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
