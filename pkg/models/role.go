package models

// Role represents a user authorization level. Exactly one role is active
// per session; navigation visibility and admin surfaces key off it.
type Role string

const (
	RoleViewer           Role = "viewer"
	RoleAnalyst          Role = "analyst"
	RoleSupervisor       Role = "supervisor"
	RoleAdmin            Role = "admin"
	RoleCommander        Role = "commander"
	RoleSystemIntegrator Role = "system-integrator"
)

// ValidRoles contains all recognized role values.
var ValidRoles = map[Role]bool{
	RoleViewer:           true,
	RoleAnalyst:          true,
	RoleSupervisor:       true,
	RoleAdmin:            true,
	RoleCommander:        true,
	RoleSystemIntegrator: true,
}

// ParseRole maps a raw role string to a Role. Unknown or empty strings
// resolve to RoleViewer so that an unrecognized session never gains
// access beyond unrestricted surfaces.
func ParseRole(s string) Role {
	r := Role(s)
	if ValidRoles[r] {
		return r
	}
	return RoleViewer
}
