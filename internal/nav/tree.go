package nav

import "github.com/CivicMesh/rtcc/pkg/models"

// DefaultTree is the navigation configuration for the dashboard. Defined once
// at startup and never mutated; Filter operates on copies.
func DefaultTree() Tree {
	return Tree{
		{
			ID:    "operations",
			Label: "Operations",
			Items: []Item{
				{Path: "/", Label: "Command Map", Icon: "map"},
				{Path: "/incidents", Label: "Incidents", Icon: "alert-triangle"},
				{Path: "/fleet", Label: "Fleet", Icon: "send"},
				{Path: "/watch", Label: "Camera Watch", Icon: "video",
					AllowedRoles: []models.Role{models.RoleAnalyst, models.RoleSupervisor, models.RoleAdmin, models.RoleCommander}},
			},
		},
		{
			ID:    "analytics",
			Label: "Analytics",
			AllowedRoles: []models.Role{
				models.RoleAnalyst, models.RoleSupervisor, models.RoleAdmin, models.RoleCommander,
			},
			Items: []Item{
				{Path: "/crime-data", Label: "Crime Data", Icon: "bar-chart"},
				{Path: "/crime-data/upload", Label: "Data Upload", Icon: "upload",
					AllowedRoles: []models.Role{models.RoleAnalyst, models.RoleAdmin}},
			},
		},
		{
			ID:    "command",
			Label: "Command",
			AllowedRoles: []models.Role{
				models.RoleSupervisor, models.RoleCommander, models.RoleAdmin,
			},
			Items: []Item{
				{Path: "/command/incidents", Label: "Incident Command", Icon: "radio"},
				{Path: "/command/dispatch", Label: "Dispatch Board", Icon: "clipboard"},
			},
		},
		{
			ID:    "admin",
			Label: "Administration",
			AllowedRoles: []models.Role{
				models.RoleAdmin, models.RoleSystemIntegrator,
			},
			Items: []Item{
				{Path: "/admin/users", Label: "Users", Icon: "users",
					AllowedRoles: []models.Role{models.RoleAdmin}},
				{Path: "/admin/settings", Label: "Settings", Icon: "settings"},
				{Path: "/admin/integrations", Label: "Integrations", Icon: "plug",
					AllowedRoles: []models.Role{models.RoleSystemIntegrator, models.RoleAdmin}},
				{Path: "/admin/webhooks", Label: "Webhooks", Icon: "webhook",
					AllowedRoles: []models.Role{models.RoleSystemIntegrator, models.RoleAdmin}},
			},
		},
		{
			ID:    "public",
			Label: "Transparency",
			Items: []Item{
				{Path: "/transparency", Label: "Public Portal", Icon: "globe"},
			},
		},
	}
}
