// Package nav defines the role-gated navigation tree served to the dashboard
// sidebar. The tree is static configuration; filtering is a pure function of
// (tree, role) so it can be exercised without any HTTP machinery.
package nav

import "github.com/CivicMesh/rtcc/pkg/models"

// Item is a single navigation entry. An empty AllowedRoles slice means the
// item is visible to every role.
type Item struct {
	Path         string        `json:"path"`
	Label        string        `json:"label"`
	Icon         string        `json:"icon,omitempty"`
	AllowedRoles []models.Role `json:"allowed_roles,omitempty"`
}

// Section groups related items. Section-level AllowedRoles restricts the
// whole section independently of per-item restrictions.
type Section struct {
	ID           string        `json:"id"`
	Label        string        `json:"label"`
	Items        []Item        `json:"items"`
	AllowedRoles []models.Role `json:"allowed_roles,omitempty"`
}

// Tree is the full navigation configuration, in display order.
type Tree []Section

// roleAllowed reports whether role may see an element with the given
// restriction set. An empty set means unrestricted.
func roleAllowed(allowed []models.Role, role models.Role) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

// Filter returns the subset of the tree visible to role, preserving order.
// An item is visible only if both its own restriction and its section's
// restriction admit the role. Sections left with zero visible items are
// omitted entirely. Unknown roles see only unrestricted entries.
func Filter(tree Tree, role models.Role) Tree {
	out := make(Tree, 0, len(tree))
	for _, section := range tree {
		if !roleAllowed(section.AllowedRoles, role) {
			continue
		}
		visible := make([]Item, 0, len(section.Items))
		for _, item := range section.Items {
			if roleAllowed(item.AllowedRoles, role) {
				visible = append(visible, item)
			}
		}
		if len(visible) == 0 {
			continue
		}
		filtered := section
		filtered.Items = visible
		out = append(out, filtered)
	}
	return out
}
