// Package theme holds the registry of named dashboard themes and resolves
// map marker colors. Themes are static configuration validated at startup;
// only the active theme id changes at runtime.
package theme

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultThemeID is the theme used at startup and as the fallback for
// unknown ids.
const DefaultThemeID = "neural-cosmic-dark"

// Theme is a complete set of UI colors, marker colors, and a map style
// reference. Every registered theme defines the same key sets; partial
// themes are a configuration defect caught by Validate.
type Theme struct {
	ID           string            `json:"id"`
	Label        string            `json:"label"`
	UIColors     map[string]string `json:"ui_colors"`
	MarkerColors map[string]string `json:"marker_colors"`
	MapStyleRef  string            `json:"map_style_ref"`
}

// Registry is an immutable set of themes keyed by id.
type Registry struct {
	themes    map[string]Theme
	order     []string
	defaultID string
}

// NewRegistry builds a registry from the given themes. The default theme id
// must be present; Validate should be called before serving.
func NewRegistry(defaultID string, themes ...Theme) (*Registry, error) {
	r := &Registry{
		themes:    make(map[string]Theme, len(themes)),
		defaultID: defaultID,
	}
	for _, t := range themes {
		if _, dup := r.themes[t.ID]; dup {
			return nil, fmt.Errorf("duplicate theme id %q", t.ID)
		}
		r.themes[t.ID] = t
		r.order = append(r.order, t.ID)
	}
	if _, ok := r.themes[defaultID]; !ok {
		return nil, fmt.Errorf("default theme %q not registered", defaultID)
	}
	return r, nil
}

// Get returns the theme for id, falling back to the default theme for an
// unknown id. The dashboard must never be left without a renderable theme.
func (r *Registry) Get(id string) Theme {
	if t, ok := r.themes[id]; ok {
		return t
	}
	return r.themes[r.defaultID]
}

// Has reports whether id names a registered theme.
func (r *Registry) Has(id string) bool {
	_, ok := r.themes[id]
	return ok
}

// DefaultID returns the designated default theme id.
func (r *Registry) DefaultID() string {
	return r.defaultID
}

// All returns the registered themes in registration order.
func (r *Registry) All() []Theme {
	out := make([]Theme, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.themes[id])
	}
	return out
}

// Validate checks structural completeness: every theme must define exactly
// the same ui_colors and marker_colors key sets as the default theme, and
// every theme must define a "default" marker color.
func (r *Registry) Validate() error {
	ref := r.themes[r.defaultID]
	refUI := sortedKeys(ref.UIColors)
	refMarker := sortedKeys(ref.MarkerColors)

	if _, ok := ref.MarkerColors["default"]; !ok {
		return fmt.Errorf("theme %q: missing required marker color %q", ref.ID, "default")
	}

	for _, id := range r.order {
		t := r.themes[id]
		if got := sortedKeys(t.UIColors); !equalKeys(got, refUI) {
			return fmt.Errorf("theme %q: ui_colors keys %v do not match %q keys %v",
				t.ID, got, ref.ID, refUI)
		}
		if got := sortedKeys(t.MarkerColors); !equalKeys(got, refMarker) {
			return fmt.Errorf("theme %q: marker_colors keys %v do not match %q keys %v",
				t.ID, got, ref.ID, refMarker)
		}
	}
	return nil
}

// ResolveMarkerColor returns the drawable color for a map marker. Entity
// type is a more specific signal than jurisdiction, so it wins when both
// match. Marker category keys are lowercase; lookups are case-insensitive
// because jurisdiction codes arrive uppercased from upstream feeds. Always
// returns a color; unmatched inputs resolve to the theme's default marker
// color.
func ResolveMarkerColor(t Theme, entityType, jurisdiction string) string {
	if entityType != "" {
		if c, ok := t.MarkerColors[strings.ToLower(entityType)]; ok {
			return c
		}
	}
	if jurisdiction != "" {
		if c, ok := t.MarkerColors[strings.ToLower(jurisdiction)]; ok {
			return c
		}
	}
	return t.MarkerColors["default"]
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func equalKeys(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
