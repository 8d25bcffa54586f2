package theme

import (
	"testing"
)

func mustRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := BuiltinRegistry()
	if err != nil {
		t.Fatalf("builtin registry: %v", err)
	}
	return r
}

func TestBuiltinThemesStructurallyComplete(t *testing.T) {
	r := mustRegistry(t)

	themes := r.All()
	if len(themes) < 2 {
		t.Fatal("expected at least two builtin themes")
	}

	ref := themes[0]
	for _, th := range themes[1:] {
		if len(th.UIColors) != len(ref.UIColors) {
			t.Errorf("theme %s: ui color count %d != %d", th.ID, len(th.UIColors), len(ref.UIColors))
		}
		for k := range ref.UIColors {
			if _, ok := th.UIColors[k]; !ok {
				t.Errorf("theme %s: missing ui color %q", th.ID, k)
			}
		}
		for k := range ref.MarkerColors {
			if _, ok := th.MarkerColors[k]; !ok {
				t.Errorf("theme %s: missing marker color %q", th.ID, k)
			}
		}
	}
}

func TestValidateRejectsPartialTheme(t *testing.T) {
	r, err := NewRegistry("a",
		Theme{
			ID:           "a",
			UIColors:     map[string]string{"background": "#000", "text": "#fff"},
			MarkerColors: map[string]string{"default": "#888", "cctv": "#0f0"},
		},
		Theme{
			ID:           "b",
			UIColors:     map[string]string{"background": "#fff"}, // missing "text"
			MarkerColors: map[string]string{"default": "#888", "cctv": "#0f0"},
		},
	)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if err := r.Validate(); err == nil {
		t.Error("expected validation failure for partial theme")
	}
}

func TestValidateRequiresDefaultMarkerColor(t *testing.T) {
	r, err := NewRegistry("a",
		Theme{
			ID:           "a",
			UIColors:     map[string]string{"background": "#000"},
			MarkerColors: map[string]string{"cctv": "#0f0"},
		},
	)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if err := r.Validate(); err == nil {
		t.Error("expected validation failure for missing default marker color")
	}
}

func TestGetFallsBackToDefault(t *testing.T) {
	r := mustRegistry(t)

	got := r.Get("nonexistent-id")
	want := r.Get(DefaultThemeID)
	if got.ID != want.ID {
		t.Errorf("fallback theme = %s, want %s", got.ID, want.ID)
	}
	if got.ID != "neural-cosmic-dark" {
		t.Errorf("default theme = %s", got.ID)
	}
}

func TestResolveMarkerColorTypePrecedence(t *testing.T) {
	th := mustRegistry(t).Get(DefaultThemeID)

	// Both entity type and jurisdiction match distinct keys; type wins.
	got := ResolveMarkerColor(th, "lpr", "FDOT")
	if got != th.MarkerColors["lpr"] {
		t.Errorf("color = %s, want lpr color %s", got, th.MarkerColors["lpr"])
	}
	if got != "#FF2740" {
		t.Errorf("lpr color = %s, want #FF2740", got)
	}
}

func TestResolveMarkerColorJurisdictionFallback(t *testing.T) {
	th := mustRegistry(t).Get(DefaultThemeID)

	got := ResolveMarkerColor(th, "", "RBPD")
	if got != th.MarkerColors["rbpd"] {
		t.Errorf("color = %s, want rbpd color %s", got, th.MarkerColors["rbpd"])
	}
	if got != "#1E90FF" {
		t.Errorf("rbpd color = %s, want #1E90FF", got)
	}
}

func TestResolveMarkerColorTotality(t *testing.T) {
	th := mustRegistry(t).Get(DefaultThemeID)
	def := th.MarkerColors["default"]

	cases := []struct{ entityType, jurisdiction string }{
		{"", ""},
		{"unknown-type", ""},
		{"", "unknown-jurisdiction"},
		{"unknown-type", "unknown-jurisdiction"},
	}
	for _, tc := range cases {
		if got := ResolveMarkerColor(th, tc.entityType, tc.jurisdiction); got != def {
			t.Errorf("ResolveMarkerColor(%q, %q) = %s, want default %s",
				tc.entityType, tc.jurisdiction, got, def)
		}
	}
}

func TestResolveMarkerColorUnknownTypeFallsThroughToJurisdiction(t *testing.T) {
	th := mustRegistry(t).Get(DefaultThemeID)

	got := ResolveMarkerColor(th, "unmapped-sensor", "rbpd")
	if got != th.MarkerColors["rbpd"] {
		t.Errorf("color = %s, want rbpd color", got)
	}
}

func TestNewRegistryRejectsDuplicateAndMissingDefault(t *testing.T) {
	base := Theme{ID: "x", UIColors: map[string]string{}, MarkerColors: map[string]string{"default": "#000"}}

	if _, err := NewRegistry("x", base, base); err == nil {
		t.Error("expected error for duplicate theme id")
	}
	if _, err := NewRegistry("missing", base); err == nil {
		t.Error("expected error for unregistered default id")
	}
}
