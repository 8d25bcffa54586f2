package theme

// BuiltinRegistry returns the shipped theme set. All themes carry identical
// key sets; Validate enforces this at startup.
func BuiltinRegistry() (*Registry, error) {
	r, err := NewRegistry(DefaultThemeID,
		Theme{
			ID:    "neural-cosmic-dark",
			Label: "Neural Cosmic (Dark)",
			UIColors: map[string]string{
				"background": "#060913",
				"surface":    "#0D1326",
				"primary":    "#3B82F6",
				"secondary":  "#8B5CF6",
				"accent":     "#22D3EE",
				"text":       "#E6EAF2",
				"textMuted":  "#8A93A6",
				"border":     "#1C2540",
			},
			MarkerColors: map[string]string{
				"default": "#9CA3AF",
				"rbpd":    "#1E90FF",
				"fdot":    "#FFA500",
				"lpr":     "#FF2740",
				"cctv":    "#34D399",
				"drone":   "#A78BFA",
				"robot":   "#F472B6",
			},
			MapStyleRef: "mapbox://styles/mapbox/dark-v11",
		},
		Theme{
			ID:    "daylight",
			Label: "Daylight",
			UIColors: map[string]string{
				"background": "#F8FAFC",
				"surface":    "#FFFFFF",
				"primary":    "#2563EB",
				"secondary":  "#7C3AED",
				"accent":     "#0891B2",
				"text":       "#0F172A",
				"textMuted":  "#64748B",
				"border":     "#E2E8F0",
			},
			MarkerColors: map[string]string{
				"default": "#6B7280",
				"rbpd":    "#1D4ED8",
				"fdot":    "#D97706",
				"lpr":     "#DC2626",
				"cctv":    "#059669",
				"drone":   "#7C3AED",
				"robot":   "#DB2777",
			},
			MapStyleRef: "mapbox://styles/mapbox/light-v11",
		},
		Theme{
			ID:    "tactical-contrast",
			Label: "Tactical High Contrast",
			UIColors: map[string]string{
				"background": "#000000",
				"surface":    "#111111",
				"primary":    "#FFD700",
				"secondary":  "#00FFFF",
				"accent":     "#FF00FF",
				"text":       "#FFFFFF",
				"textMuted":  "#BBBBBB",
				"border":     "#444444",
			},
			MarkerColors: map[string]string{
				"default": "#FFFFFF",
				"rbpd":    "#00BFFF",
				"fdot":    "#FFD700",
				"lpr":     "#FF3131",
				"cctv":    "#00FF7F",
				"drone":   "#DA70D6",
				"robot":   "#FF69B4",
			},
			MapStyleRef: "mapbox://styles/mapbox/satellite-streets-v12",
		},
	)
	if err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}
