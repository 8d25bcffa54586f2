package theme

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/CivicMesh/rtcc/internal/settings"
	"go.uber.org/zap"
)

const activeThemeKey = "theme.active"

// Handler exposes the theme registry and the active theme selection.
type Handler struct {
	registry *Registry
	settings *settings.Repository
	logger   *zap.Logger
}

func NewHandler(registry *Registry, repo *settings.Repository, logger *zap.Logger) *Handler {
	return &Handler{registry: registry, settings: repo, logger: logger}
}

// RegisterRoutes registers theme routes on the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/themes", h.handleList)
	mux.HandleFunc("GET /api/v1/themes/active", h.handleGetActive)
	mux.HandleFunc("PUT /api/v1/themes/active", h.handleSetActive)
	mux.HandleFunc("GET /api/v1/themes/{id}", h.handleGet)
	mux.HandleFunc("GET /api/v1/themes/{id}/marker-color", h.handleMarkerColor)
}

// handleList returns every registered theme.
//
//	@Summary	List themes
//	@Tags		themes
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{array}	Theme
//	@Router		/themes [get]
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	writeThemeJSON(w, http.StatusOK, h.registry.All())
}

// handleGet returns a single theme. Unknown ids resolve to the default
// theme so the dashboard always has something renderable.
//
//	@Summary	Get theme
//	@Tags		themes
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"Theme id"
//	@Success	200	{object}	Theme
//	@Router		/themes/{id} [get]
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	writeThemeJSON(w, http.StatusOK, h.registry.Get(r.PathValue("id")))
}

// ActiveThemeResponse reports the currently selected theme.
type ActiveThemeResponse struct {
	ID    string `json:"id"`
	Theme Theme  `json:"theme"`
}

// handleGetActive returns the active theme selection.
//
//	@Summary	Active theme
//	@Tags		themes
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	ActiveThemeResponse
//	@Router		/themes/active [get]
func (h *Handler) handleGetActive(w http.ResponseWriter, r *http.Request) {
	id := h.registry.DefaultID()
	var stored string
	err := h.settings.GetJSON(r.Context(), activeThemeKey, &stored)
	if err != nil && !errors.Is(err, settings.ErrNotFound) {
		h.logger.Error("load active theme", zap.Error(err))
	}
	if stored != "" && h.registry.Has(stored) {
		id = stored
	}
	writeThemeJSON(w, http.StatusOK, ActiveThemeResponse{ID: id, Theme: h.registry.Get(id)})
}

// handleSetActive switches the active theme. The id must name a registered
// theme; the switch is a single settings write, so no partial-theme state is
// ever observable.
//
//	@Summary	Set active theme
//	@Tags		themes
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	ActiveThemeResponse
//	@Failure	400	{object}	models.APIProblem
//	@Router		/themes/active [put]
func (h *Handler) handleSetActive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeThemeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !h.registry.Has(req.ID) {
		writeThemeError(w, http.StatusBadRequest, "unknown theme id")
		return
	}

	if err := h.settings.SetJSON(r.Context(), activeThemeKey, req.ID); err != nil {
		h.logger.Error("save active theme", zap.Error(err))
		writeThemeError(w, http.StatusInternalServerError, "failed to save theme selection")
		return
	}
	writeThemeJSON(w, http.StatusOK, ActiveThemeResponse{ID: req.ID, Theme: h.registry.Get(req.ID)})
}

// MarkerColorResponse is a resolved marker color.
type MarkerColorResponse struct {
	ThemeID string `json:"theme_id"`
	Color   string `json:"color"`
}

// handleMarkerColor resolves a marker color for an entity type and/or
// jurisdiction under the named theme.
//
//	@Summary	Resolve marker color
//	@Tags		themes
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id				path		string	true	"Theme id"
//	@Param		entity_type		query		string	false	"Entity or camera type"
//	@Param		jurisdiction	query		string	false	"Owning jurisdiction code"
//	@Success	200	{object}	MarkerColorResponse
//	@Router		/themes/{id}/marker-color [get]
func (h *Handler) handleMarkerColor(w http.ResponseWriter, r *http.Request) {
	t := h.registry.Get(r.PathValue("id"))
	color := ResolveMarkerColor(t,
		r.URL.Query().Get("entity_type"),
		r.URL.Query().Get("jurisdiction"))
	writeThemeJSON(w, http.StatusOK, MarkerColorResponse{ThemeID: t.ID, Color: color})
}

func writeThemeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeThemeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":   "https://civicmesh.io/problems/theme-error",
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
}
