package nav

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/CivicMesh/rtcc/internal/auth"
	"github.com/CivicMesh/rtcc/internal/settings"
	"github.com/CivicMesh/rtcc/pkg/models"
	"go.uber.org/zap"
)

// State is the per-user sidebar UI state. A collapsed sidebar renders
// icon-only and ignores the expanded set.
type State struct {
	Collapsed bool     `json:"collapsed"`
	Expanded  []string `json:"expanded"`
}

// Handler serves the filtered navigation tree and per-user sidebar state.
type Handler struct {
	tree     Tree
	settings *settings.Repository
	logger   *zap.Logger
}

func NewHandler(tree Tree, repo *settings.Repository, logger *zap.Logger) *Handler {
	return &Handler{tree: tree, settings: repo, logger: logger}
}

// RegisterRoutes registers navigation routes on the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/nav", h.handleTree)
	mux.HandleFunc("GET /api/v1/nav/state", h.handleGetState)
	mux.HandleFunc("PUT /api/v1/nav/state", h.handleSetState)
}

// handleTree returns the navigation tree filtered for the caller's role.
//
//	@Summary	Navigation tree
//	@Description	Returns the navigation sections and items visible to the authenticated user's role.
//	@Tags		nav
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{array}	Section
//	@Router		/nav [get]
func (h *Handler) handleTree(w http.ResponseWriter, r *http.Request) {
	role := models.RoleViewer
	if user := auth.UserFromContext(r.Context()); user != nil {
		role = models.ParseRole(user.Role)
	}
	writeNavJSON(w, http.StatusOK, Filter(h.tree, role))
}

// handleGetState returns the caller's stored sidebar state, or the zero
// state if nothing has been saved.
//
//	@Summary	Get sidebar state
//	@Tags		nav
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	State
//	@Router		/nav/state [get]
func (h *Handler) handleGetState(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeNavJSON(w, http.StatusOK, State{})
		return
	}

	var state State
	err := h.settings.GetJSON(r.Context(), stateKey(user.UserID), &state)
	if err != nil && !errors.Is(err, settings.ErrNotFound) {
		h.logger.Error("load nav state", zap.String("user_id", user.UserID), zap.Error(err))
	}
	if state.Expanded == nil {
		state.Expanded = []string{}
	}
	writeNavJSON(w, http.StatusOK, state)
}

// handleSetState stores the caller's sidebar state.
//
//	@Summary	Save sidebar state
//	@Tags		nav
//	@Accept		json
//	@Security	BearerAuth
//	@Success	204	"No Content"
//	@Failure	400	{object}	models.APIProblem
//	@Router		/nav/state [put]
func (h *Handler) handleSetState(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var state State
	if err := json.NewDecoder(r.Body).Decode(&state); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.settings.SetJSON(r.Context(), stateKey(user.UserID), state); err != nil {
		h.logger.Error("save nav state", zap.String("user_id", user.UserID), zap.Error(err))
		http.Error(w, "failed to save state", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func stateKey(userID string) string {
	return "nav.state." + userID
}

func writeNavJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
