package settings

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Handler exposes server settings over HTTP. Keys are namespaced with dots
// (e.g. "theme.active", "map.default_center"); the API path segment maps
// directly to the key.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// RegisterRoutes registers settings routes on the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/settings/{key...}", h.handleGet)
	mux.HandleFunc("PUT /api/v1/settings/{key...}", h.handleSet)
	mux.HandleFunc("DELETE /api/v1/settings/{key...}", h.handleDelete)
}

// SettingResponse is a single settings entry.
type SettingResponse struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// handleGet returns the value stored under a key.
//
//	@Summary	Get setting
//	@Tags		settings
//	@Produce	json
//	@Security	BearerAuth
//	@Param		key	path		string	true	"Setting key"
//	@Success	200	{object}	SettingResponse
//	@Failure	404	{object}	models.APIProblem
//	@Router		/settings/{key} [get]
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	raw, err := h.repo.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "setting not found")
			return
		}
		h.logger.Error("get setting", zap.String("key", key), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to read setting")
		return
	}

	value := json.RawMessage(raw)
	if !json.Valid(value) {
		// Legacy plain-string values are wrapped for the response.
		b, _ := json.Marshal(raw)
		value = b
	}
	writeSettingJSON(w, http.StatusOK, SettingResponse{Key: key, Value: value})
}

// handleSet stores a value under a key. The request body is the raw JSON value.
//
//	@Summary	Set setting
//	@Tags		settings
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		key	path		string	true	"Setting key"
//	@Success	200	{object}	SettingResponse
//	@Failure	400	{object}	models.APIProblem
//	@Router		/settings/{key} [put]
func (h *Handler) handleSet(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(r.PathValue("key"))
	if key == "" {
		writeError(w, http.StatusBadRequest, "setting key is required")
		return
	}

	var value json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&value); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be valid JSON")
		return
	}

	if err := h.repo.Set(r.Context(), key, string(value)); err != nil {
		h.logger.Error("set setting", zap.String("key", key), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to store setting")
		return
	}
	writeSettingJSON(w, http.StatusOK, SettingResponse{Key: key, Value: value})
}

// handleDelete removes a key.
//
//	@Summary	Delete setting
//	@Tags		settings
//	@Security	BearerAuth
//	@Param		key	path	string	true	"Setting key"
//	@Success	204	"No Content"
//	@Router		/settings/{key} [delete]
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if err := h.repo.Delete(r.Context(), key); err != nil {
		h.logger.Error("delete setting", zap.String("key", key), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to delete setting")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeSettingJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":   "https://civicmesh.io/problems/settings-error",
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
}
