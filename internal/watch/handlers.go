package watch

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/CivicMesh/rtcc/pkg/plugin"
	"go.uber.org/zap"
)

// Routes implements plugin.HTTPProvider. Mounted under /api/v1/watch/.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/cameras", Handler: m.handleListCameras},
		{Method: "GET", Path: "/cameras/{id}", Handler: m.handleGetCamera},
		{Method: "POST", Path: "/cameras", Handler: m.handleCreateCamera},
		{Method: "PUT", Path: "/cameras/{id}", Handler: m.handleUpdateCamera},
		{Method: "DELETE", Path: "/cameras/{id}", Handler: m.handleDeleteCamera},
		{Method: "POST", Path: "/cameras/{id}/check", Handler: m.handleCheckNow},
		{Method: "GET", Path: "/cameras/{id}/results", Handler: m.handleResults},
		{Method: "GET", Path: "/summary", Handler: m.handleSummary},
	}
}

// handleListCameras returns all monitored cameras.
//
//	@Summary	List cameras
//	@Tags		watch
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{array}	Camera
//	@Router		/watch/cameras [get]
func (m *Module) handleListCameras(w http.ResponseWriter, r *http.Request) {
	cameras, err := m.store.ListCameras(r.Context(), false)
	if err != nil {
		m.logger.Error("list cameras", zap.Error(err))
		writeWatchError(w, http.StatusInternalServerError, "failed to list cameras")
		return
	}
	if cameras == nil {
		cameras = []Camera{}
	}
	writeWatchJSON(w, http.StatusOK, cameras)
}

// handleGetCamera returns one camera.
//
//	@Summary	Get camera
//	@Tags		watch
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"Camera ID"
//	@Success	200	{object}	Camera
//	@Failure	404	{object}	models.APIProblem
//	@Router		/watch/cameras/{id} [get]
func (m *Module) handleGetCamera(w http.ResponseWriter, r *http.Request) {
	camera, err := m.store.GetCamera(r.Context(), r.PathValue("id"))
	if err != nil {
		writeWatchError(w, http.StatusNotFound, "camera not found")
		return
	}
	writeWatchJSON(w, http.StatusOK, camera)
}

// handleCreateCamera registers a camera for monitoring.
//
//	@Summary	Register camera
//	@Tags		watch
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Success	201	{object}	Camera
//	@Failure	400	{object}	models.APIProblem
//	@Router		/watch/cameras [post]
func (m *Module) handleCreateCamera(w http.ResponseWriter, r *http.Request) {
	var camera Camera
	if err := json.NewDecoder(r.Body).Decode(&camera); err != nil {
		writeWatchError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if detail := validateCamera(&camera); detail != "" {
		writeWatchError(w, http.StatusBadRequest, detail)
		return
	}
	camera.Enabled = true
	camera.State = StateUnknown

	if err := m.store.CreateCamera(r.Context(), &camera); err != nil {
		m.logger.Error("create camera", zap.Error(err))
		writeWatchError(w, http.StatusInternalServerError, "failed to create camera")
		return
	}
	writeWatchJSON(w, http.StatusCreated, camera)
}

// handleUpdateCamera updates a camera's configuration.
//
//	@Summary	Update camera
//	@Tags		watch
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"Camera ID"
//	@Success	200	{object}	Camera
//	@Failure	400	{object}	models.APIProblem
//	@Failure	404	{object}	models.APIProblem
//	@Router		/watch/cameras/{id} [put]
func (m *Module) handleUpdateCamera(w http.ResponseWriter, r *http.Request) {
	existing, err := m.store.GetCamera(r.Context(), r.PathValue("id"))
	if err != nil {
		writeWatchError(w, http.StatusNotFound, "camera not found")
		return
	}

	var camera Camera
	if err := json.NewDecoder(r.Body).Decode(&camera); err != nil {
		writeWatchError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	camera.ID = existing.ID
	if camera.Name == "" {
		camera.Name = existing.Name
	}
	if camera.Address == "" {
		camera.Address = existing.Address
	}
	if camera.Method == "" {
		camera.Method = existing.Method
	}
	if detail := validateCamera(&camera); detail != "" {
		writeWatchError(w, http.StatusBadRequest, detail)
		return
	}

	if err := m.store.UpdateCamera(r.Context(), &camera); err != nil {
		m.logger.Error("update camera", zap.Error(err))
		writeWatchError(w, http.StatusInternalServerError, "failed to update camera")
		return
	}
	writeWatchJSON(w, http.StatusOK, camera)
}

// handleDeleteCamera removes a camera and its history.
//
//	@Summary	Delete camera
//	@Tags		watch
//	@Security	BearerAuth
//	@Param		id	path	string	true	"Camera ID"
//	@Success	204	"No Content"
//	@Failure	404	{object}	models.APIProblem
//	@Router		/watch/cameras/{id} [delete]
func (m *Module) handleDeleteCamera(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := m.store.DeleteCamera(r.Context(), id); err != nil {
		writeWatchError(w, http.StatusNotFound, "camera not found")
		return
	}
	m.alerter.Forget(id)
	w.WriteHeader(http.StatusNoContent)
}

// handleCheckNow runs a one-off check outside the schedule.
//
//	@Summary	Check camera now
//	@Tags		watch
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"Camera ID"
//	@Success	200	{object}	CheckResult
//	@Failure	404	{object}	models.APIProblem
//	@Router		/watch/cameras/{id}/check [post]
func (m *Module) handleCheckNow(w http.ResponseWriter, r *http.Request) {
	camera, err := m.store.GetCamera(r.Context(), r.PathValue("id"))
	if err != nil {
		writeWatchError(w, http.StatusNotFound, "camera not found")
		return
	}
	result := m.scheduler.CheckOne(r.Context(), *camera)
	writeWatchJSON(w, http.StatusOK, result)
}

// handleResults returns a camera's recent check history.
//
//	@Summary	Camera check history
//	@Tags		watch
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		string	true	"Camera ID"
//	@Param		limit	query		int		false	"Maximum results returned (default 100)"
//	@Success	200		{array}		CheckResult
//	@Router		/watch/cameras/{id}/results [get]
func (m *Module) handleResults(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	results, err := m.store.ListResults(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		m.logger.Error("list results", zap.Error(err))
		writeWatchError(w, http.StatusInternalServerError, "failed to list results")
		return
	}
	if results == nil {
		results = []CheckResult{}
	}
	writeWatchJSON(w, http.StatusOK, results)
}

// Summary aggregates the camera network's current health.
type Summary struct {
	Total    int `json:"total"`
	Up       int `json:"up"`
	Down     int `json:"down"`
	Unknown  int `json:"unknown"`
	Disabled int `json:"disabled"`
}

// handleSummary returns up/down counts for the status bar.
//
//	@Summary	Camera network summary
//	@Tags		watch
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	Summary
//	@Router		/watch/summary [get]
func (m *Module) handleSummary(w http.ResponseWriter, r *http.Request) {
	cameras, err := m.store.ListCameras(r.Context(), false)
	if err != nil {
		m.logger.Error("summary", zap.Error(err))
		writeWatchError(w, http.StatusInternalServerError, "failed to compute summary")
		return
	}

	var s Summary
	for _, c := range cameras {
		s.Total++
		if !c.Enabled {
			s.Disabled++
			continue
		}
		switch c.State {
		case StateUp:
			s.Up++
		case StateDown:
			s.Down++
		default:
			s.Unknown++
		}
	}
	writeWatchJSON(w, http.StatusOK, s)
}

func validateCamera(c *Camera) string {
	if c.Name == "" {
		return "name is required"
	}
	if c.Address == "" {
		return "address is required"
	}
	switch c.Method {
	case "":
		c.Method = CheckICMP
	case CheckICMP:
	case CheckHTTP:
		u, err := url.Parse(c.Address)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return "http method requires an http(s) address"
		}
	default:
		return "method must be icmp or http"
	}
	return ""
}

func writeWatchJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeWatchError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":   "https://civicmesh.io/problems/watch-error",
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
}
