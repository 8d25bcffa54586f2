package incidents

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/CivicMesh/rtcc/pkg/models"
	"github.com/CivicMesh/rtcc/pkg/plugin"
	"go.uber.org/zap"
)

// Routes implements plugin.HTTPProvider. Mounted under /api/v1/incidents/.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/records", Handler: m.handleList},
		{Method: "GET", Path: "/records/{id}", Handler: m.handleGet},
		{Method: "POST", Path: "/records", Handler: m.handleCreate},
		{Method: "PUT", Path: "/records/{id}", Handler: m.handleUpdate},
		{Method: "POST", Path: "/records/{id}/assign", Handler: m.handleAssign},
		{Method: "POST", Path: "/records/{id}/close", Handler: m.handleClose},
		{Method: "DELETE", Path: "/records/{id}", Handler: m.handleDelete},
	}
}

// handleList returns incidents, filterable by status, severity, and
// jurisdiction.
//
//	@Summary	List incidents
//	@Tags		incidents
//	@Produce	json
//	@Security	BearerAuth
//	@Param		status			query		string	false	"Filter by status (open|assigned|closed)"
//	@Param		severity		query		string	false	"Filter by severity"
//	@Param		jurisdiction	query		string	false	"Filter by jurisdiction code"
//	@Param		limit			query		int		false	"Maximum records returned"
//	@Param		offset			query		int		false	"Records to skip before the first returned"
//	@Success	200				{array}		models.Incident
//	@Router		/incidents/records [get]
func (m *Module) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		Status:       models.IncidentStatus(q.Get("status")),
		Severity:     models.IncidentSeverity(q.Get("severity")),
		Jurisdiction: q.Get("jurisdiction"),
	}
	if raw := q.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			filter.Limit = n
		}
	}
	if raw := q.Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			filter.Offset = n
		}
	}

	list, err := m.store.List(r.Context(), filter)
	if err != nil {
		m.logger.Error("list incidents", zap.Error(err))
		writeIncidentError(w, http.StatusInternalServerError, "failed to list incidents")
		return
	}
	if list == nil {
		list = []models.Incident{}
	}
	writeIncidentJSON(w, http.StatusOK, list)
}

// handleGet returns one incident.
//
//	@Summary	Get incident
//	@Tags		incidents
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"Incident ID"
//	@Success	200	{object}	models.Incident
//	@Failure	404	{object}	models.APIProblem
//	@Router		/incidents/records/{id} [get]
func (m *Module) handleGet(w http.ResponseWriter, r *http.Request) {
	inc, err := m.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeIncidentError(w, http.StatusNotFound, "incident not found")
		return
	}
	writeIncidentJSON(w, http.StatusOK, inc)
}

// handleCreate opens a new incident.
//
//	@Summary	Open incident
//	@Tags		incidents
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Success	201	{object}	models.Incident
//	@Failure	400	{object}	models.APIProblem
//	@Router		/incidents/records [post]
func (m *Module) handleCreate(w http.ResponseWriter, r *http.Request) {
	var inc models.Incident
	if err := json.NewDecoder(r.Body).Decode(&inc); err != nil {
		writeIncidentError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if inc.Title == "" {
		writeIncidentError(w, http.StatusBadRequest, "title is required")
		return
	}
	if inc.Severity != "" && !models.ValidSeverities[inc.Severity] {
		writeIncidentError(w, http.StatusBadRequest, "invalid severity")
		return
	}
	// New incidents always open; assignment and closure have endpoints.
	inc.Status = models.IncidentOpen
	inc.ClosedAt = nil

	if err := m.store.Create(r.Context(), &inc); err != nil {
		m.logger.Error("create incident", zap.Error(err))
		writeIncidentError(w, http.StatusInternalServerError, "failed to create incident")
		return
	}

	m.publish(r, TopicCreated, inc)
	writeIncidentJSON(w, http.StatusCreated, inc)
}

// handleUpdate edits an incident's descriptive fields.
//
//	@Summary	Update incident
//	@Tags		incidents
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"Incident ID"
//	@Success	200	{object}	models.Incident
//	@Failure	400	{object}	models.APIProblem
//	@Failure	404	{object}	models.APIProblem
//	@Router		/incidents/records/{id} [put]
func (m *Module) handleUpdate(w http.ResponseWriter, r *http.Request) {
	existing, err := m.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeIncidentError(w, http.StatusNotFound, "incident not found")
		return
	}

	var req struct {
		Title        *string                  `json:"title"`
		Description  *string                  `json:"description"`
		Severity     *models.IncidentSeverity `json:"severity"`
		EntityType   *string                  `json:"entity_type"`
		Jurisdiction *string                  `json:"jurisdiction"`
		Latitude     *float64                 `json:"latitude"`
		Longitude    *float64                 `json:"longitude"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeIncidentError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Title != nil {
		if *req.Title == "" {
			writeIncidentError(w, http.StatusBadRequest, "title cannot be empty")
			return
		}
		existing.Title = *req.Title
	}
	if req.Description != nil {
		existing.Description = *req.Description
	}
	if req.Severity != nil {
		if !models.ValidSeverities[*req.Severity] {
			writeIncidentError(w, http.StatusBadRequest, "invalid severity")
			return
		}
		existing.Severity = *req.Severity
	}
	if req.EntityType != nil {
		existing.EntityType = *req.EntityType
	}
	if req.Jurisdiction != nil {
		existing.Jurisdiction = *req.Jurisdiction
	}
	if req.Latitude != nil {
		existing.Latitude = *req.Latitude
	}
	if req.Longitude != nil {
		existing.Longitude = *req.Longitude
	}

	if err := m.store.Update(r.Context(), existing); err != nil {
		m.logger.Error("update incident", zap.Error(err))
		writeIncidentError(w, http.StatusInternalServerError, "failed to update incident")
		return
	}

	m.publish(r, TopicUpdated, *existing)
	writeIncidentJSON(w, http.StatusOK, existing)
}

// handleAssign assigns an incident to a unit or officer and moves it to
// the assigned state. Closed incidents cannot be assigned.
//
//	@Summary	Assign incident
//	@Tags		incidents
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"Incident ID"
//	@Success	200	{object}	models.Incident
//	@Failure	400	{object}	models.APIProblem
//	@Failure	404	{object}	models.APIProblem
//	@Failure	409	{object}	models.APIProblem
//	@Router		/incidents/records/{id}/assign [post]
func (m *Module) handleAssign(w http.ResponseWriter, r *http.Request) {
	inc, err := m.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeIncidentError(w, http.StatusNotFound, "incident not found")
		return
	}
	if inc.Status == models.IncidentClosed {
		writeIncidentError(w, http.StatusConflict, "cannot assign a closed incident")
		return
	}

	var req struct {
		AssignedTo string `json:"assigned_to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AssignedTo == "" {
		writeIncidentError(w, http.StatusBadRequest, "assigned_to is required")
		return
	}

	inc.AssignedTo = req.AssignedTo
	inc.Status = models.IncidentAssigned
	if err := m.store.Update(r.Context(), inc); err != nil {
		m.logger.Error("assign incident", zap.Error(err))
		writeIncidentError(w, http.StatusInternalServerError, "failed to assign incident")
		return
	}

	m.publish(r, TopicAssigned, Assignment{
		IncidentID: inc.ID,
		Title:      inc.Title,
		AssignedTo: inc.AssignedTo,
	})
	writeIncidentJSON(w, http.StatusOK, inc)
}

// handleClose closes an incident. Closing an already-closed incident is
// idempotent.
//
//	@Summary	Close incident
//	@Tags		incidents
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"Incident ID"
//	@Success	200	{object}	models.Incident
//	@Failure	404	{object}	models.APIProblem
//	@Router		/incidents/records/{id}/close [post]
func (m *Module) handleClose(w http.ResponseWriter, r *http.Request) {
	inc, err := m.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeIncidentError(w, http.StatusNotFound, "incident not found")
		return
	}

	if inc.Status != models.IncidentClosed {
		now := time.Now().UTC()
		inc.Status = models.IncidentClosed
		inc.ClosedAt = &now
		if err := m.store.Update(r.Context(), inc); err != nil {
			m.logger.Error("close incident", zap.Error(err))
			writeIncidentError(w, http.StatusInternalServerError, "failed to close incident")
			return
		}
		m.publish(r, TopicClosed, *inc)
	}
	writeIncidentJSON(w, http.StatusOK, inc)
}

// handleDelete removes an incident record.
//
//	@Summary	Delete incident
//	@Tags		incidents
//	@Security	BearerAuth
//	@Param		id	path	string	true	"Incident ID"
//	@Success	204	"No Content"
//	@Failure	404	{object}	models.APIProblem
//	@Router		/incidents/records/{id} [delete]
func (m *Module) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := m.store.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeIncidentError(w, http.StatusNotFound, "incident not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (m *Module) publish(r *http.Request, topic string, payload any) {
	m.bus.PublishAsync(r.Context(), plugin.Event{
		Topic:     topic,
		Source:    "incidents",
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

func writeIncidentJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeIncidentError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":   "https://civicmesh.io/problems/incident-error",
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
}
