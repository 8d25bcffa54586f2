package fleet

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/CivicMesh/rtcc/internal/backend"
	"github.com/CivicMesh/rtcc/pkg/models"
	"github.com/CivicMesh/rtcc/pkg/plugin"
	"go.uber.org/zap"
)

// Routes implements plugin.HTTPProvider. Mounted under /api/v1/fleet/.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/units", Handler: m.handleListUnits},
		{Method: "GET", Path: "/drones", Handler: m.listByKind(models.UnitDrone)},
		{Method: "GET", Path: "/robots", Handler: m.listByKind(models.UnitRobot)},
		{Method: "GET", Path: "/units/{id}", Handler: m.handleGetUnit},
		{Method: "POST", Path: "/units", Handler: m.handleCreateUnit},
		{Method: "PUT", Path: "/units/{id}", Handler: m.handleUpdateUnit},
		{Method: "PATCH", Path: "/units/{id}/status", Handler: m.handleUpdateStatus},
		{Method: "DELETE", Path: "/units/{id}", Handler: m.handleDeleteUnit},
	}
}

// handleListUnits returns the fleet. When the upstream backend is reachable
// its telemetry is served as the live source; otherwise local units are
// served and labeled demo (or the payload is marked unavailable when demo
// fallback is off).
//
//	@Summary	List units
//	@Tags		fleet
//	@Produce	json
//	@Security	BearerAuth
//	@Param		kind	query		string	false	"Filter by unit kind (drone|robot)"
//	@Success	200		{object}	backend.Envelope[[]models.Unit]
//	@Router		/fleet/units [get]
func (m *Module) handleListUnits(w http.ResponseWriter, r *http.Request) {
	kind := models.UnitKind(r.URL.Query().Get("kind"))
	env := m.listUnits(r.Context(), kind)
	writeFleetJSON(w, http.StatusOK, env)
}

// listByKind serves the per-category pages without requiring the client to
// pass a kind filter.
//
//	@Summary	List drones
//	@Tags		fleet
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	backend.Envelope[[]models.Unit]
//	@Router		/fleet/drones [get]
func (m *Module) listByKind(kind models.UnitKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		env := m.listUnits(r.Context(), kind)
		writeFleetJSON(w, http.StatusOK, env)
	}
}

func (m *Module) listUnits(ctx context.Context, kind models.UnitKind) backend.Envelope[[]models.Unit] {
	if m.client.Configured() {
		var resp struct {
			Units []models.Unit `json:"units"`
		}
		err := m.client.GetJSON(ctx, "/api/v1/units", &resp)
		if err == nil {
			units := resp.Units
			if kind != "" {
				filtered := units[:0]
				for _, u := range units {
					if u.Kind == kind {
						filtered = append(filtered, u)
					}
				}
				units = filtered
			}
			if units == nil {
				units = []models.Unit{}
			}
			return backend.Live(units)
		}
		m.logger.Warn("backend unit fetch failed", zap.Error(err))
		if !m.demoFallback {
			return backend.Unavailable[[]models.Unit](err)
		}
		units, lerr := m.store.ListUnits(ctx, kind)
		if lerr != nil {
			return backend.Unavailable[[]models.Unit](lerr)
		}
		if units == nil {
			units = []models.Unit{}
		}
		return backend.Demo(units, err)
	}

	// No backend configured: the local store is authoritative.
	units, err := m.store.ListUnits(ctx, kind)
	if err != nil {
		return backend.Unavailable[[]models.Unit](err)
	}
	if units == nil {
		units = []models.Unit{}
	}
	return backend.Live(units)
}

// handleGetUnit returns one locally stored unit.
//
//	@Summary	Get unit
//	@Tags		fleet
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"Unit ID"
//	@Success	200	{object}	models.Unit
//	@Failure	404	{object}	models.APIProblem
//	@Router		/fleet/units/{id} [get]
func (m *Module) handleGetUnit(w http.ResponseWriter, r *http.Request) {
	unit, err := m.store.GetUnit(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFleetError(w, http.StatusNotFound, "unit not found")
		return
	}
	writeFleetJSON(w, http.StatusOK, unit)
}

// handleCreateUnit registers a unit.
//
//	@Summary	Register unit
//	@Tags		fleet
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Success	201	{object}	models.Unit
//	@Failure	400	{object}	models.APIProblem
//	@Router		/fleet/units [post]
func (m *Module) handleCreateUnit(w http.ResponseWriter, r *http.Request) {
	var unit models.Unit
	if err := json.NewDecoder(r.Body).Decode(&unit); err != nil {
		writeFleetError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if unit.Callsign == "" {
		writeFleetError(w, http.StatusBadRequest, "callsign is required")
		return
	}
	if unit.Kind != models.UnitDrone && unit.Kind != models.UnitRobot {
		writeFleetError(w, http.StatusBadRequest, "kind must be drone or robot")
		return
	}

	if err := m.store.CreateUnit(r.Context(), &unit); err != nil {
		m.logger.Error("create unit", zap.Error(err))
		writeFleetError(w, http.StatusInternalServerError, "failed to create unit")
		return
	}

	m.bus.PublishAsync(r.Context(), plugin.Event{
		Topic:     TopicUnitCreated,
		Source:    "fleet",
		Timestamp: time.Now(),
		Payload:   unit,
	})
	writeFleetJSON(w, http.StatusCreated, unit)
}

// handleUpdateUnit replaces a unit's mutable fields.
//
//	@Summary	Update unit
//	@Tags		fleet
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"Unit ID"
//	@Success	200	{object}	models.Unit
//	@Failure	404	{object}	models.APIProblem
//	@Router		/fleet/units/{id} [put]
func (m *Module) handleUpdateUnit(w http.ResponseWriter, r *http.Request) {
	existing, err := m.store.GetUnit(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFleetError(w, http.StatusNotFound, "unit not found")
		return
	}

	var unit models.Unit
	if err := json.NewDecoder(r.Body).Decode(&unit); err != nil {
		writeFleetError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	unit.ID = existing.ID
	unit.Kind = existing.Kind // kind is immutable after registration
	if unit.Callsign == "" {
		unit.Callsign = existing.Callsign
	}
	if unit.Status == "" {
		unit.Status = existing.Status
	}
	if unit.LastContact.IsZero() {
		unit.LastContact = existing.LastContact
	}

	if err := m.store.UpdateUnit(r.Context(), &unit); err != nil {
		m.logger.Error("update unit", zap.Error(err))
		writeFleetError(w, http.StatusInternalServerError, "failed to update unit")
		return
	}
	writeFleetJSON(w, http.StatusOK, unit)
}

// handleUpdateStatus transitions a unit's status and publishes the change.
//
//	@Summary	Update unit status
//	@Tags		fleet
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"Unit ID"
//	@Success	200	{object}	models.Unit
//	@Failure	400	{object}	models.APIProblem
//	@Failure	404	{object}	models.APIProblem
//	@Router		/fleet/units/{id}/status [patch]
func (m *Module) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status models.UnitStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFleetError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	switch req.Status {
	case models.UnitAvailable, models.UnitDeployed, models.UnitCharging,
		models.UnitMaintained, models.UnitOffline:
	default:
		writeFleetError(w, http.StatusBadRequest, "invalid status")
		return
	}

	unit, err := m.store.GetUnit(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFleetError(w, http.StatusNotFound, "unit not found")
		return
	}
	prev := unit.Status

	if err := m.store.UpdateUnitStatus(r.Context(), unit.ID, req.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeFleetError(w, http.StatusNotFound, "unit not found")
			return
		}
		m.logger.Error("update unit status", zap.Error(err))
		writeFleetError(w, http.StatusInternalServerError, "failed to update status")
		return
	}
	unit.Status = req.Status

	change := StatusChange{
		UnitID:   unit.ID,
		Callsign: unit.Callsign,
		From:     string(prev),
		To:       string(req.Status),
	}
	m.bus.PublishAsync(r.Context(), plugin.Event{
		Topic:     TopicUnitStatus,
		Source:    "fleet",
		Timestamp: time.Now(),
		Payload:   change,
	})

	// Relay the transition upstream so dispatch sees the same state. The
	// local update already succeeded, so a relay failure is only logged.
	if m.client.Configured() {
		if err := m.client.PostJSON(r.Context(), "/api/v1/units/"+unit.ID+"/status", change, nil); err != nil {
			m.logger.Warn("relay unit status", zap.String("unit", unit.ID), zap.Error(err))
		}
	}
	writeFleetJSON(w, http.StatusOK, unit)
}

// handleDeleteUnit removes a unit.
//
//	@Summary	Delete unit
//	@Tags		fleet
//	@Security	BearerAuth
//	@Param		id	path	string	true	"Unit ID"
//	@Success	204	"No Content"
//	@Failure	404	{object}	models.APIProblem
//	@Router		/fleet/units/{id} [delete]
func (m *Module) handleDeleteUnit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := m.store.DeleteUnit(r.Context(), id); err != nil {
		writeFleetError(w, http.StatusNotFound, "unit not found")
		return
	}

	m.bus.PublishAsync(r.Context(), plugin.Event{
		Topic:     TopicUnitDeleted,
		Source:    "fleet",
		Timestamp: time.Now(),
		Payload:   id,
	})
	w.WriteHeader(http.StatusNoContent)
}

func writeFleetJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeFleetError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":   "https://civicmesh.io/problems/fleet-error",
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
}
