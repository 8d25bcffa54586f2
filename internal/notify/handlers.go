package notify

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/CivicMesh/rtcc/pkg/plugin"
)

// Routes implements plugin.HTTPProvider. Mounted under /api/v1/notify/.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/webhooks", Handler: m.handleListWebhooks},
		{Method: "GET", Path: "/webhooks/{id}", Handler: m.handleGetWebhook},
		{Method: "POST", Path: "/webhooks", Handler: m.handleCreateWebhook},
		{Method: "PUT", Path: "/webhooks/{id}", Handler: m.handleUpdateWebhook},
		{Method: "DELETE", Path: "/webhooks/{id}", Handler: m.handleDeleteWebhook},
	}
}

type webhookRequest struct {
	Name    string   `json:"name"`
	URL     string   `json:"url"`
	Secret  string   `json:"secret"`
	Topics  []string `json:"topics"`
	Enabled *bool    `json:"enabled"`
}

func (req *webhookRequest) validate() string {
	if req.Name == "" {
		return "name is required"
	}
	u, err := url.Parse(req.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "url must be a valid http or https URL"
	}
	return ""
}

// handleListWebhooks returns all registered webhooks.
//
//	@Summary	List webhooks
//	@Tags		notify
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{array}	notify.Webhook
//	@Router		/notify/webhooks [get]
func (m *Module) handleListWebhooks(w http.ResponseWriter, r *http.Request) {
	hooks, err := m.store.List(r.Context())
	if err != nil {
		writeNotifyError(w, http.StatusInternalServerError, "failed to list webhooks")
		return
	}
	if hooks == nil {
		hooks = []Webhook{}
	}
	writeNotifyJSON(w, http.StatusOK, hooks)
}

// handleGetWebhook returns a single webhook.
//
//	@Summary	Get webhook
//	@Tags		notify
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"Webhook ID"
//	@Success	200	{object}	notify.Webhook
//	@Failure	404	{object}	models.APIProblem
//	@Router		/notify/webhooks/{id} [get]
func (m *Module) handleGetWebhook(w http.ResponseWriter, r *http.Request) {
	wh, err := m.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeNotifyError(w, http.StatusNotFound, "webhook not found")
		return
	}
	writeNotifyJSON(w, http.StatusOK, wh)
}

// handleCreateWebhook registers a delivery endpoint.
//
//	@Summary	Register webhook
//	@Tags		notify
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Success	201	{object}	notify.Webhook
//	@Failure	400	{object}	models.APIProblem
//	@Router		/notify/webhooks [post]
func (m *Module) handleCreateWebhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeNotifyError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeNotifyError(w, http.StatusBadRequest, msg)
		return
	}

	wh := Webhook{
		Name:    req.Name,
		URL:     req.URL,
		Secret:  req.Secret,
		Topics:  req.Topics,
		Enabled: true,
	}
	if req.Enabled != nil {
		wh.Enabled = *req.Enabled
	}
	if wh.Topics == nil {
		wh.Topics = []string{}
	}
	if err := m.store.Create(r.Context(), &wh); err != nil {
		writeNotifyError(w, http.StatusInternalServerError, "failed to create webhook")
		return
	}
	writeNotifyJSON(w, http.StatusCreated, wh)
}

// handleUpdateWebhook replaces a webhook's configuration. An empty
// secret in the request keeps the stored secret.
//
//	@Summary	Update webhook
//	@Tags		notify
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"Webhook ID"
//	@Success	200	{object}	notify.Webhook
//	@Failure	400	{object}	models.APIProblem
//	@Failure	404	{object}	models.APIProblem
//	@Router		/notify/webhooks/{id} [put]
func (m *Module) handleUpdateWebhook(w http.ResponseWriter, r *http.Request) {
	existing, err := m.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeNotifyError(w, http.StatusNotFound, "webhook not found")
		return
	}

	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeNotifyError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeNotifyError(w, http.StatusBadRequest, msg)
		return
	}

	existing.Name = req.Name
	existing.URL = req.URL
	if req.Secret != "" {
		existing.Secret = req.Secret
	}
	existing.Topics = req.Topics
	if existing.Topics == nil {
		existing.Topics = []string{}
	}
	if req.Enabled != nil {
		existing.Enabled = *req.Enabled
	}

	if err := m.store.Update(r.Context(), existing); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeNotifyError(w, http.StatusNotFound, "webhook not found")
			return
		}
		writeNotifyError(w, http.StatusInternalServerError, "failed to update webhook")
		return
	}
	writeNotifyJSON(w, http.StatusOK, existing)
}

// handleDeleteWebhook removes a webhook.
//
//	@Summary	Delete webhook
//	@Tags		notify
//	@Security	BearerAuth
//	@Param		id	path	string	true	"Webhook ID"
//	@Success	204	"No Content"
//	@Failure	404	{object}	models.APIProblem
//	@Router		/notify/webhooks/{id} [delete]
func (m *Module) handleDeleteWebhook(w http.ResponseWriter, r *http.Request) {
	if err := m.store.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeNotifyError(w, http.StatusNotFound, "webhook not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeNotifyJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeNotifyError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":   "https://civicmesh.io/problems/notify-error",
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
}
