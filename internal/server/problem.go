package server

import (
	"encoding/json"
	"net/http"
)

const problemTypeBase = "https://civicmesh.io/problems/"

// Problem is an RFC 7807 Problem Details document. Module handlers write
// their own problem documents with module-specific types; these helpers cover
// the responses the server itself produces.
type Problem struct {
	Type     string `json:"type" example:"https://civicmesh.io/problems/bad-request"`
	Title    string `json:"title" example:"Bad Request"`
	Status   int    `json:"status" example:"400"`
	Detail   string `json:"detail,omitempty" example:"invalid incident severity"`
	Instance string `json:"instance,omitempty" example:"/api/v1/incidents"`
}

// WriteProblem writes p with the application/problem+json content type.
func WriteProblem(w http.ResponseWriter, p Problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

func writeProblem(w http.ResponseWriter, status int, slug, title, detail, instance string) {
	WriteProblem(w, Problem{
		Type:     problemTypeBase + slug,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: instance,
	})
}

// NotFound writes a 404 problem response.
func NotFound(w http.ResponseWriter, detail, instance string) {
	writeProblem(w, http.StatusNotFound, "not-found", "Not Found", detail, instance)
}

// BadRequest writes a 400 problem response.
func BadRequest(w http.ResponseWriter, detail, instance string) {
	writeProblem(w, http.StatusBadRequest, "bad-request", "Bad Request", detail, instance)
}

// Forbidden writes a 403 problem response.
func Forbidden(w http.ResponseWriter, detail, instance string) {
	writeProblem(w, http.StatusForbidden, "forbidden", "Forbidden", detail, instance)
}

// InternalError writes a 500 problem response.
func InternalError(w http.ResponseWriter, detail, instance string) {
	writeProblem(w, http.StatusInternalServerError, "internal-error", "Internal Server Error", detail, instance)
}

// RateLimited writes a 429 problem response.
func RateLimited(w http.ResponseWriter, detail, instance string) {
	writeProblem(w, http.StatusTooManyRequests, "rate-limited", "Too Many Requests", detail, instance)
}
