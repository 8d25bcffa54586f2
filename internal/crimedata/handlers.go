package crimedata

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/CivicMesh/rtcc/pkg/plugin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Routes implements plugin.HTTPProvider. Mounted under /api/v1/crimedata/.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/records", Handler: m.handleList},
		{Method: "GET", Path: "/stats", Handler: m.handleStats},
		{Method: "POST", Path: "/upload", Handler: m.handleUpload},
		{Method: "DELETE", Path: "/uploads/{id}", Handler: m.handleDeleteUpload},
	}
}

// UploadResponse reports the outcome of a CSV upload.
type UploadResponse struct {
	UploadID string     `json:"upload_id"`
	Imported int        `json:"imported"`
	Rejected int        `json:"rejected"`
	Errors   []RowError `json:"errors,omitempty"`
}

// handleUpload ingests a CSV file of crime records. Bad rows are reported
// in the response; they never silently disappear.
//
//	@Summary	Upload crime records
//	@Description	Ingest a CSV file (columns: date, category, latitude, longitude, plus optional description, jurisdiction, address). Rejected rows are itemized in the response.
//	@Tags		crimedata
//	@Accept		mpfd
//	@Produce	json
//	@Security	BearerAuth
//	@Param		file	formData	file	true	"CSV file"
//	@Success	200		{object}	UploadResponse
//	@Failure	400		{object}	models.APIProblem
//	@Router		/crimedata/upload [post]
func (m *Module) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, m.maxUploadBytes)
	if err := r.ParseMultipartForm(m.maxUploadBytes); err != nil {
		writeCrimeError(w, http.StatusBadRequest, "invalid multipart upload")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeCrimeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	uploadID := uuid.New().String()
	result, err := ParseCSV(file, uploadID)
	if err != nil {
		writeCrimeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// A file where every row failed is a rejected upload, not an import of
	// zero records. The row errors still go back so the analyst can fix them.
	if len(result.Records) == 0 && len(result.Errors) > 0 {
		writeCrimeJSON(w, http.StatusBadRequest, UploadResponse{
			UploadID: uploadID,
			Rejected: len(result.Errors),
			Errors:   result.Errors,
		})
		return
	}

	if len(result.Records) > 0 {
		if err := m.store.InsertBatch(r.Context(), result.Records); err != nil {
			m.logger.Error("insert crime records", zap.Error(err))
			writeCrimeError(w, http.StatusInternalServerError, "failed to store records")
			return
		}
	}

	m.logger.Info("crime data upload",
		zap.String("upload_id", uploadID),
		zap.Int("imported", len(result.Records)),
		zap.Int("rejected", len(result.Errors)),
	)
	m.bus.PublishAsync(r.Context(), plugin.Event{
		Topic:     TopicUploaded,
		Source:    "crimedata",
		Timestamp: time.Now(),
		Payload: UploadResponse{
			UploadID: uploadID,
			Imported: len(result.Records),
			Rejected: len(result.Errors),
		},
	})

	writeCrimeJSON(w, http.StatusOK, UploadResponse{
		UploadID: uploadID,
		Imported: len(result.Records),
		Rejected: len(result.Errors),
		Errors:   result.Errors,
	})
}

// handleList returns stored records with optional filters.
//
//	@Summary	List crime records
//	@Tags		crimedata
//	@Produce	json
//	@Security	BearerAuth
//	@Param		category		query		string	false	"Filter by category"
//	@Param		jurisdiction	query		string	false	"Filter by jurisdiction code"
//	@Param		since			query		string	false	"RFC 3339 lower bound on occurrence time"
//	@Param		until			query		string	false	"RFC 3339 upper bound on occurrence time"
//	@Param		limit			query		int		false	"Maximum records returned (default 500)"
//	@Success	200				{array}		Record
//	@Failure	400				{object}	models.APIProblem
//	@Router		/crimedata/records [get]
func (m *Module) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := RecordFilter{
		Category:     q.Get("category"),
		Jurisdiction: q.Get("jurisdiction"),
		Limit:        500,
	}
	if raw := q.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			filter.Limit = n
		}
	}
	if raw := q.Get("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeCrimeError(w, http.StatusBadRequest, "since must be RFC 3339")
			return
		}
		filter.Since = t
	}
	if raw := q.Get("until"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeCrimeError(w, http.StatusBadRequest, "until must be RFC 3339")
			return
		}
		filter.Until = t
	}

	records, err := m.store.List(r.Context(), filter)
	if err != nil {
		m.logger.Error("list crime records", zap.Error(err))
		writeCrimeError(w, http.StatusInternalServerError, "failed to list records")
		return
	}
	if records == nil {
		records = []Record{}
	}
	writeCrimeJSON(w, http.StatusOK, records)
}

// handleStats returns counts by category and jurisdiction.
//
//	@Summary	Crime record statistics
//	@Tags		crimedata
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	Stats
//	@Router		/crimedata/stats [get]
func (m *Module) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := m.store.GetStats(r.Context())
	if err != nil {
		m.logger.Error("crime stats", zap.Error(err))
		writeCrimeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	writeCrimeJSON(w, http.StatusOK, stats)
}

// DeleteUploadResponse reports how many records an upload rollback removed.
type DeleteUploadResponse struct {
	Deleted int64 `json:"deleted"`
}

// handleDeleteUpload removes every record from one upload, allowing an
// analyst to roll back a bad import.
//
//	@Summary	Delete upload
//	@Tags		crimedata
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"Upload ID"
//	@Success	200	{object}	DeleteUploadResponse
//	@Failure	404	{object}	models.APIProblem
//	@Router		/crimedata/uploads/{id} [delete]
func (m *Module) handleDeleteUpload(w http.ResponseWriter, r *http.Request) {
	deleted, err := m.store.DeleteUpload(r.Context(), r.PathValue("id"))
	if err != nil {
		m.logger.Error("delete upload", zap.Error(err))
		writeCrimeError(w, http.StatusInternalServerError, "failed to delete upload")
		return
	}
	if deleted == 0 {
		writeCrimeError(w, http.StatusNotFound, "upload not found")
		return
	}
	writeCrimeJSON(w, http.StatusOK, DeleteUploadResponse{Deleted: deleted})
}

func writeCrimeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeCrimeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":   "https://civicmesh.io/problems/crimedata-error",
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
}
