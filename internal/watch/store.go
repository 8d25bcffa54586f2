package watch

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/CivicMesh/rtcc/pkg/plugin"
	"github.com/google/uuid"
)

// CheckMethod selects how a camera is probed.
type CheckMethod string

const (
	// CheckICMP pings the camera's address.
	CheckICMP CheckMethod = "icmp"
	// CheckHTTP requests the camera's endpoint URL and expects a 2xx/3xx.
	CheckHTTP CheckMethod = "http"
)

// CameraState is the last observed health of a camera.
type CameraState string

const (
	StateUnknown CameraState = "unknown"
	StateUp      CameraState = "up"
	StateDown    CameraState = "down"
)

// Camera is a monitored camera or feed endpoint.
type Camera struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	EntityType   string      `json:"entity_type"`   // "lpr", "cctv", ...
	Jurisdiction string      `json:"jurisdiction"`  // "RBPD", "FDOT", ...
	Address      string      `json:"address"`       // host/IP for icmp, URL for http
	Method       CheckMethod `json:"method"`
	Latitude     float64     `json:"latitude"`
	Longitude    float64     `json:"longitude"`
	Enabled      bool        `json:"enabled"`
	State        CameraState `json:"state"`
	LastChecked  *time.Time  `json:"last_checked,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// CheckResult is one probe outcome.
type CheckResult struct {
	ID        string        `json:"id"`
	CameraID  string        `json:"camera_id"`
	OK        bool          `json:"ok"`
	Latency   time.Duration `json:"latency_ns"`
	Detail    string        `json:"detail,omitempty"`
	CheckedAt time.Time     `json:"checked_at"`
}

const cameraColumns = "id, name, entity_type, jurisdiction, address, method, latitude, longitude, enabled, state, last_checked, created_at, updated_at"

// Store persists cameras and their check history.
type Store struct {
	db *sql.DB
}

// NewStore runs the watch migrations and returns a Store.
func NewStore(ctx context.Context, store plugin.Store) (*Store, error) {
	if err := store.Migrate(ctx, "watch", migrations); err != nil {
		return nil, fmt.Errorf("watch migrations: %w", err)
	}
	return &Store{db: store.DB()}, nil
}

// ListCameras returns all cameras. enabledOnly restricts to monitored ones.
func (s *Store) ListCameras(ctx context.Context, enabledOnly bool) ([]Camera, error) {
	query := "SELECT " + cameraColumns + " FROM watch_cameras"
	if enabledOnly {
		query += " WHERE enabled = 1"
	}
	query += " ORDER BY name"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list cameras: %w", err)
	}
	defer rows.Close()

	var cameras []Camera
	for rows.Next() {
		c, err := scanCamera(rows)
		if err != nil {
			return nil, err
		}
		cameras = append(cameras, c)
	}
	return cameras, rows.Err()
}

// GetCamera returns a camera by ID.
func (s *Store) GetCamera(ctx context.Context, id string) (*Camera, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+cameraColumns+" FROM watch_cameras WHERE id = ?", id)
	c, err := scanCameraRow(row)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCamera inserts a camera.
func (s *Store) CreateCamera(ctx context.Context, c *Camera) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.State == "" {
		c.State = StateUnknown
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO watch_cameras (`+cameraColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.EntityType, c.Jurisdiction, c.Address, string(c.Method),
		c.Latitude, c.Longitude, c.Enabled, string(c.State), c.LastChecked,
		c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create camera: %w", err)
	}
	return nil
}

// UpdateCamera updates a camera's configuration.
func (s *Store) UpdateCamera(ctx context.Context, c *Camera) error {
	c.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE watch_cameras
		SET name = ?, entity_type = ?, jurisdiction = ?, address = ?, method = ?,
		    latitude = ?, longitude = ?, enabled = ?, updated_at = ?
		WHERE id = ?`,
		c.Name, c.EntityType, c.Jurisdiction, c.Address, string(c.Method),
		c.Latitude, c.Longitude, c.Enabled, c.UpdatedAt, c.ID)
	if err != nil {
		return fmt.Errorf("update camera: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetCameraState records the observed state after a check.
func (s *Store) SetCameraState(ctx context.Context, id string, state CameraState, checkedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE watch_cameras SET state = ?, last_checked = ?, updated_at = ? WHERE id = ?`,
		string(state), checkedAt, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set camera state: %w", err)
	}
	return nil
}

// DeleteCamera removes a camera and its check history.
func (s *Store) DeleteCamera(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM watch_cameras WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete camera: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	_, err = s.db.ExecContext(ctx, "DELETE FROM watch_results WHERE camera_id = ?", id)
	return err
}

// SaveResult appends a check result.
func (s *Store) SaveResult(ctx context.Context, r *CheckResult) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO watch_results (id, camera_id, ok, latency_ns, detail, checked_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.CameraID, r.OK, int64(r.Latency), r.Detail, r.CheckedAt)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

// ListResults returns the most recent check results for a camera.
func (s *Store) ListResults(ctx context.Context, cameraID string, limit int) ([]CheckResult, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, camera_id, ok, latency_ns, detail, checked_at
		FROM watch_results WHERE camera_id = ?
		ORDER BY checked_at DESC LIMIT ?`, cameraID, limit)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var results []CheckResult
	for rows.Next() {
		var r CheckResult
		var latency int64
		var detail sql.NullString
		if err := rows.Scan(&r.ID, &r.CameraID, &r.OK, &latency, &detail, &r.CheckedAt); err != nil {
			return nil, err
		}
		r.Latency = time.Duration(latency)
		r.Detail = detail.String
		results = append(results, r)
	}
	return results, rows.Err()
}

// PruneResults deletes results older than the cutoff.
func (s *Store) PruneResults(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM watch_results WHERE checked_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune results: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCamera(rows *sql.Rows) (Camera, error)  { return scanCameraFrom(rows) }
func scanCameraRow(row *sql.Row) (Camera, error) { return scanCameraFrom(row) }

func scanCameraFrom(sc rowScanner) (Camera, error) {
	var c Camera
	var method, state string
	var entityType, jurisdiction sql.NullString
	var lastChecked sql.NullTime
	err := sc.Scan(&c.ID, &c.Name, &entityType, &jurisdiction, &c.Address, &method,
		&c.Latitude, &c.Longitude, &c.Enabled, &state, &lastChecked,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Camera{}, err
	}
	c.Method = CheckMethod(method)
	c.State = CameraState(state)
	c.EntityType = entityType.String
	c.Jurisdiction = jurisdiction.String
	if lastChecked.Valid {
		t := lastChecked.Time
		c.LastChecked = &t
	}
	return c, nil
}

var migrations = []plugin.Migration{
	{
		Version:     1,
		Description: "create watch_cameras table",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS watch_cameras (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					entity_type TEXT,
					jurisdiction TEXT,
					address TEXT NOT NULL,
					method TEXT NOT NULL DEFAULT 'icmp',
					latitude REAL NOT NULL DEFAULT 0,
					longitude REAL NOT NULL DEFAULT 0,
					enabled INTEGER NOT NULL DEFAULT 1,
					state TEXT NOT NULL DEFAULT 'unknown',
					last_checked TIMESTAMP,
					created_at TIMESTAMP NOT NULL,
					updated_at TIMESTAMP NOT NULL
				)`)
			return err
		},
	},
	{
		Version:     2,
		Description: "create watch_results table",
		Up: func(tx *sql.Tx) error {
			if _, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS watch_results (
					id TEXT PRIMARY KEY,
					camera_id TEXT NOT NULL,
					ok INTEGER NOT NULL,
					latency_ns INTEGER NOT NULL DEFAULT 0,
					detail TEXT,
					checked_at TIMESTAMP NOT NULL
				)`); err != nil {
				return err
			}
			_, err := tx.Exec(`
				CREATE INDEX IF NOT EXISTS idx_watch_results_camera_time
				ON watch_results(camera_id, checked_at)`)
			return err
		},
	},
}
