package incidents

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/CivicMesh/rtcc/pkg/models"
	"github.com/CivicMesh/rtcc/pkg/plugin"
	"github.com/google/uuid"
)

const incidentColumns = "id, title, description, severity, status, entity_type, jurisdiction, latitude, longitude, assigned_to, created_at, updated_at, closed_at"

// ListFilter narrows incident queries. Zero values mean no constraint.
type ListFilter struct {
	Status       models.IncidentStatus
	Severity     models.IncidentSeverity
	Jurisdiction string
	Limit        int
	Offset       int
}

// Store persists incidents.
type Store struct {
	db *sql.DB
}

// NewStore runs the incidents migrations and returns a Store.
func NewStore(ctx context.Context, store plugin.Store) (*Store, error) {
	if err := store.Migrate(ctx, "incidents", migrations); err != nil {
		return nil, fmt.Errorf("incidents migrations: %w", err)
	}
	return &Store{db: store.DB()}, nil
}

// List returns incidents matching the filter, newest first.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.Incident, error) {
	query := "SELECT " + incidentColumns + " FROM incidents WHERE 1=1"
	var args []any
	if f.Status != "" {
		query += " AND status = ?"
		args = append(args, string(f.Status))
	}
	if f.Severity != "" {
		query += " AND severity = ?"
		args = append(args, string(f.Severity))
	}
	if f.Jurisdiction != "" {
		query += " AND jurisdiction = ?"
		args = append(args, f.Jurisdiction)
	}
	query += " ORDER BY created_at DESC"
	if f.Limit > 0 || f.Offset > 0 {
		// SQLite requires LIMIT before OFFSET; -1 means unbounded.
		limit := f.Limit
		if limit <= 0 {
			limit = -1
		}
		query += " LIMIT ?"
		args = append(args, limit)
		if f.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, f.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	defer rows.Close()

	var out []models.Incident
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inc)
	}
	return out, rows.Err()
}

// Get returns an incident by ID.
func (s *Store) Get(ctx context.Context, id string) (*models.Incident, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+incidentColumns+" FROM incidents WHERE id = ?", id)
	inc, err := scanIncidentRow(row)
	if err != nil {
		return nil, err
	}
	return &inc, nil
}

// Create inserts a new incident.
func (s *Store) Create(ctx context.Context, inc *models.Incident) error {
	if inc.ID == "" {
		inc.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	inc.CreatedAt = now
	inc.UpdatedAt = now
	if inc.Status == "" {
		inc.Status = models.IncidentOpen
	}
	if inc.Severity == "" {
		inc.Severity = models.SeverityLow
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO incidents (`+incidentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inc.ID, inc.Title, inc.Description, string(inc.Severity), string(inc.Status),
		inc.EntityType, inc.Jurisdiction, inc.Latitude, inc.Longitude,
		inc.AssignedTo, inc.CreatedAt, inc.UpdatedAt, inc.ClosedAt)
	if err != nil {
		return fmt.Errorf("create incident: %w", err)
	}
	return nil
}

// Update replaces an incident's mutable fields.
func (s *Store) Update(ctx context.Context, inc *models.Incident) error {
	inc.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE incidents
		SET title = ?, description = ?, severity = ?, status = ?,
		    entity_type = ?, jurisdiction = ?, latitude = ?, longitude = ?,
		    assigned_to = ?, updated_at = ?, closed_at = ?
		WHERE id = ?`,
		inc.Title, inc.Description, string(inc.Severity), string(inc.Status),
		inc.EntityType, inc.Jurisdiction, inc.Latitude, inc.Longitude,
		inc.AssignedTo, inc.UpdatedAt, inc.ClosedAt, inc.ID)
	if err != nil {
		return fmt.Errorf("update incident: %w", err)
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

// Delete removes an incident.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM incidents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete incident: %w", err)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIncident(rows *sql.Rows) (models.Incident, error)  { return scanIncidentFrom(rows) }
func scanIncidentRow(row *sql.Row) (models.Incident, error) { return scanIncidentFrom(row) }

func scanIncidentFrom(sc rowScanner) (models.Incident, error) {
	var inc models.Incident
	var severity, status string
	var description, entityType, jurisdiction, assignedTo sql.NullString
	var closedAt sql.NullTime
	err := sc.Scan(&inc.ID, &inc.Title, &description, &severity, &status,
		&entityType, &jurisdiction, &inc.Latitude, &inc.Longitude,
		&assignedTo, &inc.CreatedAt, &inc.UpdatedAt, &closedAt)
	if err != nil {
		return models.Incident{}, err
	}
	inc.Severity = models.IncidentSeverity(severity)
	inc.Status = models.IncidentStatus(status)
	inc.Description = description.String
	inc.EntityType = entityType.String
	inc.Jurisdiction = jurisdiction.String
	inc.AssignedTo = assignedTo.String
	if closedAt.Valid {
		t := closedAt.Time
		inc.ClosedAt = &t
	}
	return inc, nil
}

var migrations = []plugin.Migration{
	{
		Version:     1,
		Description: "create incidents table",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS incidents (
					id TEXT PRIMARY KEY,
					title TEXT NOT NULL,
					description TEXT,
					severity TEXT NOT NULL DEFAULT 'low',
					status TEXT NOT NULL DEFAULT 'open',
					entity_type TEXT,
					jurisdiction TEXT,
					latitude REAL NOT NULL DEFAULT 0,
					longitude REAL NOT NULL DEFAULT 0,
					assigned_to TEXT,
					created_at TIMESTAMP NOT NULL,
					updated_at TIMESTAMP NOT NULL,
					closed_at TIMESTAMP
				)`)
			return err
		},
	},
	{
		Version:     2,
		Description: "index incidents by status and severity",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE INDEX IF NOT EXISTS idx_incidents_status_severity
				ON incidents(status, severity)`)
			return err
		},
	},
}
