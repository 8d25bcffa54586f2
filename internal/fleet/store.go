package fleet

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/CivicMesh/rtcc/pkg/models"
	"github.com/CivicMesh/rtcc/pkg/plugin"
	"github.com/google/uuid"
)

const unitColumns = "id, kind, callsign, model, status, jurisdiction, battery_percent, latitude, longitude, last_contact, created_at, updated_at"

// Store persists fleet units.
type Store struct {
	db *sql.DB
}

// NewStore runs the fleet migrations and returns a Store.
func NewStore(ctx context.Context, store plugin.Store) (*Store, error) {
	if err := store.Migrate(ctx, "fleet", migrations); err != nil {
		return nil, fmt.Errorf("fleet migrations: %w", err)
	}
	return &Store{db: store.DB()}, nil
}

// ListUnits returns all units, optionally filtered by kind.
func (s *Store) ListUnits(ctx context.Context, kind models.UnitKind) ([]models.Unit, error) {
	query := "SELECT " + unitColumns + " FROM fleet_units"
	args := []any{}
	if kind != "" {
		query += " WHERE kind = ?"
		args = append(args, string(kind))
	}
	query += " ORDER BY callsign"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	defer rows.Close()

	var units []models.Unit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

// GetUnit returns a unit by ID.
func (s *Store) GetUnit(ctx context.Context, id string) (*models.Unit, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+unitColumns+" FROM fleet_units WHERE id = ?", id)
	u, err := scanUnitRow(row)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUnit inserts a new unit, assigning ID and timestamps.
func (s *Store) CreateUnit(ctx context.Context, u *models.Unit) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.LastContact.IsZero() {
		u.LastContact = now
	}
	if u.Status == "" {
		u.Status = models.UnitAvailable
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fleet_units (`+unitColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, string(u.Kind), u.Callsign, u.Model, string(u.Status), u.Jurisdiction,
		u.BatteryPercent, u.Latitude, u.Longitude, u.LastContact, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create unit: %w", err)
	}
	return nil
}

// UpdateUnit updates a unit's mutable fields.
func (s *Store) UpdateUnit(ctx context.Context, u *models.Unit) error {
	u.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE fleet_units
		SET callsign = ?, model = ?, status = ?, jurisdiction = ?,
		    battery_percent = ?, latitude = ?, longitude = ?,
		    last_contact = ?, updated_at = ?
		WHERE id = ?`,
		u.Callsign, u.Model, string(u.Status), u.Jurisdiction,
		u.BatteryPercent, u.Latitude, u.Longitude, u.LastContact, u.UpdatedAt, u.ID)
	if err != nil {
		return fmt.Errorf("update unit: %w", err)
	}
	return requireRow(res)
}

// UpdateUnitStatus transitions a unit's status and refreshes last_contact.
func (s *Store) UpdateUnitStatus(ctx context.Context, id string, status models.UnitStatus) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE fleet_units SET status = ?, last_contact = ?, updated_at = ? WHERE id = ?`,
		string(status), now, now, id)
	if err != nil {
		return fmt.Errorf("update unit status: %w", err)
	}
	return requireRow(res)
}

// DeleteUnit removes a unit.
func (s *Store) DeleteUnit(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM fleet_units WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete unit: %w", err)
	}
	return requireRow(res)
}

// CountUnits returns the number of stored units.
func (s *Store) CountUnits(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM fleet_units").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count units: %w", err)
	}
	return count, nil
}

// SeedDemoUnits inserts the built-in sample fleet. Used on first start so
// demo deployments have something to show on the map.
func (s *Store) SeedDemoUnits(ctx context.Context) error {
	for i := range demoUnits {
		u := demoUnits[i]
		if err := s.CreateUnit(ctx, &u); err != nil {
			return err
		}
	}
	return nil
}

func requireRow(res sql.Result) error {
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

func scanUnit(rows *sql.Rows) (models.Unit, error) {
	return scanUnitFrom(rows)
}

func scanUnitRow(row *sql.Row) (models.Unit, error) {
	return scanUnitFrom(row)
}

func scanUnitFrom(sc rowScanner) (models.Unit, error) {
	var u models.Unit
	var kind, status string
	var model, jurisdiction sql.NullString
	err := sc.Scan(&u.ID, &kind, &u.Callsign, &model, &status, &jurisdiction,
		&u.BatteryPercent, &u.Latitude, &u.Longitude, &u.LastContact, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return models.Unit{}, err
	}
	u.Kind = models.UnitKind(kind)
	u.Status = models.UnitStatus(status)
	u.Model = model.String
	u.Jurisdiction = jurisdiction.String
	return u, nil
}

var migrations = []plugin.Migration{
	{
		Version:     1,
		Description: "create fleet_units table",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS fleet_units (
					id TEXT PRIMARY KEY,
					kind TEXT NOT NULL,
					callsign TEXT NOT NULL,
					model TEXT,
					status TEXT NOT NULL DEFAULT 'available',
					jurisdiction TEXT,
					battery_percent INTEGER NOT NULL DEFAULT 100,
					latitude REAL NOT NULL DEFAULT 0,
					longitude REAL NOT NULL DEFAULT 0,
					last_contact TIMESTAMP NOT NULL,
					created_at TIMESTAMP NOT NULL,
					updated_at TIMESTAMP NOT NULL
				)`)
			return err
		},
	},
	{
		Version:     2,
		Description: "index fleet_units by kind and status",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE INDEX IF NOT EXISTS idx_fleet_units_kind_status
				ON fleet_units(kind, status)`)
			return err
		},
	},
}
