package crimedata

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/CivicMesh/rtcc/pkg/plugin"
	"github.com/google/uuid"
)

// Record is a single crime record row.
type Record struct {
	ID           string    `json:"id"`
	OccurredAt   time.Time `json:"occurred_at"`
	Category     string    `json:"category"`
	Description  string    `json:"description,omitempty"`
	Jurisdiction string    `json:"jurisdiction,omitempty"`
	Address      string    `json:"address,omitempty"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	UploadID     string    `json:"upload_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// CategoryCount is one row of the category breakdown.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Stats summarizes the stored records.
type Stats struct {
	Total          int             `json:"total"`
	ByCategory     []CategoryCount `json:"by_category"`
	ByJurisdiction []CategoryCount `json:"by_jurisdiction"`
}

// RecordFilter narrows record queries.
type RecordFilter struct {
	Category     string
	Jurisdiction string
	Since        time.Time
	Until        time.Time
	Limit        int
}

const recordColumns = "id, occurred_at, category, description, jurisdiction, address, latitude, longitude, upload_id, created_at"

// Store persists crime records.
type Store struct {
	db *sql.DB
	tx txRunner
}

type txRunner interface {
	Tx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// NewStore runs the crimedata migrations and returns a Store.
func NewStore(ctx context.Context, store plugin.Store) (*Store, error) {
	if err := store.Migrate(ctx, "crimedata", migrations); err != nil {
		return nil, fmt.Errorf("crimedata migrations: %w", err)
	}
	return &Store{db: store.DB(), tx: store}, nil
}

// InsertBatch writes a batch of records in one transaction so a failed
// upload leaves no partial data behind.
func (s *Store) InsertBatch(ctx context.Context, records []Record) error {
	return s.tx.Tx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO crime_records (` + recordColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		now := time.Now().UTC()
		for i := range records {
			r := &records[i]
			if r.ID == "" {
				r.ID = uuid.New().String()
			}
			r.CreatedAt = now
			if _, err := stmt.Exec(r.ID, r.OccurredAt, r.Category, r.Description,
				r.Jurisdiction, r.Address, r.Latitude, r.Longitude, r.UploadID, r.CreatedAt); err != nil {
				return fmt.Errorf("insert record %d: %w", i, err)
			}
		}
		return nil
	})
}

// List returns records matching the filter, newest occurrence first.
func (s *Store) List(ctx context.Context, f RecordFilter) ([]Record, error) {
	query := "SELECT " + recordColumns + " FROM crime_records WHERE 1=1"
	var args []any
	if f.Category != "" {
		query += " AND category = ?"
		args = append(args, f.Category)
	}
	if f.Jurisdiction != "" {
		query += " AND jurisdiction = ?"
		args = append(args, f.Jurisdiction)
	}
	if !f.Since.IsZero() {
		query += " AND occurred_at >= ?"
		args = append(args, f.Since)
	}
	if !f.Until.IsZero() {
		query += " AND occurred_at < ?"
		args = append(args, f.Until)
	}
	query += " ORDER BY occurred_at DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var description, jurisdiction, address sql.NullString
		if err := rows.Scan(&r.ID, &r.OccurredAt, &r.Category, &description,
			&jurisdiction, &address, &r.Latitude, &r.Longitude, &r.UploadID, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Description = description.String
		r.Jurisdiction = jurisdiction.String
		r.Address = address.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetStats returns record counts by category and jurisdiction.
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ByCategory:     []CategoryCount{},
		ByJurisdiction: []CategoryCount{},
	}

	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM crime_records").Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}

	byCat, err := s.groupCount(ctx,
		"SELECT category, COUNT(*) FROM crime_records GROUP BY category ORDER BY COUNT(*) DESC")
	if err != nil {
		return nil, err
	}
	stats.ByCategory = byCat

	byJur, err := s.groupCount(ctx,
		"SELECT COALESCE(jurisdiction, ''), COUNT(*) FROM crime_records WHERE jurisdiction != '' GROUP BY jurisdiction ORDER BY COUNT(*) DESC")
	if err != nil {
		return nil, err
	}
	stats.ByJurisdiction = byJur

	return stats, nil
}

// DeleteUpload removes all records from a single upload.
func (s *Store) DeleteUpload(ctx context.Context, uploadID string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM crime_records WHERE upload_id = ?", uploadID)
	if err != nil {
		return 0, fmt.Errorf("delete upload: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) groupCount(ctx context.Context, query string) ([]CategoryCount, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("group count: %w", err)
	}
	defer rows.Close()

	out := []CategoryCount{}
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

var migrations = []plugin.Migration{
	{
		Version:     1,
		Description: "create crime_records table",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS crime_records (
					id TEXT PRIMARY KEY,
					occurred_at TIMESTAMP NOT NULL,
					category TEXT NOT NULL,
					description TEXT,
					jurisdiction TEXT,
					address TEXT,
					latitude REAL NOT NULL DEFAULT 0,
					longitude REAL NOT NULL DEFAULT 0,
					upload_id TEXT NOT NULL,
					created_at TIMESTAMP NOT NULL
				)`)
			return err
		},
	},
	{
		Version:     2,
		Description: "index crime_records by category and occurrence time",
		Up: func(tx *sql.Tx) error {
			if _, err := tx.Exec(`
				CREATE INDEX IF NOT EXISTS idx_crime_records_category
				ON crime_records(category)`); err != nil {
				return err
			}
			_, err := tx.Exec(`
				CREATE INDEX IF NOT EXISTS idx_crime_records_occurred
				ON crime_records(occurred_at)`)
			return err
		},
	},
}
