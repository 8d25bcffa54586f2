package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/CivicMesh/rtcc/pkg/plugin"
)

func tempDB(t *testing.T) *SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := New(path)
	if err != nil {
		t.Fatalf("New(%q): %v", path, err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNew_creates_database(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.db")
	s, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestNew_invalid_path(t *testing.T) {
	_, err := New("/nonexistent/path/to/db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestTx_commit(t *testing.T) {
	s := tempDB(t)
	ctx := context.Background()

	if _, err := s.DB().ExecContext(ctx, "CREATE TABLE test (id INTEGER PRIMARY KEY, name TEXT)"); err != nil {
		t.Fatalf("create table: %v", err)
	}

	err := s.Tx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT INTO test (id, name) VALUES (1, 'alice')")
		return err
	})
	if err != nil {
		t.Fatalf("Tx commit: %v", err)
	}

	var name string
	if err := s.DB().QueryRowContext(ctx, "SELECT name FROM test WHERE id = 1").Scan(&name); err != nil {
		t.Fatalf("query after commit: %v", err)
	}
	if name != "alice" {
		t.Errorf("got name %q, want %q", name, "alice")
	}
}

func TestTx_rollback(t *testing.T) {
	s := tempDB(t)
	ctx := context.Background()

	if _, err := s.DB().ExecContext(ctx, "CREATE TABLE test (id INTEGER PRIMARY KEY, name TEXT)"); err != nil {
		t.Fatalf("create table: %v", err)
	}

	err := s.Tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "INSERT INTO test (id, name) VALUES (1, 'bob')"); err != nil {
			return err
		}
		return sql.ErrNoRows // force rollback
	})
	if err != sql.ErrNoRows {
		t.Fatalf("expected ErrNoRows, got %v", err)
	}

	var count int
	if err := s.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM test").Scan(&count); err != nil {
		t.Fatalf("count after rollback: %v", err)
	}
	if count != 0 {
		t.Errorf("got count %d after rollback, want 0", count)
	}
}

func TestMigrate_applies_in_order(t *testing.T) {
	s := tempDB(t)
	ctx := context.Background()

	migrations := []plugin.Migration{
		{
			Version:     1,
			Description: "create incidents table",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec("CREATE TABLE incidents_records (id INTEGER PRIMARY KEY, title TEXT)")
				return err
			},
		},
		{
			Version:     2,
			Description: "add priority column",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec("ALTER TABLE incidents_records ADD COLUMN priority TEXT")
				return err
			},
		},
	}

	if err := s.Migrate(ctx, "incidents", migrations); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	if _, err := s.DB().ExecContext(ctx,
		"INSERT INTO incidents_records (id, title, priority) VALUES (1, 'shots fired', 'high')"); err != nil {
		t.Fatalf("insert after migration: %v", err)
	}

	var count int
	if err := s.DB().QueryRowContext(ctx,
		"SELECT COUNT(*) FROM _migrations WHERE module_name = 'incidents'").Scan(&count); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if count != 2 {
		t.Errorf("got %d migration records, want 2", count)
	}
}

func TestMigrate_skips_applied(t *testing.T) {
	s := tempDB(t)
	ctx := context.Background()

	callCount := 0
	migrations := []plugin.Migration{
		{
			Version:     1,
			Description: "create table",
			Up: func(tx *sql.Tx) error {
				callCount++
				_, err := tx.Exec("CREATE TABLE test_skip (id INTEGER)")
				return err
			},
		},
	}

	if err := s.Migrate(ctx, "test", migrations); err != nil {
		t.Fatalf("first Migrate: %v", err)
	}
	if err := s.Migrate(ctx, "test", migrations); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	if callCount != 1 {
		t.Errorf("migration ran again: callCount=%d, want 1", callCount)
	}
}

func TestMigrate_failure_rolls_back(t *testing.T) {
	s := tempDB(t)
	ctx := context.Background()

	migrations := []plugin.Migration{
		{Version: 1, Description: "will fail", Up: func(tx *sql.Tx) error {
			_, err := tx.Exec("INVALID SQL STATEMENT")
			return err
		}},
	}

	if err := s.Migrate(ctx, "bad", migrations); err == nil {
		t.Fatal("expected error from bad migration, got nil")
	}

	var count int
	if err := s.DB().QueryRowContext(ctx,
		"SELECT COUNT(*) FROM _migrations WHERE module_name = 'bad'").Scan(&count); err != nil {
		t.Fatalf("count after failed migration: %v", err)
	}
	if count != 0 {
		t.Errorf("migration was recorded despite failure: count=%d", count)
	}
}

func TestMigrate_modules_isolated(t *testing.T) {
	s := tempDB(t)
	ctx := context.Background()

	watchMigrations := []plugin.Migration{
		{Version: 1, Description: "watch table", Up: func(tx *sql.Tx) error {
			_, err := tx.Exec("CREATE TABLE watch_data (id INTEGER)")
			return err
		}},
	}
	fleetMigrations := []plugin.Migration{
		{Version: 1, Description: "fleet table", Up: func(tx *sql.Tx) error {
			_, err := tx.Exec("CREATE TABLE fleet_data (id INTEGER)")
			return err
		}},
	}

	if err := s.Migrate(ctx, "watch", watchMigrations); err != nil {
		t.Fatalf("watch Migrate: %v", err)
	}
	if err := s.Migrate(ctx, "fleet", fleetMigrations); err != nil {
		t.Fatalf("fleet Migrate: %v", err)
	}

	for _, table := range []string{"watch_data", "fleet_data"} {
		var name string
		err := s.DB().QueryRowContext(ctx,
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestCheckVersion_first_run_records(t *testing.T) {
	s := tempDB(t)
	ctx := context.Background()

	if err := s.CheckVersion(ctx, "0.1.0"); err != nil {
		t.Fatalf("CheckVersion: %v", err)
	}

	var stored string
	if err := s.DB().QueryRowContext(ctx,
		"SELECT app_version FROM _schema_meta WHERE id = 1").Scan(&stored); err != nil {
		t.Fatalf("query stored version: %v", err)
	}
	if stored != "0.1.0" {
		t.Errorf("stored version = %q, want 0.1.0", stored)
	}
}

func TestCheckVersion_rejects_older_binary(t *testing.T) {
	s := tempDB(t)
	ctx := context.Background()

	if err := s.CheckVersion(ctx, "0.2.0"); err != nil {
		t.Fatalf("first CheckVersion: %v", err)
	}

	err := s.CheckVersion(ctx, "0.1.0")
	if !errors.Is(err, ErrNewerSchema) {
		t.Errorf("err = %v, want ErrNewerSchema", err)
	}
}

func TestCheckVersion_upgrade_updates_stored(t *testing.T) {
	s := tempDB(t)
	ctx := context.Background()

	if err := s.CheckVersion(ctx, "0.1.0"); err != nil {
		t.Fatalf("first CheckVersion: %v", err)
	}
	if err := s.CheckVersion(ctx, "0.2.0"); err != nil {
		t.Fatalf("upgrade CheckVersion: %v", err)
	}

	var stored string
	if err := s.DB().QueryRowContext(ctx,
		"SELECT app_version FROM _schema_meta WHERE id = 1").Scan(&stored); err != nil {
		t.Fatalf("query stored version: %v", err)
	}
	if stored != "0.2.0" {
		t.Errorf("stored version = %q, want 0.2.0", stored)
	}
}

func TestCheckVersion_dev_always_passes(t *testing.T) {
	s := tempDB(t)
	ctx := context.Background()

	if err := s.CheckVersion(ctx, "0.5.0"); err != nil {
		t.Fatalf("first CheckVersion: %v", err)
	}
	if err := s.CheckVersion(ctx, "dev"); err != nil {
		t.Errorf("dev binary rejected: %v", err)
	}
}
