package notify

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/CivicMesh/rtcc/pkg/plugin"
	"github.com/google/uuid"
)

// Webhook is a registered delivery endpoint. Topics is the set of bus
// topics this endpoint receives; empty means all relayed topics.
type Webhook struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Secret    string    `json:"-"` // HMAC key, never serialized
	Topics    []string  `json:"topics"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Delivery bookkeeping, updated by the deliverer.
	LastStatus  string     `json:"last_status,omitempty"`
	LastAttempt *time.Time `json:"last_attempt,omitempty"`
}

// Store persists webhook registrations.
type Store struct {
	db *sql.DB
}

// NewStore runs the notify migrations and returns a Store.
func NewStore(ctx context.Context, store plugin.Store) (*Store, error) {
	if err := store.Migrate(ctx, "notify", migrations); err != nil {
		return nil, fmt.Errorf("notify migrations: %w", err)
	}
	return &Store{db: store.DB()}, nil
}

const webhookColumns = "id, name, url, secret, topics, enabled, created_at, updated_at, last_status, last_attempt"

// List returns all webhooks.
func (s *Store) List(ctx context.Context) ([]Webhook, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+webhookColumns+" FROM notify_webhooks ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list webhooks: %w", err)
	}
	defer rows.Close()

	var out []Webhook
	for rows.Next() {
		wh, err := scanWebhook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, wh)
	}
	return out, rows.Err()
}

// ListForTopic returns enabled webhooks subscribed to the given topic.
func (s *Store) ListForTopic(ctx context.Context, topic string) ([]Webhook, error) {
	hooks, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []Webhook
	for _, wh := range hooks {
		if !wh.Enabled {
			continue
		}
		if len(wh.Topics) == 0 {
			out = append(out, wh)
			continue
		}
		for _, t := range wh.Topics {
			if t == topic {
				out = append(out, wh)
				break
			}
		}
	}
	return out, nil
}

// Get returns a webhook by ID.
func (s *Store) Get(ctx context.Context, id string) (*Webhook, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+webhookColumns+" FROM notify_webhooks WHERE id = ?", id)
	wh, err := scanWebhookRow(row)
	if err != nil {
		return nil, err
	}
	return &wh, nil
}

// Create inserts a webhook.
func (s *Store) Create(ctx context.Context, wh *Webhook) error {
	if wh.ID == "" {
		wh.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	wh.CreatedAt = now
	wh.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notify_webhooks (id, name, url, secret, topics, enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		wh.ID, wh.Name, wh.URL, wh.Secret, strings.Join(wh.Topics, ","),
		wh.Enabled, wh.CreatedAt, wh.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create webhook: %w", err)
	}
	return nil
}

// Update replaces a webhook's configuration.
func (s *Store) Update(ctx context.Context, wh *Webhook) error {
	wh.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE notify_webhooks
		SET name = ?, url = ?, secret = ?, topics = ?, enabled = ?, updated_at = ?
		WHERE id = ?`,
		wh.Name, wh.URL, wh.Secret, strings.Join(wh.Topics, ","),
		wh.Enabled, wh.UpdatedAt, wh.ID)
	if err != nil {
		return fmt.Errorf("update webhook: %w", err)
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

// Delete removes a webhook.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM notify_webhooks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete webhook: %w", err)
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

// RecordAttempt stores the outcome of the latest delivery attempt.
func (s *Store) RecordAttempt(ctx context.Context, id, status string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE notify_webhooks SET last_status = ?, last_attempt = ? WHERE id = ?`,
		status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWebhook(rows *sql.Rows) (Webhook, error)  { return scanWebhookFrom(rows) }
func scanWebhookRow(row *sql.Row) (Webhook, error) { return scanWebhookFrom(row) }

func scanWebhookFrom(sc rowScanner) (Webhook, error) {
	var wh Webhook
	var topics string
	var lastStatus sql.NullString
	var lastAttempt sql.NullTime
	err := sc.Scan(&wh.ID, &wh.Name, &wh.URL, &wh.Secret, &topics, &wh.Enabled,
		&wh.CreatedAt, &wh.UpdatedAt, &lastStatus, &lastAttempt)
	if err != nil {
		return Webhook{}, err
	}
	if topics != "" {
		wh.Topics = strings.Split(topics, ",")
	} else {
		wh.Topics = []string{}
	}
	wh.LastStatus = lastStatus.String
	if lastAttempt.Valid {
		t := lastAttempt.Time
		wh.LastAttempt = &t
	}
	return wh, nil
}

var migrations = []plugin.Migration{
	{
		Version:     1,
		Description: "create notify_webhooks table",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS notify_webhooks (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					url TEXT NOT NULL,
					secret TEXT NOT NULL DEFAULT '',
					topics TEXT NOT NULL DEFAULT '',
					enabled INTEGER NOT NULL DEFAULT 1,
					created_at TIMESTAMP NOT NULL,
					updated_at TIMESTAMP NOT NULL,
					last_status TEXT,
					last_attempt TIMESTAMP
				)`)
			return err
		},
	},
}
