// Package sqlite persists conversations in an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"vn.io.arda/notifengine/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS conversation_notifications (
	package_name       TEXT    NOT NULL,
	conversation_id    TEXT    NOT NULL,
	conversation_title TEXT    NOT NULL DEFAULT '',
	sender             TEXT    NOT NULL DEFAULT '',
	message            TEXT    NOT NULL DEFAULT '',
	timestamp          INTEGER NOT NULL,
	category           TEXT    NOT NULL DEFAULT '',
	notification_key   TEXT    NOT NULL DEFAULT '',
	PRIMARY KEY (package_name, conversation_id)
)`

// Repository implements domain.ConversationRepository on SQLite.
type Repository struct {
	db *sql.DB
}

var _ domain.ConversationRepository = (*Repository)(nil)

// Open opens (and creates) the database at path. ":memory:" is accepted.
func Open(ctx context.Context, path string) (*Repository, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Repository{db: db}, nil
}

// Close closes the database.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Load returns every stored conversation grouped by package.
func (r *Repository) Load(ctx context.Context) (map[string][]domain.ConversationNotification, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT package_name, conversation_id, conversation_title, sender, message,
		       timestamp, category, notification_key
		FROM conversation_notifications
		ORDER BY package_name, timestamp DESC`)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]domain.ConversationNotification)
	for rows.Next() {
		var (
			pkg      string
			c        domain.ConversationNotification
			category string
		)
		if err := rows.Scan(&pkg, &c.ConversationID, &c.ConversationTitle, &c.Sender, &c.Message,
			&c.Timestamp, &category, &c.NotificationKey); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		c.Category = domain.Category(category)
		out[pkg] = append(out[pkg], c)
	}
	return out, rows.Err()
}

// Save replaces the stored conversations in one transaction.
func (r *Repository) Save(ctx context.Context, conversations map[string][]domain.ConversationNotification) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM conversation_notifications`); err != nil {
		return fmt.Errorf("clear conversations: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO conversation_notifications
			(package_name, conversation_id, conversation_title, sender, message, timestamp, category, notification_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for pkg, list := range conversations {
		for _, c := range list {
			if _, err := stmt.ExecContext(ctx, pkg, c.ConversationID, c.ConversationTitle, c.Sender,
				c.Message, c.Timestamp, string(c.Category), c.NotificationKey); err != nil {
				return fmt.Errorf("insert conversation %s/%s: %w", pkg, c.ConversationID, err)
			}
		}
	}
	return tx.Commit()
}
