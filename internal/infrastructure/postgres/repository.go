package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"vn.io.arda/notifengine/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS conversation_notifications (
	package_name       TEXT   NOT NULL,
	conversation_id    TEXT   NOT NULL,
	conversation_title TEXT   NOT NULL DEFAULT '',
	sender             TEXT   NOT NULL DEFAULT '',
	message            TEXT   NOT NULL DEFAULT '',
	timestamp          BIGINT NOT NULL,
	category           TEXT   NOT NULL DEFAULT '',
	notification_key   TEXT   NOT NULL DEFAULT '',
	PRIMARY KEY (package_name, conversation_id)
)`

// Repository is the PostgreSQL implementation of domain.ConversationRepository.
type Repository struct {
	pool *pgxpool.Pool
}

var _ domain.ConversationRepository = (*Repository)(nil)

// New creates a new postgres Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates the conversation table if needed.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create conversation table: %w", err)
	}
	return nil
}

// Load fetches every stored conversation grouped by package.
func (r *Repository) Load(ctx context.Context) (map[string][]domain.ConversationNotification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT package_name, conversation_id, conversation_title, sender, message,
		       timestamp, category, notification_key
		FROM conversation_notifications
		ORDER BY package_name, timestamp DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]domain.ConversationNotification)
	for rows.Next() {
		pkg, c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		out[pkg] = append(out[pkg], c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return out, nil
}

// Save replaces the stored conversations in a single transaction.
func (r *Repository) Save(ctx context.Context, conversations map[string][]domain.ConversationNotification) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM conversation_notifications`)
	for pkg, list := range conversations {
		for _, c := range list {
			batch.Queue(`
				INSERT INTO conversation_notifications
					(package_name, conversation_id, conversation_title, sender, message, timestamp, category, notification_key)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			`, pkg, c.ConversationID, c.ConversationTitle, c.Sender, c.Message,
				c.Timestamp, string(c.Category), c.NotificationKey)
		}
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("replace conversations: %w", err)
	}
	return tx.Commit(ctx)
}

// scannable is satisfied by pgx.Row and pgx.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanConversation(row scannable) (string, domain.ConversationNotification, error) {
	var (
		pkg      string
		c        domain.ConversationNotification
		category string
	)
	err := row.Scan(&pkg, &c.ConversationID, &c.ConversationTitle, &c.Sender, &c.Message,
		&c.Timestamp, &category, &c.NotificationKey)
	if err != nil {
		return "", c, fmt.Errorf("scan conversation: %w", err)
	}
	c.Category = domain.Category(category)
	return pkg, c, nil
}
