// Package jsonfile persists conversations as a single JSON document.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"vn.io.arda/notifengine/internal/domain"
)

// DefaultFilename is the well-known name of the conversation document.
const DefaultFilename = "conversations.json"

// Repository implements domain.ConversationRepository on a JSON file.
type Repository struct {
	path string
	mu   sync.Mutex
}

var _ domain.ConversationRepository = (*Repository)(nil)

// New creates a Repository writing to path.
func New(path string) *Repository {
	return &Repository{path: path}
}

// Path returns the document location.
func (r *Repository) Path() string {
	return r.path
}

// Load reads the document. A missing or empty file yields an empty map.
func (r *Repository) Load(ctx context.Context) (map[string][]domain.ConversationNotification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string][]domain.ConversationNotification{}, nil
		}
		return nil, fmt.Errorf("read conversations: %w", err)
	}
	if len(data) == 0 {
		return map[string][]domain.ConversationNotification{}, nil
	}

	var doc map[string][]domain.ConversationNotification
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode conversations: %w", err)
	}
	if doc == nil {
		doc = map[string][]domain.ConversationNotification{}
	}
	return doc, nil
}

// Save writes the document atomically.
func (r *Repository) Save(ctx context.Context, conversations map[string][]domain.ConversationNotification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}

	data, err := json.Marshal(conversations)
	if err != nil {
		return fmt.Errorf("encode conversations: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write conversations: %w", err)
	}
	return os.Rename(tmp, r.path)
}
