package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vn.io.arda/notifengine/internal/domain"
	"vn.io.arda/notifengine/internal/infrastructure/sqlite"
)

func openTestRepo(t *testing.T) *sqlite.Repository {
	t.Helper()
	repo, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "data", "conversations.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestRepository_EmptyDatabase(t *testing.T) {
	repo := openTestRepo(t)

	doc, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, doc)
}

func TestRepository_SaveReplacesDocument(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	first := map[string][]domain.ConversationNotification{
		"com.chat": {
			{ConversationID: "Family", Sender: "Alice", Message: "hi", Timestamp: 2, Category: domain.CategoryMessage, NotificationKey: "k1"},
			{ConversationID: "sms_+1", Message: "yo", Timestamp: 1, Category: domain.CategoryMessage},
		},
		"com.mail": {
			{ConversationID: "email_bob", Sender: "Bob", Timestamp: 3, Category: domain.CategoryEmail},
		},
	}
	require.NoError(t, repo.Save(ctx, first))

	doc, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, doc)

	second := map[string][]domain.ConversationNotification{
		"com.mail": first["com.mail"],
	}
	require.NoError(t, repo.Save(ctx, second))

	doc, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, doc)
}
