package domain

import "context"

// ConversationRepository defines the port for conversation persistence.
// Implementations live in infrastructure/jsonfile, infrastructure/sqlite
// and infrastructure/postgres.
type ConversationRepository interface {
	// Load returns the persisted document. A missing document yields an empty map.
	Load(ctx context.Context) (map[string][]ConversationNotification, error)

	// Save replaces the persisted document with the given conversations.
	Save(ctx context.Context, conversations map[string][]ConversationNotification) error
}

// Device is the port to the OS notification surface.
type Device interface {
	// ActiveEvents returns every currently active notification.
	ActiveEvents() []Event

	// Session resolves an opaque media session token.
	Session(token string) (MediaSession, bool)

	// OpenConversation deep-links into the notification identified by key.
	OpenConversation(ctx context.Context, packageName, notificationKey string) error

	// LaunchApp starts the application without deep-linking.
	LaunchApp(ctx context.Context, packageName string) error
}
