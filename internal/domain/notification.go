package domain

// NotificationInfo is the aggregated badge state of one application.
// It is derived from the currently active events and never from history.
type NotificationInfo struct {
	Count     int      `json:"count"`
	Title     string   `json:"title,omitempty"`
	Text      string   `json:"text,omitempty"`
	Category  Category `json:"category,omitempty"`
	Timestamp int64    `json:"timestamp"`
}

// ConversationNotification is the latest entry of one conversation thread
// within an application. These records are persisted across restarts.
type ConversationNotification struct {
	ConversationID    string   `json:"conversationId"`
	ConversationTitle string   `json:"conversationTitle,omitempty"`
	Sender            string   `json:"sender,omitempty"`
	Message           string   `json:"message,omitempty"`
	Timestamp         int64    `json:"timestamp"`
	Category          Category `json:"category,omitempty"`
	NotificationKey   string   `json:"notificationKey,omitempty"`
}

// MediaPlayerState describes the single "now playing" session tracked by the engine.
type MediaPlayerState struct {
	PackageName  string `json:"packageName"`
	SessionToken string `json:"sessionToken"`
	IsPlaying    bool   `json:"isPlaying"`
	Title        string `json:"title,omitempty"`
	Artist       string `json:"artist,omitempty"`
}

// BadgeSnapshot maps package name to its published badge state.
type BadgeSnapshot map[string]NotificationInfo

// ConversationSnapshot maps package name to its conversations, newest first.
type ConversationSnapshot map[string][]ConversationNotification
