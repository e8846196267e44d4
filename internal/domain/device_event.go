package domain

// DeviceEventKind identifies an inbound message from the OS side.
type DeviceEventKind string

const (
	KindNotificationPosted  DeviceEventKind = "NOTIFICATION_POSTED"
	KindNotificationRemoved DeviceEventKind = "NOTIFICATION_REMOVED"
	KindListenerConnected   DeviceEventKind = "LISTENER_CONNECTED"
	KindMediaAnnounced      DeviceEventKind = "MEDIA_SESSION_ANNOUNCED"
	KindMediaMetadata       DeviceEventKind = "MEDIA_METADATA_CHANGED"
	KindMediaPlayback       DeviceEventKind = "MEDIA_PLAYBACK_CHANGED"
	KindMediaDestroyed      DeviceEventKind = "MEDIA_SESSION_DESTROYED"
	KindPreferencesChanged  DeviceEventKind = "PREFERENCES_CHANGED"
)

// DeviceEvent is the decoded form of an inbound message. Exactly one of the
// payload fields is set, depending on Kind.
type DeviceEvent struct {
	Kind    DeviceEventKind
	EventID string

	// Notification is set for posted/removed events.
	Notification *Event
	// Active is the full active set delivered on listener (re)connect.
	Active []Event
	// Media is set for media session events.
	Media *MediaUpdate
	// Preferences is set for preference changes.
	Preferences *PreferenceUpdate
}

// MediaUpdate carries a media session change.
type MediaUpdate struct {
	Token       string
	PackageName string
	State       PlaybackState
	Metadata    MediaMetadata
}

// PreferenceUpdate replaces allowlists. A nil slice leaves the list unchanged.
type PreferenceUpdate struct {
	BadgeAllowlist        []string
	ConversationAllowlist []string
}

// ActionKind is an outbound request to the OS side.
type ActionKind string

const (
	ActionOpenConversation ActionKind = "OPEN_CONVERSATION"
	ActionLaunchApp        ActionKind = "LAUNCH_APP"
)

// DeviceAction is sent to the OS side to open or launch an application.
type DeviceAction struct {
	CommandID       string     `json:"commandId"`
	Action          ActionKind `json:"action"`
	PackageName     string     `json:"packageName"`
	NotificationKey string     `json:"notificationKey,omitempty"`
}
