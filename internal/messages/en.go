package messages

// ─── Category fallbacks ──────────────────────────────────────────────────────

const (
	MessageFallback        = "New message"
	EmailFallback          = "New email"
	CallFallback           = "Incoming call"
	AlarmFallback          = "Alarm"
	ReminderFallback       = "Reminder"
	EventFallback          = "Upcoming event"
	PromoFallback          = "New offer"
	MediaPlayingFallback   = "Now playing"
	SystemFallback         = "System notification"
	ServiceFallback        = "Running in background"
	ErrorFallback          = "Something went wrong"
	ProgressFallback       = "In progress"
	SocialFallback         = "New activity"
	StatusFallback         = "Status update"
	RecommendationFallback = "Recommended for you"
)

