package domain

// Category is the OS-provided notification category tag.
type Category string

const (
	CategoryNone           Category = ""
	CategoryMessage        Category = "msg"
	CategoryEmail          Category = "email"
	CategoryCall           Category = "call"
	CategoryAlarm          Category = "alarm"
	CategoryReminder       Category = "reminder"
	CategoryEvent          Category = "event"
	CategoryPromo          Category = "promo"
	CategoryTransport      Category = "transport"
	CategorySystem         Category = "sys"
	CategoryService        Category = "service"
	CategoryError          Category = "err"
	CategoryProgress       Category = "progress"
	CategorySocial         Category = "social"
	CategoryStatus         Category = "status"
	CategoryRecommendation Category = "recommendation"
)

// IsMedia reports whether the category denotes media playback.
func (c Category) IsMedia() bool {
	return c == CategoryTransport
}

// Flags is the notification flag bitset.
type Flags uint32

// FlagGroupSummary marks a notification that only summarizes its group.
const FlagGroupSummary Flags = 0x200

// Fields is the extensible field bag carried by an event.
type Fields struct {
	Title             string   `json:"title,omitempty"`
	Text              string   `json:"text,omitempty"`
	BigText           string   `json:"bigText,omitempty"`
	TextLines         []string `json:"textLines,omitempty"`
	SummaryText       string   `json:"summaryText,omitempty"`
	InfoText          string   `json:"infoText,omitempty"`
	TickerText        string   `json:"tickerText,omitempty"`
	SubText           string   `json:"subText,omitempty"`
	ConversationTitle string   `json:"conversationTitle,omitempty"`
	People            []string `json:"people,omitempty"`
	// MediaSession is the opaque token of the media session attached to the event.
	MediaSession string `json:"mediaSession,omitempty"`
}

// Event is a single notification delivered by the OS notification surface.
type Event struct {
	PackageName string   `json:"packageName"`
	Key         string   `json:"key"`
	PostTime    int64    `json:"postTime"`
	Category    Category `json:"category,omitempty"`
	Flags       Flags    `json:"flags"`
	// AppLabel is the display label of the posting application.
	AppLabel string `json:"appLabel,omitempty"`
	Fields   Fields `json:"fields"`
}

// IsGroupSummary reports whether the OS flagged the event as a group summary.
func (e Event) IsGroupSummary() bool {
	return e.Flags&FlagGroupSummary != 0
}
