package domain

import (
	"github.com/bmatcuk/doublestar/v4"
)

// Allowlist is a set of package identifiers or glob patterns (e.g. "com.google.*").
// An empty allowlist allows every package.
type Allowlist []string

// Allows reports whether packageName passes the allowlist.
func (a Allowlist) Allows(packageName string) bool {
	if len(a) == 0 {
		return true
	}
	for _, entry := range a {
		if entry == packageName {
			return true
		}
		if ok, err := doublestar.Match(entry, packageName); err == nil && ok {
			return true
		}
	}
	return false
}

// DisplayPreferences selects which extracted fields are shown.
type DisplayPreferences struct {
	ShowSender   bool `json:"showSender"`
	ShowGroup    bool `json:"showGroup"`
	ShowMessage  bool `json:"showMessage"`
	MessageLimit int  `json:"messageLimit"`
}

// DefaultMessageLimit caps extracted message length in characters.
const DefaultMessageLimit = 120

// AllFields shows every field with the default message limit.
var AllFields = DisplayPreferences{ShowSender: true, ShowGroup: true, ShowMessage: true, MessageLimit: DefaultMessageLimit}

// Preferences is the read-only provider of allowlists and display flags.
type Preferences interface {
	BadgeAllowlist() Allowlist
	ConversationAllowlist() Allowlist
	Display() DisplayPreferences
}
