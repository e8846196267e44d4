package application

import (
	"strings"

	"vn.io.arda/notifengine/internal/domain"
	"vn.io.arda/notifengine/internal/messages"
)

const titleSeparator = ": "

// Content is the (sender, group, message) triple extracted from an event.
// Empty strings mean the field is absent.
type Content struct {
	Sender  string
	Group   string
	Message string
}

// Title joins sender and group with ": " when both are present.
func (c Content) Title() string {
	switch {
	case c.Sender != "" && c.Group != "":
		return c.Sender + titleSeparator + c.Group
	case c.Sender != "":
		return c.Sender
	default:
		return c.Group
	}
}

// Normalize trims s, strips line breaks and collapses internal whitespace.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Extract derives the content triple of e under the given display preferences.
func Extract(e domain.Event, prefs domain.DisplayPreferences) Content {
	f := e.Fields
	title := Normalize(f.Title)

	var c Content
	if prefs.ShowGroup {
		c.Group = Normalize(f.ConversationTitle)
		if c.Group == "" {
			if _, after, ok := strings.Cut(title, titleSeparator); ok {
				c.Group = Normalize(after)
			}
		}
	}

	if prefs.ShowSender {
		switch {
		case title != "":
			if before, _, ok := strings.Cut(title, titleSeparator); ok {
				c.Sender = Normalize(before)
			} else {
				c.Sender = title
			}
		default:
			c.Sender = Normalize(f.SubText)
		}
		if sameText(c.Sender, c.Group) {
			c.Sender = ""
		}
	}

	if prefs.ShowMessage {
		c.Message = truncate(firstMessage(f), prefs.MessageLimit)
		if sameText(c.Message, c.Group) {
			c.Message = ""
		}
	}

	return c
}

// DisplayText builds the title and text shown for e, falling back to the
// application label and a category phrase when both come out empty.
func DisplayText(e domain.Event, prefs domain.DisplayPreferences) (title, text string) {
	c := Extract(e, prefs)
	title, text = c.Title(), c.Message
	if title == "" && text == "" {
		title = Normalize(e.AppLabel)
		text = messages.CategoryFallback(e.Category)
	}
	return title, text
}

func firstMessage(f domain.Fields) string {
	candidates := []string{f.BigText, f.Text}
	if n := len(f.TextLines); n > 0 {
		candidates = append(candidates, f.TextLines[n-1])
	}
	candidates = append(candidates, f.SummaryText, f.InfoText, f.TickerText)

	for _, c := range candidates {
		if v := Normalize(c); v != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		limit = domain.DefaultMessageLimit
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return strings.TrimSpace(string(r[:limit]))
}

func sameText(a, b string) bool {
	return a != "" && b != "" && strings.EqualFold(a, b)
}
