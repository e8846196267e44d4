// Package prefs holds the allowlists and display flags read by the engine.
// Values are replaced wholesale by config reloads or preference events.
package prefs

import (
	"slices"
	"sync"

	"vn.io.arda/notifengine/internal/domain"
)

// Provider implements domain.Preferences.
type Provider struct {
	mu           sync.RWMutex
	badge        domain.Allowlist
	conversation domain.Allowlist
	display      domain.DisplayPreferences
}

var _ domain.Preferences = (*Provider)(nil)

// New creates a Provider.
func New(badge, conversation []string, display domain.DisplayPreferences) *Provider {
	p := &Provider{}
	p.SetBadgeAllowlist(badge)
	p.SetConversationAllowlist(conversation)
	p.SetDisplay(display)
	return p
}

func (p *Provider) BadgeAllowlist() domain.Allowlist {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.badge
}

func (p *Provider) ConversationAllowlist() domain.Allowlist {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.conversation
}

func (p *Provider) Display() domain.DisplayPreferences {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.display
}

// SetBadgeAllowlist replaces the badge allowlist. It reports whether it changed.
func (p *Provider) SetBadgeAllowlist(packages []string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	next := normalize(packages)
	if slices.Equal(next, p.badge) {
		return false
	}
	p.badge = next
	return true
}

// SetConversationAllowlist replaces the conversation allowlist. It reports whether it changed.
func (p *Provider) SetConversationAllowlist(packages []string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	next := normalize(packages)
	if slices.Equal(next, p.conversation) {
		return false
	}
	p.conversation = next
	return true
}

// SetDisplay replaces the display flags. It reports whether they changed.
func (p *Provider) SetDisplay(d domain.DisplayPreferences) bool {
	if d.MessageLimit <= 0 {
		d.MessageLimit = domain.DefaultMessageLimit
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if d == p.display {
		return false
	}
	p.display = d
	return true
}

// normalize returns a sorted, de-duplicated copy without blank entries.
func normalize(packages []string) domain.Allowlist {
	out := make(domain.Allowlist, 0, len(packages))
	for _, pkg := range packages {
		if pkg != "" {
			out = append(out, pkg)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
