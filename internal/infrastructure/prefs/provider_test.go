package prefs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"vn.io.arda/notifengine/internal/domain"
	"vn.io.arda/notifengine/internal/infrastructure/prefs"
)

func TestProvider_NormalizesAllowlists(t *testing.T) {
	p := prefs.New([]string{"b", "", "a", "b"}, nil, domain.DisplayPreferences{})

	assert.Equal(t, domain.Allowlist{"a", "b"}, p.BadgeAllowlist())
	assert.Empty(t, p.ConversationAllowlist())
	assert.Equal(t, domain.DefaultMessageLimit, p.Display().MessageLimit)
}

func TestProvider_SetReportsChange(t *testing.T) {
	p := prefs.New(nil, nil, domain.AllFields)

	assert.True(t, p.SetBadgeAllowlist([]string{"com.chat"}))
	assert.False(t, p.SetBadgeAllowlist([]string{"com.chat", "com.chat"}))
	assert.True(t, p.SetBadgeAllowlist(nil))

	assert.False(t, p.SetConversationAllowlist([]string{}))
	assert.True(t, p.SetConversationAllowlist([]string{"com.*"}))

	assert.False(t, p.SetDisplay(domain.AllFields))
	assert.True(t, p.SetDisplay(domain.DisplayPreferences{ShowMessage: true}))
	assert.Equal(t, domain.DisplayPreferences{ShowMessage: true, MessageLimit: domain.DefaultMessageLimit}, p.Display())
}
