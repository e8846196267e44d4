package handlers

import (
	"encoding/json"

	"vn.io.arda/notifengine/internal/domain"
)

func init() {
	RegisterDirect(PreferenceTopic, handlePreferenceChange)
}

func handlePreferenceChange(data []byte) *domain.DeviceEvent {
	var cmd struct {
		CommandID             string   `json:"commandId"`
		BadgeAllowlist        []string `json:"badgeAllowlist"`
		ConversationAllowlist []string `json:"conversationAllowlist"`
	}

	if err := json.Unmarshal(data, &cmd); err != nil {
		return nil
	}
	if cmd.BadgeAllowlist == nil && cmd.ConversationAllowlist == nil {
		return nil
	}

	return &domain.DeviceEvent{
		Kind:    domain.KindPreferencesChanged,
		EventID: cmd.CommandID,
		Preferences: &domain.PreferenceUpdate{
			BadgeAllowlist:        cmd.BadgeAllowlist,
			ConversationAllowlist: cmd.ConversationAllowlist,
		},
	}
}
