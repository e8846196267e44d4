package handlers

import (
	"encoding/json"

	"vn.io.arda/notifengine/internal/domain"
)

func init() {
	Register(DeviceTopic, string(domain.KindNotificationPosted), handleNotificationPosted)
	Register(DeviceTopic, string(domain.KindNotificationRemoved), handleNotificationRemoved)
	Register(DeviceTopic, string(domain.KindListenerConnected), handleListenerConnected)
}

type deviceEnv struct {
	EventType    string         `json:"eventType"`
	EventID      string         `json:"eventId"`
	Notification *domain.Event  `json:"notification"`
	Active       []domain.Event `json:"active"`
}

func parseDeviceEnv(data []byte) (*deviceEnv, bool) {
	var env deviceEnv
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, false
	}
	return &env, true
}

func notificationEvent(data []byte, kind domain.DeviceEventKind) *domain.DeviceEvent {
	env, ok := parseDeviceEnv(data)
	if !ok || env.Notification == nil {
		return nil
	}
	if env.Notification.PackageName == "" || env.Notification.Key == "" {
		return nil
	}
	return &domain.DeviceEvent{
		Kind:         kind,
		EventID:      env.EventID,
		Notification: env.Notification,
	}
}

func handleNotificationPosted(data []byte) *domain.DeviceEvent {
	return notificationEvent(data, domain.KindNotificationPosted)
}

func handleNotificationRemoved(data []byte) *domain.DeviceEvent {
	return notificationEvent(data, domain.KindNotificationRemoved)
}

func handleListenerConnected(data []byte) *domain.DeviceEvent {
	env, ok := parseDeviceEnv(data)
	if !ok {
		return nil
	}
	active := make([]domain.Event, 0, len(env.Active))
	for _, e := range env.Active {
		if e.PackageName != "" && e.Key != "" {
			active = append(active, e)
		}
	}
	return &domain.DeviceEvent{
		Kind:    domain.KindListenerConnected,
		EventID: env.EventID,
		Active:  active,
	}
}
