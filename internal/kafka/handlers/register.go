package handlers

import (
	"vn.io.arda/notifengine/internal/kafka/registry"
)

// Canonical topic names the handlers register under. The consumer maps
// configured topic names onto these.
const (
	DeviceTopic     = "device-events"
	MediaTopic      = "media-events"
	PreferenceTopic = "preference-events"
)

// Register is a convenience alias so each handler file calls Register(...)
// instead of registry.Register(...).
func Register(topic, eventType string, h registry.EventHandler) {
	registry.Register(topic, eventType, h)
}

// RegisterDirect registers a handler for topics that don't use eventType routing.
func RegisterDirect(topic string, h registry.EventHandler) {
	registry.Register(topic, "", h)
}
