package registry_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vn.io.arda/notifengine/internal/domain"
	"vn.io.arda/notifengine/internal/kafka/registry"
)

func makeJSON(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}

func TestRegisterAndDispatch(t *testing.T) {
	called := false
	registry.Register("test-topic", "TEST_EVENT", func(data []byte) *domain.DeviceEvent {
		called = true
		return &domain.DeviceEvent{Kind: domain.KindNotificationPosted, EventID: "evt-1"}
	})

	result := registry.Dispatch("test-topic", makeJSON(map[string]string{
		"eventType": "TEST_EVENT",
	}))

	assert.True(t, called, "handler was not called")
	require.NotNil(t, result)
	assert.Equal(t, "evt-1", result.EventID)
}

func TestDispatch_UnknownEvent_ReturnsNil(t *testing.T) {
	result := registry.Dispatch("test-topic", makeJSON(map[string]string{
		"eventType": "UNKNOWN_EVENT_XYZ",
	}))
	assert.Nil(t, result)
}

func TestDispatch_InvalidJSON_ReturnsNil(t *testing.T) {
	assert.Nil(t, registry.Dispatch("test-topic", []byte("not json")))
}

func TestDispatchDirect(t *testing.T) {
	registry.Register("direct-topic", "", func(data []byte) *domain.DeviceEvent {
		return &domain.DeviceEvent{Kind: domain.KindPreferencesChanged}
	})

	result := registry.DispatchDirect("direct-topic", []byte(`{}`))
	require.NotNil(t, result)
	assert.Equal(t, domain.KindPreferencesChanged, result.Kind)
}

func TestDispatchDirect_UnregisteredTopic_ReturnsNil(t *testing.T) {
	assert.Nil(t, registry.DispatchDirect("nobody-listens", []byte(`{}`)))
}

func TestRegister_DuplicatePanics(t *testing.T) {
	registry.Register("dupe-topic", "DUPE_EVENT", func(_ []byte) *domain.DeviceEvent { return nil })
	assert.Panics(t, func() {
		registry.Register("dupe-topic", "DUPE_EVENT", func(_ []byte) *domain.DeviceEvent { return nil })
	})
}
