package kafka

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
	"vn.io.arda/notifengine/internal/domain"
	"vn.io.arda/notifengine/internal/infrastructure/device"
	"vn.io.arda/notifengine/internal/infrastructure/prefs"
)

type engineCall struct {
	op  string
	key string
}

type fakeEngine struct {
	calls []engineCall
}

func (f *fakeEngine) OnEventPosted(_ context.Context, e domain.Event) error {
	f.calls = append(f.calls, engineCall{"posted", e.Key})
	return nil
}

func (f *fakeEngine) OnEventRemoved(_ context.Context, e domain.Event) error {
	f.calls = append(f.calls, engineCall{"removed", e.Key})
	return nil
}

func (f *fakeEngine) Resync(context.Context) error {
	f.calls = append(f.calls, engineCall{op: "resync"})
	return nil
}

func (f *fakeEngine) RefreshBadgeState(context.Context) error {
	f.calls = append(f.calls, engineCall{op: "refresh-badges"})
	return nil
}

func (f *fakeEngine) RefreshConversationState(context.Context) error {
	f.calls = append(f.calls, engineCall{op: "refresh-conversations"})
	return nil
}

func newTestDispatcher() (*Dispatcher, *device.Mirror, *fakeEngine, *prefs.Provider) {
	mirror := device.New(nil)
	engine := &fakeEngine{}
	p := prefs.New(nil, nil, domain.AllFields)
	return NewDispatcher(mirror, engine, p), mirror, engine, p
}

func TestDispatcher_NotificationLifecycle(t *testing.T) {
	d, mirror, engine, _ := newTestDispatcher()
	ctx := context.Background()
	e := domain.Event{PackageName: "com.chat", Key: "k1"}

	require.NoError(t, d.Apply(ctx, &domain.DeviceEvent{Kind: domain.KindNotificationPosted, Notification: &e}))
	assert.Len(t, mirror.ActiveEvents(), 1)

	require.NoError(t, d.Apply(ctx, &domain.DeviceEvent{Kind: domain.KindNotificationRemoved, Notification: &e}))
	assert.Empty(t, mirror.ActiveEvents())

	require.NoError(t, d.Apply(ctx, &domain.DeviceEvent{
		Kind:   domain.KindListenerConnected,
		Active: []domain.Event{{PackageName: "a", Key: "x"}, {PackageName: "b", Key: "y"}},
	}))
	assert.Len(t, mirror.ActiveEvents(), 2)

	assert.Equal(t, []engineCall{{"posted", "k1"}, {"removed", "k1"}, {op: "resync"}}, engine.calls)
}

func TestDispatcher_MediaUpdatesMirror(t *testing.T) {
	d, mirror, engine, _ := newTestDispatcher()
	ctx := context.Background()

	require.NoError(t, d.Apply(ctx, &domain.DeviceEvent{
		Kind:  domain.KindMediaAnnounced,
		Media: &domain.MediaUpdate{Token: "tok", PackageName: "music", State: domain.PlaybackPaused},
	}))
	require.NoError(t, d.Apply(ctx, &domain.DeviceEvent{
		Kind:  domain.KindMediaPlayback,
		Media: &domain.MediaUpdate{Token: "tok", State: domain.PlaybackPlaying},
	}))

	s, ok := mirror.Session("tok")
	require.True(t, ok)
	state, err := s.PlaybackState()
	require.NoError(t, err)
	assert.Equal(t, domain.PlaybackPlaying, state)

	require.NoError(t, d.Apply(ctx, &domain.DeviceEvent{Kind: domain.KindMediaDestroyed, Media: &domain.MediaUpdate{Token: "tok"}}))
	_, ok = mirror.Session("tok")
	assert.False(t, ok)

	// Unknown sessions are tolerated.
	require.NoError(t, d.Apply(ctx, &domain.DeviceEvent{Kind: domain.KindMediaMetadata, Media: &domain.MediaUpdate{Token: "gone"}}))
	assert.Empty(t, engine.calls)
}

func TestDispatcher_PreferencesRefreshOnlyOnChange(t *testing.T) {
	d, _, engine, p := newTestDispatcher()
	ctx := context.Background()
	update := &domain.DeviceEvent{
		Kind:        domain.KindPreferencesChanged,
		Preferences: &domain.PreferenceUpdate{BadgeAllowlist: []string{"com.chat"}},
	}

	require.NoError(t, d.Apply(ctx, update))
	require.NoError(t, d.Apply(ctx, update))
	assert.Equal(t, []engineCall{{op: "refresh-badges"}}, engine.calls)
	assert.Equal(t, domain.Allowlist{"com.chat"}, p.BadgeAllowlist())

	require.NoError(t, d.Apply(ctx, &domain.DeviceEvent{
		Kind:        domain.KindPreferencesChanged,
		Preferences: &domain.PreferenceUpdate{ConversationAllowlist: []string{"com.mail"}},
	}))
	assert.Equal(t, engineCall{op: "refresh-conversations"}, engine.calls[len(engine.calls)-1])
}

func TestDispatcher_UnknownKind(t *testing.T) {
	d, _, _, _ := newTestDispatcher()
	assert.Error(t, d.Apply(context.Background(), &domain.DeviceEvent{Kind: "BOGUS"}))
}

func TestConsumer_ProcessMapsConfiguredTopics(t *testing.T) {
	d, mirror, engine, p := newTestDispatcher()
	c := &Consumer{
		dispatcher: d,
		canonical: map[string]string{
			"prod.device": "device-events",
			"prod.prefs":  "preference-events",
		},
	}
	ctx := context.Background()

	c.process(ctx, &kgo.Record{
		Topic: "prod.device",
		Value: []byte(`{"eventType":"NOTIFICATION_POSTED","notification":{"packageName":"com.chat","key":"k1"}}`),
	})
	c.process(ctx, &kgo.Record{
		Topic: "prod.prefs",
		Value: []byte(`{"conversationAllowlist":["com.chat"]}`),
	})
	c.process(ctx, &kgo.Record{Topic: "unknown", Value: []byte(`{"eventType":"NOTIFICATION_POSTED"}`)})

	assert.Len(t, mirror.ActiveEvents(), 1)
	assert.Equal(t, domain.Allowlist{"com.chat"}, p.ConversationAllowlist())
	assert.Equal(t, []engineCall{{"posted", "k1"}, {op: "refresh-conversations"}}, engine.calls)
}

func TestConsumer_TopicsAreConfiguredNames(t *testing.T) {
	c := &Consumer{canonical: map[string]string{
		"prod.device": "device-events",
		"prod.media":  "media-events",
	}}
	assert.ElementsMatch(t, []string{"prod.device", "prod.media"}, c.topics())
}
