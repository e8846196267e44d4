package device_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vn.io.arda/notifengine/internal/domain"
	"vn.io.arda/notifengine/internal/infrastructure/device"
)

type callbackLog struct {
	metadata  []domain.MediaMetadata
	states    []domain.PlaybackState
	destroyed int
}

func (c *callbackLog) OnMetadataChanged(m domain.MediaMetadata)      { c.metadata = append(c.metadata, m) }
func (c *callbackLog) OnPlaybackStateChanged(s domain.PlaybackState) { c.states = append(c.states, s) }
func (c *callbackLog) OnSessionDestroyed()                           { c.destroyed++ }

type senderFunc func(ctx context.Context, a domain.DeviceAction) error

func (f senderFunc) Send(ctx context.Context, a domain.DeviceAction) error { return f(ctx, a) }

func TestMirror_ActiveSet(t *testing.T) {
	m := device.New(nil)

	m.Post(domain.Event{PackageName: "a", Key: "k2", PostTime: 2})
	m.Post(domain.Event{PackageName: "a", Key: "k1", PostTime: 1})
	m.Post(domain.Event{PackageName: "b", Key: "k3", PostTime: 2})

	active := m.ActiveEvents()
	require.Len(t, active, 3)
	assert.Equal(t, []string{"k1", "k2", "k3"}, []string{active[0].Key, active[1].Key, active[2].Key})

	m.Remove("k2")
	assert.Len(t, m.ActiveEvents(), 2)

	m.Replace([]domain.Event{{PackageName: "c", Key: "k9", PostTime: 9}})
	active = m.ActiveEvents()
	require.Len(t, active, 1)
	assert.Equal(t, "k9", active[0].Key)
}

func TestMirror_PostCreatesUnknownSession(t *testing.T) {
	m := device.New(nil)
	m.Post(domain.Event{PackageName: "music", Key: "k1", Fields: domain.Fields{MediaSession: "tok"}})

	s, ok := m.Session("tok")
	require.True(t, ok)
	state, err := s.PlaybackState()
	require.NoError(t, err)
	assert.Equal(t, domain.PlaybackNone, state)
	assert.Equal(t, "music", s.(*device.Session).PackageName())
}

func TestMirror_SessionCallbacks(t *testing.T) {
	m := device.New(nil)
	m.Announce(domain.MediaUpdate{Token: "tok", PackageName: "music", State: domain.PlaybackPaused})

	s, ok := m.Session("tok")
	require.True(t, ok)
	cb := &callbackLog{}
	require.NoError(t, s.RegisterCallback(cb))
	require.NoError(t, s.RegisterCallback(cb))
	assert.Equal(t, 1, s.(*device.Session).CallbackCount())

	assert.True(t, m.UpdateMetadata("tok", domain.MediaMetadata{Title: "Song"}))
	assert.True(t, m.UpdatePlayback("tok", domain.PlaybackPlaying))
	assert.False(t, m.UpdatePlayback("unknown", domain.PlaybackPlaying))

	meta, err := s.Metadata()
	require.NoError(t, err)
	assert.Equal(t, "Song", meta.Title)
	assert.Equal(t, []domain.PlaybackState{domain.PlaybackPlaying}, cb.states)
	assert.Len(t, cb.metadata, 1)

	assert.True(t, m.Destroy("tok"))
	assert.Equal(t, 1, cb.destroyed)
	_, ok = m.Session("tok")
	assert.False(t, ok)

	_, err = s.PlaybackState()
	assert.ErrorIs(t, err, domain.ErrSessionGone)
	assert.ErrorIs(t, s.RegisterCallback(&callbackLog{}), domain.ErrSessionGone)
}

func TestMirror_UnregisterCallback(t *testing.T) {
	m := device.New(nil)
	m.Announce(domain.MediaUpdate{Token: "tok", PackageName: "music"})
	s, _ := m.Session("tok")

	cb := &callbackLog{}
	require.NoError(t, s.RegisterCallback(cb))
	s.UnregisterCallback(cb)

	m.UpdatePlayback("tok", domain.PlaybackPlaying)
	assert.Empty(t, cb.states)
}

func TestMirror_Actions(t *testing.T) {
	var got []domain.DeviceAction
	m := device.New(senderFunc(func(_ context.Context, a domain.DeviceAction) error {
		if a.PackageName == "broken" {
			return errors.New("unreachable")
		}
		got = append(got, a)
		return nil
	}))
	ctx := context.Background()

	require.NoError(t, m.OpenConversation(ctx, "com.chat", "k1"))
	require.NoError(t, m.LaunchApp(ctx, "com.chat"))
	assert.Error(t, m.LaunchApp(ctx, "broken"))

	require.Len(t, got, 2)
	assert.Equal(t, domain.ActionOpenConversation, got[0].Action)
	assert.Equal(t, "k1", got[0].NotificationKey)
	assert.Equal(t, domain.ActionLaunchApp, got[1].Action)
	assert.NotEqual(t, got[0].CommandID, got[1].CommandID)
}

func TestMirror_NoActionSender(t *testing.T) {
	m := device.New(nil)
	assert.ErrorIs(t, m.LaunchApp(context.Background(), "com.chat"), device.ErrNoActionSender)
}
