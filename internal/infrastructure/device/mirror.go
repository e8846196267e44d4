// Package device mirrors the OS notification surface from the inbound
// event feed: the active notification set and the live media sessions.
package device

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"vn.io.arda/notifengine/internal/domain"
)

// ErrNoActionSender is returned when actions cannot be delivered.
var ErrNoActionSender = errors.New("device: no action sender configured")

// ActionSender delivers actions to the OS side.
type ActionSender interface {
	Send(ctx context.Context, action domain.DeviceAction) error
}

// Mirror implements domain.Device.
type Mirror struct {
	mu       sync.RWMutex
	active   map[string]domain.Event // key -> event
	sessions map[string]*Session     // token -> session

	actions ActionSender
}

var _ domain.Device = (*Mirror)(nil)

// New creates an empty Mirror. actions may be nil.
func New(actions ActionSender) *Mirror {
	return &Mirror{
		active:   make(map[string]domain.Event),
		sessions: make(map[string]*Session),
		actions:  actions,
	}
}

// ActiveEvents returns the active set ordered by post time.
func (m *Mirror) ActiveEvents() []domain.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Event, 0, len(m.active))
	for _, e := range m.active {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b domain.Event) int {
		if c := cmp.Compare(a.PostTime, b.PostTime); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return out
}

// Post adds or replaces an active notification. A media session token not
// seen before creates a session in state NONE.
func (m *Mirror) Post(e domain.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.postLocked(e)
}

func (m *Mirror) postLocked(e domain.Event) {
	m.active[e.Key] = e
	if token := e.Fields.MediaSession; token != "" {
		if _, ok := m.sessions[token]; !ok {
			m.sessions[token] = newSession(m, token, e.PackageName, domain.PlaybackNone, domain.MediaMetadata{})
		}
	}
}

// Remove drops an active notification by key.
func (m *Mirror) Remove(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active, key)
}

// Replace swaps the whole active set, as delivered on listener connect.
func (m *Mirror) Replace(events []domain.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.active = make(map[string]domain.Event, len(events))
	for _, e := range events {
		m.postLocked(e)
	}
}

// Session resolves a media session token.
func (m *Mirror) Session(token string) (domain.MediaSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[token]
	if !ok {
		return nil, false
	}
	return s, true
}

// Announce creates or resets a media session.
func (m *Mirror) Announce(u domain.MediaUpdate) {
	m.mu.Lock()
	s, ok := m.sessions[u.Token]
	if !ok {
		m.sessions[u.Token] = newSession(m, u.Token, u.PackageName, u.State, u.Metadata)
		m.mu.Unlock()
		return
	}
	s.state, s.meta = u.State, u.Metadata
	callbacks := slices.Clone(s.callbacks)
	m.mu.Unlock()

	for _, cb := range callbacks {
		cb.OnPlaybackStateChanged(u.State)
	}
}

// UpdateMetadata changes session metadata and notifies callbacks.
// It reports whether the session is known.
func (m *Mirror) UpdateMetadata(token string, meta domain.MediaMetadata) bool {
	m.mu.Lock()
	s, ok := m.sessions[token]
	if !ok {
		m.mu.Unlock()
		return false
	}
	s.meta = meta
	callbacks := slices.Clone(s.callbacks)
	m.mu.Unlock()

	for _, cb := range callbacks {
		cb.OnMetadataChanged(meta)
	}
	return true
}

// UpdatePlayback changes the playback state and notifies callbacks.
// It reports whether the session is known.
func (m *Mirror) UpdatePlayback(token string, state domain.PlaybackState) bool {
	m.mu.Lock()
	s, ok := m.sessions[token]
	if !ok {
		m.mu.Unlock()
		return false
	}
	s.state = state
	callbacks := slices.Clone(s.callbacks)
	m.mu.Unlock()

	for _, cb := range callbacks {
		cb.OnPlaybackStateChanged(state)
	}
	return true
}

// Destroy removes a session and notifies its callbacks.
// It reports whether the session was known.
func (m *Mirror) Destroy(token string) bool {
	m.mu.Lock()
	s, ok := m.sessions[token]
	if !ok {
		m.mu.Unlock()
		return false
	}
	delete(m.sessions, token)
	s.destroyed = true
	callbacks := s.callbacks
	s.callbacks = nil
	m.mu.Unlock()

	for _, cb := range callbacks {
		cb.OnSessionDestroyed()
	}
	return true
}

// OpenConversation asks the OS side to deep-link into a notification.
func (m *Mirror) OpenConversation(ctx context.Context, packageName, notificationKey string) error {
	return m.send(ctx, domain.DeviceAction{
		Action:          domain.ActionOpenConversation,
		PackageName:     packageName,
		NotificationKey: notificationKey,
	})
}

// LaunchApp asks the OS side to start an application.
func (m *Mirror) LaunchApp(ctx context.Context, packageName string) error {
	return m.send(ctx, domain.DeviceAction{
		Action:      domain.ActionLaunchApp,
		PackageName: packageName,
	})
}

func (m *Mirror) send(ctx context.Context, a domain.DeviceAction) error {
	if m.actions == nil {
		return ErrNoActionSender
	}
	a.CommandID = uuid.NewString()
	if err := m.actions.Send(ctx, a); err != nil {
		return err
	}
	log.Debug().Str("action", string(a.Action)).Str("pkg", a.PackageName).Str("command_id", a.CommandID).Msg("device action sent")
	return nil
}
