package device

import (
	"slices"

	"vn.io.arda/notifengine/internal/domain"
)

// Session is the mirrored handle of one OS media session.
type Session struct {
	m           *Mirror
	token       string
	packageName string

	// Guarded by m.mu.
	state     domain.PlaybackState
	meta      domain.MediaMetadata
	destroyed bool
	callbacks []domain.SessionCallback
}

var _ domain.MediaSession = (*Session)(nil)

func newSession(m *Mirror, token, packageName string, state domain.PlaybackState, meta domain.MediaMetadata) *Session {
	return &Session{m: m, token: token, packageName: packageName, state: state, meta: meta}
}

func (s *Session) Token() string { return s.token }

// PackageName returns the package that owns the session.
func (s *Session) PackageName() string { return s.packageName }

func (s *Session) PlaybackState() (domain.PlaybackState, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	if s.destroyed {
		return domain.PlaybackNone, domain.ErrSessionGone
	}
	return s.state, nil
}

func (s *Session) Metadata() (domain.MediaMetadata, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	if s.destroyed {
		return domain.MediaMetadata{}, domain.ErrSessionGone
	}
	return s.meta, nil
}

func (s *Session) RegisterCallback(cb domain.SessionCallback) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.destroyed {
		return domain.ErrSessionGone
	}
	if !slices.Contains(s.callbacks, cb) {
		s.callbacks = append(s.callbacks, cb)
	}
	return nil
}

func (s *Session) UnregisterCallback(cb domain.SessionCallback) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.callbacks = slices.DeleteFunc(s.callbacks, func(c domain.SessionCallback) bool { return c == cb })
}

// CallbackCount returns the number of registered callbacks.
func (s *Session) CallbackCount() int {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	return len(s.callbacks)
}
