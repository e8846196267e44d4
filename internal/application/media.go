package application

import (
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"vn.io.arda/notifengine/internal/domain"
)

type sessionResolver interface {
	Session(token string) (domain.MediaSession, bool)
}

// sessionCallback relays session changes of one package into the engine.
type sessionCallback struct {
	packageName string
	token       string
	notify      func(cb *sessionCallback, destroyed bool)
}

func (cb *sessionCallback) OnMetadataChanged(domain.MediaMetadata)      { cb.notify(cb, false) }
func (cb *sessionCallback) OnPlaybackStateChanged(domain.PlaybackState) { cb.notify(cb, false) }
func (cb *sessionCallback) OnSessionDestroyed()                         { cb.notify(cb, true) }

type watch struct {
	session  domain.MediaSession
	callback *sessionCallback
	// state is the playback state seen by the last Refresh.
	state domain.PlaybackState
}

// MediaTracker watches at most one media session per package and tracks
// the single session that is currently playing.
type MediaTracker struct {
	sessions sessionResolver
	notify   func(cb *sessionCallback, destroyed bool)

	watches map[string]*watch
	current atomic.Pointer[domain.MediaPlayerState]
}

// NewMediaTracker creates a tracker; notify is invoked from session callbacks.
func NewMediaTracker(sessions sessionResolver, notify func(cb *sessionCallback, destroyed bool)) *MediaTracker {
	return &MediaTracker{
		sessions: sessions,
		notify:   notify,
		watches:  make(map[string]*watch),
	}
}

// Watch attaches a callback to the session identified by token. An existing
// watch on another token is detached first. It returns false when the
// session cannot be resolved or subscribed.
func (t *MediaTracker) Watch(packageName, token string) bool {
	if w, ok := t.watches[packageName]; ok {
		if w.callback.token == token {
			return true
		}
		t.Unwatch(packageName)
	}

	session, ok := t.sessions.Session(token)
	if !ok {
		log.Warn().Str("pkg", packageName).Str("token", token).Msg("media session not found")
		return false
	}

	cb := &sessionCallback{packageName: packageName, token: token, notify: t.notify}
	if err := session.RegisterCallback(cb); err != nil {
		log.Warn().Err(err).Str("pkg", packageName).Str("token", token).Msg("media session subscribe failed")
		return false
	}

	t.watches[packageName] = &watch{session: session, callback: cb}
	log.Debug().Str("pkg", packageName).Str("token", token).Msg("media session watched")
	return true
}

// Unwatch detaches the callback of packageName and clears its media state.
func (t *MediaTracker) Unwatch(packageName string) {
	if w, ok := t.watches[packageName]; ok {
		w.session.UnregisterCallback(w.callback)
		delete(t.watches, packageName)
		log.Debug().Str("pkg", packageName).Str("token", w.callback.token).Msg("media session unwatched")
	}
	if cur := t.current.Load(); cur != nil && cur.PackageName == packageName {
		t.current.Store(nil)
	}
}

// UnwatchAll detaches every callback.
func (t *MediaTracker) UnwatchAll() {
	for pkg := range t.watches {
		t.Unwatch(pkg)
	}
}

// Watching reports whether packageName has an attached session.
func (t *MediaTracker) Watching(packageName string) bool {
	_, ok := t.watches[packageName]
	return ok
}

// Owns reports whether cb is the live callback of its package.
func (t *MediaTracker) Owns(cb *sessionCallback) bool {
	w, ok := t.watches[cb.packageName]
	return ok && w.callback == cb
}

// Live queries the watched session of packageName. Query failures are
// reported as a stopped session.
func (t *MediaTracker) Live(packageName string) (domain.PlaybackState, domain.MediaMetadata, bool) {
	w, ok := t.watches[packageName]
	if !ok {
		return domain.PlaybackNone, domain.MediaMetadata{}, false
	}

	state, err := w.session.PlaybackState()
	if err != nil {
		log.Warn().Err(err).Str("pkg", packageName).Msg("media playback state query failed")
		return domain.PlaybackStopped, domain.MediaMetadata{}, true
	}
	meta, err := w.session.Metadata()
	if err != nil {
		log.Warn().Err(err).Str("pkg", packageName).Msg("media metadata query failed")
		meta = domain.MediaMetadata{}
	}
	return state, meta, true
}

// Refresh updates the current player from the live state of packageName.
// It reports whether packageName has just started playing, that is whether
// its session moved into PLAYING since the previous Refresh. A package that
// keeps playing does not take the current player back from another one.
func (t *MediaTracker) Refresh(packageName string) bool {
	state, meta, ok := t.Live(packageName)
	if !ok {
		return false
	}
	w := t.watches[packageName]
	started := state == domain.PlaybackPlaying && w.state != domain.PlaybackPlaying
	w.state = state

	cur := t.current.Load()
	mine := cur != nil && cur.PackageName == packageName

	switch {
	case state == domain.PlaybackPlaying && (started || mine):
		t.current.Store(&domain.MediaPlayerState{
			PackageName:  packageName,
			SessionToken: w.callback.token,
			IsPlaying:    true,
			Title:        meta.Title,
			Artist:       meta.Artist,
		})
		return started
	case state == domain.PlaybackPlaying:
		log.Debug().Str("pkg", packageName).Msg("media session still playing in background")
	case mine && state.Stopped():
		t.current.Store(nil)
	case mine:
		paused := *cur
		paused.IsPlaying = false
		paused.Title, paused.Artist = meta.Title, meta.Artist
		t.current.Store(&paused)
	}
	return false
}

// Current returns a copy of the tracked player, if any.
func (t *MediaTracker) Current() (domain.MediaPlayerState, bool) {
	cur := t.current.Load()
	if cur == nil {
		return domain.MediaPlayerState{}, false
	}
	return *cur, true
}

// NowPlaying returns the package that is actively playing.
func (t *MediaTracker) NowPlaying() (string, bool) {
	cur := t.current.Load()
	if cur == nil || !cur.IsPlaying {
		return "", false
	}
	return cur.PackageName, true
}
