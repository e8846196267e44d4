package application

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"vn.io.arda/notifengine/internal/domain"
)

const inboxSize = 256

type op func(ctx context.Context)

// Service is the notification engine. All state is mutated on the goroutine
// running Run; public methods enqueue work onto it.
type Service struct {
	device domain.Device
	prefs  domain.Preferences

	classifier    *SummaryClassifier
	badges        *BadgeAggregator
	conversations *ConversationStore
	media         *MediaTracker

	inbox   chan op
	started atomic.Bool
	stopped chan struct{}
}

// NewService creates a new engine. Call Run to start it.
func NewService(device domain.Device, repo domain.ConversationRepository, prefs domain.Preferences) *Service {
	s := &Service{
		device:  device,
		prefs:   prefs,
		inbox:   make(chan op, inboxSize),
		stopped: make(chan struct{}),
	}
	s.classifier = NewSummaryClassifier()
	s.media = NewMediaTracker(device, s.onSessionCallback)
	s.badges = NewBadgeAggregator(s.classifier, prefs, s.media)
	s.conversations = NewConversationStore(repo, prefs)
	return s
}

// Run restores persisted conversations, resynchronizes with the active
// notifications and then processes inbound work until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return errors.New("engine already started")
	}
	defer close(s.stopped)

	s.conversations.Restore(ctx)
	s.resync(ctx)
	log.Info().Msg("notification engine started")

	for {
		select {
		case fn := <-s.inbox:
			fn(ctx)
		case <-ctx.Done():
			s.media.UnwatchAll()
			log.Info().Msg("notification engine stopped")
			return nil
		}
	}
}

// Badges returns the observable badge state.
func (s *Service) Badges() *Observable[domain.BadgeSnapshot] {
	return s.badges.Observable()
}

// Conversations returns the observable conversation state.
func (s *Service) Conversations() *Observable[domain.ConversationSnapshot] {
	return s.conversations.Observable()
}

// CurrentMediaPlayer returns the tracked media player, if any.
func (s *Service) CurrentMediaPlayer() (domain.MediaPlayerState, bool) {
	return s.media.Current()
}

// OnEventPosted processes a posted notification.
func (s *Service) OnEventPosted(ctx context.Context, e domain.Event) error {
	return s.do(ctx, func(ctx context.Context) { s.posted(ctx, e) })
}

// OnEventRemoved processes a removed notification.
func (s *Service) OnEventRemoved(ctx context.Context, e domain.Event) error {
	return s.do(ctx, func(context.Context) { s.removed(e) })
}

// Resync sweeps media badges whose sessions are not playing and rebuilds
// every badge from the active notifications.
func (s *Service) Resync(ctx context.Context) error {
	return s.do(ctx, s.resync)
}

// RefreshBadgeState re-derives and republishes badges without new events.
// Nothing is emitted when the filtered view is unchanged.
func (s *Service) RefreshBadgeState(ctx context.Context) error {
	return s.do(ctx, func(context.Context) {
		s.badges.Rebuild(s.activeByPackage())
	})
}

// RefreshConversationState re-filters and republishes conversations.
func (s *Service) RefreshConversationState(ctx context.Context) error {
	return s.do(ctx, func(context.Context) { s.conversations.Publish() })
}

// RemoveConversation deletes one conversation. It reports whether it existed.
func (s *Service) RemoveConversation(ctx context.Context, packageName, conversationID string) (bool, error) {
	var removed bool
	err := s.do(ctx, func(ctx context.Context) {
		removed = s.conversations.Remove(ctx, packageName, conversationID)
	})
	return removed, err
}

// OpenConversation deep-links into a conversation, falling back to a plain
// application launch. When removeAfterOpen is set the conversation is
// removed whichever path was taken. It reports whether anything opened.
func (s *Service) OpenConversation(ctx context.Context, packageName, notificationKey, conversationID string, removeAfterOpen bool) bool {
	var opened bool
	err := s.do(ctx, func(ctx context.Context) {
		opened = s.open(ctx, packageName, notificationKey, conversationID, removeAfterOpen)
	})
	if err != nil {
		log.Warn().Err(err).Str("pkg", packageName).Msg("open conversation not processed")
		return false
	}
	return opened
}

func (s *Service) posted(ctx context.Context, e domain.Event) {
	pkg := e.PackageName
	summary := s.classifier.IsSummary(e)
	s.badges.Revive(pkg)

	if e.Category.IsMedia() && e.Fields.MediaSession != "" {
		if !s.media.Watch(pkg, e.Fields.MediaSession) {
			s.media.Unwatch(pkg)
			s.badges.Remove(pkg)
			return
		}
		if s.media.Refresh(pkg) {
			s.badges.RemoveMediaExcept(pkg)
		}
	}

	s.badges.Update(pkg, s.activeFor(pkg, ""))

	if summary {
		return
	}
	if c, ok := ConversationFromEvent(e, s.prefs.Display()); ok {
		s.conversations.Upsert(ctx, pkg, c)
		log.Debug().Str("pkg", pkg).Str("conversation", c.ConversationID).Msg("conversation updated")
	}
}

func (s *Service) removed(e domain.Event) {
	s.badges.Update(e.PackageName, s.activeFor(e.PackageName, e.Key))
}

func (s *Service) resync(context.Context) {
	active := s.activeByPackage()
	s.sweepStaleMedia(active)
	s.badges.Rebuild(active)
}

// sweepStaleMedia marks every package whose media notifications do not all
// belong to a playing session as stale. Stale packages keep no media badge
// until they post again or their session reports a change.
func (s *Service) sweepStaleMedia(active map[string][]domain.Event) {
	for pkg, events := range active {
		hasMedia, playing := false, true
		for _, e := range events {
			if !e.Category.IsMedia() {
				continue
			}
			hasMedia = true
			if !s.mediaPlaying(pkg, e.Fields.MediaSession) {
				playing = false
			}
		}
		if !hasMedia || playing {
			s.badges.Revive(pkg)
			continue
		}
		log.Debug().Str("pkg", pkg).Msg("clearing stale media badge")
		s.badges.MarkStale(pkg)
	}
}

// mediaPlaying watches the session behind token and reports whether it is playing.
func (s *Service) mediaPlaying(pkg, token string) bool {
	if token == "" || !s.media.Watch(pkg, token) {
		return false
	}
	s.media.Refresh(pkg)
	state, _, _ := s.media.Live(pkg)
	return state == domain.PlaybackPlaying
}

func (s *Service) open(ctx context.Context, packageName, notificationKey, conversationID string, removeAfterOpen bool) bool {
	if notificationKey == "" && conversationID != "" {
		if c, ok := s.conversations.Get(packageName, conversationID); ok {
			notificationKey = c.NotificationKey
		}
	}

	opened := false
	if notificationKey != "" {
		if err := s.device.OpenConversation(ctx, packageName, notificationKey); err != nil {
			log.Warn().Err(err).Str("pkg", packageName).Str("key", notificationKey).Msg("deep link failed, launching app")
		} else {
			opened = true
		}
	}
	if !opened {
		if err := s.device.LaunchApp(ctx, packageName); err != nil {
			log.Error().Err(err).Str("pkg", packageName).Msg("app launch failed")
		} else {
			opened = true
		}
	}

	if removeAfterOpen && conversationID != "" {
		s.conversations.Remove(ctx, packageName, conversationID)
	}
	return opened
}

// onSessionCallback runs on the OS side; it hands the change to the engine loop.
func (s *Service) onSessionCallback(cb *sessionCallback, destroyed bool) {
	s.post(func(context.Context) {
		if !s.media.Owns(cb) {
			return
		}
		pkg := cb.packageName
		if destroyed {
			s.media.Unwatch(pkg)
			s.badges.Remove(pkg)
			return
		}
		s.badges.Revive(pkg)
		if s.media.Refresh(pkg) {
			s.badges.RemoveMediaExcept(pkg)
		}
		s.badges.Update(pkg, s.activeFor(pkg, ""))
	})
}

// activeFor returns the active events of packageName, excluding skipKey.
func (s *Service) activeFor(packageName, skipKey string) []domain.Event {
	var out []domain.Event
	for _, e := range s.device.ActiveEvents() {
		if e.PackageName == packageName && (skipKey == "" || e.Key != skipKey) {
			out = append(out, e)
		}
	}
	return out
}

func (s *Service) activeByPackage() map[string][]domain.Event {
	out := make(map[string][]domain.Event)
	for _, e := range s.device.ActiveEvents() {
		out[e.PackageName] = append(out[e.PackageName], e)
	}
	return out
}

// do enqueues fn and waits until the engine has processed it.
func (s *Service) do(ctx context.Context, fn op) error {
	done := make(chan struct{})
	wrapped := func(ctx context.Context) {
		defer close(done)
		fn(ctx)
	}

	select {
	case s.inbox <- wrapped:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.stopped:
		return domain.ErrEngineStopped
	}

	select {
	case <-done:
		return nil
	case <-s.stopped:
		return domain.ErrEngineStopped
	}
}

// post enqueues fn without waiting for it.
func (s *Service) post(fn op) {
	select {
	case s.inbox <- fn:
	case <-s.stopped:
	}
}
