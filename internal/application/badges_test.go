package application_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vn.io.arda/notifengine/internal/application"
	"vn.io.arda/notifengine/internal/domain"
	"vn.io.arda/notifengine/internal/infrastructure/prefs"
)

type fakeMedia struct {
	live       map[string]domain.PlaybackState
	meta       map[string]domain.MediaMetadata
	nowPlaying string
}

func (f *fakeMedia) Live(pkg string) (domain.PlaybackState, domain.MediaMetadata, bool) {
	state, ok := f.live[pkg]
	return state, f.meta[pkg], ok
}

func (f *fakeMedia) NowPlaying() (string, bool) {
	return f.nowPlaying, f.nowPlaying != ""
}

func newAggregator(p *prefs.Provider, media *fakeMedia) *application.BadgeAggregator {
	if media == nil {
		return application.NewBadgeAggregator(application.NewSummaryClassifier(), p, nil)
	}
	return application.NewBadgeAggregator(application.NewSummaryClassifier(), p, media)
}

func defaultPrefs() *prefs.Provider {
	return prefs.New(nil, nil, domain.AllFields)
}

func msg(pkg, key string, postTime int64, title, text string) domain.Event {
	return domain.Event{
		PackageName: pkg,
		Key:         key,
		PostTime:    postTime,
		Category:    domain.CategoryMessage,
		Fields:      domain.Fields{Title: title, Text: text},
	}
}

func summary(e domain.Event) domain.Event {
	e.Flags |= domain.FlagGroupSummary
	return e
}

func TestRepresentative_PrefersNonSummary(t *testing.T) {
	b := newAggregator(defaultPrefs(), nil)
	active := []domain.Event{
		msg("com.chat", "k1", 100, "Alice", "hi"),
		summary(msg("com.chat", "k2", 200, "2 new messages", "")),
	}

	rep, ok := b.Representative(active)
	require.True(t, ok)
	assert.Equal(t, "k1", rep.Key)

	info, ok := b.Recompute("com.chat", active)
	require.True(t, ok)
	assert.Equal(t, 2, info.Count)
	assert.Equal(t, "Alice", info.Title)
	assert.Equal(t, int64(100), info.Timestamp)
}

func TestRepresentative_AllSummaries(t *testing.T) {
	b := newAggregator(defaultPrefs(), nil)
	active := []domain.Event{
		summary(msg("com.chat", "k1", 100, "old", "")),
		summary(msg("com.chat", "k2", 200, "new", "")),
	}

	rep, ok := b.Representative(active)
	require.True(t, ok)
	assert.Equal(t, "k2", rep.Key)
}

func TestRepresentative_TieBrokenByKey(t *testing.T) {
	b := newAggregator(defaultPrefs(), nil)
	rep, ok := b.Representative([]domain.Event{
		msg("p", "b", 5, "B", ""),
		msg("p", "a", 5, "A", ""),
	})
	require.True(t, ok)
	assert.Equal(t, "b", rep.Key)

	_, ok = b.Representative(nil)
	assert.False(t, ok)
}

func TestBadgeAggregator_UpdateAndRemove(t *testing.T) {
	b := newAggregator(defaultPrefs(), nil)

	b.Update("com.chat", []domain.Event{msg("com.chat", "k1", 1, "Alice", "hi")})
	info, ok := b.Get("com.chat")
	require.True(t, ok)
	assert.Equal(t, 1, info.Count)
	assert.Contains(t, b.Observable().Value(), "com.chat")

	// No active events: the badge disappears.
	b.Update("com.chat", nil)
	_, ok = b.Get("com.chat")
	assert.False(t, ok)
	assert.Empty(t, b.Observable().Value())
}

func TestBadgeAggregator_PublishDeduplicates(t *testing.T) {
	b := newAggregator(defaultPrefs(), nil)
	updates, cancel := b.Observable().Subscribe(16)
	defer cancel()
	<-updates

	active := []domain.Event{msg("com.chat", "k1", 1, "Alice", "hi")}
	b.Update("com.chat", active)
	b.Update("com.chat", active)
	b.Rebuild(map[string][]domain.Event{"com.chat": active})
	assert.False(t, b.Publish())

	assert.Len(t, updates, 1)
}

func TestBadgeAggregator_AllowlistFiltersPublishedView(t *testing.T) {
	p := prefs.New([]string{"com.google.*"}, nil, domain.AllFields)
	b := newAggregator(p, nil)

	b.Rebuild(map[string][]domain.Event{
		"com.google.chat": {msg("com.google.chat", "k1", 1, "Alice", "hi")},
		"org.signal":      {msg("org.signal", "k2", 2, "Bob", "yo")},
	})

	published := b.Observable().Value()
	assert.Contains(t, published, "com.google.chat")
	assert.NotContains(t, published, "org.signal")

	// The filtered-out package is still tracked.
	_, ok := b.Get("org.signal")
	assert.True(t, ok)
	assert.ElementsMatch(t, []string{"com.google.chat", "org.signal"}, b.Packages())

	p.SetBadgeAllowlist(nil)
	assert.True(t, b.Publish())
	assert.Len(t, b.Observable().Value(), 2)
}

func TestBadgeAggregator_RebuildDropsVanishedPackages(t *testing.T) {
	b := newAggregator(defaultPrefs(), nil)
	b.Update("a", []domain.Event{msg("a", "k1", 1, "A", "")})
	b.Update("b", []domain.Event{msg("b", "k2", 1, "B", "")})

	b.Rebuild(map[string][]domain.Event{"b": {msg("b", "k2", 1, "B", "")}})

	assert.Equal(t, []string{"b"}, b.Packages())
}

func media(pkg, key, token string, postTime int64) domain.Event {
	return domain.Event{
		PackageName: pkg,
		Key:         key,
		PostTime:    postTime,
		Category:    domain.CategoryTransport,
		AppLabel:    "Player",
		Fields:      domain.Fields{Title: "stale title", MediaSession: token},
	}
}

func TestRecompute_MediaUsesLiveMetadata(t *testing.T) {
	m := &fakeMedia{
		live:       map[string]domain.PlaybackState{"music": domain.PlaybackPlaying},
		meta:       map[string]domain.MediaMetadata{"music": {Title: "Song", Artist: "Band"}},
		nowPlaying: "music",
	}
	b := newAggregator(defaultPrefs(), m)

	info, ok := b.Recompute("music", []domain.Event{media("music", "m1", "t1", 1)})
	require.True(t, ok)
	assert.Equal(t, "Song", info.Title)
	assert.Equal(t, "Band", info.Text)
	assert.Equal(t, domain.CategoryTransport, info.Category)
}

func TestRecompute_StoppedMediaHasNoBadge(t *testing.T) {
	m := &fakeMedia{live: map[string]domain.PlaybackState{"music": domain.PlaybackStopped}}
	b := newAggregator(defaultPrefs(), m)

	_, ok := b.Recompute("music", []domain.Event{media("music", "m1", "t1", 1)})
	assert.False(t, ok)

	m.live["music"] = domain.PlaybackPaused
	_, ok = b.Recompute("music", []domain.Event{media("music", "m1", "t1", 1)})
	assert.True(t, ok)
}

func TestRecompute_OnlyNowPlayingMediaHasBadge(t *testing.T) {
	m := &fakeMedia{
		live:       map[string]domain.PlaybackState{"a": domain.PlaybackPlaying, "b": domain.PlaybackPaused},
		nowPlaying: "a",
	}
	b := newAggregator(defaultPrefs(), m)

	_, ok := b.Recompute("b", []domain.Event{media("b", "m2", "t2", 1)})
	assert.False(t, ok)
	_, ok = b.Recompute("a", []domain.Event{media("a", "m1", "t1", 1)})
	assert.True(t, ok)
}

func TestRemoveMediaExcept(t *testing.T) {
	b := newAggregator(defaultPrefs(), &fakeMedia{})
	b.Update("a", []domain.Event{media("a", "m1", "t1", 1)})
	b.Update("b", []domain.Event{media("b", "m2", "t2", 2)})
	b.Update("chat", []domain.Event{msg("chat", "k1", 3, "Alice", "hi")})

	b.RemoveMediaExcept("b")

	assert.ElementsMatch(t, []string{"b", "chat"}, b.Packages())
}

func TestBadgeAggregator_StaleSuppressesMediaOnly(t *testing.T) {
	b := newAggregator(defaultPrefs(), &fakeMedia{})
	b.MarkStale("music")
	b.MarkStale("chat")

	b.Rebuild(map[string][]domain.Event{
		"music": {media("music", "m1", "t1", 1)},
		"chat":  {msg("chat", "k1", 1, "Alice", "hi")},
	})
	assert.Equal(t, []string{"chat"}, b.Packages())
	assert.True(t, b.Stale("music"))

	b.Revive("music")
	b.Update("music", []domain.Event{media("music", "m1", "t1", 1)})
	assert.ElementsMatch(t, []string{"chat", "music"}, b.Packages())

	// Packages leaving the active set forget their mark.
	b.MarkStale("music")
	b.Rebuild(map[string][]domain.Event{})
	assert.False(t, b.Stale("music"))
	assert.False(t, b.Stale("chat"))
}
