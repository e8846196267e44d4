package application

import (
	"maps"

	"vn.io.arda/notifengine/internal/domain"
)

// liveMedia exposes the live state of watched media sessions.
type liveMedia interface {
	Live(packageName string) (domain.PlaybackState, domain.MediaMetadata, bool)
	NowPlaying() (string, bool)
}

// BadgeAggregator keeps one NotificationInfo per package and publishes the
// allowlist-filtered view only when it differs from the last emitted one.
type BadgeAggregator struct {
	classifier *SummaryClassifier
	prefs      domain.Preferences
	media      liveMedia

	all map[string]domain.NotificationInfo
	// stale holds packages whose media badge was swept; their media
	// representative yields no badge until Revive is called.
	stale map[string]struct{}
	last  domain.BadgeSnapshot
	out  *Observable[domain.BadgeSnapshot]
}

// NewBadgeAggregator creates an aggregator with an empty published snapshot.
func NewBadgeAggregator(classifier *SummaryClassifier, prefs domain.Preferences, media liveMedia) *BadgeAggregator {
	return &BadgeAggregator{
		classifier: classifier,
		prefs:      prefs,
		media:      media,
		all:        make(map[string]domain.NotificationInfo),
		stale:      make(map[string]struct{}),
		last:       domain.BadgeSnapshot{},
		out:        NewObservable(domain.BadgeSnapshot{}),
	}
}

// Observable returns the published badge snapshots.
func (b *BadgeAggregator) Observable() *Observable[domain.BadgeSnapshot] {
	return b.out
}

// Representative picks the most recent non-summary event, or the most
// recent event overall when every event is a summary.
func (b *BadgeAggregator) Representative(active []domain.Event) (domain.Event, bool) {
	var best, bestAny *domain.Event
	for i := range active {
		e := &active[i]
		if newer(e, bestAny) {
			bestAny = e
		}
		if !b.classifier.IsSummary(*e) && newer(e, best) {
			best = e
		}
	}
	if best == nil {
		best = bestAny
	}
	if best == nil {
		return domain.Event{}, false
	}
	return *best, true
}

// Recompute derives the badge state of packageName from its active events.
// It returns false when the package should have no badge.
func (b *BadgeAggregator) Recompute(packageName string, active []domain.Event) (domain.NotificationInfo, bool) {
	rep, ok := b.Representative(active)
	if !ok {
		return domain.NotificationInfo{}, false
	}

	title, text := DisplayText(rep, b.prefs.Display())
	info := domain.NotificationInfo{
		Count:     max(len(active), 1),
		Title:     title,
		Text:      text,
		Category:  rep.Category,
		Timestamp: rep.PostTime,
	}

	if rep.Category.IsMedia() {
		if _, ok := b.stale[packageName]; ok {
			return domain.NotificationInfo{}, false
		}
	}
	if rep.Category.IsMedia() && b.media != nil {
		if playing, ok := b.media.NowPlaying(); ok && playing != packageName {
			return domain.NotificationInfo{}, false
		}
		if state, meta, watched := b.media.Live(packageName); watched {
			if state.Stopped() {
				return domain.NotificationInfo{}, false
			}
			if meta.Title != "" {
				info.Title = meta.Title
			}
			if meta.Artist != "" {
				info.Text = meta.Artist
			}
		}
	}
	return info, true
}

// Update recomputes packageName, stores or clears its entry and publishes.
func (b *BadgeAggregator) Update(packageName string, active []domain.Event) {
	b.apply(packageName, active)
	b.Publish()
}

// Rebuild recomputes every package from the full active set and publishes once.
// Packages without active events lose their badge.
func (b *BadgeAggregator) Rebuild(active map[string][]domain.Event) {
	for pkg := range b.all {
		if _, ok := active[pkg]; !ok {
			delete(b.all, pkg)
		}
	}
	for pkg := range b.stale {
		if _, ok := active[pkg]; !ok {
			delete(b.stale, pkg)
		}
	}
	for pkg, events := range active {
		b.apply(pkg, events)
	}
	b.Publish()
}

func (b *BadgeAggregator) apply(packageName string, active []domain.Event) {
	if len(active) == 0 {
		delete(b.stale, packageName)
	}
	if info, ok := b.Recompute(packageName, active); ok {
		b.all[packageName] = info
	} else {
		delete(b.all, packageName)
	}
}

// MarkStale suppresses the media badge of packageName without publishing.
// It takes effect on the next Update or Rebuild.
func (b *BadgeAggregator) MarkStale(packageName string) {
	b.stale[packageName] = struct{}{}
}

// Revive lifts a MarkStale suppression.
func (b *BadgeAggregator) Revive(packageName string) {
	delete(b.stale, packageName)
}

// Stale reports whether the media badge of packageName is suppressed.
func (b *BadgeAggregator) Stale(packageName string) bool {
	_, ok := b.stale[packageName]
	return ok
}

// Remove clears the badge of packageName and publishes.
func (b *BadgeAggregator) Remove(packageName string) {
	if _, ok := b.all[packageName]; !ok {
		return
	}
	delete(b.all, packageName)
	b.Publish()
}

// RemoveMediaExcept clears every media-category badge except the one of keep.
func (b *BadgeAggregator) RemoveMediaExcept(keep string) {
	changed := false
	for pkg, info := range b.all {
		if pkg != keep && info.Category.IsMedia() {
			delete(b.all, pkg)
			changed = true
		}
	}
	if changed {
		b.Publish()
	}
}

// Get returns the unfiltered badge state of packageName.
func (b *BadgeAggregator) Get(packageName string) (domain.NotificationInfo, bool) {
	info, ok := b.all[packageName]
	return info, ok
}

// Packages returns every package holding a badge, filtered or not.
func (b *BadgeAggregator) Packages() []string {
	out := make([]string, 0, len(b.all))
	for pkg := range b.all {
		out = append(out, pkg)
	}
	return out
}

// Publish emits the filtered snapshot if it differs from the last one.
// It reports whether an emission happened.
func (b *BadgeAggregator) Publish() bool {
	allow := b.prefs.BadgeAllowlist()
	filtered := make(domain.BadgeSnapshot, len(b.all))
	for pkg, info := range b.all {
		if allow.Allows(pkg) {
			filtered[pkg] = info
		}
	}
	if maps.Equal(filtered, b.last) {
		return false
	}
	b.last = filtered
	b.out.Publish(maps.Clone(filtered))
	return true
}

func newer(e, than *domain.Event) bool {
	if than == nil {
		return true
	}
	if e.PostTime != than.PostTime {
		return e.PostTime > than.PostTime
	}
	return e.Key > than.Key
}
