package application

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
	"vn.io.arda/notifengine/internal/domain"
)

// DefaultConversationID is used when no other identity can be derived.
const DefaultConversationID = "default"

// ConversationStore keeps the latest ConversationNotification per
// (package, conversation id). Every mutation republishes the filtered view
// and persists the unfiltered store.
type ConversationStore struct {
	repo  domain.ConversationRepository
	prefs domain.Preferences

	data map[string]map[string]domain.ConversationNotification
	last domain.ConversationSnapshot
	out  *Observable[domain.ConversationSnapshot]
}

// NewConversationStore creates an empty store backed by repo.
func NewConversationStore(repo domain.ConversationRepository, prefs domain.Preferences) *ConversationStore {
	return &ConversationStore{
		repo:  repo,
		prefs: prefs,
		data:  make(map[string]map[string]domain.ConversationNotification),
		last:  domain.ConversationSnapshot{},
		out:   NewObservable(domain.ConversationSnapshot{}),
	}
}

// Observable returns the published conversation snapshots.
func (s *ConversationStore) Observable() *Observable[domain.ConversationSnapshot] {
	return s.out
}

// Upsert stores c under (packageName, c.ConversationID), replacing any previous entry.
func (s *ConversationStore) Upsert(ctx context.Context, packageName string, c domain.ConversationNotification) {
	byID := s.data[packageName]
	if byID == nil {
		byID = make(map[string]domain.ConversationNotification)
		s.data[packageName] = byID
	}
	byID[c.ConversationID] = c
	s.changed(ctx)
}

// Remove deletes one conversation. It reports whether an entry existed.
func (s *ConversationStore) Remove(ctx context.Context, packageName, conversationID string) bool {
	byID := s.data[packageName]
	if _, ok := byID[conversationID]; !ok {
		return false
	}
	delete(byID, conversationID)
	if len(byID) == 0 {
		delete(s.data, packageName)
	}
	s.changed(ctx)
	return true
}

// Get returns one stored conversation.
func (s *ConversationStore) Get(packageName, conversationID string) (domain.ConversationNotification, bool) {
	c, ok := s.data[packageName][conversationID]
	return c, ok
}

// Snapshot returns the unfiltered store, each list sorted newest first.
func (s *ConversationStore) Snapshot() domain.ConversationSnapshot {
	return s.snapshot(nil)
}

// Publish emits the allowlist-filtered snapshot if it changed.
func (s *ConversationStore) Publish() bool {
	filtered := s.snapshot(s.prefs.ConversationAllowlist())
	if maps.EqualFunc(filtered, s.last, slices.Equal[[]domain.ConversationNotification]) {
		return false
	}
	s.last = filtered
	s.out.Publish(filtered)
	return true
}

// Restore loads the persisted store and publishes it once. A missing or
// unreadable document leaves the store empty.
func (s *ConversationStore) Restore(ctx context.Context) {
	stored, err := s.repo.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("conversation restore failed, starting empty")
		stored = nil
	}

	s.data = make(map[string]map[string]domain.ConversationNotification, len(stored))
	for pkg, list := range stored {
		for _, c := range list {
			if c.ConversationID == "" {
				continue
			}
			if s.data[pkg] == nil {
				s.data[pkg] = make(map[string]domain.ConversationNotification)
			}
			s.data[pkg][c.ConversationID] = c
		}
	}

	log.Info().Int("packages", len(s.data)).Msg("conversations restored")
	s.Publish()
}

func (s *ConversationStore) changed(ctx context.Context) {
	s.Publish()
	if err := s.repo.Save(ctx, s.Snapshot()); err != nil {
		log.Error().Err(err).Msg("conversation persist failed")
	}
}

func (s *ConversationStore) snapshot(allow domain.Allowlist) domain.ConversationSnapshot {
	out := make(domain.ConversationSnapshot, len(s.data))
	for pkg, byID := range s.data {
		if !allow.Allows(pkg) {
			continue
		}
		list := slices.Collect(maps.Values(byID))
		slices.SortFunc(list, func(a, b domain.ConversationNotification) int {
			if c := cmp.Compare(b.Timestamp, a.Timestamp); c != 0 {
				return c
			}
			return cmp.Compare(a.ConversationID, b.ConversationID)
		})
		out[pkg] = list
	}
	return out
}

// ConversationFromEvent builds the conversation entry for e. It returns
// false when e is not conversation-eligible.
func ConversationFromEvent(e domain.Event, prefs domain.DisplayPreferences) (domain.ConversationNotification, bool) {
	if e.Category.IsMedia() {
		return domain.ConversationNotification{}, false
	}
	c := Extract(e, prefs)
	if c.Sender == "" && c.Group == "" && c.Message == "" {
		return domain.ConversationNotification{}, false
	}
	return domain.ConversationNotification{
		ConversationID:    ConversationID(e),
		ConversationTitle: c.Group,
		Sender:            c.Sender,
		Message:           c.Message,
		Timestamp:         e.PostTime,
		Category:          e.Category,
		NotificationKey:   e.Key,
	}, true
}

// ConversationID derives the conversation identity of e. Display preferences
// do not influence it, so the same thread always maps to the same id.
func ConversationID(e domain.Event) string {
	c := Extract(e, domain.AllFields)
	if c.Group != "" {
		return c.Group
	}

	person := ""
	if len(e.Fields.People) > 0 {
		person = stripScheme(Normalize(e.Fields.People[0]))
	}
	switch {
	case e.Category == domain.CategoryMessage && person != "":
		return "sms_" + person
	case e.Category == domain.CategoryEmail && c.Sender != "":
		return "email_" + strings.ToLower(c.Sender)
	case e.Category == domain.CategoryCall && person != "":
		return "call_" + person
	}

	if c.Sender != "" {
		return c.Sender
	}
	return DefaultConversationID
}

func stripScheme(person string) string {
	for _, scheme := range []string{"tel:", "mailto:", "sms:"} {
		if strings.HasPrefix(strings.ToLower(person), scheme) {
			return person[len(scheme):]
		}
	}
	return person
}
