package kafka

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"vn.io.arda/notifengine/internal/domain"
	"vn.io.arda/notifengine/internal/infrastructure/device"
	"vn.io.arda/notifengine/internal/infrastructure/prefs"
)

// Engine is the subset of application.Service driven by inbound events.
type Engine interface {
	OnEventPosted(ctx context.Context, e domain.Event) error
	OnEventRemoved(ctx context.Context, e domain.Event) error
	Resync(ctx context.Context) error
	RefreshBadgeState(ctx context.Context) error
	RefreshConversationState(ctx context.Context) error
}

// Dispatcher applies decoded device events: the mirror is updated first,
// then the engine is told about the change.
type Dispatcher struct {
	mirror *device.Mirror
	engine Engine
	prefs  *prefs.Provider
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(mirror *device.Mirror, engine Engine, prefs *prefs.Provider) *Dispatcher {
	return &Dispatcher{mirror: mirror, engine: engine, prefs: prefs}
}

// Apply handles one device event.
func (d *Dispatcher) Apply(ctx context.Context, ev *domain.DeviceEvent) error {
	switch ev.Kind {
	case domain.KindNotificationPosted:
		d.mirror.Post(*ev.Notification)
		return d.engine.OnEventPosted(ctx, *ev.Notification)

	case domain.KindNotificationRemoved:
		d.mirror.Remove(ev.Notification.Key)
		return d.engine.OnEventRemoved(ctx, *ev.Notification)

	case domain.KindListenerConnected:
		d.mirror.Replace(ev.Active)
		return d.engine.Resync(ctx)

	case domain.KindMediaAnnounced:
		d.mirror.Announce(*ev.Media)

	case domain.KindMediaMetadata:
		if !d.mirror.UpdateMetadata(ev.Media.Token, ev.Media.Metadata) {
			log.Debug().Str("token", ev.Media.Token).Msg("metadata for unknown media session")
		}

	case domain.KindMediaPlayback:
		if !d.mirror.UpdatePlayback(ev.Media.Token, ev.Media.State) {
			log.Debug().Str("token", ev.Media.Token).Msg("playback for unknown media session")
		}

	case domain.KindMediaDestroyed:
		d.mirror.Destroy(ev.Media.Token)

	case domain.KindPreferencesChanged:
		return d.applyPreferences(ctx, ev.Preferences)

	default:
		return fmt.Errorf("unknown device event kind: %q", ev.Kind)
	}
	return nil
}

func (d *Dispatcher) applyPreferences(ctx context.Context, u *domain.PreferenceUpdate) error {
	if u.BadgeAllowlist != nil && d.prefs.SetBadgeAllowlist(u.BadgeAllowlist) {
		if err := d.engine.RefreshBadgeState(ctx); err != nil {
			return err
		}
	}
	if u.ConversationAllowlist != nil && d.prefs.SetConversationAllowlist(u.ConversationAllowlist) {
		return d.engine.RefreshConversationState(ctx)
	}
	return nil
}
