package handlers

import (
	"encoding/json"
	"strings"

	"vn.io.arda/notifengine/internal/domain"
)

func init() {
	Register(MediaTopic, string(domain.KindMediaAnnounced), handleMedia(domain.KindMediaAnnounced))
	Register(MediaTopic, string(domain.KindMediaMetadata), handleMedia(domain.KindMediaMetadata))
	Register(MediaTopic, string(domain.KindMediaPlayback), handleMedia(domain.KindMediaPlayback))
	Register(MediaTopic, string(domain.KindMediaDestroyed), handleMedia(domain.KindMediaDestroyed))
}

type mediaEnv struct {
	EventType   string `json:"eventType"`
	EventID     string `json:"eventId"`
	Token       string `json:"token"`
	PackageName string `json:"packageName"`
	State       string `json:"state"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
}

func handleMedia(kind domain.DeviceEventKind) func([]byte) *domain.DeviceEvent {
	return func(data []byte) *domain.DeviceEvent {
		var env mediaEnv
		if err := json.Unmarshal(data, &env); err != nil || env.Token == "" {
			return nil
		}
		if kind == domain.KindMediaAnnounced && env.PackageName == "" {
			return nil
		}
		return &domain.DeviceEvent{
			Kind:    kind,
			EventID: env.EventID,
			Media: &domain.MediaUpdate{
				Token:       env.Token,
				PackageName: env.PackageName,
				State:       parseState(env.State),
				Metadata:    domain.MediaMetadata{Title: env.Title, Artist: env.Artist},
			},
		}
	}
}

func parseState(s string) domain.PlaybackState {
	state := domain.PlaybackState(strings.ToUpper(strings.TrimSpace(s)))
	switch state {
	case domain.PlaybackStopped, domain.PlaybackPaused, domain.PlaybackPlaying,
		domain.PlaybackBuffering, domain.PlaybackError:
		return state
	}
	return domain.PlaybackNone
}
