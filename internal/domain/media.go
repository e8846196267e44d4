package domain

import "errors"

var (
	// ErrSessionGone is returned by a MediaSession whose session was destroyed.
	ErrSessionGone = errors.New("media session destroyed")
	// ErrEngineStopped is returned when an operation is submitted after the engine stopped.
	ErrEngineStopped = errors.New("engine is not running")
)

// PlaybackState is the playback state reported by a media session.
type PlaybackState string

const (
	PlaybackNone      PlaybackState = "NONE"
	PlaybackStopped   PlaybackState = "STOPPED"
	PlaybackPaused    PlaybackState = "PAUSED"
	PlaybackPlaying   PlaybackState = "PLAYING"
	PlaybackBuffering PlaybackState = "BUFFERING"
	PlaybackError     PlaybackState = "ERROR"
)

// Stopped reports whether playback has ended. Paused sessions are not stopped.
func (s PlaybackState) Stopped() bool {
	switch s {
	case PlaybackNone, PlaybackStopped, PlaybackError, "":
		return true
	}
	return false
}

// MediaMetadata is the subset of session metadata the engine displays.
type MediaMetadata struct {
	Title  string `json:"title,omitempty"`
	Artist string `json:"artist,omitempty"`
}

// SessionCallback receives media session changes.
type SessionCallback interface {
	OnMetadataChanged(MediaMetadata)
	OnPlaybackStateChanged(PlaybackState)
	OnSessionDestroyed()
}

// MediaSession is a handle to a live media session owned by the OS.
type MediaSession interface {
	Token() string
	PlaybackState() (PlaybackState, error)
	Metadata() (MediaMetadata, error)
	RegisterCallback(cb SessionCallback) error
	UnregisterCallback(cb SessionCallback)
}
