// Package domain contains core business models and logic with no external dependencies.
// This package defines the fundamental entities of the WavePulse playback engine.
package domain

import (
	"fmt"
	"time"
)

// Track represents a single catalog track.
// Tracks are immutable once the catalog is loaded; the session and the queue
// only hold copies or pointers to them, never mutate them.
type Track struct {
	// ID is the catalog identifier (e.g. "track1" or a UUID for scanned files)
	ID string

	// Title is the song title
	Title string

	// Artist is the performing artist display name
	Artist string

	// ArtistID references the catalog artist
	ArtistID string

	// Album is the album display name
	Album string

	// AlbumID references the catalog album
	AlbumID string

	// CoverImageRef is a URL or path to the cover artwork
	CoverImageRef string

	// MediaRef is the file path or http(s) URL of the audio media
	MediaRef string

	// Duration is the catalog-declared length of the track
	Duration time.Duration

	// Genre is the music genre
	Genre string
}

// Artist is a read-only catalog artist record.
type Artist struct {
	ID     string
	Name   string
	Image  string
	Genres []string
	Bio    string
}

// Album is a read-only catalog album record.
type Album struct {
	ID          string
	Title       string
	Artist      string
	ArtistID    string
	CoverImage  string
	ReleaseYear int
	Genre       string
}

// Playlist is a named selection of catalog tracks.
type Playlist struct {
	ID          string
	Title       string
	CoverImage  string
	Description string
	TrackIDs    []string
}

// Genre is a catalog genre entry.
type Genre struct {
	ID   string
	Name string
}

// TransportState represents the playback engine's current mode.
type TransportState int

const (
	// StateIdle indicates nothing is loaded or the last load failed
	StateIdle TransportState = iota

	// StateLoading indicates media is being fetched/decoded or playback was requested but not started
	StateLoading

	// StatePlaying indicates the resource is producing samples
	StatePlaying

	// StatePaused indicates playback is paused
	StatePaused

	// StateEnded indicates the current media played to its end
	StateEnded
)

// String returns a human-readable representation of the transport state.
func (s TransportState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// SessionState is a point-in-time snapshot of the playback session.
type SessionState struct {
	// CurrentTrack is the track owned by the session (nil if none)
	CurrentTrack *Track

	// State is the transport state
	State TransportState

	// Volume is the output volume (0.0 to 1.0)
	Volume float64

	// Position is the current playback position
	Position time.Duration

	// Duration is the media duration reported by the resource (0 while unknown)
	Duration time.Duration
}

// IsPlaying returns true when the session is producing audio.
func (s SessionState) IsPlaying() bool {
	return s.State == StatePlaying
}

// Progress returns the position as a fraction of the duration, or 0 if the duration is unknown.
func (s SessionState) Progress() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return s.Position.Seconds() / s.Duration.Seconds()
}

// LoadToken identifies a single load request on the audio resource.
// Media events carry the token of the load that produced them.
type LoadToken uint64

const (
	// NoLoadToken is never handed out by a resource
	NoLoadToken LoadToken = 0
)

// ResourceID identifies an audio resource instance.
type ResourceID string

// FormatTime formats a duration as m:ss.
func FormatTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
