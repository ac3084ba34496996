// Package ports define interfaces for dependency inversion.
// These interfaces allow the core playback logic to remain independent of the audio backend.
package ports

import (
	"time"

	"github.com/tejashwikalptaru/wavepulse/internal/domain"
)

// MediaEventKind enumerates the notifications an AudioResource emits.
type MediaEventKind int

const (
	// MediaCanPlay fires once enough media is buffered to start output
	MediaCanPlay MediaEventKind = iota + 1

	// MediaPlaying fires when output actually starts for the load
	MediaPlaying

	// MediaTimeUpdate fires periodically while playing
	MediaTimeUpdate

	// MediaDurationChange fires when the media duration becomes known or changes
	MediaDurationChange

	// MediaSeekable fires when the media can be repositioned
	MediaSeekable

	// MediaEnded fires when output reaches the end of the media
	MediaEnded

	// MediaError fires when buffering or decoding fails after Load returned
	MediaError
)

// String returns the event kind name.
func (k MediaEventKind) String() string {
	switch k {
	case MediaCanPlay:
		return "canplay"
	case MediaPlaying:
		return "playing"
	case MediaTimeUpdate:
		return "timeupdate"
	case MediaDurationChange:
		return "durationchange"
	case MediaSeekable:
		return "seekable"
	case MediaEnded:
		return "ended"
	case MediaError:
		return "error"
	default:
		return "unknown"
	}
}

// MediaEvent is a notification from an AudioResource about one load request.
type MediaEvent struct {
	Kind     MediaEventKind
	Token    domain.LoadToken
	Position time.Duration
	Duration time.Duration
	Err      error
}

// MediaListener receives media events. Listeners may be called from any
// goroutine, including synchronously from inside a resource method.
type MediaListener func(MediaEvent)

// AudioResource is the single decodable-audio handle owned by the playback session.
// Loading new media replaces the previous media in place; the resource itself,
// its output chain and its analysis tap outlive individual tracks.
//
// Implementations must be thread-safe.
type AudioResource interface {
	// ID identifies the resource instance for analysis binding.
	ID() domain.ResourceID

	// Load resolves the media reference and starts buffering it.
	// Resolution errors (missing file, bad URL, unknown format) are returned
	// synchronously; later failures arrive as MediaError events carrying the token.
	// A new Load supersedes any earlier one.
	Load(mediaRef string) (domain.LoadToken, error)

	// Play requests output for the current load. Output begins once the media
	// is buffered; MediaPlaying reports the actual start.
	// Returns an error wrapping domain.ErrPlaybackRejected when the host refuses output.
	Play() error

	// Pause halts output and keeps the position.
	Pause() error

	// Seek repositions the current media.
	// Returns domain.ErrNotSeekable until MediaSeekable has fired for the load.
	Seek(position time.Duration) error

	// SetVolume sets the output gain in [0, 1].
	SetVolume(volume float64) error

	// Position returns the current playback position.
	Position() time.Duration

	// Duration returns the media duration, or 0 while unknown.
	Duration() time.Duration

	// Subscribe registers a listener and returns a function that removes it.
	Subscribe(listener MediaListener) (cancel func())

	// AttachTap inserts an analysis tap between the source and the output.
	// A resource accepts one tap for its whole lifetime; a second call returns
	// domain.ErrTapAlreadyAttached.
	AttachTap() (SampleTap, error)

	// Close stops output and releases the resource. Further calls fail with
	// domain.ErrResourceClosed.
	Close() error
}

// SampleTap exposes the most recent mono samples flowing through a resource.
// Reads never block on audio.
type SampleTap interface {
	// Samples copies the latest len(dst) samples into dst, oldest first,
	// and returns how many were available.
	Samples(dst []float64) int

	// SampleRate returns the rate of the tapped stream in Hz.
	SampleRate() int

	// Detach removes the tap from the chain. Audio keeps flowing.
	Detach() error
}

// MetadataReader extracts track information from a local audio file
// without loading it for playback.
type MetadataReader interface {
	ReadMetadata(filePath string) (*domain.Track, error)
}
