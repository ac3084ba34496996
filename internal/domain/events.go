// Package domain defines events for the event-driven architecture.
// Events decouple the playback session from the scheduler, the analysis graph and the UI.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Playback events
	EventTrackLoading  EventType = "track.loading"
	EventTrackStarted  EventType = "track.started"
	EventTrackPaused   EventType = "track.paused"
	EventTrackEnded    EventType = "track.ended"
	EventTrackProgress EventType = "track.progress"
	EventTrackDuration EventType = "track.duration"
	EventTrackError    EventType = "track.error"

	EventPlaybackRejected EventType = "playback.rejected"

	// Volume events
	EventVolumeChanged EventType = "volume.changed"

	// Queue events
	EventQueueChanged EventType = "queue.changed"

	// Analysis events
	EventAnalysisBound    EventType = "analysis.bound"
	EventAnalysisDegraded EventType = "analysis.degraded"

	// Library scanning events
	EventScanStarted   EventType = "scan.started"
	EventScanProgress  EventType = "scan.progress"
	EventScanCompleted EventType = "scan.completed"
	EventScanCancelled EventType = "scan.cancelled"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

// newBaseEvent creates a new base event with the current timestamp.
func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// TrackLoadingEvent is published when the session hands a new media reference to the resource.
type TrackLoadingEvent struct {
	baseEvent
	Track Track
	Token LoadToken
}

// Type returns the event type.
func (e TrackLoadingEvent) Type() EventType {
	return EventTrackLoading
}

// NewTrackLoadingEvent creates a new TrackLoadingEvent.
func NewTrackLoadingEvent(track Track, token LoadToken) TrackLoadingEvent {
	return TrackLoadingEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Token:     token,
	}
}

// TrackStartedEvent is published when the resource starts producing audio for the current load.
type TrackStartedEvent struct {
	baseEvent
	Track    Track
	Resource ResourceID
}

// Type returns the event type.
func (e TrackStartedEvent) Type() EventType {
	return EventTrackStarted
}

// NewTrackStartedEvent creates a new TrackStartedEvent.
func NewTrackStartedEvent(track Track, resource ResourceID) TrackStartedEvent {
	return TrackStartedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Resource:  resource,
	}
}

// TrackPausedEvent is published when playback is paused.
type TrackPausedEvent struct {
	baseEvent
	Track    Track
	Position time.Duration
}

// Type returns the event type.
func (e TrackPausedEvent) Type() EventType {
	return EventTrackPaused
}

// NewTrackPausedEvent creates a new TrackPausedEvent.
func NewTrackPausedEvent(track Track, position time.Duration) TrackPausedEvent {
	return TrackPausedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Position:  position,
	}
}

// TrackEndedEvent is published exactly once when the current media plays to its end.
type TrackEndedEvent struct {
	baseEvent
	Track Track
	Token LoadToken
}

// Type returns the event type.
func (e TrackEndedEvent) Type() EventType {
	return EventTrackEnded
}

// NewTrackEndedEvent creates a new TrackEndedEvent.
func NewTrackEndedEvent(track Track, token LoadToken) TrackEndedEvent {
	return TrackEndedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Token:     token,
	}
}

// TrackProgressEvent is published periodically during playback.
type TrackProgressEvent struct {
	baseEvent
	Position time.Duration
	Duration time.Duration
}

// Type returns the event type.
func (e TrackProgressEvent) Type() EventType {
	return EventTrackProgress
}

// NewTrackProgressEvent creates a new TrackProgressEvent.
func NewTrackProgressEvent(position, duration time.Duration) TrackProgressEvent {
	return TrackProgressEvent{
		baseEvent: newBaseEvent(),
		Position:  position,
		Duration:  duration,
	}
}

// TrackDurationEvent is published when the resource learns the media duration.
type TrackDurationEvent struct {
	baseEvent
	Duration time.Duration
}

// Type returns the event type.
func (e TrackDurationEvent) Type() EventType {
	return EventTrackDuration
}

// NewTrackDurationEvent creates a new TrackDurationEvent.
func NewTrackDurationEvent(duration time.Duration) TrackDurationEvent {
	return TrackDurationEvent{
		baseEvent: newBaseEvent(),
		Duration:  duration,
	}
}

// TrackErrorEvent is published when a track fails to load or decode.
type TrackErrorEvent struct {
	baseEvent
	Track Track
	Error error
}

// Type returns the event type.
func (e TrackErrorEvent) Type() EventType {
	return EventTrackError
}

// NewTrackErrorEvent creates a new TrackErrorEvent.
func NewTrackErrorEvent(track Track, err error) TrackErrorEvent {
	return TrackErrorEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Error:     err,
	}
}

// PlaybackRejectedEvent is published when the host refuses to start output.
type PlaybackRejectedEvent struct {
	baseEvent
	Track Track
	Error error
}

// Type returns the event type.
func (e PlaybackRejectedEvent) Type() EventType {
	return EventPlaybackRejected
}

// NewPlaybackRejectedEvent creates a new PlaybackRejectedEvent.
func NewPlaybackRejectedEvent(track Track, err error) PlaybackRejectedEvent {
	return PlaybackRejectedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Error:     err,
	}
}

// VolumeChangedEvent is published when the volume changes.
type VolumeChangedEvent struct {
	baseEvent
	Volume float64
}

// Type returns the event type.
func (e VolumeChangedEvent) Type() EventType {
	return EventVolumeChanged
}

// NewVolumeChangedEvent creates a new VolumeChangedEvent.
func NewVolumeChangedEvent(volume float64) VolumeChangedEvent {
	return VolumeChangedEvent{
		baseEvent: newBaseEvent(),
		Volume:    volume,
	}
}

// QueueChangedEvent is published when the play-next queue changes.
type QueueChangedEvent struct {
	baseEvent
	Queue []Track
}

// Type returns the event type.
func (e QueueChangedEvent) Type() EventType {
	return EventQueueChanged
}

// NewQueueChangedEvent creates a new QueueChangedEvent.
func NewQueueChangedEvent(queue []Track) QueueChangedEvent {
	return QueueChangedEvent{
		baseEvent: newBaseEvent(),
		Queue:     queue,
	}
}

// AnalysisBoundEvent is published once the analysis tap is wired to a resource.
type AnalysisBoundEvent struct {
	baseEvent
	Resource ResourceID
	BinCount int
}

// Type returns the event type.
func (e AnalysisBoundEvent) Type() EventType {
	return EventAnalysisBound
}

// NewAnalysisBoundEvent creates a new AnalysisBoundEvent.
func NewAnalysisBoundEvent(resource ResourceID, binCount int) AnalysisBoundEvent {
	return AnalysisBoundEvent{
		baseEvent: newBaseEvent(),
		Resource:  resource,
		BinCount:  binCount,
	}
}

// AnalysisDegradedEvent is published when binding fails and renderers fall back to the idle pattern.
type AnalysisDegradedEvent struct {
	baseEvent
	Resource ResourceID
	Error    error
}

// Type returns the event type.
func (e AnalysisDegradedEvent) Type() EventType {
	return EventAnalysisDegraded
}

// NewAnalysisDegradedEvent creates a new AnalysisDegradedEvent.
func NewAnalysisDegradedEvent(resource ResourceID, err error) AnalysisDegradedEvent {
	return AnalysisDegradedEvent{
		baseEvent: newBaseEvent(),
		Resource:  resource,
		Error:     err,
	}
}

// ScanProgress reports how far a library scan has come.
type ScanProgress struct {
	CurrentFile  string
	FilesScanned int
	TotalFiles   int
	TracksFound  int
}

// ScanStartedEvent is published when library scanning starts.
type ScanStartedEvent struct {
	baseEvent
	Path string
}

// Type returns the event type.
func (e ScanStartedEvent) Type() EventType {
	return EventScanStarted
}

// NewScanStartedEvent creates a new ScanStartedEvent.
func NewScanStartedEvent(path string) ScanStartedEvent {
	return ScanStartedEvent{
		baseEvent: newBaseEvent(),
		Path:      path,
	}
}

// ScanProgressEvent is published during library scanning.
type ScanProgressEvent struct {
	baseEvent
	Progress ScanProgress
}

// Type returns the event type.
func (e ScanProgressEvent) Type() EventType {
	return EventScanProgress
}

// NewScanProgressEvent creates a new ScanProgressEvent.
func NewScanProgressEvent(progress ScanProgress) ScanProgressEvent {
	return ScanProgressEvent{
		baseEvent: newBaseEvent(),
		Progress:  progress,
	}
}

// ScanCompletedEvent is published when library scanning completes.
type ScanCompletedEvent struct {
	baseEvent
	Tracks []Track
}

// Type returns the event type.
func (e ScanCompletedEvent) Type() EventType {
	return EventScanCompleted
}

// NewScanCompletedEvent creates a new ScanCompletedEvent.
func NewScanCompletedEvent(tracks []Track) ScanCompletedEvent {
	return ScanCompletedEvent{
		baseEvent: newBaseEvent(),
		Tracks:    tracks,
	}
}

// ScanCancelledEvent is published when library scanning is cancelled.
type ScanCancelledEvent struct {
	baseEvent
	Reason string
}

// Type returns the event type.
func (e ScanCancelledEvent) Type() EventType {
	return EventScanCancelled
}

// NewScanCancelledEvent creates a new ScanCancelledEvent.
func NewScanCancelledEvent(reason string) ScanCancelledEvent {
	return ScanCancelledEvent{
		baseEvent: newBaseEvent(),
		Reason:    reason,
	}
}
