// Package domain defines domain-specific errors.
// These errors represent business logic failures and are independent of infrastructure.
package domain

import (
	"errors"
	"fmt"
)

// Common errors that services can return.
var (
	// ErrTrackNotFound is returned when a requested track cannot be found in the catalog.
	ErrTrackNotFound = errors.New("track not found")

	// ErrEndOfCatalog is returned when there is no catalog track after the current one.
	ErrEndOfCatalog = errors.New("end of catalog reached")

	// ErrStartOfCatalog is returned when there is no catalog track before the current one.
	ErrStartOfCatalog = errors.New("start of catalog reached")

	// ErrNoTrackLoaded is returned when an operation requires a current track.
	ErrNoTrackLoaded = errors.New("no track loaded")

	// ErrMediaLoad is the sentinel wrapped by MediaLoadError.
	ErrMediaLoad = errors.New("media load failed")

	// ErrPlaybackRejected is the sentinel wrapped by PlaybackPolicyError.
	ErrPlaybackRejected = errors.New("playback rejected by host")

	// ErrAnalysisBinding is the sentinel wrapped by AnalysisBindingError.
	ErrAnalysisBinding = errors.New("analysis binding failed")

	// ErrTapAlreadyAttached is returned by a resource when a second analysis tap is requested.
	ErrTapAlreadyAttached = errors.New("analysis tap already attached to resource")

	// ErrNotSeekable is returned by a resource that cannot seek yet.
	ErrNotSeekable = errors.New("media not seekable yet")

	// ErrMediaTooLarge is returned when remote media exceeds the download limit.
	ErrMediaTooLarge = errors.New("media exceeds download limit")

	// ErrResourceClosed is returned when the audio resource has been released.
	ErrResourceClosed = errors.New("audio resource closed")

	// ErrUnsupportedFormat is returned when an audio file format is not supported.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrInvalidMediaRef is returned when a media reference is empty or malformed.
	ErrInvalidMediaRef = errors.New("invalid media reference")

	// ErrScanInProgress is returned when a library scan is already running.
	ErrScanInProgress = errors.New("scan already in progress")

	// ErrScanCancelled is returned when a library scan is cancelled.
	ErrScanCancelled = errors.New("scan cancelled")

	// ErrFileNotFound is returned when a file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrLoopMounted is returned when a renderer loop is mounted twice.
	ErrLoopMounted = errors.New("render loop already mounted")
)

// MediaLoadError reports a media reference that could not be resolved or decoded.
// Transport reverts to Idle and the load is not retried.
type MediaLoadError struct {
	TrackID  string
	MediaRef string
	Err      error
}

// Error implements the error interface.
func (e *MediaLoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot load media '%s' for track %s: %v", e.MediaRef, e.TrackID, e.Err)
	}
	return fmt.Sprintf("cannot load media '%s' for track %s", e.MediaRef, e.TrackID)
}

// Unwrap returns the underlying error.
func (e *MediaLoadError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMediaLoad}
	}
	return []error{ErrMediaLoad, e.Err}
}

// NewMediaLoadError creates a new MediaLoadError.
func NewMediaLoadError(trackID, mediaRef string, err error) *MediaLoadError {
	return &MediaLoadError{
		TrackID:  trackID,
		MediaRef: mediaRef,
		Err:      err,
	}
}

// PlaybackPolicyError reports that the host refused to start playback.
// It is recoverable: the session stays Paused and the user must trigger play again.
type PlaybackPolicyError struct {
	TrackID string
	Err     error
}

// Error implements the error interface.
func (e *PlaybackPolicyError) Error() string {
	return fmt.Sprintf("playback of track %s rejected: %v", e.TrackID, e.Err)
}

// Unwrap returns the underlying error.
func (e *PlaybackPolicyError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrPlaybackRejected}
	}
	return []error{ErrPlaybackRejected, e.Err}
}

// NewPlaybackPolicyError creates a new PlaybackPolicyError.
func NewPlaybackPolicyError(trackID string, err error) *PlaybackPolicyError {
	return &PlaybackPolicyError{TrackID: trackID, Err: err}
}

// AnalysisBindingError reports a failure to wire the analysis tap.
// Visualization degrades to the idle pattern; playback is unaffected.
type AnalysisBindingError struct {
	Resource ResourceID
	Message  string
	Err      error
}

// Error implements the error interface.
func (e *AnalysisBindingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("analysis binding on resource %s failed: %s: %v", e.Resource, e.Message, e.Err)
	}
	return fmt.Sprintf("analysis binding on resource %s failed: %s", e.Resource, e.Message)
}

// Unwrap returns the underlying error.
func (e *AnalysisBindingError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrAnalysisBinding}
	}
	return []error{ErrAnalysisBinding, e.Err}
}

// NewAnalysisBindingError creates a new AnalysisBindingError.
func NewAnalysisBindingError(resource ResourceID, message string, err error) *AnalysisBindingError {
	return &AnalysisBindingError{
		Resource: resource,
		Message:  message,
		Err:      err,
	}
}

// AudioEngineError represents an error from the audio output backend.
// This wraps low-level audio library errors with additional context.
type AudioEngineError struct {
	Op      string // Operation that failed (e.g., "load", "play", "seek")
	Path    string // Media reference (if applicable)
	Message string // Error message
	Err     error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *AudioEngineError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("audio engine %s failed for '%s': %s", e.Op, e.Path, e.Message)
	}
	return fmt.Sprintf("audio engine %s failed: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *AudioEngineError) Unwrap() error {
	return e.Err
}

// NewAudioEngineError creates a new AudioEngineError.
func NewAudioEngineError(op, path, message string, err error) *AudioEngineError {
	return &AudioEngineError{
		Op:      op,
		Path:    path,
		Message: message,
		Err:     err,
	}
}

// ServiceError represents an error from a service layer operation.
type ServiceError struct {
	Service string // Service name (e.g., "PlaybackSession", "QueueScheduler")
	Op      string // Operation that failed
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("service %s.%s failed: %s", e.Service, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, op, message string, err error) *ServiceError {
	return &ServiceError{
		Service: service,
		Op:      op,
		Message: message,
		Err:     err,
	}
}
