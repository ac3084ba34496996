// Package service provides the playback, scheduling and library logic of WavePulse.
package service

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/wavepulse/internal/domain"
	"github.com/tejashwikalptaru/wavepulse/internal/ports"
)

// DefaultVolume is the output volume of a new session.
const DefaultVolume = 0.7

// PlaybackSession owns the single audio resource for the lifetime of the application.
// Loading a track replaces the resource's media in place; the resource itself,
// and therefore the analysis tap wired into it, survives track switches.
//
// Transport calls are serialized by mu. Media events from the resource are
// queued into a mailbox and applied by one pump goroutine, so a resource that
// fires events synchronously from inside Load or Play never re-enters the lock.
// Every load carries a token; events for any token but the latest are dropped,
// which makes the last Play call win.
type PlaybackSession struct {
	// Dependencies (injected)
	logger   *slog.Logger
	resource ports.AudioResource
	bus      ports.EventBus

	// State
	track        *domain.Track
	state        domain.TransportState
	volume       float64
	position     time.Duration
	duration     time.Duration
	token        domain.LoadToken
	seekable     bool
	pendingSeek  time.Duration
	hasPending   bool
	endedHandled bool

	mu sync.RWMutex

	// Event pump
	inbox        *mailbox
	unsubscribe  func()
	done         chan struct{}
	wg           sync.WaitGroup
	shutdownOnce sync.Once
	closed       bool
}

// NewPlaybackSession creates a session around resource and starts its event pump.
func NewPlaybackSession(
	logger *slog.Logger,
	resource ports.AudioResource,
	bus ports.EventBus,
) *PlaybackSession {
	s := &PlaybackSession{
		logger:   logger,
		resource: resource,
		bus:      bus,
		state:    domain.StateIdle,
		volume:   DefaultVolume,
		inbox:    newMailbox(),
		done:     make(chan struct{}),
	}

	if err := resource.SetVolume(s.volume); err != nil {
		logger.Warn("failed to apply initial volume", slog.Any("error", err))
	}

	s.unsubscribe = resource.Subscribe(s.inbox.push)

	s.wg.Add(1)
	go s.pump()

	logger.Debug("playback session initialized", slog.String("resource", string(resource.ID())))
	return s
}

// Play makes track the current track and starts it from the beginning.
// It returns once the resource has accepted the load; output starts when the
// resource reports Playing for that load.
func (s *PlaybackSession) Play(track domain.Track) error {
	s.mu.Lock()
	events, err := s.playLocked(track)
	s.mu.Unlock()

	s.publish(events...)
	return err
}

func (s *PlaybackSession) playLocked(track domain.Track) ([]domain.Event, error) {
	if s.closed {
		return nil, domain.ErrResourceClosed
	}

	s.logger.Debug("loading track",
		slog.String("track_id", track.ID),
		slog.String("media", track.MediaRef))

	s.track = &track
	s.state = domain.StateLoading
	s.position = 0
	s.duration = 0
	s.seekable = false
	s.hasPending = false
	s.endedHandled = false

	token, err := s.resource.Load(track.MediaRef)
	if err != nil {
		loadErr := domain.NewMediaLoadError(track.ID, track.MediaRef, err)
		s.logger.Warn("media load failed", slog.String("track_id", track.ID), slog.Any("error", err))
		s.track = nil
		s.state = domain.StateIdle
		s.token = domain.NoLoadToken
		return []domain.Event{domain.NewTrackErrorEvent(track, loadErr)}, loadErr
	}
	s.token = token

	if err := s.resource.SetVolume(s.volume); err != nil {
		s.logger.Warn("failed to apply volume to new load", slog.Any("error", err))
	}

	events := []domain.Event{domain.NewTrackLoadingEvent(track, token)}

	if err := s.resource.Play(); err != nil {
		s.state = domain.StatePaused
		return append(events, s.rejectionEvent(track, err)), s.playError("Play", track, err)
	}

	return events, nil
}

// PlayAfterEnd plays track only while the load identified by token is the
// current one and has ended. It reports false, doing nothing, once another
// load replaced it; the check and the load happen under one lock.
func (s *PlaybackSession) PlayAfterEnd(token domain.LoadToken, track domain.Track) (bool, error) {
	s.mu.Lock()
	if s.state != domain.StateEnded || s.token != token {
		s.mu.Unlock()
		return false, nil
	}
	events, err := s.playLocked(track)
	s.mu.Unlock()

	s.publish(events...)
	return true, err
}

// TogglePlayPause pauses a playing or loading track and resumes a paused,
// idle or ended one. An ended track restarts from the beginning.
// Without a current track it does nothing.
func (s *PlaybackSession) TogglePlayPause() error {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return domain.ErrResourceClosed
	}
	if s.track == nil {
		s.mu.Unlock()
		return nil
	}

	var events []domain.Event
	var err error

	switch s.state {
	case domain.StatePlaying, domain.StateLoading:
		if pauseErr := s.resource.Pause(); pauseErr != nil {
			s.logger.Warn("pause failed", slog.Any("error", pauseErr))
		}
		s.state = domain.StatePaused
		events = append(events, domain.NewTrackPausedEvent(*s.track, s.position))

	case domain.StateIdle:
		events, err = s.playLocked(*s.track)

	case domain.StatePaused, domain.StateEnded:
		if s.state == domain.StateEnded {
			s.rewindLocked()
		}
		if playErr := s.resource.Play(); playErr != nil {
			s.state = domain.StatePaused
			events = append(events, s.rejectionEvent(*s.track, playErr))
			err = s.playError("TogglePlayPause", *s.track, playErr)
			break
		}
		s.state = domain.StateLoading
	}

	s.mu.Unlock()
	s.publish(events...)
	return err
}

func (s *PlaybackSession) rewindLocked() {
	s.position = 0
	s.endedHandled = false
	s.seekLocked(0)
}

// Seek moves the playback position. The target is clamped to the media
// duration, or to non-negative values while the duration is unknown.
// When the media is not seekable yet the request is applied once it is.
// Without a current track it does nothing.
func (s *PlaybackSession) Seek(position time.Duration) error {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return domain.ErrResourceClosed
	}
	if s.track == nil {
		s.mu.Unlock()
		return nil
	}

	position = s.clampLocked(position)
	s.position = position
	s.seekLocked(position)

	if s.state == domain.StateEnded && (s.duration == 0 || position < s.duration) {
		s.state = domain.StatePaused
		s.endedHandled = false
	}

	ev := domain.NewTrackProgressEvent(s.position, s.duration)
	s.mu.Unlock()

	s.publish(ev)
	return nil
}

func (s *PlaybackSession) seekLocked(position time.Duration) {
	if !s.seekable {
		s.pendingSeek = position
		s.hasPending = true
		return
	}

	err := s.resource.Seek(position)
	switch {
	case errors.Is(err, domain.ErrNotSeekable):
		s.pendingSeek = position
		s.hasPending = true
	case err != nil:
		s.logger.Warn("seek failed", slog.Duration("position", position), slog.Any("error", err))
	default:
		s.hasPending = false
	}
}

func (s *PlaybackSession) clampLocked(position time.Duration) time.Duration {
	if position < 0 {
		return 0
	}
	if s.duration > 0 && position > s.duration {
		return s.duration
	}
	return position
}

// SetVolume sets the output volume, clamped to [0, 1].
// The value is also applied to every subsequent load.
func (s *PlaybackSession) SetVolume(volume float64) error {
	volume = max(0, min(volume, 1))

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrResourceClosed
	}
	s.volume = volume
	err := s.resource.SetVolume(volume)
	s.mu.Unlock()

	if err != nil {
		return domain.NewServiceError("PlaybackSession", "SetVolume", "resource rejected volume", err)
	}
	s.publish(domain.NewVolumeChangedEvent(volume))
	return nil
}

// State returns a snapshot of the session.
func (s *PlaybackSession) State() domain.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := domain.SessionState{
		State:    s.state,
		Volume:   s.volume,
		Position: s.position,
		Duration: s.duration,
	}
	if s.track != nil {
		t := *s.track
		snap.CurrentTrack = &t
	}
	return snap
}

// CurrentTrack returns a copy of the current track, or nil.
func (s *PlaybackSession) CurrentTrack() *domain.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.track == nil {
		return nil
	}
	t := *s.track
	return &t
}

// TransportState returns the current transport state.
func (s *PlaybackSession) TransportState() domain.TransportState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Volume returns the current volume.
func (s *PlaybackSession) Volume() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.volume
}

// Resource returns the audio resource owned by the session.
func (s *PlaybackSession) Resource() ports.AudioResource {
	return s.resource
}

// pump applies queued media events until Shutdown.
func (s *PlaybackSession) pump() {
	defer s.wg.Done()

	for {
		select {
		case <-s.done:
			return
		case <-s.inbox.ready():
			for _, ev := range s.inbox.drain() {
				s.handleMediaEvent(ev)
			}
		}
	}
}

func (s *PlaybackSession) handleMediaEvent(ev ports.MediaEvent) {
	s.mu.Lock()

	if s.closed || ev.Token != s.token || s.track == nil {
		s.mu.Unlock()
		if ev.Kind != ports.MediaTimeUpdate {
			s.logger.Debug("stale media event dropped",
				slog.String("kind", ev.Kind.String()),
				slog.Uint64("token", uint64(ev.Token)))
		}
		return
	}

	var events []domain.Event
	track := *s.track

	switch ev.Kind {
	case ports.MediaCanPlay:
		s.logger.Debug("media can play", slog.String("track_id", track.ID))

	case ports.MediaDurationChange:
		s.duration = ev.Duration
		s.position = s.clampLocked(s.position)
		events = append(events, domain.NewTrackDurationEvent(ev.Duration))

	case ports.MediaSeekable:
		s.seekable = true
		if s.hasPending {
			s.seekLocked(s.pendingSeek)
		}

	case ports.MediaPlaying:
		if s.state == domain.StateLoading {
			s.state = domain.StatePlaying
			events = append(events, domain.NewTrackStartedEvent(track, s.resource.ID()))
		}

	case ports.MediaTimeUpdate:
		s.position = s.clampLocked(ev.Position)
		if s.bus.HasSubscribers(domain.EventTrackProgress) {
			events = append(events, domain.NewTrackProgressEvent(s.position, s.duration))
		}

	case ports.MediaEnded:
		if s.endedHandled || (s.state != domain.StatePlaying && s.state != domain.StateLoading) {
			break
		}
		s.endedHandled = true
		s.state = domain.StateEnded
		if s.duration > 0 {
			s.position = s.duration
		}
		events = append(events, domain.NewTrackEndedEvent(track, ev.Token))

	case ports.MediaError:
		loadErr := domain.NewMediaLoadError(track.ID, track.MediaRef, ev.Err)
		s.logger.Warn("media failed after load", slog.String("track_id", track.ID), slog.Any("error", ev.Err))
		s.track = nil
		s.state = domain.StateIdle
		s.position = 0
		s.duration = 0
		events = append(events, domain.NewTrackErrorEvent(track, loadErr))
	}

	s.mu.Unlock()
	s.publish(events...)
}

func (s *PlaybackSession) rejectionEvent(track domain.Track, err error) domain.Event {
	if errors.Is(err, domain.ErrPlaybackRejected) {
		s.logger.Warn("playback rejected by host", slog.String("track_id", track.ID), slog.Any("error", err))
		return domain.NewPlaybackRejectedEvent(track, err)
	}
	s.logger.Error("resource failed to play", slog.String("track_id", track.ID), slog.Any("error", err))
	return domain.NewTrackErrorEvent(track, err)
}

func (s *PlaybackSession) playError(op string, track domain.Track, err error) error {
	if errors.Is(err, domain.ErrPlaybackRejected) {
		return domain.NewPlaybackPolicyError(track.ID, err)
	}
	return domain.NewServiceError("PlaybackSession", op, "resource failed to play", err)
}

func (s *PlaybackSession) publish(events ...domain.Event) {
	for _, ev := range events {
		s.bus.Publish(ev)
	}
}

// Shutdown detaches from the resource, stops the event pump and pauses output.
// Calling it more than once is harmless.
func (s *PlaybackSession) Shutdown() error {
	s.shutdownOnce.Do(func() {
		s.unsubscribe()
		close(s.done)
		s.wg.Wait()

		s.mu.Lock()
		s.closed = true
		if err := s.resource.Pause(); err != nil && !errors.Is(err, domain.ErrResourceClosed) {
			s.logger.Warn("failed to pause resource on shutdown", slog.Any("error", err))
		}
		s.mu.Unlock()

		s.logger.Debug("playback session shut down")
	})
	return nil
}

// mailbox is an unbounded FIFO of media events. push never blocks.
type mailbox struct {
	mu     sync.Mutex
	queue  []ports.MediaEvent
	signal chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{signal: make(chan struct{}, 1)}
}

func (m *mailbox) push(ev ports.MediaEvent) {
	m.mu.Lock()
	m.queue = append(m.queue, ev)
	m.mu.Unlock()

	select {
	case m.signal <- struct{}{}:
	default:
	}
}

func (m *mailbox) ready() <-chan struct{} {
	return m.signal
}

func (m *mailbox) drain() []ports.MediaEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := m.queue
	m.queue = nil
	return out
}

// Verify that PlaybackSession implements the expected interface patterns
var _ interface {
	Play(domain.Track) error
	TogglePlayPause() error
	Seek(time.Duration) error
	SetVolume(float64) error
	State() domain.SessionState
	TransportState() domain.TransportState
	Shutdown() error
} = (*PlaybackSession)(nil)
