package service

import (
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/tejashwikalptaru/wavepulse/internal/domain"
	"github.com/tejashwikalptaru/wavepulse/internal/ports"
)

// trackPlayer is the part of PlaybackSession the scheduler drives.
type trackPlayer interface {
	Play(track domain.Track) error
	PlayAfterEnd(token domain.LoadToken, track domain.Track) (bool, error)
	CurrentTrack() *domain.Track
}

// QueueScheduler decides what plays next: the front of the play-next queue
// if there is one, otherwise the catalog successor of the current track.
// It advances automatically on track.ended. There is no wraparound.
// All operations are thread-safe via sync.Mutex.
type QueueScheduler struct {
	// Dependencies (injected)
	logger  *slog.Logger
	player  trackPlayer
	catalog ports.TrackCatalog
	bus     ports.EventBus

	// State
	queue []domain.Track

	mu sync.Mutex

	// anchor is the last catalog track handed to the session. Catalog order
	// resumes from it after a queued track that is not in the catalog.
	anchor   string
	anchorMu sync.Mutex

	endedSub   domain.SubscriptionID
	loadingSub domain.SubscriptionID
}

// NewQueueScheduler creates a scheduler and subscribes it to track.ended and track.loading.
func NewQueueScheduler(
	logger *slog.Logger,
	player trackPlayer,
	catalog ports.TrackCatalog,
	bus ports.EventBus,
) *QueueScheduler {
	s := &QueueScheduler{
		logger:  logger,
		player:  player,
		catalog: catalog,
		bus:     bus,
		queue:   make([]domain.Track, 0),
	}

	s.endedSub = bus.Subscribe(domain.EventTrackEnded, s.handleTrackEnded)
	s.loadingSub = bus.Subscribe(domain.EventTrackLoading, s.handleTrackLoading)

	return s
}

// Enqueue appends track to the play-next queue.
func (s *QueueScheduler) Enqueue(track domain.Track) {
	s.mu.Lock()
	s.queue = append(s.queue, track)
	snapshot := slices.Clone(s.queue)
	s.mu.Unlock()

	s.logger.Debug("track enqueued", slog.String("track_id", track.ID), slog.Int("queue_len", len(snapshot)))
	s.bus.Publish(domain.NewQueueChangedEvent(snapshot))
}

// Advance plays the next track. At the last catalog track with an empty
// queue it returns domain.ErrEndOfCatalog and leaves the session untouched.
func (s *QueueScheduler) Advance() error {
	return s.advance(func(next domain.Track) (bool, error) {
		return true, s.player.Play(next)
	})
}

// advance picks the next track under mu and hands it to play with mu
// released, so subscribers of the events play publishes may call back into
// the scheduler. A queued track that play declines goes back to the front.
func (s *QueueScheduler) advance(play func(domain.Track) (bool, error)) error {
	s.mu.Lock()
	if len(s.queue) == 0 {
		s.mu.Unlock()

		next, err := s.neighbour(+1)
		if err != nil {
			return err
		}
		s.logger.Debug("advancing in catalog order", slog.String("track_id", next.ID))
		_, err = play(next)
		return err
	}

	next := s.queue[0]
	s.queue = slices.Delete(s.queue, 0, 1)
	s.mu.Unlock()

	s.logger.Debug("advancing to queued track", slog.String("track_id", next.ID))
	started, err := play(next)
	if !started {
		s.mu.Lock()
		s.queue = slices.Insert(s.queue, 0, next)
		s.mu.Unlock()
		return err
	}

	s.bus.Publish(domain.NewQueueChangedEvent(s.Snapshot()))
	return err
}

// Next is the manual form of Advance.
func (s *QueueScheduler) Next() error {
	return s.Advance()
}

// Previous plays the catalog predecessor of the current track.
// It returns domain.ErrStartOfCatalog at the first track.
// The play-next queue is not consulted.
func (s *QueueScheduler) Previous() error {
	prev, err := s.neighbour(-1)
	if err != nil {
		return err
	}
	return s.player.Play(prev)
}

// neighbour returns the catalog track step positions away from the current one.
// With no current track, stepping forward starts at the first catalog track.
func (s *QueueScheduler) neighbour(step int) (domain.Track, error) {
	tracks := s.catalog.Tracks()
	boundary := domain.ErrEndOfCatalog
	if step < 0 {
		boundary = domain.ErrStartOfCatalog
	}

	current := s.player.CurrentTrack()
	if current == nil {
		if step > 0 && len(tracks) > 0 {
			return tracks[0], nil
		}
		if step > 0 {
			return domain.Track{}, boundary
		}
		return domain.Track{}, domain.ErrNoTrackLoaded
	}

	i := s.catalog.IndexOf(current.ID)
	if i < 0 {
		s.anchorMu.Lock()
		i = s.catalog.IndexOf(s.anchor)
		s.anchorMu.Unlock()
	}
	if i < 0 {
		return domain.Track{}, domain.NewServiceError("QueueScheduler", "neighbour",
			"current track is not in the catalog", domain.ErrTrackNotFound)
	}

	j := i + step
	if j < 0 || j >= len(tracks) {
		return domain.Track{}, boundary
	}
	return tracks[j], nil
}

// Snapshot returns a copy of the play-next queue.
func (s *QueueScheduler) Snapshot() []domain.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.queue)
}

// Clear empties the play-next queue.
func (s *QueueScheduler) Clear() {
	s.mu.Lock()
	s.queue = s.queue[:0]
	s.mu.Unlock()

	s.bus.Publish(domain.NewQueueChangedEvent([]domain.Track{}))
}

// handleTrackLoading remembers the last catalog track the session loaded.
func (s *QueueScheduler) handleTrackLoading(event domain.Event) {
	loading, ok := event.(domain.TrackLoadingEvent)
	if !ok || s.catalog.IndexOf(loading.Track.ID) < 0 {
		return
	}
	s.anchorMu.Lock()
	s.anchor = loading.Track.ID
	s.anchorMu.Unlock()
}

// handleTrackEnded advances automatically when the current track ends.
// A completion that a newer load superseded before delivery is dropped.
func (s *QueueScheduler) handleTrackEnded(event domain.Event) {
	ended, ok := event.(domain.TrackEndedEvent)
	if !ok {
		return
	}

	superseded := false
	err := s.advance(func(next domain.Track) (bool, error) {
		started, err := s.player.PlayAfterEnd(ended.Token, next)
		superseded = !started
		return started, err
	})
	switch {
	case superseded:
		s.logger.Debug("stale track end ignored",
			slog.String("track_id", ended.Track.ID),
			slog.Uint64("token", uint64(ended.Token)))
	case err == nil:
	case errors.Is(err, domain.ErrEndOfCatalog):
		s.logger.Info("end of catalog reached", slog.String("track_id", ended.Track.ID))
	default:
		s.logger.Warn("auto-advance failed", slog.String("track_id", ended.Track.ID), slog.Any("error", err))
	}
}

// Shutdown unsubscribes from session events.
func (s *QueueScheduler) Shutdown() error {
	s.bus.Unsubscribe(s.endedSub)
	s.bus.Unsubscribe(s.loadingSub)
	return nil
}

// Verify that QueueScheduler implements the expected interface patterns
var _ interface {
	Enqueue(domain.Track)
	Advance() error
	Next() error
	Previous() error
	Snapshot() []domain.Track
	Clear()
	Shutdown() error
} = (*QueueScheduler)(nil)

var _ trackPlayer = (*PlaybackSession)(nil)
