package service

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/wavepulse/internal/analysis"
	"github.com/tejashwikalptaru/wavepulse/internal/domain"
	"github.com/tejashwikalptaru/wavepulse/internal/ports"
	"github.com/tejashwikalptaru/wavepulse/internal/visual"
)

// Controller is the in-process API the shell talks to. It forwards transport
// calls to the session and the scheduler, serves the visualization feed from
// the analysis graph and answers catalog lookups.
//
// It also binds the analysis graph lazily: the first track.started wires the
// session's resource into the graph. A binding failure never reaches the
// caller; it is logged and published as analysis.degraded, and renderers keep
// drawing the idle pattern.
type Controller struct {
	// Dependencies (injected)
	logger    *slog.Logger
	session   *PlaybackSession
	scheduler *QueueScheduler
	graph     *analysis.Graph
	catalog   ports.TrackCatalog
	bus       ports.EventBus

	startedSub domain.SubscriptionID

	mu      sync.Mutex
	boundTo domain.ResourceID
}

// NewController creates a controller and subscribes it to track.started.
func NewController(
	logger *slog.Logger,
	session *PlaybackSession,
	scheduler *QueueScheduler,
	graph *analysis.Graph,
	catalog ports.TrackCatalog,
	bus ports.EventBus,
) *Controller {
	c := &Controller{
		logger:    logger,
		session:   session,
		scheduler: scheduler,
		graph:     graph,
		catalog:   catalog,
		bus:       bus,
	}
	c.startedSub = bus.Subscribe(domain.EventTrackStarted, c.handleTrackStarted)
	return c
}

func (c *Controller) handleTrackStarted(event domain.Event) {
	if _, ok := event.(domain.TrackStartedEvent); !ok {
		return
	}

	resource := c.session.Resource()
	binding, err := c.graph.EnsureBound(resource)
	if err != nil {
		c.logger.Warn("analysis unavailable, visualizations stay idle",
			slog.String("resource", string(resource.ID())),
			slog.Any("error", err))
		c.bus.Publish(domain.NewAnalysisDegradedEvent(resource.ID(), err))
		return
	}

	c.mu.Lock()
	first := c.boundTo != binding.Resource
	c.boundTo = binding.Resource
	c.mu.Unlock()

	if first {
		c.bus.Publish(domain.NewAnalysisBoundEvent(binding.Resource, c.graph.BinCount()))
	}
}

// Transport

// Play loads and starts track, replacing whatever is playing.
func (c *Controller) Play(track domain.Track) error {
	return c.session.Play(track)
}

// PlayByID plays the catalog track with the given ID.
func (c *Controller) PlayByID(id string) error {
	track, err := c.catalog.TrackByID(id)
	if err != nil {
		return fmt.Errorf("play %q: %w", id, err)
	}
	return c.session.Play(track)
}

// TogglePlayPause pauses or resumes the current track.
func (c *Controller) TogglePlayPause() error {
	return c.session.TogglePlayPause()
}

// Seek jumps to position, clamped to the track.
func (c *Controller) Seek(position time.Duration) error {
	return c.session.Seek(position)
}

// SetVolume sets the output volume, clamped to [0, 1].
func (c *Controller) SetVolume(volume float64) error {
	return c.session.SetVolume(volume)
}

// Next plays the queued or catalog successor.
func (c *Controller) Next() error {
	return c.scheduler.Next()
}

// Previous plays the catalog predecessor.
func (c *Controller) Previous() error {
	return c.scheduler.Previous()
}

// Enqueue adds track to the play-next queue.
func (c *Controller) Enqueue(track domain.Track) {
	c.scheduler.Enqueue(track)
}

// ClearQueue empties the play-next queue.
func (c *Controller) ClearQueue() {
	c.scheduler.Clear()
}

// Read state

// State returns a snapshot of the session.
func (c *Controller) State() domain.SessionState {
	return c.session.State()
}

// QueueSnapshot returns a copy of the play-next queue.
func (c *Controller) QueueSnapshot() []domain.Track {
	return c.scheduler.Snapshot()
}

// Visualization feed

// SampleSpectrum returns n spectrum values in [0, 1].
func (c *Controller) SampleSpectrum(n int) []float64 {
	return c.graph.SampleSpectrum(n)
}

// SampleBandEnergy returns the mean level of bins [lo, hi).
func (c *Controller) SampleBandEnergy(lo, hi int) float64 {
	return c.graph.SampleBandEnergy(lo, hi)
}

// BinCount returns the number of analysis bins.
func (c *Controller) BinCount() int {
	return c.graph.BinCount()
}

// Active reports whether the feed reflects real audio.
func (c *Controller) Active() bool {
	return c.graph.Active()
}

// Playing reports whether the transport is playing, whatever the state of
// the analysis binding.
func (c *Controller) Playing() bool {
	return c.session.TransportState() == domain.StatePlaying
}

// Catalog lookups

// Tracks returns every catalog track in order.
func (c *Controller) Tracks() []domain.Track { return c.catalog.Tracks() }

// TracksByArtist returns the artist's tracks.
func (c *Controller) TracksByArtist(artistID string) []domain.Track {
	return c.catalog.TracksByArtist(artistID)
}

// TracksByAlbum returns the album's tracks.
func (c *Controller) TracksByAlbum(albumID string) []domain.Track {
	return c.catalog.TracksByAlbum(albumID)
}

// TracksByPlaylist returns the playlist's tracks in catalog order.
func (c *Controller) TracksByPlaylist(playlistID string) []domain.Track {
	return c.catalog.TracksByPlaylist(playlistID)
}

// TracksByGenre returns tracks whose genre matches, ignoring case.
func (c *Controller) TracksByGenre(genre string) []domain.Track {
	return c.catalog.TracksByGenre(genre)
}

// Artists returns the catalog artists.
func (c *Controller) Artists() []domain.Artist { return c.catalog.Artists() }

// Albums returns the catalog albums.
func (c *Controller) Albums() []domain.Album { return c.catalog.Albums() }

// Playlists returns the catalog playlists.
func (c *Controller) Playlists() []domain.Playlist { return c.catalog.Playlists() }

// Genres returns the catalog genres.
func (c *Controller) Genres() []domain.Genre { return c.catalog.Genres() }

// Shutdown stops binding and releases the analysis tap.
func (c *Controller) Shutdown() error {
	c.bus.Unsubscribe(c.startedSub)
	if err := c.graph.Release(); err != nil {
		c.logger.Warn("failed to release analysis", slog.Any("error", err))
		return err
	}
	return nil
}

// Controller is the feed every renderer loop samples.
var _ visual.Source = (*Controller)(nil)
