// Package fyne provides the desktop shell of WavePulse built on the Fyne toolkit.
// The presenter maps engine events to view updates and view commands to
// controller calls; the windows only draw.
package fyne

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/wavepulse/internal/domain"
	"github.com/tejashwikalptaru/wavepulse/internal/ports"
	"github.com/tejashwikalptaru/wavepulse/internal/service"
	"github.com/tejashwikalptaru/wavepulse/internal/visual"
)

// defaultUnmuteVolume is restored when unmuting from a zero volume.
const defaultUnmuteVolume = 0.7

// UIView defines the view updates the presenter drives.
// Implementations must be safe to call from any goroutine.
type UIView interface {
	// Transport
	SetPlayState(playing bool)
	SetMuteState(muted bool)
	SetVolume(volume float64)

	// Track information; empty strings clear it
	SetTrackInfo(title, artist, album string)

	// Progress
	SetCurrentTime(position time.Duration)
	SetTotalTime(duration time.Duration)
	SetProgress(position, duration time.Duration)

	// Queue
	SetQueueLength(n int)

	// Notifications
	ShowNotification(title, message string)
}

// CatalogFilter is a named view of the catalog offered by the catalog window.
type CatalogFilter struct {
	Label  string
	Tracks []domain.Track
}

// Presenter coordinates the controller, the library and the view (MVP).
//
// Responsibilities:
// - Subscribe to engine events and map them to view updates
// - Translate view commands into controller calls
// - Own the mute state, which the engine models as volume 0
//
// Thread-safety: handlers may run on any publisher goroutine; presenter
// state is guarded by mu.
type Presenter struct {
	// Dependencies (injected)
	logger  *slog.Logger
	ctrl    *service.Controller
	library *service.LibraryService
	view    UIView

	// EventBus is exported so secondary windows can follow track changes
	EventBus ports.EventBus

	subs []domain.SubscriptionID

	// Presentation state
	mu            sync.Mutex
	muted         bool
	unmutedVolume float64

	shutdownOnce sync.Once
}

// NewPresenter creates a presenter and syncs the view with the engine.
func NewPresenter(
	logger *slog.Logger,
	ctrl *service.Controller,
	library *service.LibraryService,
	eventBus ports.EventBus,
	view UIView,
) *Presenter {
	p := &Presenter{
		logger:        logger,
		ctrl:          ctrl,
		library:       library,
		EventBus:      eventBus,
		view:          view,
		unmutedVolume: defaultUnmuteVolume,
	}

	p.subscribeToEvents()
	p.syncInitialState()

	return p
}

func (p *Presenter) subscribeToEvents() {
	subscriptions := map[domain.EventType]domain.EventHandler{
		// Playback events
		domain.EventTrackLoading:     p.onTrackLoading,
		domain.EventTrackStarted:     p.onTrackStarted,
		domain.EventTrackPaused:      p.onTrackPaused,
		domain.EventTrackEnded:       p.onTrackEnded,
		domain.EventTrackProgress:    p.onTrackProgress,
		domain.EventTrackDuration:    p.onTrackDuration,
		domain.EventTrackError:       p.onTrackError,
		domain.EventPlaybackRejected: p.onPlaybackRejected,

		domain.EventVolumeChanged:    p.onVolumeChanged,
		domain.EventQueueChanged:     p.onQueueChanged,
		domain.EventAnalysisDegraded: p.onAnalysisDegraded,

		// Scan events
		domain.EventScanStarted:   p.onScanStarted,
		domain.EventScanCompleted: p.onScanCompleted,
		domain.EventScanCancelled: p.onScanCancelled,
	}

	for eventType, handler := range subscriptions {
		p.subs = append(p.subs, p.EventBus.Subscribe(eventType, handler))
	}
}

// syncInitialState brings the view in line with the engine when the shell
// starts or is rebuilt.
func (p *Presenter) syncInitialState() {
	state := p.ctrl.State()

	p.view.SetVolume(state.Volume * 100)
	p.view.SetMuteState(false)
	p.view.SetPlayState(state.IsPlaying())
	p.view.SetQueueLength(len(p.ctrl.QueueSnapshot()))

	if state.CurrentTrack == nil {
		p.view.SetTrackInfo("", "", "")
		return
	}
	p.view.SetTrackInfo(state.CurrentTrack.Title, state.CurrentTrack.Artist, state.CurrentTrack.Album)
	p.view.SetTotalTime(p.totalTime(state))
	p.view.SetCurrentTime(state.Position)
	p.view.SetProgress(state.Position, p.totalTime(state))
}

// totalTime prefers the resource duration and falls back to the catalog's.
func (p *Presenter) totalTime(state domain.SessionState) time.Duration {
	if state.Duration > 0 || state.CurrentTrack == nil {
		return state.Duration
	}
	return state.CurrentTrack.Duration
}

// Event handlers

func (p *Presenter) onTrackLoading(event domain.Event) {
	e, ok := event.(domain.TrackLoadingEvent)
	if !ok {
		return
	}

	p.view.SetTrackInfo(e.Track.Title, e.Track.Artist, e.Track.Album)
	p.view.SetCurrentTime(0)
	p.view.SetTotalTime(e.Track.Duration)
	p.view.SetProgress(0, e.Track.Duration)
	p.view.SetPlayState(false)
}

func (p *Presenter) onTrackStarted(domain.Event) {
	p.view.SetPlayState(true)
}

func (p *Presenter) onTrackPaused(event domain.Event) {
	p.view.SetPlayState(false)
	if e, ok := event.(domain.TrackPausedEvent); ok {
		p.view.SetCurrentTime(e.Position)
	}
}

func (p *Presenter) onTrackEnded(domain.Event) {
	p.view.SetPlayState(false)
}

func (p *Presenter) onTrackProgress(event domain.Event) {
	e, ok := event.(domain.TrackProgressEvent)
	if !ok {
		return
	}

	p.view.SetCurrentTime(e.Position)
	if e.Duration > 0 {
		p.view.SetProgress(e.Position, e.Duration)
	}
}

func (p *Presenter) onTrackDuration(event domain.Event) {
	if e, ok := event.(domain.TrackDurationEvent); ok {
		p.view.SetTotalTime(e.Duration)
	}
}

func (p *Presenter) onTrackError(event domain.Event) {
	e, ok := event.(domain.TrackErrorEvent)
	if !ok {
		return
	}

	p.view.SetPlayState(false)
	p.view.SetTrackInfo("", "", "")
	p.view.SetCurrentTime(0)
	p.view.SetTotalTime(0)
	p.view.SetProgress(0, 0)
	p.view.ShowNotification("Playback Error",
		fmt.Sprintf("Could not play %s: %v", e.Track.Title, e.Error))
}

func (p *Presenter) onPlaybackRejected(event domain.Event) {
	e, ok := event.(domain.PlaybackRejectedEvent)
	if !ok {
		return
	}

	p.view.SetPlayState(false)
	p.view.ShowNotification("Playback Blocked",
		fmt.Sprintf("Press play to start %s", e.Track.Title))
}

func (p *Presenter) onVolumeChanged(event domain.Event) {
	e, ok := event.(domain.VolumeChangedEvent)
	if !ok {
		return
	}

	p.mu.Lock()
	if p.muted && e.Volume > 0 {
		// Moving the slider while muted unmutes
		p.muted = false
	}
	muted := p.muted
	p.mu.Unlock()

	p.view.SetVolume(e.Volume * 100)
	p.view.SetMuteState(muted)
}

func (p *Presenter) onQueueChanged(event domain.Event) {
	if e, ok := event.(domain.QueueChangedEvent); ok {
		p.view.SetQueueLength(len(e.Queue))
	}
}

func (p *Presenter) onAnalysisDegraded(event domain.Event) {
	if e, ok := event.(domain.AnalysisDegradedEvent); ok {
		p.logger.Info("visualization running on the idle pattern",
			slog.String("resource", string(e.Resource)),
			slog.Any("error", e.Error))
	}
}

func (p *Presenter) onScanStarted(event domain.Event) {
	if e, ok := event.(domain.ScanStartedEvent); ok {
		p.view.ShowNotification("Scan Started", fmt.Sprintf("Scanning: %s", e.Path))
	}
}

func (p *Presenter) onScanCompleted(event domain.Event) {
	if e, ok := event.(domain.ScanCompletedEvent); ok {
		p.view.ShowNotification("Scan Complete", fmt.Sprintf("Found %d tracks", len(e.Tracks)))
	}
}

func (p *Presenter) onScanCancelled(domain.Event) {
	p.view.ShowNotification("Scan Cancelled", "Scan was cancelled")
}

// UI command handlers (called by the windows)

// OnPlayClicked toggles playback. With nothing loaded it starts the
// first catalog track.
func (p *Presenter) OnPlayClicked() {
	var err error
	if p.ctrl.State().CurrentTrack == nil {
		err = p.ctrl.Next()
	} else {
		err = p.ctrl.TogglePlayPause()
	}
	p.report("Playback Error", "play/pause failed", err)
}

// OnNextClicked plays the queued or catalog successor.
func (p *Presenter) OnNextClicked() {
	err := p.ctrl.Next()
	if errors.Is(err, domain.ErrEndOfCatalog) {
		p.view.ShowNotification("End of Catalog", "There is no next track")
		return
	}
	p.report("Playback Error", "next track failed", err)
}

// OnPreviousClicked plays the catalog predecessor.
func (p *Presenter) OnPreviousClicked() {
	err := p.ctrl.Previous()
	if errors.Is(err, domain.ErrStartOfCatalog) || errors.Is(err, domain.ErrNoTrackLoaded) {
		p.view.ShowNotification("Start of Catalog", "There is no previous track")
		return
	}
	p.report("Playback Error", "previous track failed", err)
}

// OnVolumeChanged handles volume slider changes (0-100).
func (p *Presenter) OnVolumeChanged(volume float64) {
	p.report("Volume Error", "volume change failed", p.ctrl.SetVolume(volume/100))
}

// OnMuteClicked mutes by dropping the volume to zero and restores the
// previous volume on the next click.
func (p *Presenter) OnMuteClicked() {
	p.mu.Lock()
	muted := p.muted
	restore := p.unmutedVolume
	if !muted {
		p.unmutedVolume = p.ctrl.State().Volume
		if p.unmutedVolume == 0 {
			p.unmutedVolume = defaultUnmuteVolume
		}
	}
	p.muted = !muted
	p.mu.Unlock()

	target := 0.0
	if muted {
		target = restore
	}
	p.report("Volume Error", "mute toggle failed", p.ctrl.SetVolume(target))
	p.view.SetMuteState(!muted)
}

// Muted reports whether the shell muted the output.
func (p *Presenter) Muted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.muted
}

// OnSeekRequested seeks to position seconds.
func (p *Presenter) OnSeekRequested(position float64) {
	err := p.ctrl.Seek(time.Duration(position * float64(time.Second)))
	p.report("Seek Error", "seek failed", err)
}

// OnTrackSelected plays a catalog track.
func (p *Presenter) OnTrackSelected(trackID string) {
	p.report("Playback Error", "play by id failed", p.ctrl.PlayByID(trackID))
}

// OnEnqueueRequested adds a catalog track to the play-next queue.
func (p *Presenter) OnEnqueueRequested(trackID string) {
	for _, track := range p.ctrl.Tracks() {
		if track.ID == trackID {
			p.ctrl.Enqueue(track)
			p.view.ShowNotification("Queued", fmt.Sprintf("%s plays next", track.Title))
			return
		}
	}
	p.report("Queue Error", "enqueue failed", fmt.Errorf("enqueue %q: %w", trackID, domain.ErrTrackNotFound))
}

// OnClearQueue empties the play-next queue.
func (p *Presenter) OnClearQueue() {
	p.ctrl.ClearQueue()
}

// OnFileOpened reads a local file and plays it.
func (p *Presenter) OnFileOpened(filePath string) error {
	track, err := p.library.ExtractMetadata(filePath)
	if err != nil {
		return err
	}
	return p.ctrl.Play(*track)
}

// OnFolderOpened scans a folder and queues every track found.
func (p *Presenter) OnFolderOpened(folderPath string) error {
	tracks, err := p.library.ScanFolder(folderPath)
	if err != nil {
		return err
	}
	for _, track := range tracks {
		p.ctrl.Enqueue(track)
	}
	return nil
}

// SupportedFormats returns the file extensions the library can read.
func (p *Presenter) SupportedFormats() []string {
	return p.library.SupportedFormats()
}

// Feed returns the visualization source every renderer samples.
func (p *Presenter) Feed() visual.Source {
	return p.ctrl
}

// CurrentTrack returns the session's track, or nil.
func (p *Presenter) CurrentTrack() *domain.Track {
	return p.ctrl.State().CurrentTrack
}

// Queue returns the play-next queue.
func (p *Presenter) Queue() []domain.Track {
	return p.ctrl.QueueSnapshot()
}

// CatalogFilters lists every way the catalog window can narrow the catalog,
// starting with the whole catalog.
func (p *Presenter) CatalogFilters() []CatalogFilter {
	filters := []CatalogFilter{{Label: "All Tracks", Tracks: p.ctrl.Tracks()}}

	for _, artist := range p.ctrl.Artists() {
		filters = append(filters, CatalogFilter{
			Label:  "Artist: " + artist.Name,
			Tracks: p.ctrl.TracksByArtist(artist.ID),
		})
	}
	for _, album := range p.ctrl.Albums() {
		filters = append(filters, CatalogFilter{
			Label:  "Album: " + album.Title,
			Tracks: p.ctrl.TracksByAlbum(album.ID),
		})
	}
	for _, playlist := range p.ctrl.Playlists() {
		filters = append(filters, CatalogFilter{
			Label:  "Playlist: " + playlist.Title,
			Tracks: p.ctrl.TracksByPlaylist(playlist.ID),
		})
	}
	for _, genre := range p.ctrl.Genres() {
		filters = append(filters, CatalogFilter{
			Label:  "Genre: " + genre.Name,
			Tracks: p.ctrl.TracksByGenre(genre.Name),
		})
	}
	return filters
}

// report logs err and shows it to the user. A nil err is ignored.
func (p *Presenter) report(title, msg string, err error) {
	if err == nil {
		return
	}
	p.logger.Error(msg, slog.Any("error", err))
	p.view.ShowNotification(title, err.Error())
}

// Shutdown drops every subscription. It is safe to call more than once.
func (p *Presenter) Shutdown() {
	p.shutdownOnce.Do(func() {
		for _, id := range p.subs {
			p.EventBus.Unsubscribe(id)
		}
		p.subs = nil
	})
}
