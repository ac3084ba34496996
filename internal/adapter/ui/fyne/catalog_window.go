package fyne

import (
	"fmt"
	"strings"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/tejashwikalptaru/wavepulse/internal/adapter/ui/fyne/widgets"
	"github.com/tejashwikalptaru/wavepulse/internal/domain"
	"github.com/tejashwikalptaru/wavepulse/internal/ports"
)

// CatalogWindow browses the catalog. Double-clicking a row plays the track,
// right-clicking queues it. The row of the loading track stays highlighted.
type CatalogWindow struct {
	window       fyneapp.Window
	list         *widget.List
	searchEntry  *widget.Entry
	filterSelect *widget.Select
	queueLabel   *widget.Label

	// Data state
	filters    []CatalogFilter
	collection []domain.Track // tracks of the selected filter
	data       []domain.Track // collection narrowed by the search query
	currentID  string

	// Dependencies
	presenter     *Presenter
	eventBus      ports.EventBus
	subscriptions []domain.SubscriptionID

	// Lifecycle
	onWindowClosed func()
	isVisible      bool
}

// NewCatalogWindow creates the catalog window showing the whole catalog.
func NewCatalogWindow(app fyneapp.App, presenter *Presenter) *CatalogWindow {
	w := &CatalogWindow{
		presenter: presenter,
		eventBus:  presenter.EventBus,
		filters:   presenter.CatalogFilters(),
	}
	if current := presenter.CurrentTrack(); current != nil {
		w.currentID = current.ID
	}

	w.window = app.NewWindow("Catalog")
	w.window.Resize(fyneapp.NewSize(520, 620))

	w.buildUI()
	w.subscribeToEvents()

	w.window.SetOnClosed(func() {
		w.isVisible = false
		w.unsubscribeFromEvents()
		if w.onWindowClosed != nil {
			w.onWindowClosed()
		}
	})

	w.setQueueLength(len(presenter.Queue()))
	w.filterSelect.SetSelectedIndex(0)

	return w
}

func (w *CatalogWindow) buildUI() {
	w.searchEntry = widget.NewEntry()
	w.searchEntry.SetPlaceHolder("Search title, artist, album or genre...")
	w.searchEntry.OnChanged = w.search

	w.list = widget.NewList(
		func() int {
			return len(w.data)
		},
		func() fyneapp.CanvasObject {
			return widgets.NewTrackLabel(w.presenter.OnTrackSelected, w.presenter.OnEnqueueRequested)
		},
		w.updateCell,
	)

	labels := make([]string, len(w.filters))
	for i, filter := range w.filters {
		labels[i] = filter.Label
	}
	w.filterSelect = widget.NewSelect(labels, w.applyFilter)

	w.queueLabel = widget.NewLabel("")
	clearQueue := widget.NewButton("Clear Queue", w.presenter.OnClearQueue)

	top := container.NewBorder(nil, nil, nil, w.filterSelect, w.searchEntry)
	bottom := container.NewBorder(nil, nil, nil, clearQueue, w.queueLabel)
	w.window.SetContent(container.NewBorder(top, bottom, nil, nil, w.list))
}

func (w *CatalogWindow) updateCell(i widget.ListItemID, obj fyneapp.CanvasObject) {
	label, ok := obj.(*widgets.TrackLabel)
	if !ok || i < 0 || i >= len(w.data) {
		return
	}
	label.Bind(w.data[i].ID, rowText(w.data[i]))
}

// rowText renders a track as "Artist - Title (m:ss)".
func rowText(track domain.Track) string {
	text := track.Title
	if track.Artist != "" {
		text = track.Artist + " - " + text
	}
	if track.Duration > 0 {
		text = fmt.Sprintf("%s (%s)", text, domain.FormatTime(track.Duration))
	}
	return text
}

func (w *CatalogWindow) subscribeToEvents() {
	w.subscriptions = append(w.subscriptions,
		w.eventBus.Subscribe(domain.EventTrackLoading, w.onTrackLoading),
		w.eventBus.Subscribe(domain.EventQueueChanged, w.onQueueChanged),
	)
}

func (w *CatalogWindow) unsubscribeFromEvents() {
	for _, sub := range w.subscriptions {
		w.eventBus.Unsubscribe(sub)
	}
	w.subscriptions = nil
}

func (w *CatalogWindow) onTrackLoading(event domain.Event) {
	e, ok := event.(domain.TrackLoadingEvent)
	if !ok {
		return
	}

	fyneapp.Do(func() {
		w.currentID = e.Track.ID
		w.highlightCurrent()
	})
}

func (w *CatalogWindow) onQueueChanged(event domain.Event) {
	e, ok := event.(domain.QueueChangedEvent)
	if !ok {
		return
	}

	fyneapp.Do(func() {
		w.setQueueLength(len(e.Queue))
	})
}

func (w *CatalogWindow) setQueueLength(n int) {
	switch n {
	case 0:
		w.queueLabel.SetText("Queue is empty")
	case 1:
		w.queueLabel.SetText("1 track queued")
	default:
		w.queueLabel.SetText(fmt.Sprintf("%d tracks queued", n))
	}
}

// applyFilter switches the list to the filter with the given label.
func (w *CatalogWindow) applyFilter(label string) {
	w.collection = nil
	for _, filter := range w.filters {
		if filter.Label == label {
			w.collection = filter.Tracks
			break
		}
	}
	w.search(w.searchEntry.Text)
}

// search narrows the selected filter to tracks matching query.
func (w *CatalogWindow) search(query string) {
	query = strings.ToLower(strings.TrimSpace(query))

	if query == "" {
		w.data = w.collection
	} else {
		w.data = make([]domain.Track, 0, len(w.collection))
		for _, track := range w.collection {
			if matchesSearch(track, query) {
				w.data = append(w.data, track)
			}
		}
	}

	w.updateWindowTitle()
	w.list.Refresh()
	w.highlightCurrent()
}

// matchesSearch checks a lower-cased query against the track's text fields.
func matchesSearch(track domain.Track, query string) bool {
	for _, field := range []string{track.Title, track.Artist, track.Album, track.Genre} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// highlightCurrent selects the current track's row, or nothing when the
// track is filtered out.
func (w *CatalogWindow) highlightCurrent() {
	for i, track := range w.data {
		if track.ID == w.currentID {
			w.list.Select(i)
			return
		}
	}
	w.list.UnselectAll()
}

func (w *CatalogWindow) updateWindowTitle() {
	w.window.SetTitle(fmt.Sprintf("Catalog (%d tracks)", len(w.data)))
}

// Show displays the catalog window.
func (w *CatalogWindow) Show() {
	w.isVisible = true
	w.window.Show()
}

// Close closes the catalog window.
func (w *CatalogWindow) Close() {
	w.window.Close()
}

// IsVisible returns whether the window is currently visible.
func (w *CatalogWindow) IsVisible() bool {
	return w.isVisible
}

// SetOnWindowClosed sets a callback invoked when the window closes, so the
// main window can drop its reference.
func (w *CatalogWindow) SetOnWindowClosed(callback func()) {
	w.onWindowClosed = callback
}
