package fyne

import (
	"image/color"
	"log/slog"
	"sync"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"

	"github.com/tejashwikalptaru/wavepulse/internal/adapter/ui/fyne/widgets"
	"github.com/tejashwikalptaru/wavepulse/internal/visual"
)

// FullscreenWindow shows the particle renderer over the whole screen with
// the current track in the corner. A tap or Escape closes it.
type FullscreenWindow struct {
	window fyneapp.Window
	view   *widgets.RendererView
	title  *canvas.Text
	artist *canvas.Text

	logger *slog.Logger

	onWindowClosed func()
	closeOnce      sync.Once
}

// NewFullscreenWindow creates the window; Show mounts the renderer.
func NewFullscreenWindow(app fyneapp.App, logger *slog.Logger) *FullscreenWindow {
	w := &FullscreenWindow{logger: logger}

	w.view = widgets.NewRendererView(logger, visual.NewFullscreen(), fyneapp.NewSize(640, 360))

	w.title = canvas.NewText("", color.White)
	w.title.TextSize = 28
	w.title.TextStyle = fyneapp.TextStyle{Bold: true}
	w.artist = canvas.NewText("", color.NRGBA{R: 0xdd, G: 0xd6, B: 0xfe, A: 0xff})
	w.artist.TextSize = 18

	overlay := container.NewBorder(nil, container.NewPadded(container.NewVBox(w.title, w.artist)), nil, nil)
	content := widgets.NewTappableStack(container.NewStack(w.view, overlay),
		func(*fyneapp.PointEvent) { w.Close() }, nil)

	w.window = app.NewWindow("WavePulse")
	w.window.SetContent(content)
	w.window.SetPadded(false)
	w.window.Canvas().SetOnTypedKey(func(ev *fyneapp.KeyEvent) {
		if ev.Name == fyneapp.KeyEscape {
			w.Close()
		}
	})
	w.window.SetOnClosed(w.release)

	return w
}

// Show mounts the renderer on feed and shows the window fullscreen.
func (w *FullscreenWindow) Show(feed visual.Source) {
	if err := w.view.Mount(feed); err != nil {
		w.logger.Warn("fullscreen renderer already mounted", slog.Any("error", err))
	}
	w.window.SetFullScreen(true)
	w.window.Show()
}

// SetTrackInfo updates the overlay. Call on the Fyne thread.
func (w *FullscreenWindow) SetTrackInfo(title, artist string) {
	w.title.Text = title
	w.artist.Text = artist
	w.title.Refresh()
	w.artist.Refresh()
}

// Close closes the window. Safe to call more than once.
func (w *FullscreenWindow) Close() {
	w.window.Close()
}

// release stops the renderer once the window is gone.
func (w *FullscreenWindow) release() {
	w.closeOnce.Do(func() {
		w.view.Unmount()
		if w.onWindowClosed != nil {
			w.onWindowClosed()
		}
	})
}

// SetOnWindowClosed sets a callback invoked once the window has closed.
func (w *FullscreenWindow) SetOnWindowClosed(callback func()) {
	w.onWindowClosed = callback
}

// View returns the renderer view.
func (w *FullscreenWindow) View() *widgets.RendererView {
	return w.view
}
