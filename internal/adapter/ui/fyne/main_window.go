package fyne

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/tejashwikalptaru/wavepulse/internal/adapter/ui/fyne/widgets"
	"github.com/tejashwikalptaru/wavepulse/internal/domain"
	"github.com/tejashwikalptaru/wavepulse/internal/visual"
)

const (
	windowWidth  = 560
	windowHeight = 420

	// song info scrolls when wider than this many runes
	marqueeWidth    = 32
	marqueeInterval = 300 * time.Millisecond

	volumeStep = 5
)

// WindowOptions configures the main window.
type WindowOptions struct {
	Title   string
	Version string
}

// MainWindow is the main UI window implementing the UIView interface.
//
// The MainWindow follows the MVP pattern:
// - It's a "dumb view" that just displays data
// - All business logic is in the Presenter
// - User interactions are forwarded to the Presenter
//
// UIView methods may be called from any goroutine; they hop onto the Fyne
// thread with fyne.Do.
type MainWindow struct {
	app    fyneapp.App
	window fyneapp.Window
	logger *slog.Logger
	opts   WindowOptions

	// UI components
	prevButton       *widget.Button
	playButton       *widget.Button
	nextButton       *widget.Button
	muteButton       *widget.Button
	fullscreenButton *widget.Button
	catalogButton    *widget.Button
	songInfo         *widget.Label
	currentTime      *widget.Label
	endTime          *widget.Label
	progressSlider   *widget.Slider
	volumeSlider     *widget.Slider

	// Visualizations
	barsView     *widgets.RendererView
	enhancedView *widgets.RendererView

	// Secondary windows; touched on the Fyne thread only
	catalogWindow    *CatalogWindow
	fullscreenWindow *FullscreenWindow

	// State; touched on the Fyne thread only
	marquee     *widgets.Marquee
	trackTitle  string
	trackArtist string
	stopScroll  chan struct{}
	scrollDone  chan struct{}

	// Lifecycle management
	startOnce   sync.Once
	releaseOnce sync.Once
	closeOnce   sync.Once

	// Presenter (set after construction)
	presenter *Presenter
}

// NewMainWindow creates a new main window.
func NewMainWindow(app fyneapp.App, logger *slog.Logger, opts WindowOptions) *MainWindow {
	w := &MainWindow{
		app:        app,
		logger:     logger,
		opts:       opts,
		marquee:    widgets.NewMarquee(opts.Title, marqueeWidth),
		stopScroll: make(chan struct{}),
		scrollDone: make(chan struct{}),
	}

	w.window = app.NewWindow(opts.Title)
	w.buildUI()
	w.window.Resize(fyneapp.NewSize(windowWidth, windowHeight))
	w.window.SetOnClosed(w.release)

	return w
}

// SetPresenter connects the presenter to this view.
// This must be called before showing the window.
func (w *MainWindow) SetPresenter(presenter *Presenter) {
	w.presenter = presenter
	w.wirePresenterHandlers()
	w.addShortcuts()
}

func (w *MainWindow) buildUI() {
	// Control buttons
	w.prevButton = widget.NewButtonWithIcon("", theme.MediaSkipPreviousIcon(), nil)
	w.playButton = widget.NewButtonWithIcon("", theme.MediaPlayIcon(), nil)
	w.nextButton = widget.NewButtonWithIcon("", theme.MediaSkipNextIcon(), nil)
	w.muteButton = widget.NewButtonWithIcon("", theme.VolumeUpIcon(), nil)
	w.fullscreenButton = widget.NewButtonWithIcon("", theme.ViewFullScreenIcon(), w.openFullscreen)
	w.catalogButton = widget.NewButtonWithIcon("", theme.ListIcon(), w.openCatalog)

	w.songInfo = widget.NewLabel(w.marquee.Frame())
	w.songInfo.Truncation = fyneapp.TextTruncateClip
	w.songInfo.TextStyle = fyneapp.TextStyle{Bold: true, Italic: true}

	// Visualizations
	w.barsView = widgets.NewRendererView(w.logger, visual.NewBars(), fyneapp.NewSize(72, 32))
	w.enhancedView = widgets.NewRendererView(w.logger, visual.NewEnhanced(), fyneapp.NewSize(480, 220))
	stage := widgets.NewTappableStack(w.enhancedView, func(*fyneapp.PointEvent) { w.openFullscreen() }, nil)

	// Volume slider
	w.volumeSlider = widget.NewSlider(0, 100)
	w.volumeSlider.Orientation = widget.Horizontal
	volIcon := canvas.NewImageFromResource(theme.VolumeUpIcon())
	volIcon.SetMinSize(fyneapp.NewSize(20, 20))
	volumeHolder := container.NewBorder(nil, nil, volIcon, nil, w.volumeSlider)

	buttons := container.NewHBox(
		w.prevButton, w.playButton, w.nextButton,
		w.muteButton, w.barsView,
	)
	views := container.NewHBox(w.catalogButton, w.fullscreenButton)
	buttonsHolder := container.NewBorder(nil, nil, buttons, views, w.songInfo)

	// Progress slider
	w.progressSlider = widget.NewSlider(0, 1)
	w.currentTime = widget.NewLabel(domain.FormatTime(0))
	w.endTime = widget.NewLabel(domain.FormatTime(0))
	sliderHolder := container.NewBorder(nil, nil, w.currentTime, w.endTime, w.progressSlider)

	controls := container.NewVBox(buttonsHolder, sliderHolder, volumeHolder)
	w.window.SetContent(container.NewPadded(container.NewBorder(nil, controls, nil, nil, stage)))

	w.window.SetMainMenu(fyneapp.NewMainMenu(w.createMenu()...))
}

// wirePresenterHandlers connects UI events to presenter handlers.
func (w *MainWindow) wirePresenterHandlers() {
	if w.presenter == nil {
		return
	}

	w.playButton.OnTapped = w.presenter.OnPlayClicked
	w.nextButton.OnTapped = w.presenter.OnNextClicked
	w.prevButton.OnTapped = w.presenter.OnPreviousClicked
	w.muteButton.OnTapped = w.presenter.OnMuteClicked

	w.volumeSlider.OnChanged = w.presenter.OnVolumeChanged

	// Seek once the drag ends so progress updates do not fight the user
	w.progressSlider.OnChangeEnded = w.presenter.OnSeekRequested
}

func (w *MainWindow) createMenu() []*fyneapp.Menu {
	openFile := fyneapp.NewMenuItem("Open File...", w.handleOpenFile)
	openFolder := fyneapp.NewMenuItem("Queue Folder...", w.handleOpenFolder)
	exitMenu := fyneapp.NewMenuItem("Exit", w.Close)
	fileMenu := fyneapp.NewMenu("File", openFile, openFolder, fyneapp.NewMenuItemSeparator(), exitMenu)

	catalog := fyneapp.NewMenuItem("Catalog", w.openCatalog)
	fullscreen := fyneapp.NewMenuItem("Fullscreen Visualizer", w.openFullscreen)
	viewMenu := fyneapp.NewMenu("View", catalog, fullscreen)

	about := fyneapp.NewMenuItem("About", w.showAbout)
	helpMenu := fyneapp.NewMenu("Help", about)

	return []*fyneapp.Menu{fileMenu, viewMenu, helpMenu}
}

func (w *MainWindow) handleOpenFile() {
	if w.presenter == nil {
		return
	}

	dialog := NewFileDialog(w.window, w.presenter.SupportedFormats(), func(filePath string) {
		if err := w.presenter.OnFileOpened(filePath); err != nil {
			w.ShowNotification("Error", fmt.Sprintf("Failed to open file: %v", err))
		}
	}, w.logger)
	dialog.Show()
}

func (w *MainWindow) handleOpenFolder() {
	if w.presenter == nil {
		return
	}

	dialog := NewFolderDialog(w.window, func(folderPath string) {
		// Scanning walks the disk; keep it off the Fyne thread
		go func() {
			if err := w.presenter.OnFolderOpened(folderPath); err != nil {
				w.ShowNotification("Error", fmt.Sprintf("Failed to scan folder: %v", err))
			}
		}()
	}, w.logger)
	dialog.Show()
}

// openCatalog shows the catalog window, reusing it while it is open.
func (w *MainWindow) openCatalog() {
	if w.presenter == nil {
		return
	}
	if w.catalogWindow != nil {
		w.catalogWindow.Show()
		return
	}

	w.catalogWindow = NewCatalogWindow(w.app, w.presenter)
	w.catalogWindow.SetOnWindowClosed(func() { w.catalogWindow = nil })
	w.catalogWindow.Show()
}

// openFullscreen shows the fullscreen visualizer. The in-window views stop
// while it is open and resume when it closes.
func (w *MainWindow) openFullscreen() {
	if w.presenter == nil || w.fullscreenWindow != nil {
		return
	}

	w.barsView.Unmount()
	w.enhancedView.Unmount()

	w.fullscreenWindow = NewFullscreenWindow(w.app, w.logger)
	w.fullscreenWindow.SetTrackInfo(w.trackTitle, w.trackArtist)
	w.fullscreenWindow.SetOnWindowClosed(func() {
		w.fullscreenWindow = nil
		w.mountViews()
	})
	w.fullscreenWindow.Show(w.presenter.Feed())
}

func (w *MainWindow) mountViews() {
	select {
	case <-w.stopScroll:
		return // main window is closing
	default:
	}

	for _, view := range []*widgets.RendererView{w.barsView, w.enhancedView} {
		if view.Mounted() {
			continue
		}
		if err := view.Mount(w.presenter.Feed()); err != nil {
			w.logger.Warn("failed to mount renderer", slog.Any("error", err))
		}
	}
}

func (w *MainWindow) addShortcuts() {
	w.window.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyneapp.KeyUp,
		Modifier: fyneapp.KeyModifierAlt,
	}, func(fyneapp.Shortcut) {
		w.volumeSlider.SetValue(min(w.volumeSlider.Value+volumeStep, 100))
	})

	w.window.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyneapp.KeyDown,
		Modifier: fyneapp.KeyModifierAlt,
	}, func(fyneapp.Shortcut) {
		w.volumeSlider.SetValue(max(w.volumeSlider.Value-volumeStep, 0))
	})

	w.window.Canvas().SetOnTypedKey(func(ev *fyneapp.KeyEvent) {
		switch ev.Name {
		case fyneapp.KeySpace:
			w.presenter.OnPlayClicked()
		case fyneapp.KeyF:
			w.openFullscreen()
		}
	})
}

// start mounts the visualizations and starts scrolling the song info.
func (w *MainWindow) start() {
	w.startOnce.Do(func() {
		if w.presenter != nil {
			w.mountViews()
		}
		go w.scrollSongInfo()
	})
}

func (w *MainWindow) scrollSongInfo() {
	defer close(w.scrollDone)

	ticker := time.NewTicker(marqueeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopScroll:
			return
		case <-ticker.C:
			fyneapp.Do(func() {
				if w.marquee.Scrolls() {
					w.songInfo.SetText(w.marquee.Step())
				}
			})
		}
	}
}

// Show shows the window without blocking.
func (w *MainWindow) Show() {
	w.start()
	w.window.Show()
}

// ShowAndRun shows the window and runs the application.
func (w *MainWindow) ShowAndRun() {
	w.start()
	w.window.ShowAndRun()
}

// Close closes the window and everything it owns.
// It's safe to call multiple times (idempotent).
func (w *MainWindow) Close() {
	w.closeOnce.Do(func() {
		w.release()
		w.window.Close()
	})
}

// release stops the scroll routine and every render loop.
func (w *MainWindow) release() {
	w.releaseOnce.Do(func() {
		close(w.stopScroll)
		w.startOnce.Do(func() { close(w.scrollDone) })
		<-w.scrollDone

		w.barsView.Unmount()
		w.enhancedView.Unmount()
		if w.fullscreenWindow != nil {
			w.fullscreenWindow.Close()
		}
		if w.catalogWindow != nil {
			w.catalogWindow.Close()
		}
	})
}

// GetWindow returns the underlying Fyne window.
func (w *MainWindow) GetWindow() fyneapp.Window {
	return w.window
}

// UIView interface implementation

// SetPlayState updates the play/pause button state.
func (w *MainWindow) SetPlayState(playing bool) {
	fyneapp.Do(func() {
		if playing {
			w.playButton.SetIcon(theme.MediaPauseIcon())
		} else {
			w.playButton.SetIcon(theme.MediaPlayIcon())
		}
	})
}

// SetMuteState updates the mute button state.
func (w *MainWindow) SetMuteState(muted bool) {
	fyneapp.Do(func() {
		if muted {
			w.muteButton.SetIcon(theme.VolumeMuteIcon())
		} else {
			w.muteButton.SetIcon(theme.VolumeUpIcon())
		}
	})
}

// SetVolume moves the volume slider (0-100) without calling back.
func (w *MainWindow) SetVolume(volume float64) {
	fyneapp.Do(func() {
		w.volumeSlider.Value = volume
		w.volumeSlider.Refresh()
	})
}

// SetTrackInfo shows "Artist - Title", or the app title when nothing is loaded.
func (w *MainWindow) SetTrackInfo(title, artist, _ string) {
	var text string
	switch {
	case artist != "" && title != "":
		text = fmt.Sprintf("%s - %s", artist, title)
	case title != "":
		text = title
	default:
		text = w.opts.Title
	}

	fyneapp.Do(func() {
		w.trackTitle, w.trackArtist = title, artist
		w.marquee.SetText(text)
		w.songInfo.SetText(w.marquee.Frame())
		if w.fullscreenWindow != nil {
			w.fullscreenWindow.SetTrackInfo(title, artist)
		}
	})
}

// SetCurrentTime updates the elapsed time label.
func (w *MainWindow) SetCurrentTime(position time.Duration) {
	fyneapp.Do(func() {
		w.currentTime.SetText(domain.FormatTime(position))
	})
}

// SetTotalTime updates the duration label and the slider range.
func (w *MainWindow) SetTotalTime(duration time.Duration) {
	fyneapp.Do(func() {
		w.endTime.SetText(domain.FormatTime(duration))
		w.progressSlider.Max = max(duration.Seconds(), 1)
		w.progressSlider.Refresh()
	})
}

// SetProgress moves the progress slider without seeking.
func (w *MainWindow) SetProgress(position, duration time.Duration) {
	fyneapp.Do(func() {
		if duration > 0 {
			w.progressSlider.Max = duration.Seconds()
		}
		w.progressSlider.Value = min(position.Seconds(), w.progressSlider.Max)
		w.progressSlider.Refresh()
	})
}

// SetQueueLength shows the queue size on the catalog button.
func (w *MainWindow) SetQueueLength(n int) {
	fyneapp.Do(func() {
		if n == 0 {
			w.catalogButton.SetText("")
		} else {
			w.catalogButton.SetText(fmt.Sprintf("%d", n))
		}
	})
}

// ShowNotification displays a system notification.
func (w *MainWindow) ShowNotification(title, message string) {
	w.app.SendNotification(fyneapp.NewNotification(title, message))
}

// Verify UIView implementation
var _ UIView = (*MainWindow)(nil)
