package fyne

import (
	"strings"
	"testing"
	"time"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/theme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/wavepulse/internal/logger"
)

// newTestWindow builds a main window on the Fyne test driver and wires it to
// a presenter over the mock engine.
func newTestWindow(t *testing.T) (*MainWindow, presenterFixture) {
	t.Helper()

	app := test.NewTempApp(t)
	w := NewMainWindow(app, logger.NewTestLogger(), WindowOptions{Title: "WavePulse", Version: "WavePulse test"})
	f := newTestPresenter(t)

	presenter := NewPresenter(logger.NewTestLogger(), f.ctrl, f.presenter.library, f.bus, w)
	w.SetPresenter(presenter)
	t.Cleanup(func() {
		w.Close()
		presenter.Shutdown()
	})
	return w, f
}

func TestMainWindow_ShowsTrackInfo(t *testing.T) {
	w, _ := newTestWindow(t)

	assert.Equal(t, "WavePulse", w.songInfo.Text)

	w.SetTrackInfo("Dawn", "Luna Echo", "Aurora")
	assert.Equal(t, "Luna Echo - Dawn", w.songInfo.Text)

	w.SetCurrentTime(75 * time.Second)
	w.SetTotalTime(4 * time.Minute)
	assert.Equal(t, "1:15", w.currentTime.Text)
	assert.Equal(t, "4:00", w.endTime.Text)

	w.SetProgress(time.Minute, 4*time.Minute)
	assert.InDelta(t, 60, w.progressSlider.Value, 1e-9)
	assert.InDelta(t, 240, w.progressSlider.Max, 1e-9)

	w.SetTrackInfo("", "", "")
	assert.Equal(t, "WavePulse", w.songInfo.Text)
}

func TestMainWindow_LongTitlesScroll(t *testing.T) {
	w, _ := newTestWindow(t)

	long := strings.Repeat("Very Long Title ", 4)
	w.SetTrackInfo(long, "Someone", "")
	first := w.songInfo.Text
	assert.Len(t, []rune(first), marqueeWidth)

	w.Show()
	require.Eventually(t, func() bool {
		var text string
		fyneapp.DoAndWait(func() { text = w.songInfo.Text })
		return text != first
	}, 2*time.Second, 10*time.Millisecond)
}

func TestMainWindow_ControlsDrivePresenter(t *testing.T) {
	w, f := newTestWindow(t)

	test.Tap(w.playButton)
	require.Eventually(t, func() bool { return f.ctrl.State().IsPlaying() }, waitFor, tick)
	require.Eventually(t, func() bool { return w.playButton.Icon.Name() == theme.MediaPauseIcon().Name() }, waitFor, tick)

	test.Tap(w.nextButton)
	require.Eventually(t, func() bool { return f.ctrl.State().CurrentTrack.ID == "track2" }, waitFor, tick)

	test.Tap(w.muteButton)
	assert.Zero(t, f.ctrl.State().Volume)
	assert.Equal(t, theme.VolumeMuteIcon().Name(), w.muteButton.Icon.Name())

	test.Tap(w.muteButton)
	assert.InDelta(t, 0.7, f.ctrl.State().Volume, 1e-9)
	assert.InDelta(t, 70, w.volumeSlider.Value, 1e-9)
}

func TestMainWindow_QueueLength(t *testing.T) {
	w, f := newTestWindow(t)

	w.presenter.OnEnqueueRequested("track4")
	assert.Equal(t, "1", w.catalogButton.Text)

	f.ctrl.ClearQueue()
	assert.Empty(t, w.catalogButton.Text)
}

func TestMainWindow_FullscreenSwapsRenderers(t *testing.T) {
	w, _ := newTestWindow(t)
	w.Show()
	require.True(t, w.enhancedView.Mounted())
	require.True(t, w.barsView.Mounted())

	w.SetTrackInfo("Dawn", "Luna Echo", "")
	w.openFullscreen()
	require.NotNil(t, w.fullscreenWindow)
	fullscreen := w.fullscreenWindow
	assert.True(t, fullscreen.View().Mounted())
	assert.False(t, w.enhancedView.Mounted(), "in-window views pause under fullscreen")
	assert.Equal(t, "Dawn", fullscreen.title.Text)

	// A second request keeps the open window
	w.openFullscreen()
	assert.Same(t, fullscreen, w.fullscreenWindow)

	fullscreen.Close()
	assert.Nil(t, w.fullscreenWindow)
	assert.False(t, fullscreen.View().Mounted())
	assert.True(t, w.enhancedView.Mounted())

	w.Close()
	assert.False(t, w.enhancedView.Mounted())
	assert.False(t, w.barsView.Mounted())
}

func TestMainWindow_CloseWithoutShow(t *testing.T) {
	w, _ := newTestWindow(t)
	w.Close()
	w.Close()
	assert.False(t, w.barsView.Mounted())
}

func TestCatalogWindow_FilterAndSearch(t *testing.T) {
	w, f := newTestWindow(t)

	w.openCatalog()
	catalog := w.catalogWindow
	require.NotNil(t, catalog)
	assert.True(t, catalog.IsVisible())
	assert.Len(t, catalog.data, len(f.ctrl.Tracks()))

	catalog.filterSelect.SetSelected("Artist: Luna Echo")
	for _, track := range catalog.data {
		assert.Equal(t, "Luna Echo", track.Artist)
	}

	catalog.searchEntry.SetText("cosmic")
	require.Len(t, catalog.data, 1)
	assert.Equal(t, "track2", catalog.data[0].ID)

	catalog.searchEntry.SetText("")
	catalog.filterSelect.SetSelectedIndex(0)
	assert.Len(t, catalog.data, len(f.ctrl.Tracks()))
}

func TestCatalogWindow_FollowsPlaybackAndQueue(t *testing.T) {
	w, f := newTestWindow(t)

	w.openCatalog()
	catalog := w.catalogWindow
	require.NotNil(t, catalog)
	assert.Equal(t, "Queue is empty", catalog.queueLabel.Text)

	w.presenter.OnTrackSelected("track3")
	require.Eventually(t, func() bool {
		var id string
		fyneapp.DoAndWait(func() { id = catalog.currentID })
		return id == "track3"
	}, waitFor, tick)

	f.ctrl.Enqueue(f.ctrl.Tracks()[0])
	f.ctrl.Enqueue(f.ctrl.Tracks()[1])
	assert.Equal(t, "2 tracks queued", catalog.queueLabel.Text)

	catalog.Close()
	assert.Nil(t, w.catalogWindow)
	assert.False(t, catalog.IsVisible())
}

func TestRowText(t *testing.T) {
	f := newTestPresenter(t)
	track := f.ctrl.Tracks()[1]

	assert.Equal(t, "Luna Echo - Cosmic Waves (5:17)", rowText(track))

	track.Artist, track.Duration = "", 0
	assert.Equal(t, "Cosmic Waves", rowText(track))
}

func TestAboutMarkdown(t *testing.T) {
	body := aboutMarkdown("WavePulse 1.0.0")
	assert.Contains(t, body, "**Features:**")
	assert.True(t, strings.HasSuffix(body, "WavePulse 1.0.0"))
}
