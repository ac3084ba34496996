package widgets

import (
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/wavepulse/internal/logger"
	"github.com/tejashwikalptaru/wavepulse/internal/testutil"
	"github.com/tejashwikalptaru/wavepulse/internal/visual"
)

type steadySource struct{}

func (steadySource) SampleSpectrum(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.5
	}
	return out
}
func (steadySource) SampleBandEnergy(int, int) float64 { return 0.5 }
func (steadySource) BinCount() int                      { return 512 }
func (steadySource) Active() bool                       { return true }
func (steadySource) Playing() bool                      { return true }

func TestMarquee(t *testing.T) {
	short := NewMarquee("Hello", 10)
	assert.False(t, short.Scrolls())
	assert.Equal(t, "Hello", short.Step())

	m := NewMarquee("abcdef", 4)
	assert.True(t, m.Scrolls())
	assert.Equal(t, "abcd", m.Frame())
	assert.Equal(t, "bcde", m.Step())
	assert.Equal(t, "cdef", m.Step())
	assert.Equal(t, "def ", m.Step())

	// Wraps around through the gap
	for range 7 {
		m.Step()
	}
	assert.Equal(t, "abcd", m.Frame())

	m.SetText("xy")
	assert.Equal(t, "xy", m.Step())
}

func TestTrackLabel(t *testing.T) {
	test.NewTempApp(t)

	var played, queued string
	label := NewTrackLabel(
		func(id string) { played = id },
		func(id string) { queued = id },
	)

	// Unbound cells ignore taps
	test.DoubleTap(label)
	assert.Empty(t, played)

	label.Bind("track3", "Artist - Title")
	assert.Equal(t, "Artist - Title", label.Text)
	assert.Equal(t, "track3", label.TrackID())

	test.DoubleTap(label)
	test.TapSecondary(label)
	assert.Equal(t, "track3", played)
	assert.Equal(t, "track3", queued)
}

func TestTappableStack(t *testing.T) {
	test.NewTempApp(t)

	taps, secondary := 0, 0
	stack := NewTappableStack(
		NewTrackLabel(nil, nil),
		func(*fyne.PointEvent) { taps++ },
		func(*fyne.PointEvent) { secondary++ },
	)

	test.Tap(stack)
	test.TapSecondary(stack)
	test.TapSecondary(stack)
	assert.Equal(t, 1, taps)
	assert.Equal(t, 2, secondary)

	quiet := NewTappableStack(NewTrackLabel(nil, nil), nil, nil)
	assert.NotPanics(t, func() { test.Tap(quiet) })
}

func TestRendererView_MountUnmount(t *testing.T) {
	defer testutil.VerifyNoLeaks(t, testutil.IgnoreFyneGoroutines()...)
	test.NewTempApp(t)

	view := NewRendererView(logger.NewTestLogger(), visual.NewEnhanced(), fyne.NewSize(80, 40))
	w := test.NewTempWindow(t, view)
	w.Resize(fyne.NewSize(120, 60))

	assert.Equal(t, fyne.NewSize(80, 40), view.MinSize())
	assert.Equal(t, string(visual.KindEnhanced), view.Renderer().Name())

	require.NoError(t, view.Mount(steadySource{}))
	assert.True(t, view.Mounted())
	require.Eventually(t, func() bool { return view.Frames() >= 2 }, 2*time.Second, 5*time.Millisecond)

	view.Unmount()
	assert.False(t, view.Mounted())
	frames := view.Frames()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, frames, view.Frames(), "unmounted view schedules no frames")

	// Idempotent
	view.Unmount()
}
