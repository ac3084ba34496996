package visual

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/wavepulse/internal/domain"
	"github.com/tejashwikalptaru/wavepulse/internal/logger"
	"github.com/tejashwikalptaru/wavepulse/internal/testutil"
)

const (
	waitFor = 2 * time.Second
	tick    = 2 * time.Millisecond
)

// fastRenderer wraps Bars with a short interval and counts resets.
type fastRenderer struct {
	*Bars
	resets atomic.Int32
}

func (f *fastRenderer) Interval() time.Duration { return time.Millisecond }

func (f *fastRenderer) Reset() {
	f.resets.Add(1)
	f.Bars.Reset()
}

func TestLoop_MountTicksAndReportsFrames(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	var frames atomic.Int64
	r := &fastRenderer{Bars: NewBars()}
	loop := NewLoop(logger.NewTestLogger(), r, func() { frames.Add(1) })
	src := &fakeSource{level: 0.7}

	assert.False(t, loop.Mounted())
	require.NoError(t, loop.Mount(src))
	assert.True(t, loop.Mounted())

	require.Eventually(t, func() bool { return frames.Load() >= 3 }, waitFor, tick)
	assert.InDelta(t, 0.7, r.Heights()[0], 1e-9)
	assert.GreaterOrEqual(t, src.polls.Load(), int64(3))

	loop.Unmount()
	assert.False(t, loop.Mounted())
	assert.Equal(t, uint64(frames.Load()), loop.Frames())
}

func TestLoop_DoubleMount(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	loop := NewLoop(logger.NewTestLogger(), &fastRenderer{Bars: NewBars()}, nil)
	require.NoError(t, loop.Mount(&fakeSource{}))
	defer loop.Unmount()

	err := loop.Mount(&fakeSource{})
	assert.ErrorIs(t, err, domain.ErrLoopMounted)
}

func TestLoop_NoFramesAfterUnmount(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	var frames atomic.Int64
	r := &fastRenderer{Bars: NewBars()}
	loop := NewLoop(logger.NewTestLogger(), r, func() { frames.Add(1) })
	src := &fakeSource{level: 0.9}

	require.NoError(t, loop.Mount(src))
	require.Eventually(t, func() bool { return frames.Load() > 0 }, waitFor, tick)
	loop.Unmount()

	settled, polls := frames.Load(), src.polls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, settled, frames.Load(), "no frames after unmount")
	assert.Equal(t, polls, src.polls.Load(), "source is no longer sampled")

	// Unmount resets the renderer and is idempotent
	assert.Equal(t, int32(1), r.resets.Load())
	assert.Equal(t, barsMinHeight, r.Heights()[0])
	loop.Unmount()
	assert.Equal(t, int32(1), r.resets.Load())
}

func TestLoop_Remount(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	var frames atomic.Int64
	loop := NewLoop(logger.NewTestLogger(), &fastRenderer{Bars: NewBars()}, func() { frames.Add(1) })

	first := &fakeSource{level: 0.4}
	require.NoError(t, loop.Mount(first))
	require.Eventually(t, func() bool { return frames.Load() > 0 }, waitFor, tick)
	loop.Unmount()

	second := &fakeSource{level: 0.6}
	require.NoError(t, loop.Mount(second))
	defer loop.Unmount()

	before := first.polls.Load()
	require.Eventually(t, func() bool { return second.polls.Load() > 2 }, waitFor, tick)
	assert.Equal(t, before, first.polls.Load(), "old source is dropped")
}

func TestLoop_ConcurrentDraw(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	for _, info := range Kinds() {
		t.Run(string(info.Kind), func(t *testing.T) {
			r := New(info.Kind)
			drawn := make(chan struct{}, 1)
			loop := NewLoop(logger.NewTestLogger(), r, func() {
				select {
				case drawn <- struct{}{}:
				default:
				}
			})
			require.NoError(t, loop.Mount(&fakeSource{level: 0.5, playing: true}))
			defer loop.Unmount()

			// Frames are painted off the loop goroutine
			for range 3 {
				select {
				case <-drawn:
				case <-time.After(waitFor):
					t.Fatal("no frame reported")
				}
				img := r.Draw(64, 32)
				assert.Equal(t, 64, img.Bounds().Dx())
			}
		})
	}
}
