package analysis

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/wavepulse/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/wavepulse/internal/domain"
	"github.com/tejashwikalptaru/wavepulse/internal/logger"
	"github.com/tejashwikalptaru/wavepulse/internal/ports"
)

type stubState struct {
	state atomic.Value
}

func newStubState(s domain.TransportState) *stubState {
	st := &stubState{}
	st.state.Store(s)
	return st
}

func (s *stubState) set(state domain.TransportState) { s.state.Store(state) }

func (s *stubState) TransportState() domain.TransportState {
	return s.state.Load().(domain.TransportState)
}

func playingResource(t *testing.T) *mock.Resource {
	t.Helper()
	res := mock.NewResource(logger.NewTestLogger())
	_, err := res.Load("/music/tone.mp3")
	require.NoError(t, err)
	require.NoError(t, res.Play())
	t.Cleanup(func() { _ = res.Close() })
	return res
}

func TestGraph_EnsureBoundIsIdempotent(t *testing.T) {
	res := playingResource(t)
	g := NewGraph(logger.NewTestLogger(), newStubState(domain.StatePlaying))

	b1, err := g.EnsureBound(res)
	require.NoError(t, err)
	b2, err := g.EnsureBound(res)
	require.NoError(t, err)

	assert.Same(t, b1, b2)
	assert.Equal(t, res.ID(), b1.Resource)
	assert.Equal(t, 1, res.TapAttachCount())

	id, ok := g.Bound()
	assert.True(t, ok)
	assert.Equal(t, res.ID(), id)
}

func TestGraph_EnsureBoundRejectsSecondResource(t *testing.T) {
	g := NewGraph(logger.NewTestLogger(), newStubState(domain.StatePlaying))
	first := playingResource(t)
	second := playingResource(t)

	_, err := g.EnsureBound(first)
	require.NoError(t, err)

	_, err = g.EnsureBound(second)
	var bindErr *domain.AnalysisBindingError
	require.True(t, errors.As(err, &bindErr))
	assert.Equal(t, second.ID(), bindErr.Resource)
	assert.ErrorIs(t, err, domain.ErrAnalysisBinding)
	assert.Equal(t, 0, second.TapAttachCount())

	id, _ := g.Bound()
	assert.Equal(t, first.ID(), id)
}

func TestGraph_TapAlreadyAttachedElsewhere(t *testing.T) {
	res := playingResource(t)
	_, err := res.AttachTap()
	require.NoError(t, err)

	g := NewGraph(logger.NewTestLogger(), newStubState(domain.StatePlaying))
	_, err = g.EnsureBound(res)
	assert.ErrorIs(t, err, domain.ErrAnalysisBinding)
	assert.ErrorIs(t, err, domain.ErrTapAlreadyAttached)

	_, ok := g.Bound()
	assert.False(t, ok)
}

func TestGraph_TapFailureLeavesGraphUnbound(t *testing.T) {
	res := playingResource(t)
	res.SetTapFail(true)
	g := NewGraph(logger.NewTestLogger(), newStubState(domain.StatePlaying))

	_, err := g.EnsureBound(res)
	assert.ErrorIs(t, err, domain.ErrAnalysisBinding)
	assert.False(t, g.Active())

	// Idle pattern still served
	for _, v := range g.SampleSpectrum(16) {
		assert.GreaterOrEqual(t, v, idleSpectrumMin)
		assert.LessOrEqual(t, v, idleSpectrumMax)
	}

	res.SetTapFail(false)
	_, err = g.EnsureBound(res)
	assert.NoError(t, err)
}

func TestGraph_SampleSpectrumLength(t *testing.T) {
	g := NewGraph(logger.NewTestLogger(), newStubState(domain.StateIdle))

	assert.Empty(t, g.SampleSpectrum(0))
	assert.NotNil(t, g.SampleSpectrum(0))
	assert.Empty(t, g.SampleSpectrum(-3))

	for _, n := range []int{1, 12, 40, 512, 2048} {
		assert.Len(t, g.SampleSpectrum(n), n)
	}
}

func TestGraph_IdlePatternWhenNotPlaying(t *testing.T) {
	res := playingResource(t)
	state := newStubState(domain.StatePaused)
	g := NewGraph(logger.NewTestLogger(), state)
	_, err := g.EnsureBound(res)
	require.NoError(t, err)

	assert.False(t, g.Active())
	for range 20 {
		for _, v := range g.SampleSpectrum(40) {
			assert.GreaterOrEqual(t, v, idleSpectrumMin)
			assert.LessOrEqual(t, v, idleSpectrumMax)
		}
		e := g.SampleBandEnergy(0, 10)
		assert.GreaterOrEqual(t, e, idleEnergyBase)
		assert.LessOrEqual(t, e, idleEnergyBase+idleEnergyJitter)
	}

	state.set(domain.StatePlaying)
	assert.True(t, g.Active())
}

func TestGraph_SpectrumFollowsAudio(t *testing.T) {
	res := playingResource(t)
	g := NewGraph(logger.NewTestLogger(), newStubState(domain.StatePlaying))
	_, err := g.EnsureBound(res)
	require.NoError(t, err)

	var spectrum []float64
	for range 5 {
		spectrum = g.SampleSpectrum(BinCount)
	}
	// 440 Hz tone lands near bin 10
	assert.InDelta(t, 10, argmax(spectrum), 1)

	low := g.SampleBandEnergy(5, 15)
	high := g.SampleBandEnergy(300, 400)
	assert.Greater(t, low, high)
	for _, v := range spectrum {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestGraph_SampleBandEnergyRanges(t *testing.T) {
	g := NewGraph(logger.NewTestLogger(), newStubState(domain.StateIdle))

	assert.Equal(t, 0.0, g.SampleBandEnergy(10, 10))
	assert.Equal(t, 0.0, g.SampleBandEnergy(20, 10))
	assert.Equal(t, 0.0, g.SampleBandEnergy(BinCount+5, BinCount+10))
	assert.Equal(t, 0.0, g.SampleBandEnergy(-10, -1))

	// Out-of-range bounds are clamped, not rejected
	assert.Greater(t, g.SampleBandEnergy(-10, BinCount*4), 0.0)
}

func TestGraph_Release(t *testing.T) {
	res := playingResource(t)
	g := NewGraph(logger.NewTestLogger(), newStubState(domain.StatePlaying))

	require.NoError(t, g.Release())

	_, err := g.EnsureBound(res)
	require.NoError(t, err)
	require.NoError(t, g.Release())
	require.NoError(t, g.Release())

	_, ok := g.Bound()
	assert.False(t, ok)
	assert.False(t, g.Active())
	assert.Equal(t, BinCount, g.BinCount())
}

func TestGraph_ConcurrentPolls(t *testing.T) {
	res := playingResource(t)
	g := NewGraph(logger.NewTestLogger(), newStubState(domain.StatePlaying))

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i == 0 {
				_, _ = g.EnsureBound(res)
			}
			for range 20 {
				g.SampleSpectrum(12)
				g.SampleBandEnergy(0, 64)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, res.TapAttachCount())
}

// countingResource counts how often the analyser reads the tap.
type countingResource struct {
	*mock.Resource
	reads atomic.Int32
}

func (r *countingResource) AttachTap() (ports.SampleTap, error) {
	tap, err := r.Resource.AttachTap()
	if err != nil {
		return nil, err
	}
	return &countingTap{SampleTap: tap, reads: &r.reads}, nil
}

type countingTap struct {
	ports.SampleTap
	reads *atomic.Int32
}

func (t *countingTap) Samples(dst []float64) int {
	t.reads.Add(1)
	return t.SampleTap.Samples(dst)
}

func TestGraph_OneAnalysisPerFrame(t *testing.T) {
	res := &countingResource{Resource: playingResource(t)}
	g := NewGraph(logger.NewTestLogger(), newStubState(domain.StatePlaying))
	clock := time.Unix(0, 0)
	g.now = func() time.Time { return clock }
	_, err := g.EnsureBound(res)
	require.NoError(t, err)

	// One renderer frame reading the spectrum and three bands
	spectrum := g.SampleSpectrum(BinCount)
	bass := g.SampleBandEnergy(0, 10)
	g.SampleBandEnergy(10, 100)
	g.SampleBandEnergy(100, 512)
	assert.Equal(t, int32(1), res.reads.Load())

	var want float64
	for _, v := range spectrum[:10] {
		want += v
	}
	assert.InDelta(t, want/10, bass, 1e-12, "bands come from the same bins as the spectrum")

	clock = clock.Add(frameInterval / 2)
	g.SampleSpectrum(40)
	assert.Equal(t, int32(1), res.reads.Load())

	clock = clock.Add(frameInterval)
	g.SampleSpectrum(40)
	g.SampleBandEnergy(0, 10)
	assert.Equal(t, int32(2), res.reads.Load())
}
