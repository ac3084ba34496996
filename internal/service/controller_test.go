package service

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/wavepulse/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/wavepulse/internal/adapter/catalog/static"
	"github.com/tejashwikalptaru/wavepulse/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/wavepulse/internal/analysis"
	"github.com/tejashwikalptaru/wavepulse/internal/domain"
	"github.com/tejashwikalptaru/wavepulse/internal/logger"
	"github.com/tejashwikalptaru/wavepulse/internal/testutil"
)

type controllerFixture struct {
	ctrl    *Controller
	session *PlaybackSession
	res     *mock.Resource
	bus     *eventbus.SyncEventBus
	rec     *eventRecorder
	logs    *logger.Buffer
}

func newTestController(t *testing.T, configure ...func(*mock.Resource)) controllerFixture {
	t.Helper()

	log, logs := logger.NewCaptureLogger()
	res := mock.NewResource(log)
	for _, fn := range configure {
		fn(res)
	}
	bus := eventbus.NewSyncEventBus(log)
	rec := recordEvents(bus)

	catalog, err := static.Default()
	require.NoError(t, err)

	session := NewPlaybackSession(log.With(slog.String("service", "PlaybackSession")), res, bus)
	scheduler := NewQueueScheduler(log.With(slog.String("service", "QueueScheduler")), session, catalog, bus)
	graph := analysis.NewGraph(log.With(slog.String("service", "AnalysisGraph")), session)
	ctrl := NewController(log.With(slog.String("service", "Controller")), session, scheduler, graph, catalog, bus)

	t.Cleanup(func() {
		_ = ctrl.Shutdown()
		_ = scheduler.Shutdown()
		_ = session.Shutdown()
		_ = bus.Close()
	})

	return controllerFixture{ctrl: ctrl, session: session, res: res, bus: bus, rec: rec, logs: logs}
}

func TestController_BindsAnalysisOnFirstStart(t *testing.T) {
	f := newTestController(t)

	assert.False(t, f.ctrl.Active())
	require.NoError(t, f.ctrl.PlayByID("track1"))
	waitForState(t, f.session, domain.StatePlaying)

	require.Eventually(t, func() bool { return f.ctrl.Active() }, waitFor, tick)
	assert.Equal(t, 1, f.rec.count(domain.EventAnalysisBound))

	bound := f.rec.last(domain.EventAnalysisBound).(domain.AnalysisBoundEvent)
	assert.Equal(t, f.res.ID(), bound.Resource)
	assert.Equal(t, analysis.BinCount, bound.BinCount)

	// The binding survives track changes
	require.NoError(t, f.ctrl.Next())
	waitForState(t, f.session, domain.StatePlaying)
	assert.Equal(t, "track2", f.ctrl.State().CurrentTrack.ID)
	assert.Equal(t, 1, f.rec.count(domain.EventAnalysisBound))
	assert.Equal(t, 1, f.res.TapAttachCount())
}

func TestController_SpectrumFollowsPlayback(t *testing.T) {
	f := newTestController(t)
	require.NoError(t, f.ctrl.PlayByID("track1"))
	require.Eventually(t, func() bool { return f.ctrl.Active() }, waitFor, tick)

	spectrum := f.ctrl.SampleSpectrum(12)
	require.Len(t, spectrum, 12)
	assert.Greater(t, f.ctrl.SampleBandEnergy(5, 15), f.ctrl.SampleBandEnergy(400, 500))

	require.NoError(t, f.ctrl.TogglePlayPause())
	waitForState(t, f.session, domain.StatePaused)
	assert.False(t, f.ctrl.Active())
	for _, v := range f.ctrl.SampleSpectrum(12) {
		assert.LessOrEqual(t, v, 0.5)
		assert.GreaterOrEqual(t, v, 0.1)
	}
}

func TestController_BindingFailureIsAbsorbed(t *testing.T) {
	f := newTestController(t, func(r *mock.Resource) { r.SetTapFail(true) })

	require.NoError(t, f.ctrl.PlayByID("track3"))
	waitForState(t, f.session, domain.StatePlaying)

	require.Eventually(t, func() bool { return f.rec.count(domain.EventAnalysisDegraded) == 1 }, waitFor, tick)
	degraded := f.rec.last(domain.EventAnalysisDegraded).(domain.AnalysisDegradedEvent)
	assert.ErrorIs(t, degraded.Error, domain.ErrAnalysisBinding)
	assert.Contains(t, f.logs.String(), "level=WARN")
	assert.Contains(t, f.logs.String(), "analysis unavailable")

	// Playback is unaffected; the feed stays idle
	assert.Equal(t, domain.StatePlaying, f.ctrl.State().State)
	assert.False(t, f.ctrl.Active())
	assert.Len(t, f.ctrl.SampleSpectrum(40), 40)
	assert.Equal(t, 0, f.rec.count(domain.EventAnalysisBound))
}

func TestController_PlayByIDUnknown(t *testing.T) {
	f := newTestController(t)

	err := f.ctrl.PlayByID("nope")
	assert.ErrorIs(t, err, domain.ErrTrackNotFound)
	assert.Nil(t, f.ctrl.State().CurrentTrack)
}

func TestController_TransportDelegation(t *testing.T) {
	f := newTestController(t)
	require.NoError(t, f.ctrl.PlayByID("track2"))
	waitForState(t, f.session, domain.StatePlaying)

	require.NoError(t, f.ctrl.Seek(30*time.Second))
	assert.Equal(t, 30*time.Second, f.ctrl.State().Position)

	require.NoError(t, f.ctrl.SetVolume(0.25))
	assert.Equal(t, 0.25, f.ctrl.State().Volume)
	assert.Equal(t, 0.25, f.res.Volume())

	require.NoError(t, f.ctrl.Previous())
	assert.Equal(t, "track1", f.ctrl.State().CurrentTrack.ID)
	assert.ErrorIs(t, f.ctrl.Previous(), domain.ErrStartOfCatalog)

	extra := createTestTrack("extra")
	f.ctrl.Enqueue(extra)
	assert.Len(t, f.ctrl.QueueSnapshot(), 1)
	f.ctrl.ClearQueue()
	assert.Empty(t, f.ctrl.QueueSnapshot())

	require.NoError(t, f.ctrl.Play(extra))
	assert.Equal(t, "extra", f.ctrl.State().CurrentTrack.ID)
}

func TestController_CatalogLookups(t *testing.T) {
	f := newTestController(t)

	assert.Len(t, f.ctrl.Tracks(), 10)
	assert.Len(t, f.ctrl.TracksByArtist("artist1"), 3)
	assert.Len(t, f.ctrl.TracksByAlbum("album2"), 2)
	assert.Len(t, f.ctrl.TracksByPlaylist("playlist4"), 3)
	assert.Len(t, f.ctrl.TracksByGenre("jazz"), len(f.ctrl.TracksByGenre("JAZZ")))
	assert.NotEmpty(t, f.ctrl.Artists())
	assert.NotEmpty(t, f.ctrl.Albums())
	assert.NotEmpty(t, f.ctrl.Playlists())
	assert.NotEmpty(t, f.ctrl.Genres())
}

func TestController_Shutdown(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	f := newTestController(t)
	require.NoError(t, f.ctrl.PlayByID("track1"))
	require.Eventually(t, func() bool { return f.ctrl.Active() }, waitFor, tick)

	require.NoError(t, f.ctrl.Shutdown())
	assert.False(t, f.ctrl.Active())
	assert.False(t, f.bus.HasSubscribers(domain.EventTrackStarted))

	require.NoError(t, f.session.Shutdown())
}
