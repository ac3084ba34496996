package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/wavepulse/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/wavepulse/internal/adapter/catalog/static"
	"github.com/tejashwikalptaru/wavepulse/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/wavepulse/internal/domain"
	"github.com/tejashwikalptaru/wavepulse/internal/logger"
)

// Helper to create a scheduler over a three-track catalog
func newTestScheduler(t *testing.T) (*QueueScheduler, *PlaybackSession, *mock.Resource, *eventbus.SyncEventBus) {
	t.Helper()
	session, res, bus := newTestSession(t)

	catalog, err := static.FromTracks([]domain.Track{
		createTestTrack("track1"),
		createTestTrack("track2"),
		createTestTrack("track3"),
	})
	require.NoError(t, err)

	scheduler := NewQueueScheduler(logger.NewTestLogger(), session, catalog, bus)
	t.Cleanup(func() { _ = scheduler.Shutdown() })
	return scheduler, session, res, bus
}

func playAndWait(t *testing.T, s *PlaybackSession, id string) {
	t.Helper()
	require.NoError(t, s.Play(createTestTrack(id)))
	waitForState(t, s, domain.StatePlaying)
}

func currentID(s *PlaybackSession) string {
	if t := s.CurrentTrack(); t != nil {
		return t.ID
	}
	return ""
}

func TestQueueScheduler_Enqueue(t *testing.T) {
	scheduler, _, _, bus := newTestScheduler(t)
	rec := recordEvents(bus)

	scheduler.Enqueue(createTestTrack("q1"))
	scheduler.Enqueue(createTestTrack("q2"))

	snapshot := scheduler.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, "q1", snapshot[0].ID)
	assert.Equal(t, "q2", snapshot[1].ID)
	assert.Equal(t, 2, rec.count(domain.EventQueueChanged))

	ev := rec.last(domain.EventQueueChanged).(domain.QueueChangedEvent)
	assert.Len(t, ev.Queue, 2)
}

func TestQueueScheduler_AdvanceIsFIFO(t *testing.T) {
	scheduler, session, _, _ := newTestScheduler(t)
	playAndWait(t, session, "track1")

	scheduler.Enqueue(createTestTrack("q1"))
	scheduler.Enqueue(createTestTrack("q2"))

	require.NoError(t, scheduler.Advance())
	assert.Equal(t, "q1", currentID(session))
	require.NoError(t, scheduler.Advance())
	assert.Equal(t, "q2", currentID(session))
	assert.Empty(t, scheduler.Snapshot())
}

func TestQueueScheduler_AdvanceFallsBackToCatalog(t *testing.T) {
	scheduler, session, _, _ := newTestScheduler(t)
	playAndWait(t, session, "track1")

	require.NoError(t, scheduler.Advance())
	assert.Equal(t, "track2", currentID(session))
}

func TestQueueScheduler_AdvanceAtEndOfCatalog(t *testing.T) {
	scheduler, session, res, _ := newTestScheduler(t)
	playAndWait(t, session, "track3")
	loads := res.LoadCount()

	err := scheduler.Advance()
	assert.ErrorIs(t, err, domain.ErrEndOfCatalog)
	assert.Equal(t, "track3", currentID(session))
	assert.Equal(t, loads, res.LoadCount())
}

func TestQueueScheduler_AdvanceWithoutCurrentTrack(t *testing.T) {
	scheduler, session, _, _ := newTestScheduler(t)

	require.NoError(t, scheduler.Advance())
	assert.Equal(t, "track1", currentID(session))
}

func TestQueueScheduler_AdvanceFromTrackOutsideCatalog(t *testing.T) {
	scheduler, session, _, _ := newTestScheduler(t)
	playAndWait(t, session, "stranger")

	err := scheduler.Advance()
	assert.ErrorIs(t, err, domain.ErrTrackNotFound)
}

func TestQueueScheduler_Previous(t *testing.T) {
	scheduler, session, _, _ := newTestScheduler(t)
	playAndWait(t, session, "track2")

	require.NoError(t, scheduler.Previous())
	assert.Equal(t, "track1", currentID(session))

	assert.ErrorIs(t, scheduler.Previous(), domain.ErrStartOfCatalog)
	assert.Equal(t, "track1", currentID(session))
}

func TestQueueScheduler_PreviousWithoutCurrentTrack(t *testing.T) {
	scheduler, _, _, _ := newTestScheduler(t)

	assert.ErrorIs(t, scheduler.Previous(), domain.ErrNoTrackLoaded)
}

func TestQueueScheduler_AutoAdvanceOnEnded(t *testing.T) {
	scheduler, session, res, _ := newTestScheduler(t)
	scheduler.Enqueue(createTestTrack("q1"))
	playAndWait(t, session, "track1")

	res.EmitEnded()
	require.Eventually(t, func() bool { return currentID(session) == "q1" }, waitFor, tick)
	waitForState(t, session, domain.StatePlaying)

	res.EmitEnded()
	require.Eventually(t, func() bool { return currentID(session) == "track2" }, waitFor, tick)
}

func TestQueueScheduler_AutoAdvanceStopsAtEnd(t *testing.T) {
	_, session, res, _ := newTestScheduler(t)
	playAndWait(t, session, "track3")

	res.EmitEnded()
	waitForState(t, session, domain.StateEnded)
	assert.Equal(t, "track3", currentID(session))
	assert.Equal(t, 1, res.LoadCount())
}

func TestQueueScheduler_DuplicateEndedAdvancesOnce(t *testing.T) {
	_, session, res, _ := newTestScheduler(t)
	playAndWait(t, session, "track1")
	endedToken := res.CurrentToken()

	res.EmitEnded()
	res.EmitEndedFor(endedToken)
	res.EmitEndedFor(endedToken)

	require.Eventually(t, func() bool { return currentID(session) == "track2" }, waitFor, tick)
	waitForState(t, session, domain.StatePlaying)
	assert.Equal(t, 2, res.LoadCount())
}

func TestQueueScheduler_ManualPlayDuringEndWins(t *testing.T) {
	session, res, bus := newTestSession(t)
	catalog, err := static.FromTracks([]domain.Track{
		createTestTrack("track1"),
		createTestTrack("track2"),
		createTestTrack("track3"),
	})
	require.NoError(t, err)

	// Subscribed ahead of the scheduler, so the user's Play lands before
	// the scheduler sees the end of track2
	bus.Subscribe(domain.EventTrackEnded, func(e domain.Event) {
		if e.(domain.TrackEndedEvent).Track.ID == "track2" {
			assert.NoError(t, session.Play(createTestTrack("track1")))
		}
	})
	scheduler := NewQueueScheduler(logger.NewTestLogger(), session, catalog, bus)
	t.Cleanup(func() { _ = scheduler.Shutdown() })

	scheduler.Enqueue(createTestTrack("q1"))
	playAndWait(t, session, "track2")

	res.EmitEnded()
	require.Eventually(t, func() bool { return currentID(session) == "track1" }, waitFor, tick)
	waitForState(t, session, domain.StatePlaying)

	assert.Equal(t, "track1", currentID(session))
	assert.Equal(t, 2, res.LoadCount())
	snapshot := scheduler.Snapshot()
	require.Len(t, snapshot, 1, "the queued track survives a superseded end")
	assert.Equal(t, "q1", snapshot[0].ID)
}

func TestQueueScheduler_SubscribersMayCallBack(t *testing.T) {
	scheduler, session, _, bus := newTestScheduler(t)
	playAndWait(t, session, "track1")

	var seen []int
	bus.Subscribe(domain.EventQueueChanged, func(domain.Event) {
		seen = append(seen, len(scheduler.Snapshot()))
	})
	bus.Subscribe(domain.EventTrackLoading, func(domain.Event) {
		_ = scheduler.Snapshot()
	})
	scheduler.Enqueue(createTestTrack("q1"))

	done := make(chan error, 1)
	go func() { done <- scheduler.Advance() }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("Advance blocked on a reentrant subscriber")
	}

	go func() { done <- scheduler.Previous() }()
	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("Previous blocked on a reentrant subscriber")
	}

	assert.Equal(t, "q1", currentID(session))
	assert.Equal(t, []int{1, 0}, seen)
}

func TestQueueScheduler_Clear(t *testing.T) {
	scheduler, _, _, _ := newTestScheduler(t)
	scheduler.Enqueue(createTestTrack("q1"))

	scheduler.Clear()
	assert.Empty(t, scheduler.Snapshot())
}

func TestQueueScheduler_Shutdown(t *testing.T) {
	scheduler, _, _, bus := newTestScheduler(t)

	assert.True(t, bus.HasSubscribers(domain.EventTrackEnded))
	require.NoError(t, scheduler.Shutdown())
	assert.False(t, bus.HasSubscribers(domain.EventTrackEnded))
}
