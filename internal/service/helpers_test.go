package service

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/wavepulse/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/wavepulse/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/wavepulse/internal/domain"
	"github.com/tejashwikalptaru/wavepulse/internal/logger"
)

const (
	waitFor = time.Second
	tick    = 2 * time.Millisecond
)

// eventRecorder captures every event published on a bus.
type eventRecorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func recordEvents(bus *eventbus.SyncEventBus) *eventRecorder {
	r := &eventRecorder{}
	bus.SubscribeAll(func(e domain.Event) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, e)
	})
	return r
}

func (r *eventRecorder) count(eventType domain.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type() == eventType {
			n++
		}
	}
	return n
}

func (r *eventRecorder) last(eventType domain.EventType) domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Type() == eventType {
			return r.events[i]
		}
	}
	return nil
}

// Helper to create a test session on a mock resource
func newTestSession(t *testing.T) (*PlaybackSession, *mock.Resource, *eventbus.SyncEventBus) {
	t.Helper()
	log := logger.NewTestLogger()
	res := mock.NewResource(log)
	bus := eventbus.NewSyncEventBus(log)
	session := NewPlaybackSession(log.With("service", "PlaybackSession"), res, bus)
	t.Cleanup(func() {
		_ = session.Shutdown()
		_ = bus.Close()
	})
	return session, res, bus
}

// Helper to create a test track
func createTestTrack(id string) domain.Track {
	return domain.Track{
		ID:       id,
		Title:    "Song " + id,
		Artist:   "Test Artist",
		ArtistID: "artist1",
		Album:    "Test Album",
		AlbumID:  "album1",
		MediaRef: fmt.Sprintf("/music/%s.mp3", id),
		Duration: 3 * time.Minute,
		Genre:    "Electronic",
	}
}

func waitForState(t *testing.T, s *PlaybackSession, want domain.TransportState) {
	t.Helper()
	require.Eventually(t, func() bool {
		return s.TransportState() == want
	}, waitFor, tick, "expected state %s, got %s", want, s.TransportState())
}
