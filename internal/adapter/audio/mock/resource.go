// Package mock provides an in-memory AudioResource.
// It is used for testing the playback session and the analysis graph without
// an audio device, and for running the shell headless.
package mock

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tejashwikalptaru/wavepulse/internal/domain"
	"github.com/tejashwikalptaru/wavepulse/internal/ports"
)

// DefaultDuration is the simulated length of every loaded media reference.
const DefaultDuration = 3 * time.Minute

// Resource simulates a single media element. It produces no sound.
//
// Loads complete synchronously by default, firing DurationChange, CanPlay and
// Seekable from inside Load. With SetManualLoad(true) a load stays pending until
// CompleteLoad is called with its token, which lets tests interleave loads.
//
// Events are delivered synchronously on the calling goroutine, after the
// resource's own lock has been released.
//
// Thread-safety: This implementation is thread-safe.
type Resource struct {
	logger *slog.Logger
	id     domain.ResourceID

	mu sync.Mutex

	closed        bool
	token         domain.LoadToken
	mediaRef      string
	buffered      bool
	seekable      bool
	playRequested bool
	playing       bool
	position      time.Duration
	duration      time.Duration
	volume        float64

	listeners    map[int]ports.MediaListener
	nextListener int

	tap *Tap

	// Behavior configuration (for testing error scenarios)
	failResolve      bool
	rejectPlay       bool
	manualLoad       bool
	seekableOnLoad   bool
	failTap          bool
	simulateDuration time.Duration

	// Counters
	loadCount      int
	playCount      int
	tapAttachCount int
}

// NewResource creates a new mock resource.
func NewResource(logger *slog.Logger) *Resource {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resource{
		logger:           logger,
		id:               domain.ResourceID("mock-" + uuid.NewString()),
		volume:           1.0,
		listeners:        make(map[int]ports.MediaListener),
		seekableOnLoad:   true,
		simulateDuration: DefaultDuration,
	}
}

// SetFailResolve makes Load fail synchronously (for testing).
func (r *Resource) SetFailResolve(fail bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failResolve = fail
}

// SetRejectPlay makes Play fail with a host rejection (for testing).
func (r *Resource) SetRejectPlay(reject bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejectPlay = reject
}

// SetManualLoad keeps loads pending until CompleteLoad (for testing).
func (r *Resource) SetManualLoad(manual bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.manualLoad = manual
}

// SetSeekableOnLoad controls whether completed loads fire Seekable (for testing).
func (r *Resource) SetSeekableOnLoad(seekable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seekableOnLoad = seekable
}

// SetTapFail makes AttachTap fail (for testing).
func (r *Resource) SetTapFail(fail bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failTap = fail
}

// SetSimulatedDuration sets the duration reported for subsequent loads.
func (r *Resource) SetSimulatedDuration(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.simulateDuration = d
}

// ID returns the resource identifier.
func (r *Resource) ID() domain.ResourceID {
	return r.id
}

// Load replaces the current media with mediaRef.
func (r *Resource) Load(mediaRef string) (domain.LoadToken, error) {
	r.mu.Lock()

	if r.closed {
		r.mu.Unlock()
		return domain.NoLoadToken, domain.ErrResourceClosed
	}
	if mediaRef == "" {
		r.mu.Unlock()
		return domain.NoLoadToken, domain.ErrInvalidMediaRef
	}
	if r.failResolve {
		r.mu.Unlock()
		return domain.NoLoadToken, domain.NewAudioEngineError("load", mediaRef, "mock resolve failed", nil)
	}

	r.token++
	r.loadCount++
	r.mediaRef = mediaRef
	r.buffered = false
	r.seekable = false
	r.playRequested = false
	r.playing = false
	r.position = 0
	r.duration = 0

	token := r.token
	var events []ports.MediaEvent
	if !r.manualLoad {
		events = r.completeLocked()
	}
	r.mu.Unlock()

	r.logger.Debug("mock load", slog.String("media", mediaRef), slog.Uint64("token", uint64(token)))
	r.emit(events)
	return token, nil
}

// CompleteLoad finishes a pending load. It returns false when token is not the current load.
func (r *Resource) CompleteLoad(token domain.LoadToken) bool {
	r.mu.Lock()
	if r.closed || token != r.token || r.buffered {
		r.mu.Unlock()
		return false
	}
	events := r.completeLocked()
	r.mu.Unlock()

	r.emit(events)
	return true
}

// completeLocked marks the current load buffered and returns the events to fire.
func (r *Resource) completeLocked() []ports.MediaEvent {
	r.buffered = true
	r.duration = r.simulateDuration
	r.seekable = r.seekableOnLoad

	events := []ports.MediaEvent{
		{Kind: ports.MediaDurationChange, Token: r.token, Duration: r.duration},
		{Kind: ports.MediaCanPlay, Token: r.token, Duration: r.duration},
	}
	if r.seekable {
		events = append(events, ports.MediaEvent{Kind: ports.MediaSeekable, Token: r.token, Duration: r.duration})
	}
	if r.playRequested {
		r.playing = true
		events = append(events, ports.MediaEvent{Kind: ports.MediaPlaying, Token: r.token, Position: r.position, Duration: r.duration})
	}
	return events
}

// FailLoad fires a MediaError for token, as if decoding failed after Load returned.
func (r *Resource) FailLoad(token domain.LoadToken, err error) {
	r.mu.Lock()
	if token == r.token {
		r.playing = false
		r.playRequested = false
	}
	r.mu.Unlock()

	r.emit([]ports.MediaEvent{{Kind: ports.MediaError, Token: token, Err: err}})
}

// MakeSeekable fires Seekable for the current load.
func (r *Resource) MakeSeekable() {
	r.mu.Lock()
	r.seekable = true
	ev := ports.MediaEvent{Kind: ports.MediaSeekable, Token: r.token, Duration: r.duration}
	r.mu.Unlock()

	r.emit([]ports.MediaEvent{ev})
}

// Play requests output for the current load.
func (r *Resource) Play() error {
	r.mu.Lock()

	if r.closed {
		r.mu.Unlock()
		return domain.ErrResourceClosed
	}
	if r.rejectPlay {
		r.mu.Unlock()
		return fmt.Errorf("mock output refused: %w", domain.ErrPlaybackRejected)
	}
	if r.token == domain.NoLoadToken {
		r.mu.Unlock()
		return domain.ErrNoTrackLoaded
	}

	r.playCount++
	r.playRequested = true
	var events []ports.MediaEvent
	if r.buffered && !r.playing {
		r.playing = true
		if r.duration > 0 && r.position >= r.duration {
			r.position = 0
		}
		events = append(events, ports.MediaEvent{Kind: ports.MediaPlaying, Token: r.token, Position: r.position, Duration: r.duration})
	}
	r.mu.Unlock()

	r.emit(events)
	return nil
}

// Pause halts simulated output.
func (r *Resource) Pause() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return domain.ErrResourceClosed
	}
	r.playRequested = false
	r.playing = false
	return nil
}

// Seek repositions the current media, clamped to the media bounds.
// It fires no event; the next SimulateProgress reports the new position.
func (r *Resource) Seek(position time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return domain.ErrResourceClosed
	}
	if !r.seekable {
		return domain.ErrNotSeekable
	}

	r.position = max(0, min(position, r.duration))
	return nil
}

// SetVolume stores the gain, clamped to [0, 1].
func (r *Resource) SetVolume(volume float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return domain.ErrResourceClosed
	}
	r.volume = max(0, min(volume, 1))
	return nil
}

// Position returns the simulated playback position.
func (r *Resource) Position() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.position
}

// Duration returns the simulated media duration.
func (r *Resource) Duration() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.duration
}

// Subscribe registers a listener.
func (r *Resource) Subscribe(listener ports.MediaListener) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextListener
	r.nextListener++
	r.listeners[id] = listener

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			delete(r.listeners, id)
		})
	}
}

// AttachTap returns a synthetic tap producing a sine wave while the resource plays.
func (r *Resource) AttachTap() (ports.SampleTap, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, domain.ErrResourceClosed
	}
	if r.failTap {
		return nil, domain.NewAudioEngineError("attach_tap", "", "mock tap failed", nil)
	}
	if r.tap != nil {
		return nil, domain.ErrTapAlreadyAttached
	}

	r.tapAttachCount++
	r.tap = &Tap{owner: r, frequency: 440, amplitude: 0.8, rate: 44100}
	return r.tap, nil
}

// Close releases the resource and drops all listeners.
func (r *Resource) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return domain.ErrResourceClosed
	}
	r.closed = true
	r.playing = false
	r.playRequested = false
	r.listeners = make(map[int]ports.MediaListener)
	return nil
}

// EmitEnded simulates the current media reaching its end.
func (r *Resource) EmitEnded() {
	r.mu.Lock()
	r.playing = false
	r.playRequested = false
	r.position = r.duration
	token := r.token
	r.mu.Unlock()

	r.EmitEndedFor(token)
}

// EmitEndedFor fires an Ended event carrying an arbitrary token.
func (r *Resource) EmitEndedFor(token domain.LoadToken) {
	r.mu.Lock()
	ev := ports.MediaEvent{Kind: ports.MediaEnded, Token: token, Position: r.position, Duration: r.duration}
	r.mu.Unlock()

	r.emit([]ports.MediaEvent{ev})
}

// SimulateProgress advances the position while playing and fires a TimeUpdate.
// Reaching the duration fires Ended.
func (r *Resource) SimulateProgress(delta time.Duration) {
	r.mu.Lock()
	if !r.playing {
		r.mu.Unlock()
		return
	}
	r.position = min(r.position+delta, r.duration)
	ended := r.position >= r.duration
	ev := ports.MediaEvent{Kind: ports.MediaTimeUpdate, Token: r.token, Position: r.position, Duration: r.duration}
	r.mu.Unlock()

	r.emit([]ports.MediaEvent{ev})
	if ended {
		r.EmitEnded()
	}
}

func (r *Resource) emit(events []ports.MediaEvent) {
	if len(events) == 0 {
		return
	}

	r.mu.Lock()
	listeners := make([]ports.MediaListener, 0, len(r.listeners))
	for i := 0; i < r.nextListener; i++ {
		if l, ok := r.listeners[i]; ok {
			listeners = append(listeners, l)
		}
	}
	r.mu.Unlock()

	for _, ev := range events {
		for _, l := range listeners {
			l(ev)
		}
	}
}

// IsPlaying reports whether simulated output is running (for testing).
func (r *Resource) IsPlaying() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playing
}

// Volume returns the stored gain (for testing).
func (r *Resource) Volume() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.volume
}

// MediaRef returns the reference of the current load (for testing).
func (r *Resource) MediaRef() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mediaRef
}

// CurrentToken returns the token of the current load (for testing).
func (r *Resource) CurrentToken() domain.LoadToken {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.token
}

// LoadCount returns how many loads were accepted (for testing).
func (r *Resource) LoadCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadCount
}

// PlayCount returns how many Play calls were accepted (for testing).
func (r *Resource) PlayCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playCount
}

// TapAttachCount returns how many taps were attached (for testing).
func (r *Resource) TapAttachCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tapAttachCount
}

// ListenerCount returns the number of registered listeners (for testing).
func (r *Resource) ListenerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.listeners)
}

// Tap is the synthetic analysis tap of a mock Resource.
type Tap struct {
	owner     *Resource
	mu        sync.Mutex
	frequency float64
	amplitude float64
	rate      int
	phase     float64
	detached  bool
}

// SetTone changes the generated sine (for testing).
func (t *Tap) SetTone(frequency, amplitude float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frequency = frequency
	t.amplitude = amplitude
}

// Samples fills dst with the next stretch of the sine, or silence while the owner is not playing.
func (t *Tap) Samples(dst []float64) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.detached {
		return 0
	}
	if !t.owner.IsPlaying() {
		clear(dst)
		return len(dst)
	}

	step := 2 * math.Pi * t.frequency / float64(t.rate)
	for i := range dst {
		dst[i] = t.amplitude * math.Sin(t.phase)
		t.phase += step
	}
	t.phase = math.Mod(t.phase, 2*math.Pi)
	return len(dst)
}

// SampleRate returns the simulated stream rate.
func (t *Tap) SampleRate() int {
	return t.rate
}

// Detach stops the tap from producing samples. It is safe to call twice.
func (t *Tap) Detach() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.detached = true
	return nil
}

// Verify that Resource implements the AudioResource interface
var _ ports.AudioResource = (*Resource)(nil)
