package beep

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	gobeep "github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/tejashwikalptaru/wavepulse/internal/domain"
	"github.com/tejashwikalptaru/wavepulse/internal/ports"
)

// Config holds output settings for a Resource.
type Config struct {
	// SampleRate is the speaker rate; sources are resampled to it
	SampleRate int

	// BufferSize is the speaker buffer length
	BufferSize time.Duration

	// HTTPClient fetches remote media. Nil uses a client with DefaultHTTPTimeout.
	HTTPClient *http.Client
}

// DefaultConfig returns the default output configuration.
func DefaultConfig() Config {
	return Config{
		SampleRate: DefaultSampleRate,
		BufferSize: DefaultBufferSize,
	}
}

// The speaker is process-wide; it is initialized once, on first playback.
var (
	speakerMu   sync.Mutex
	speakerRate gobeep.SampleRate
)

func initSpeaker(rate gobeep.SampleRate, buffer time.Duration) error {
	speakerMu.Lock()
	defer speakerMu.Unlock()

	if speakerRate == rate {
		return nil
	}
	if err := speaker.Init(rate, rate.N(buffer)); err != nil {
		return err
	}
	speakerRate = rate
	return nil
}

// Resource is a single media element playing through the system speaker.
// Load replaces the media in the source slot; the slot, the analysis tap and
// the volume and ctrl stages persist for the resource's lifetime.
//
// Decoding runs on a background goroutine per load. A newer Load cancels
// and discards older ones. A ticker goroutine reports TimeUpdate every
// 250ms while playing and turns the slot's drained signal into one Ended
// (or Error) per load.
//
// Thread-safety: This implementation is thread-safe.
type Resource struct {
	logger *slog.Logger
	id     domain.ResourceID
	rate   gobeep.SampleRate
	buffer time.Duration
	client *http.Client

	// Output chain
	slot   *sourceSlot
	tap    *Tap
	volume *effects.Volume
	ctrl   *gobeep.Ctrl

	mu sync.Mutex

	closed        bool
	token         domain.LoadToken
	cancelLoad    context.CancelFunc
	buffered      bool
	seekable      bool
	playRequested bool
	playing       bool
	endedSent     bool
	outputStarted bool
	tapAttached   bool

	listeners    map[int]ports.MediaListener
	nextListener int

	done chan struct{}
	wg   sync.WaitGroup
}

// NewResource creates a resource and starts its ticker goroutine.
// The speaker is not touched until the first Play.
func NewResource(logger *slog.Logger, cfg Config) *Resource {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultBufferSize
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}

	rate := gobeep.SampleRate(cfg.SampleRate)
	slot := newSourceSlot(rate)
	tap := newTap(slot, cfg.SampleRate, tapBufferSize)
	volume := &effects.Volume{Streamer: tap, Base: 2}
	ctrl := &gobeep.Ctrl{Streamer: volume, Paused: true}

	r := &Resource{
		logger:    logger,
		id:        domain.ResourceID("beep-" + uuid.NewString()),
		rate:      rate,
		buffer:    cfg.BufferSize,
		client:    cfg.HTTPClient,
		slot:      slot,
		tap:       tap,
		volume:    volume,
		ctrl:      ctrl,
		listeners: make(map[int]ports.MediaListener),
		done:      make(chan struct{}),
	}

	r.wg.Add(1)
	go r.run()

	return r
}

// ID returns the resource identifier.
func (r *Resource) ID() domain.ResourceID {
	return r.id
}

// Load validates mediaRef and starts decoding it in the background.
func (r *Resource) Load(mediaRef string) (domain.LoadToken, error) {
	m, err := resolve(mediaRef)
	if err != nil {
		return domain.NoLoadToken, err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return domain.NoLoadToken, domain.ErrResourceClosed
	}

	if r.cancelLoad != nil {
		r.cancelLoad()
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancelLoad = cancel

	r.token++
	token := r.token
	r.buffered = false
	r.seekable = false
	r.playRequested = false
	r.playing = false
	r.endedSent = false
	r.setPaused(true)
	r.slot.Clear()

	r.wg.Add(1)
	r.mu.Unlock()

	r.logger.Debug("loading media",
		slog.String("media", mediaRef),
		slog.Uint64("token", uint64(token)),
		slog.Bool("remote", m.remote))

	go r.prepare(ctx, token, m)
	return token, nil
}

// prepare decodes m and installs it if token is still current.
func (r *Resource) prepare(ctx context.Context, token domain.LoadToken, m media) {
	defer r.wg.Done()

	src, err := open(ctx, r.client, m)
	if err != nil {
		if ctx.Err() != nil {
			r.logger.Debug("load superseded", slog.Uint64("token", uint64(token)))
			return
		}
		r.logger.Warn("media failed to load", slog.String("media", m.ref), slog.Any("error", err))
		r.emit([]ports.MediaEvent{{
			Kind:  ports.MediaError,
			Token: token,
			Err:   domain.NewAudioEngineError("decode", m.ref, "cannot decode media", err),
		}})
		return
	}

	r.mu.Lock()
	if r.closed || token != r.token {
		r.mu.Unlock()
		_ = src.Close()
		return
	}

	r.slot.Replace(src, token)
	r.buffered = true
	r.seekable = true
	dur := r.slot.Duration()

	events := []ports.MediaEvent{
		{Kind: ports.MediaDurationChange, Token: token, Duration: dur},
		{Kind: ports.MediaCanPlay, Token: token, Duration: dur},
		{Kind: ports.MediaSeekable, Token: token, Duration: dur},
	}
	if r.playRequested && r.outputStarted {
		r.playing = true
		r.setPaused(false)
		events = append(events, ports.MediaEvent{Kind: ports.MediaPlaying, Token: token, Duration: dur})
	}
	r.mu.Unlock()

	r.logger.Debug("media ready",
		slog.String("media", m.ref),
		slog.Duration("duration", dur),
		slog.Int("source_rate", int(src.format.SampleRate)))
	r.emit(events)
}

// Play requests output for the current load. The speaker is initialized on
// the first call; a device that cannot be opened counts as a host rejection.
func (r *Resource) Play() error {
	r.mu.Lock()

	if r.closed {
		r.mu.Unlock()
		return domain.ErrResourceClosed
	}
	if r.token == domain.NoLoadToken {
		r.mu.Unlock()
		return domain.ErrNoTrackLoaded
	}
	if err := r.startOutputLocked(); err != nil {
		r.mu.Unlock()
		return err
	}

	r.playRequested = true
	var events []ports.MediaEvent
	if r.buffered && !r.playing {
		if r.endedSent {
			_ = r.slot.Seek(0)
			r.endedSent = false
		}
		r.playing = true
		r.setPaused(false)
		events = append(events, ports.MediaEvent{
			Kind:     ports.MediaPlaying,
			Token:    r.token,
			Position: r.slot.Position(),
			Duration: r.slot.Duration(),
		})
	}
	r.mu.Unlock()

	r.emit(events)
	return nil
}

func (r *Resource) startOutputLocked() error {
	if r.outputStarted {
		return nil
	}
	if err := initSpeaker(r.rate, r.buffer); err != nil {
		r.logger.Error("audio output unavailable", slog.Any("error", err))
		return fmt.Errorf("open audio output: %w: %w", domain.ErrPlaybackRejected, err)
	}
	speaker.Play(r.ctrl)
	r.outputStarted = true
	r.logger.Info("audio output started", slog.Int("sample_rate", int(r.rate)))
	return nil
}

// setPaused flips the ctrl stage under the speaker lock.
func (r *Resource) setPaused(paused bool) {
	speaker.Lock()
	r.ctrl.Paused = paused
	speaker.Unlock()
}

// Pause halts output and keeps the position.
func (r *Resource) Pause() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return domain.ErrResourceClosed
	}
	r.playRequested = false
	r.playing = false
	r.setPaused(true)
	return nil
}

// Seek repositions the current media, clamped to its length.
func (r *Resource) Seek(position time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return domain.ErrResourceClosed
	}
	if !r.seekable {
		return domain.ErrNotSeekable
	}
	if err := r.slot.Seek(position); err != nil {
		return domain.NewAudioEngineError("seek", "", "seek failed", err)
	}
	r.endedSent = false
	return nil
}

// SetVolume sets the output gain in [0, 1]. Gain is linear; the volume stage
// works in powers of two, so v maps to log2(v) and 0 to silence.
func (r *Resource) SetVolume(volume float64) error {
	volume = max(0, min(1, volume))

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return domain.ErrResourceClosed
	}

	speaker.Lock()
	if volume == 0 {
		r.volume.Silent = true
	} else {
		r.volume.Silent = false
		r.volume.Volume = math.Log2(volume)
	}
	speaker.Unlock()
	return nil
}

// Position returns the playback position of the current media.
func (r *Resource) Position() time.Duration {
	return r.slot.Position()
}

// Duration returns the length of the current media, or 0 while loading.
func (r *Resource) Duration() time.Duration {
	return r.slot.Duration()
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

// AttachTap enables the analysis tap. It succeeds once per resource.
func (r *Resource) AttachTap() (ports.SampleTap, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, domain.ErrResourceClosed
	}
	if r.tapAttached {
		return nil, domain.ErrTapAlreadyAttached
	}

	r.tapAttached = true
	r.tap.enable()
	return r.tap, nil
}

// Close stops output, cancels any load in flight and waits for the
// resource's goroutines to exit.
func (r *Resource) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return domain.ErrResourceClosed
	}
	r.closed = true
	if r.cancelLoad != nil {
		r.cancelLoad()
	}
	r.playing = false
	r.playRequested = false
	started := r.outputStarted
	r.listeners = make(map[int]ports.MediaListener)
	r.mu.Unlock()

	close(r.done)
	r.wg.Wait()

	r.setPaused(true)
	if started {
		speaker.Clear()
	}
	r.slot.Clear()
	_ = r.tap.Detach()

	r.logger.Debug("resource closed", slog.String("resource", string(r.id)))
	return nil
}

// run reports progress and end of media until Close.
func (r *Resource) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			r.reportProgress()
		case <-r.slot.Drained():
			r.handleDrained()
		}
	}
}

func (r *Resource) reportProgress() {
	r.mu.Lock()
	if !r.playing {
		r.mu.Unlock()
		return
	}
	ev := ports.MediaEvent{
		Kind:     ports.MediaTimeUpdate,
		Token:    r.token,
		Position: r.slot.Position(),
		Duration: r.slot.Duration(),
	}
	r.mu.Unlock()

	r.emit([]ports.MediaEvent{ev})
}

// handleDrained emits one Ended, or Error if the decoder failed, per load.
func (r *Resource) handleDrained() {
	r.mu.Lock()
	token, done, err := r.slot.Finished()
	if !done || token != r.token || r.endedSent {
		r.mu.Unlock()
		return
	}
	r.endedSent = true
	r.playing = false
	r.playRequested = false
	r.setPaused(true)

	dur := r.slot.Duration()
	ev := ports.MediaEvent{Kind: ports.MediaEnded, Token: token, Position: dur, Duration: dur}
	if err != nil {
		ev = ports.MediaEvent{Kind: ports.MediaError, Token: token,
			Err: domain.NewAudioEngineError("stream", "", "decoder stopped", err)}
	}
	r.mu.Unlock()

	r.emit([]ports.MediaEvent{ev})
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

// Verify that Resource implements the AudioResource interface
var _ ports.AudioResource = (*Resource)(nil)
