package mock

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tejashwikalptaru/wavepulse/internal/domain"
	"github.com/tejashwikalptaru/wavepulse/internal/ports"
)

// recorder collects media events in order.
type recorder struct {
	mu     sync.Mutex
	events []ports.MediaEvent
}

func (r *recorder) listen(ev ports.MediaEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) kinds() []ports.MediaEventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ports.MediaEventKind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}

func TestNewResource(t *testing.T) {
	res := NewResource(nil)

	if res.ID() == "" {
		t.Fatal("resource ID should not be empty")
	}
	if res.CurrentToken() != domain.NoLoadToken {
		t.Errorf("expected no load token, got %d", res.CurrentToken())
	}
	if res.Volume() != 1.0 {
		t.Errorf("expected unity volume, got %f", res.Volume())
	}
}

func TestLoadFiresReadinessEvents(t *testing.T) {
	res := NewResource(nil)
	rec := &recorder{}
	res.Subscribe(rec.listen)

	token, err := res.Load("track.mp3")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if token == domain.NoLoadToken {
		t.Fatal("Load returned the zero token")
	}

	want := []ports.MediaEventKind{ports.MediaDurationChange, ports.MediaCanPlay, ports.MediaSeekable}
	got := rec.kinds()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: expected %v, got %v", i, want[i], got[i])
		}
	}
	if res.Duration() != DefaultDuration {
		t.Errorf("expected duration %v, got %v", DefaultDuration, res.Duration())
	}
}

func TestLoadTokensIncrease(t *testing.T) {
	res := NewResource(nil)

	first, _ := res.Load("a.mp3")
	second, _ := res.Load("b.mp3")

	if second <= first {
		t.Errorf("expected increasing tokens, got %d then %d", first, second)
	}
	if res.MediaRef() != "b.mp3" {
		t.Errorf("expected b.mp3, got %s", res.MediaRef())
	}
	if res.LoadCount() != 2 {
		t.Errorf("expected 2 loads, got %d", res.LoadCount())
	}
}

func TestLoadErrors(t *testing.T) {
	res := NewResource(nil)

	if _, err := res.Load(""); !errors.Is(err, domain.ErrInvalidMediaRef) {
		t.Errorf("expected ErrInvalidMediaRef, got %v", err)
	}

	res.SetFailResolve(true)
	_, err := res.Load("missing.mp3")
	var engineErr *domain.AudioEngineError
	if !errors.As(err, &engineErr) {
		t.Errorf("expected AudioEngineError, got %v", err)
	}
}

func TestPlayAfterLoadFiresPlaying(t *testing.T) {
	res := NewResource(nil)
	rec := &recorder{}
	res.Subscribe(rec.listen)

	token, _ := res.Load("a.mp3")
	if err := res.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	kinds := rec.kinds()
	if kinds[len(kinds)-1] != ports.MediaPlaying {
		t.Errorf("expected last event playing, got %v", kinds)
	}
	if !res.IsPlaying() {
		t.Error("resource should be playing")
	}
	rec.mu.Lock()
	last := rec.events[len(rec.events)-1]
	rec.mu.Unlock()
	if last.Token != token {
		t.Errorf("expected token %d, got %d", token, last.Token)
	}
}

func TestManualLoad(t *testing.T) {
	res := NewResource(nil)
	res.SetManualLoad(true)
	rec := &recorder{}
	res.Subscribe(rec.listen)

	first, _ := res.Load("a.mp3")
	second, _ := res.Load("b.mp3")
	_ = res.Play()

	if len(rec.kinds()) != 0 {
		t.Fatalf("pending loads should not fire events, got %v", rec.kinds())
	}
	if res.CompleteLoad(first) {
		t.Error("completing a superseded load should fail")
	}
	if !res.CompleteLoad(second) {
		t.Fatal("completing the current load should succeed")
	}
	if !res.IsPlaying() {
		t.Error("play requested before buffering should start on completion")
	}
}

func TestRejectPlay(t *testing.T) {
	res := NewResource(nil)
	res.SetRejectPlay(true)
	_, _ = res.Load("a.mp3")

	err := res.Play()
	if !errors.Is(err, domain.ErrPlaybackRejected) {
		t.Errorf("expected ErrPlaybackRejected, got %v", err)
	}
	if res.IsPlaying() {
		t.Error("rejected resource must not play")
	}
}

func TestSeek(t *testing.T) {
	res := NewResource(nil)
	res.SetSeekableOnLoad(false)
	_, _ = res.Load("a.mp3")

	if err := res.Seek(time.Second); !errors.Is(err, domain.ErrNotSeekable) {
		t.Errorf("expected ErrNotSeekable, got %v", err)
	}

	res.MakeSeekable()
	if err := res.Seek(time.Hour); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	if res.Position() != DefaultDuration {
		t.Errorf("expected clamp to %v, got %v", DefaultDuration, res.Position())
	}
}

func TestSetVolumeClamps(t *testing.T) {
	res := NewResource(nil)

	_ = res.SetVolume(1.7)
	if res.Volume() != 1.0 {
		t.Errorf("expected 1.0, got %f", res.Volume())
	}
	_ = res.SetVolume(-2)
	if res.Volume() != 0 {
		t.Errorf("expected 0, got %f", res.Volume())
	}
}

func TestSimulateProgressEndsMedia(t *testing.T) {
	res := NewResource(nil)
	res.SetSimulatedDuration(2 * time.Second)
	rec := &recorder{}
	res.Subscribe(rec.listen)

	_, _ = res.Load("a.mp3")
	_ = res.Play()
	res.SimulateProgress(5 * time.Second)

	kinds := rec.kinds()
	if kinds[len(kinds)-1] != ports.MediaEnded {
		t.Errorf("expected ended event last, got %v", kinds)
	}
	if res.Position() != 2*time.Second {
		t.Errorf("expected position at duration, got %v", res.Position())
	}
}

func TestSubscribeCancel(t *testing.T) {
	res := NewResource(nil)
	rec := &recorder{}
	cancel := res.Subscribe(rec.listen)

	cancel()
	cancel()

	_, _ = res.Load("a.mp3")
	if len(rec.kinds()) != 0 {
		t.Error("cancelled listener should not receive events")
	}
	if res.ListenerCount() != 0 {
		t.Errorf("expected 0 listeners, got %d", res.ListenerCount())
	}
}

func TestAttachTapOnce(t *testing.T) {
	res := NewResource(nil)

	tap, err := res.AttachTap()
	if err != nil {
		t.Fatalf("AttachTap failed: %v", err)
	}
	if _, err := res.AttachTap(); !errors.Is(err, domain.ErrTapAlreadyAttached) {
		t.Errorf("expected ErrTapAlreadyAttached, got %v", err)
	}
	if res.TapAttachCount() != 1 {
		t.Errorf("expected 1 attach, got %d", res.TapAttachCount())
	}
	if tap.SampleRate() != 44100 {
		t.Errorf("unexpected sample rate %d", tap.SampleRate())
	}
}

func TestTapSamples(t *testing.T) {
	res := NewResource(nil)
	tap, _ := res.AttachTap()
	buf := make([]float64, 256)

	if n := tap.Samples(buf); n != len(buf) {
		t.Fatalf("expected %d samples, got %d", len(buf), n)
	}
	for _, v := range buf {
		if v != 0 {
			t.Fatal("idle resource should yield silence")
		}
	}

	_, _ = res.Load("a.mp3")
	_ = res.Play()
	tap.Samples(buf)
	nonZero := false
	for _, v := range buf {
		if v != 0 {
			nonZero = true
		}
	}
	if !nonZero {
		t.Error("playing resource should yield a signal")
	}

	_ = tap.Detach()
	_ = tap.Detach()
	if n := tap.Samples(buf); n != 0 {
		t.Errorf("detached tap should yield nothing, got %d", n)
	}
}

func TestAttachTapFailure(t *testing.T) {
	res := NewResource(nil)
	res.SetTapFail(true)

	if _, err := res.AttachTap(); err == nil {
		t.Error("expected tap failure")
	}
	if res.TapAttachCount() != 0 {
		t.Error("failed attach should not count")
	}
}

func TestClose(t *testing.T) {
	res := NewResource(nil)
	res.Subscribe(func(ports.MediaEvent) {})

	if err := res.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := res.Close(); !errors.Is(err, domain.ErrResourceClosed) {
		t.Errorf("expected ErrResourceClosed, got %v", err)
	}
	if _, err := res.Load("a.mp3"); !errors.Is(err, domain.ErrResourceClosed) {
		t.Errorf("expected ErrResourceClosed, got %v", err)
	}
	if res.ListenerCount() != 0 {
		t.Error("close should drop listeners")
	}
}

func TestConcurrentAccess(t *testing.T) {
	res := NewResource(nil)
	res.Subscribe(func(ports.MediaEvent) {})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, _ = res.Load("a.mp3")
				_ = res.Play()
				_ = res.SetVolume(0.5)
				res.SimulateProgress(time.Second)
				_ = res.Pause()
			}
		}()
	}
	wg.Wait()

	if res.LoadCount() != 500 {
		t.Errorf("expected 500 loads, got %d", res.LoadCount())
	}
}

func TestMetadataReader(t *testing.T) {
	reader := &MetadataReader{Fail: map[string]bool{"/bad.mp3": true}}

	track, err := reader.ReadMetadata("/music/Song Name.flac")
	if err != nil {
		t.Fatalf("ReadMetadata failed: %v", err)
	}
	if track.Title != "Song Name" {
		t.Errorf("expected title from file name, got %q", track.Title)
	}
	if track.MediaRef != "/music/Song Name.flac" {
		t.Errorf("unexpected media ref %q", track.MediaRef)
	}

	if _, err := reader.ReadMetadata("/bad.mp3"); err == nil {
		t.Error("expected failure for configured path")
	}
}
