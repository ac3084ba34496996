package beep

import (
	"fmt"
	"sync"
	"time"

	gobeep "github.com/gopxl/beep/v2"

	"github.com/tejashwikalptaru/wavepulse/internal/domain"
)

// sourceSlot is the head of the output chain. It holds the current source,
// resampled to the output rate, and streams silence when there is none or it
// has drained. The chain downstream never sees the end of a track; the slot
// reports it on drained instead.
type sourceSlot struct {
	rate gobeep.SampleRate

	mu      sync.Mutex
	src     *source
	stream  gobeep.Streamer
	token   domain.LoadToken
	isDone  bool
	err     error
	drained chan struct{}
}

func newSourceSlot(rate gobeep.SampleRate) *sourceSlot {
	return &sourceSlot{
		rate:    rate,
		drained: make(chan struct{}, 1),
	}
}

// Stream implements beep.Streamer.
func (s *sourceSlot) Stream(samples [][2]float64) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream == nil || s.isDone {
		clear(samples)
		return len(samples), true
	}

	n, ok := s.stream.Stream(samples)
	if n < len(samples) || !ok {
		clear(samples[n:])
		s.isDone = true
		s.err = s.src.stream.Err()
		select {
		case s.drained <- struct{}{}:
		default:
		}
	}
	return len(samples), true
}

// Err implements beep.Streamer. The slot itself never fails.
func (s *sourceSlot) Err() error {
	return nil
}

// Replace installs src for token and closes the previous source.
func (s *sourceSlot) Replace(src *source, token domain.LoadToken) {
	s.mu.Lock()
	old := s.src
	s.src = src
	s.token = token
	s.isDone = false
	s.err = nil
	s.stream = s.wrap(src)
	s.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
}

// Clear removes and closes the current source.
func (s *sourceSlot) Clear() {
	s.Replace(nil, domain.NoLoadToken)
}

func (s *sourceSlot) wrap(src *source) gobeep.Streamer {
	if src == nil {
		return nil
	}
	if src.format.SampleRate == s.rate {
		return src.stream
	}
	return gobeep.Resample(resampleQuality, src.format.SampleRate, s.rate, src.stream)
}

// Seek moves the current source to position, clamped to its length.
func (s *sourceSlot) Seek(position time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.src == nil {
		return domain.ErrNoTrackLoaded
	}

	p := s.src.format.SampleRate.N(position)
	p = max(0, min(p, s.src.stream.Len()))
	if err := s.src.stream.Seek(p); err != nil {
		return fmt.Errorf("seek to sample %d: %w", p, err)
	}

	// A resampler holds look-ahead from the old position.
	s.stream = s.wrap(s.src)
	s.isDone = false
	s.err = nil
	return nil
}

// Position returns the playback position of the current source.
func (s *sourceSlot) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.src == nil {
		return 0
	}
	return s.src.format.SampleRate.D(s.src.stream.Position())
}

// Duration returns the length of the current source.
func (s *sourceSlot) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.src == nil {
		return 0
	}
	return s.src.format.SampleRate.D(s.src.stream.Len())
}

// Finished reports whether the source for the returned token has drained,
// and the decoder error that stopped it, if any.
func (s *sourceSlot) Finished() (domain.LoadToken, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.isDone, s.err
}

// Drained signals, without blocking the audio thread, that a source ran out.
func (s *sourceSlot) Drained() <-chan struct{} {
	return s.drained
}
