package beep

import (
	"sync"

	gobeep "github.com/gopxl/beep/v2"

	"github.com/tejashwikalptaru/wavepulse/internal/ports"
)

// Tap passes audio through unchanged and, once enabled, copies a mono mix of
// it into a ring buffer for analysis. It sits between the source slot and
// the volume stage, so the spectrum does not follow the volume setting.
type Tap struct {
	s    gobeep.Streamer
	rate int

	mu      sync.Mutex
	enabled bool
	buf     []float64
	pos     int
}

func newTap(s gobeep.Streamer, rate, size int) *Tap {
	return &Tap{
		s:    s,
		rate: rate,
		buf:  make([]float64, size),
	}
}

// Stream implements beep.Streamer.
func (t *Tap) Stream(samples [][2]float64) (int, bool) {
	n, ok := t.s.Stream(samples)

	t.mu.Lock()
	if t.enabled {
		size := len(t.buf)
		for i := range n {
			t.buf[t.pos] = (samples[i][0] + samples[i][1]) / 2
			t.pos = (t.pos + 1) % size
		}
	}
	t.mu.Unlock()

	return n, ok
}

// Err implements beep.Streamer.
func (t *Tap) Err() error {
	return t.s.Err()
}

func (t *Tap) enable() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = true
}

// Samples copies the newest len(dst) samples into dst, oldest first.
// A detached tap returns 0.
func (t *Tap) Samples(dst []float64) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.enabled {
		return 0
	}

	size := len(t.buf)
	n := min(len(dst), size)
	start := (t.pos - n + size) % size
	for i := range n {
		dst[i] = t.buf[(start+i)%size]
	}
	return n
}

// SampleRate returns the output rate in Hz.
func (t *Tap) SampleRate() int {
	return t.rate
}

// Detach stops capturing. Audio keeps flowing through the tap.
func (t *Tap) Detach() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = false
	clear(t.buf)
	t.pos = 0
	return nil
}

var _ ports.SampleTap = (*Tap)(nil)
