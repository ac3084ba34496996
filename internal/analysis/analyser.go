// Package analysis turns the samples flowing through the audio resource into
// normalized frequency data for the visual renderers.
package analysis

import (
	"math"
	"math/cmplx"
	"sync"

	"github.com/mjibson/go-dsp/fft"

	"github.com/tejashwikalptaru/wavepulse/internal/ports"
)

// Analyser parameters. They reproduce the usual browser analyser defaults so
// renderers tuned against those levels look the same.
const (
	FFTSize     = 1024
	BinCount    = FFTSize / 2
	Smoothing   = 0.8
	MinDecibels = -100.0
	MaxDecibels = -30.0
)

// Analyser computes a smoothed magnitude spectrum from a SampleTap.
// Each call to Frequencies reads the latest FFTSize samples, applies a
// Blackman window, runs a real FFT, blends the magnitudes with the previous
// call and maps decibels in [MinDecibels, MaxDecibels] onto [0, 1].
type Analyser struct {
	tap ports.SampleTap

	mu       sync.Mutex
	window   []float64
	samples  []float64
	smoothed []float64
}

// NewAnalyser creates an analyser reading from tap.
func NewAnalyser(tap ports.SampleTap) *Analyser {
	return &Analyser{
		tap:      tap,
		window:   blackman(FFTSize),
		samples:  make([]float64, FFTSize),
		smoothed: make([]float64, BinCount),
	}
}

// Frequencies fills dst (resized to BinCount) with the current spectrum.
func (a *Analyser) Frequencies(dst []float64) []float64 {
	if cap(dst) < BinCount {
		dst = make([]float64, BinCount)
	}
	dst = dst[:BinCount]

	a.mu.Lock()
	defer a.mu.Unlock()

	clear(a.samples)
	n := a.tap.Samples(a.samples)
	if n < FFTSize {
		// Right-align what we got so the newest samples sit at the end.
		copy(a.samples[FFTSize-n:], a.samples[:n])
		clear(a.samples[:FFTSize-n])
	}

	for i := range a.samples {
		a.samples[i] *= a.window[i]
	}

	spectrum := fft.FFTReal(a.samples)

	for k := 0; k < BinCount; k++ {
		mag := cmplx.Abs(spectrum[k]) / FFTSize
		a.smoothed[k] = Smoothing*a.smoothed[k] + (1-Smoothing)*mag
		dst[k] = normalizeDecibels(a.smoothed[k])
	}
	return dst
}

// Reset clears the smoothing history.
func (a *Analyser) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	clear(a.smoothed)
}

func normalizeDecibels(magnitude float64) float64 {
	if magnitude <= 0 {
		return 0
	}
	db := 20 * math.Log10(magnitude)
	v := (db - MinDecibels) / (MaxDecibels - MinDecibels)
	return max(0, min(1, v))
}

// blackman returns the classic Blackman window (alpha 0.16).
func blackman(n int) []float64 {
	const (
		a0 = 0.42
		a1 = 0.5
		a2 = 0.08
	)
	w := make([]float64, n)
	for i := range w {
		x := 2 * math.Pi * float64(i) / float64(n)
		w[i] = a0 - a1*math.Cos(x) + a2*math.Cos(2*x)
	}
	return w
}
