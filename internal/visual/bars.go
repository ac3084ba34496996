package visual

import (
	"image"
	"image/color"
	"slices"
	"sync"
	"time"
)

const (
	barsBuckets   = 12
	barsInterval  = 200 * time.Millisecond
	barsMinHeight = 0.1

	// barsCapFalloff is how far a cap drops per second, in bar heights.
	barsCapFalloff = 0.6

	barsGap       = 2
	barsCapHeight = 2
)

// Bars is the compact equalizer shown next to the transport controls:
// twelve buckets sampled five times a second, each topped by a falling cap.
type Bars struct {
	mu      sync.Mutex
	heights []float64
	caps    []float64
}

// NewBars creates the compact bar renderer.
func NewBars() *Bars {
	b := &Bars{
		heights: make([]float64, barsBuckets),
		caps:    make([]float64, barsBuckets),
	}
	b.Reset()
	return b
}

// Name implements Renderer.
func (b *Bars) Name() string { return string(KindBars) }

// Interval implements Renderer.
func (b *Bars) Interval() time.Duration { return barsInterval }

// Tick implements Renderer.
func (b *Bars) Tick(src Source, dt time.Duration) {
	spectrum := src.SampleSpectrum(barsBuckets)
	fall := barsCapFalloff * dt.Seconds()

	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.heights {
		h := barsMinHeight
		if i < len(spectrum) {
			h = clamp(spectrum[i], barsMinHeight, 1)
		}
		b.heights[i] = h
		b.caps[i] = max(h, b.caps[i]-fall)
	}
}

// Reset implements Renderer.
func (b *Bars) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.heights {
		b.heights[i] = barsMinHeight
		b.caps[i] = barsMinHeight
	}
}

// Heights returns a copy of the current bar heights in [0.1, 1].
func (b *Bars) Heights() []float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.heights)
}

// Caps returns a copy of the current cap heights.
func (b *Bars) Caps() []float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.caps)
}

// Draw implements Renderer.
func (b *Bars) Draw(w, h int) image.Image {
	img := newFrame(w, h, nil)
	if w <= 0 || h <= 0 {
		return img
	}

	heights, caps := b.Heights(), b.Caps()

	n := len(heights)
	barW := max((w-barsGap*(n-1))/n, 1)
	used := n*barW + (n-1)*barsGap
	startX := max((w-used)/2, 0)
	bar := primary.NRGBA(1)

	for i := range heights {
		x := startX + i*(barW+barsGap)

		barH := int(heights[i] * float64(h))
		fillRect(img, image.Rect(x, h-barH, x+barW, h), bar)

		capY := h - int(caps[i]*float64(h))
		if capY < h-barH-barsCapHeight {
			fillRect(img, image.Rect(x, capY, x+barW, capY+barsCapHeight), color.NRGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
	return img
}
