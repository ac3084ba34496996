package visual

import (
	"image"
	"image/color"
	"slices"
	"sync"
	"time"
)

const (
	enhancedBuckets   = 40
	enhancedInterval  = 16 * time.Millisecond
	enhancedMinHeight = 0.1

	// enhancedBassBins is the width of the bass band at the bottom of the spectrum.
	enhancedBassBins = 10
	// enhancedPeakBins is the width of the peak band at the top of the spectrum.
	enhancedPeakBins = 20

	enhancedGradientAlpha = 179 // 0.7
)

// Enhanced draws forty gradient bars over a bass-driven pulse and a
// highlight that follows the top of the spectrum.
type Enhanced struct {
	mu       sync.Mutex
	heights  []float64
	bass     float64
	peak     float64
	gradient [3]color.NRGBA
}

// NewEnhanced creates the enhanced renderer.
func NewEnhanced() *Enhanced {
	e := &Enhanced{heights: make([]float64, enhancedBuckets)}
	e.Reset()
	return e
}

// Name implements Renderer.
func (e *Enhanced) Name() string { return string(KindEnhanced) }

// Interval implements Renderer.
func (e *Enhanced) Interval() time.Duration { return enhancedInterval }

// Tick implements Renderer.
func (e *Enhanced) Tick(src Source, _ time.Duration) {
	spectrum := src.SampleSpectrum(enhancedBuckets)
	bins := src.BinCount()
	bass := clamp(src.SampleBandEnergy(0, enhancedBassBins), 0.2, 1)
	peak := clamp(src.SampleBandEnergy(bins-enhancedPeakBins, bins), 0.1, 1)

	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.heights {
		h := enhancedMinHeight
		if i < len(spectrum) {
			h = clamp(spectrum[i], enhancedMinHeight, 1)
		}
		e.heights[i] = h
	}
	e.bass = bass
	e.peak = peak
	e.gradient = enhancedGradient(bass, peak)
}

// Reset implements Renderer.
func (e *Enhanced) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.heights {
		e.heights[i] = 0.3
	}
	e.bass = 0.2
	e.peak = 0.1
	e.gradient = [3]color.NRGBA{
		{R: 147, G: 51, B: 234, A: enhancedGradientAlpha},
		{R: 236, G: 72, B: 153, A: enhancedGradientAlpha},
		{R: 59, G: 130, B: 246, A: enhancedGradientAlpha},
	}
}

// enhancedGradient shifts the purple, pink and blue pulse colours with the
// bass and peak levels.
func enhancedGradient(bass, peak float64) [3]color.NRGBA {
	return [3]color.NRGBA{
		{R: uint8(147 + bass*100), G: uint8(51 + bass*100), B: 234, A: enhancedGradientAlpha},
		{R: 236, G: uint8(72 + peak*100), B: uint8(153 + peak*50), A: enhancedGradientAlpha},
		{R: 59, G: 130, B: uint8(246 - bass*50), A: enhancedGradientAlpha},
	}
}

// barWeight is the relative width of bar i: every third bar is doubled.
func barWeight(i int) int {
	if i%3 == 0 {
		return 2
	}
	return 1
}

// barOpacity maps a bar height to its opacity.
func barOpacity(h float64) float64 {
	return 0.7 + h*0.3
}

// Levels returns the clamped bass and peak levels of the last tick.
func (e *Enhanced) Levels() (bass, peak float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bass, e.peak
}

// Heights returns a copy of the current bar heights in [0.1, 1].
func (e *Enhanced) Heights() []float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.heights)
}

// Gradient returns the current pulse colours.
func (e *Enhanced) Gradient() [3]color.NRGBA {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gradient
}

// Draw implements Renderer.
func (e *Enhanced) Draw(w, h int) image.Image {
	img := newFrame(w, h, nil)
	if w <= 0 || h <= 0 {
		return img
	}

	e.mu.Lock()
	heights := slices.Clone(e.heights)
	bass, peak, gradient := e.bass, e.peak, e.gradient
	e.mu.Unlock()

	cx, cy := float64(w)/2, float64(h)/2

	// Bass pulse
	radialGlow(img, cx, cy, cx*bass, cy*bass, bass*0.7, []stop{
		{0, gradient[0]},
		{0.5, gradient[1]},
		{0.85, gradient[2]},
		{1, transparent(gradient[2])},
	})

	// Peak highlight
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 51}
	radialGlow(img, cx, cy, cx*peak, cy*peak, peak*0.5, []stop{
		{0, white},
		{0.7, transparent(white)},
	})

	e.drawBars(img, heights, w, h)
	return img
}

func (e *Enhanced) drawBars(img *image.RGBA, heights []float64, w, h int) {
	units := len(heights) - 1 // one-unit gaps
	for i := range heights {
		units += barWeight(i)
	}
	unit := float64(w) / float64(units)

	bottom := primary.NRGBA(0.8)
	top := color.NRGBA{R: 255, G: 255, B: 255, A: 204}

	cursor := 0.0
	for i, height := range heights {
		x0 := int(cursor)
		x1 := max(int(cursor+unit*float64(barWeight(i))), x0+1)
		cursor += unit * float64(barWeight(i)+1)

		opacity := barOpacity(height)
		barH := int(height * float64(h))
		verticalGradient(img, image.Rect(x0, h-barH, x1, h), fade(bottom, opacity), fade(top, opacity))
	}
}
