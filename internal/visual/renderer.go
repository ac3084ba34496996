// Package visual holds the spectrum renderers. Each renderer samples the
// analysis feed on its own cadence, maps the sample to visual parameters
// (bar scale, glow colour, particle velocity) and draws a frame on demand.
package visual

import (
	"image"
	"time"
)

// Source is the read-only analysis feed a renderer samples on every tick.
// service.Controller satisfies it.
type Source interface {
	// SampleSpectrum returns exactly n values in [0, 1].
	SampleSpectrum(n int) []float64

	// SampleBandEnergy returns the mean level of bins [lo, hi).
	SampleBandEnergy(lo, hi int) float64

	// BinCount returns the number of analysis bins.
	BinCount() int

	// Active reports whether the feed reflects real audio.
	Active() bool

	// Playing reports whether the transport is playing.
	Playing() bool
}

// Renderer maps one sample of the feed to visual parameters and draws them.
//
// Thread-safety: Tick runs on the renderer's loop goroutine while Draw runs
// on whichever goroutine paints the frame; implementations lock their state.
type Renderer interface {
	// Name identifies the renderer in logs.
	Name() string

	// Interval is the sampling cadence of the renderer's loop.
	Interval() time.Duration

	// Tick samples src and advances the renderer by dt.
	Tick(src Source, dt time.Duration)

	// Draw renders the current parameters into a w×h image.
	Draw(w, h int) image.Image

	// Reset returns the renderer to its unmounted look.
	Reset()
}

// Kind names a renderer variant.
type Kind string

// Available renderer variants.
const (
	KindBars       Kind = "bars"
	KindEnhanced   Kind = "enhanced"
	KindFullscreen Kind = "fullscreen"
)

// New creates a renderer of the given kind. Unknown kinds get the compact bars.
func New(kind Kind) Renderer {
	switch kind {
	case KindEnhanced:
		return NewEnhanced()
	case KindFullscreen:
		return NewFullscreen()
	default:
		return NewBars()
	}
}

// KindInfo pairs a variant with its display name.
type KindInfo struct {
	Kind Kind
	Name string
}

// Kinds returns every renderer variant with its display name.
func Kinds() []KindInfo {
	return []KindInfo{
		{KindBars, "Compact Bars"},
		{KindEnhanced, "Enhanced"},
		{KindFullscreen, "Fullscreen"},
	}
}

// Verify interface implementation at compile time.
var (
	_ Renderer = (*Bars)(nil)
	_ Renderer = (*Enhanced)(nil)
	_ Renderer = (*Fullscreen)(nil)
)
