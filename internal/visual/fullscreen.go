package visual

import (
	"image"
	"image/color"
	"math"
	"math/rand/v2"
	"slices"
	"sync"
	"time"
)

const (
	fullscreenParticles = 80
	fullscreenInterval  = 16 * time.Millisecond

	// Particle speeds are pixels per frame at 60 fps on a frame this tall.
	particleRefHeight = 720.0
	particleRefFPS    = 60.0
	// particleMargin is how far past the top a particle travels before it wraps.
	particleMargin = 20.0 / particleRefHeight

	idleSpeedFactor = 0.5
)

// Frequency bands, in bins.
var (
	bassBand   = [2]int{0, 10}
	midBand    = [2]int{10, 100}
	trebleBand = [2]int{100, 512}
)

// Particle is one glowing dot of the fullscreen view. X and Y are fractions
// of the frame; Size is in pixels.
type Particle struct {
	X, Y    float64
	Size    float64
	Speed   float64
	Opacity float64
}

// RenderSize is the core radius of p under the given bass level.
func (p Particle) RenderSize(bass float64) float64 {
	return p.Size * (1 + 2*bass)
}

// Glow is the centre opacity of p under the given treble level.
func (p Particle) Glow(treble float64) float64 {
	return p.Opacity * (1 + treble)
}

// Fullscreen is the immersive view: a colour wash keyed to the band balance,
// a bottom glow driven by the mids and a field of rising particles.
type Fullscreen struct {
	mu        sync.Mutex
	particles []Particle
	bass      float64
	mid       float64
	treble    float64
	dominant  HSL
}

// NewFullscreen creates the fullscreen renderer with a fresh particle field.
func NewFullscreen() *Fullscreen {
	f := &Fullscreen{particles: make([]Particle, fullscreenParticles)}
	f.Reset()
	return f
}

// Name implements Renderer.
func (f *Fullscreen) Name() string { return string(KindFullscreen) }

// Interval implements Renderer.
func (f *Fullscreen) Interval() time.Duration { return fullscreenInterval }

// Tick implements Renderer.
// nolint:gosec // G404 - weak random is fine for visual effects
func (f *Fullscreen) Tick(src Source, dt time.Duration) {
	bass := src.SampleBandEnergy(bassBand[0], bassBand[1])
	mid := src.SampleBandEnergy(midBand[0], midBand[1])
	treble := src.SampleBandEnergy(trebleBand[0], trebleBand[1])

	factor := idleSpeedFactor
	if src.Playing() {
		factor = 1 + bass
	}
	frames := dt.Seconds() * particleRefFPS

	f.mu.Lock()
	defer f.mu.Unlock()

	f.bass, f.mid, f.treble = bass, mid, treble
	f.dominant = dominantColour(bass, mid, treble)

	for i := range f.particles {
		p := &f.particles[i]
		p.Y -= p.Speed * factor * frames / particleRefHeight
		if p.Y < -particleMargin {
			p.Y = 1 + particleMargin
			p.X = rand.Float64()
		}
	}
}

// dominantColour shifts the hue with the bass/treble balance, saturates with
// the mids and brightens with the bass.
func dominantColour(bass, mid, treble float64) HSL {
	return HSL{
		H: math.Floor(263 + (bass-treble)*100),
		S: math.Floor(70 + mid*30),
		L: math.Floor(65 + bass*15),
	}
}

// Reset implements Renderer.
// nolint:gosec // G404 - weak random is fine for visual effects
func (f *Fullscreen) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.particles {
		f.particles[i] = Particle{
			X:       rand.Float64(),
			Y:       rand.Float64(),
			Size:    rand.Float64()*4 + 1,
			Speed:   rand.Float64()*2 + 0.5,
			Opacity: rand.Float64()*0.5 + 0.25,
		}
	}
	f.bass, f.mid, f.treble = 0, 0, 0
	f.dominant = primary
}

// Levels returns the band energies of the last tick.
func (f *Fullscreen) Levels() (bass, mid, treble float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bass, f.mid, f.treble
}

// Dominant returns the current dominant colour.
func (f *Fullscreen) Dominant() HSL {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dominant
}

// Particles returns a copy of the particle field.
func (f *Fullscreen) Particles() []Particle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.particles)
}

// Draw implements Renderer.
func (f *Fullscreen) Draw(w, h int) image.Image {
	img := newFrame(w, h, color.Black)
	if w <= 0 || h <= 0 {
		return img
	}

	f.mu.Lock()
	particles := slices.Clone(f.particles)
	bass, mid, treble, dominant := f.bass, f.mid, f.treble, f.dominant
	f.mu.Unlock()

	wash := dominant.NRGBA(1)
	cx, cy := float64(w)/2, float64(h)/2
	scale := 1 + bass*0.3

	// Centre wash
	radialGlow(img, cx, cy, cx*scale, cy*scale, bass*0.8+0.2, []stop{
		{0, wash},
		{0.7, transparent(wash)},
	})

	// Bottom glow over the lower half
	verticalGradient(img, image.Rect(0, h/2, w, h), fade(wash, mid*0.6+0.1), transparent(wash))

	for _, p := range particles {
		r := p.RenderSize(bass) * 3
		radialGlow(img, p.X*float64(w), p.Y*float64(h), r, r, 1, []stop{
			{0, color.NRGBA{R: 255, G: 255, B: 255, A: channel(p.Glow(treble))}},
			{0.5, dominant.NRGBA(p.Opacity * 0.6)},
			{1, color.NRGBA{}},
		})
	}
	return img
}
