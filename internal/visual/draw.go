package visual

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

// primary is the accent colour of the shell, hsl(263, 83%, 75%).
var primary = HSL{H: 263, S: 83, L: 75}

// HSL is a colour with hue in degrees and saturation and lightness in percent.
type HSL struct {
	H, S, L float64
}

// NRGBA converts the colour with the given opacity in [0, 1].
func (c HSL) NRGBA(alpha float64) color.NRGBA {
	h := math.Mod(c.H, 360)
	if h < 0 {
		h += 360
	}
	r, g, b := hslToRGB(h/360, clamp(c.S/100, 0, 1), clamp(c.L/100, 0, 1))
	return color.NRGBA{
		R: channel(r),
		G: channel(g),
		B: channel(b),
		A: channel(alpha),
	}
}

// hslToRGB converts HSL to RGB (h, s, l in 0-1 range).
func hslToRGB(h, s, l float64) (r, g, b float64) {
	if s == 0 {
		return l, l, l
	}

	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q

	return hueToRGB(p, q, h+1.0/3.0), hueToRGB(p, q, h), hueToRGB(p, q, h-1.0/3.0)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 0.5:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	default:
		return p
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func channel(v float64) uint8 {
	return uint8(math.Round(clamp(v, 0, 1) * 255))
}

// stop is one colour stop of a gradient, at in [0, 1].
type stop struct {
	at  float64
	col color.NRGBA
}

// gradientAt interpolates stops, which must be sorted by position.
func gradientAt(stops []stop, t float64) color.NRGBA {
	if len(stops) == 0 {
		return color.NRGBA{}
	}
	if t <= stops[0].at {
		return stops[0].col
	}
	for i := 1; i < len(stops); i++ {
		if t <= stops[i].at {
			a, b := stops[i-1], stops[i]
			return lerp(a.col, b.col, (t-a.at)/(b.at-a.at))
		}
	}
	return stops[len(stops)-1].col
}

func lerp(a, b color.NRGBA, t float64) color.NRGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return color.NRGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}

// fade scales the opacity of c by alpha.
func fade(c color.NRGBA, alpha float64) color.NRGBA {
	c.A = uint8(math.Round(float64(c.A) * clamp(alpha, 0, 1)))
	return c
}

// transparent returns c with zero opacity, for gradients that fade out.
func transparent(c color.NRGBA) color.NRGBA {
	c.A = 0
	return c
}

// newFrame allocates a w×h frame, filled with bg unless bg is nil.
func newFrame(w, h int, bg color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, max(w, 0), max(h, 0)))
	if bg != nil {
		draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	}
	return img
}

// blend composites c over the pixel at (x, y).
func blend(img *image.RGBA, x, y int, c color.NRGBA) {
	if c.A == 0 || !(image.Point{X: x, Y: y}).In(img.Rect) {
		return
	}
	i := img.PixOffset(x, y)
	p := img.Pix[i : i+4 : i+4]
	a := uint32(c.A)
	inv := 255 - a
	p[0] = uint8((uint32(c.R)*a + uint32(p[0])*inv) / 255)
	p[1] = uint8((uint32(c.G)*a + uint32(p[1])*inv) / 255)
	p[2] = uint8((uint32(c.B)*a + uint32(p[2])*inv) / 255)
	p[3] = uint8(a + uint32(p[3])*inv/255)
}

// fillRect blends c over r.
func fillRect(img *image.RGBA, r image.Rectangle, c color.NRGBA) {
	r = r.Intersect(img.Rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			blend(img, x, y, c)
		}
	}
}

// verticalGradient blends a gradient over r running from bottom to top.
func verticalGradient(img *image.RGBA, r image.Rectangle, bottom, top color.NRGBA) {
	clipped := r.Intersect(img.Rect)
	span := float64(max(r.Dy()-1, 1))
	for y := clipped.Min.Y; y < clipped.Max.Y; y++ {
		c := lerp(bottom, top, float64(r.Max.Y-1-y)/span)
		for x := clipped.Min.X; x < clipped.Max.X; x++ {
			blend(img, x, y, c)
		}
	}
}

// radialGlow blends an elliptical gradient centred on (cx, cy). Stops run
// from the centre (0) to the rim (1); alpha scales the whole glow.
func radialGlow(img *image.RGBA, cx, cy, rx, ry, alpha float64, stops []stop) {
	if rx <= 0 || ry <= 0 || alpha <= 0 {
		return
	}
	bounds := image.Rect(
		int(math.Floor(cx-rx)), int(math.Floor(cy-ry)),
		int(math.Ceil(cx+rx))+1, int(math.Ceil(cy+ry))+1,
	).Intersect(img.Rect)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		dy := (float64(y) + 0.5 - cy) / ry
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			dx := (float64(x) + 0.5 - cx) / rx
			t := math.Sqrt(dx*dx + dy*dy)
			if t >= 1 {
				continue
			}
			blend(img, x, y, fade(gradientAt(stops, t), alpha))
		}
	}
}
