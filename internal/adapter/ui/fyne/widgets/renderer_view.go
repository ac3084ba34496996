package widgets

import (
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"github.com/tejashwikalptaru/wavepulse/internal/visual"
)

// RendererView shows a visual.Renderer in a raster and owns the loop that
// drives it. Frames are painted on the Fyne thread; the loop only ticks the
// renderer and requests a refresh.
type RendererView struct {
	widget.BaseWidget

	raster  *canvas.Raster
	loop    *visual.Loop
	minSize fyne.Size
}

// NewRendererView creates an unmounted view for renderer.
func NewRendererView(logger *slog.Logger, renderer visual.Renderer, minSize fyne.Size) *RendererView {
	v := &RendererView{minSize: minSize}
	v.raster = canvas.NewRaster(renderer.Draw)
	v.loop = visual.NewLoop(logger, renderer, v.requestFrame)
	v.ExtendBaseWidget(v)
	return v
}

func (v *RendererView) requestFrame() {
	fyne.Do(v.raster.Refresh)
}

// Mount starts sampling src.
func (v *RendererView) Mount(src visual.Source) error {
	return v.loop.Mount(src)
}

// Unmount stops the loop and repaints the idle frame. Idempotent.
func (v *RendererView) Unmount() {
	v.loop.Unmount()
	fyne.Do(v.raster.Refresh)
}

// Mounted reports whether the loop is running.
func (v *RendererView) Mounted() bool {
	return v.loop.Mounted()
}

// Frames returns how many frames the loop has requested.
func (v *RendererView) Frames() uint64 {
	return v.loop.Frames()
}

// Renderer returns the displayed renderer.
func (v *RendererView) Renderer() visual.Renderer {
	return v.loop.Renderer()
}

// CreateRenderer implements fyne.Widget.
func (v *RendererView) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(v.raster)
}

// MinSize returns the minimum size of the view.
func (v *RendererView) MinSize() fyne.Size {
	return v.minSize
}
