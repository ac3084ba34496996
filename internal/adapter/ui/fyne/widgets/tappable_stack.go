// Package widgets provides custom Fyne widgets for the WavePulse shell.
package widgets

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

// TappableStack wraps content and reports primary and secondary taps.
// The shell uses it to open the fullscreen view from the visualization area
// and to close it again.
type TappableStack struct {
	widget.BaseWidget

	content        fyne.CanvasObject
	onTap          func(*fyne.PointEvent)
	onSecondaryTap func(*fyne.PointEvent)
}

// NewTappableStack creates a new tappable stack with the given content.
// Either callback may be nil.
func NewTappableStack(content fyne.CanvasObject, onTap, onSecondaryTap func(*fyne.PointEvent)) *TappableStack {
	t := &TappableStack{
		content:        content,
		onTap:          onTap,
		onSecondaryTap: onSecondaryTap,
	}
	t.ExtendBaseWidget(t)
	return t
}

// CreateRenderer implements fyne.Widget.
func (t *TappableStack) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(t.content)
}

// Tapped implements fyne.Tappable.
func (t *TappableStack) Tapped(pe *fyne.PointEvent) {
	if t.onTap != nil {
		t.onTap(pe)
	}
}

// TappedSecondary implements fyne.SecondaryTappable (right-click).
func (t *TappableStack) TappedSecondary(pe *fyne.PointEvent) {
	if t.onSecondaryTap != nil {
		t.onSecondaryTap(pe)
	}
}

// MouseIn implements desktop.Hoverable.
func (t *TappableStack) MouseIn(*desktop.MouseEvent) {}

// MouseMoved implements desktop.Hoverable.
func (t *TappableStack) MouseMoved(*desktop.MouseEvent) {}

// MouseOut implements desktop.Hoverable.
func (t *TappableStack) MouseOut() {}

// Ensure TappableStack implements the required interfaces
var (
	_ fyne.Tappable          = (*TappableStack)(nil)
	_ fyne.SecondaryTappable = (*TappableStack)(nil)
	_ desktop.Hoverable      = (*TappableStack)(nil)
)
