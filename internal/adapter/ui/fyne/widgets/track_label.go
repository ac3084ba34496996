package widgets

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
)

// TrackLabel is a list cell for one catalog track. Double-tapping plays the
// track; right-clicking queues it.
type TrackLabel struct {
	widget.Label

	onDoubleTap func(trackID string)
	onSecondary func(trackID string)
	trackID     string
}

// NewTrackLabel creates a cell with the given callbacks. Either may be nil.
func NewTrackLabel(onDoubleTap, onSecondary func(trackID string)) *TrackLabel {
	label := &TrackLabel{
		onDoubleTap: onDoubleTap,
		onSecondary: onSecondary,
	}
	label.Truncation = fyne.TextTruncateEllipsis
	label.ExtendBaseWidget(label)
	return label
}

// Bind points the cell at a track.
func (l *TrackLabel) Bind(trackID, text string) {
	l.trackID = trackID
	l.SetText(text)
}

// TrackID returns the bound track.
func (l *TrackLabel) TrackID() string {
	return l.trackID
}

// DoubleTapped implements fyne.DoubleTappable.
func (l *TrackLabel) DoubleTapped(*fyne.PointEvent) {
	if l.onDoubleTap != nil && l.trackID != "" {
		l.onDoubleTap(l.trackID)
	}
}

// TappedSecondary implements fyne.SecondaryTappable.
func (l *TrackLabel) TappedSecondary(*fyne.PointEvent) {
	if l.onSecondary != nil && l.trackID != "" {
		l.onSecondary(l.trackID)
	}
}

// Ensure TrackLabel implements the tap interfaces
var (
	_ fyne.DoubleTappable    = (*TrackLabel)(nil)
	_ fyne.SecondaryTappable = (*TrackLabel)(nil)
)
