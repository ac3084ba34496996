package fyne

import (
	"fmt"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// aboutContent is the Markdown shown in the About dialog.
const aboutContent = `A desktop music player with live audio visualizations, built with Go and Fyne.

**Features:**
- Plays MP3, WAV, FLAC and Ogg Vorbis from disk or http(s)
- Compact bars, enhanced spectrum and fullscreen particle visualizers
- Catalog browsing by artist, album, playlist and genre
- Play-next queue

**Shortcuts:**
- Space: play / pause
- F: fullscreen visualizer, Esc to leave
- Alt+Up / Alt+Down: volume
`

// aboutMarkdown renders the About body for the given version line.
func aboutMarkdown(version string) string {
	return fmt.Sprintf("%s\n---\n\n%s", aboutContent, version)
}

// showAbout opens the About dialog on the main window.
func (w *MainWindow) showAbout() {
	body := widget.NewRichTextFromMarkdown(aboutMarkdown(w.opts.Version))
	body.Wrapping = fyneapp.TextWrapWord
	dialog.ShowCustom("About "+w.opts.Title, "Close", body, w.window)
}
