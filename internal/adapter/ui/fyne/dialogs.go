package fyne

import (
	"log/slog"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
)

// FileDialog asks for a single audio file.
type FileDialog struct {
	window     fyneapp.Window
	extensions []string
	callback   func(string)
	logger     *slog.Logger
}

// NewFileDialog creates a file dialog that only lists the given extensions.
// An empty extension list shows every file.
func NewFileDialog(window fyneapp.Window, extensions []string, callback func(string), logger *slog.Logger) *FileDialog {
	return &FileDialog{
		window:     window,
		extensions: extensions,
		callback:   callback,
		logger:     logger,
	}
}

// Show displays the file dialog.
func (d *FileDialog) Show() {
	open := dialog.NewFileOpen(func(reader fyneapp.URIReadCloser, err error) {
		if err != nil {
			d.logger.Error("file dialog error", slog.Any("error", err))
			return
		}
		if reader == nil {
			return // cancelled
		}
		defer reader.Close()

		if d.callback != nil {
			d.callback(reader.URI().Path())
		}
	}, d.window)

	if len(d.extensions) > 0 {
		open.SetFilter(storage.NewExtensionFileFilter(d.extensions))
	}
	open.Show()
}

// FolderDialog asks for a folder to queue.
type FolderDialog struct {
	window   fyneapp.Window
	callback func(string)
	logger   *slog.Logger
}

// NewFolderDialog creates a new folder dialog.
func NewFolderDialog(window fyneapp.Window, callback func(string), logger *slog.Logger) *FolderDialog {
	return &FolderDialog{
		window:   window,
		callback: callback,
		logger:   logger,
	}
}

// Show displays the folder dialog.
func (d *FolderDialog) Show() {
	dialog.ShowFolderOpen(func(uri fyneapp.ListableURI, err error) {
		if err != nil {
			d.logger.Error("folder dialog error", slog.Any("error", err))
			return
		}
		if uri == nil {
			return // cancelled
		}

		if d.callback != nil {
			d.callback(uri.Path())
		}
	}, d.window)
}
