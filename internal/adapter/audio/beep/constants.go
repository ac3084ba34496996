// Package beep provides an AudioResource backed by github.com/gopxl/beep/v2.
// It decodes local files and http(s) media and plays them through the system
// speaker via a persistent chain: source slot -> analysis tap -> volume -> ctrl.
package beep

import "time"

// Output defaults
const (
	DefaultSampleRate  = 44100
	DefaultBufferSize  = 100 * time.Millisecond
	DefaultHTTPTimeout = 30 * time.Second
)

const (
	// progressInterval is the TimeUpdate cadence while playing
	progressInterval = 250 * time.Millisecond

	// resampleQuality is passed to beep.Resample (1 fastest .. 64 best)
	resampleQuality = 4

	// tapBufferSize is the analysis ring size in mono samples
	tapBufferSize = 4096

	// maxDownloadSize caps remote media held in memory
	maxDownloadSize = 256 << 20
)

// Supported media extensions
const (
	extMP3  = ".mp3"
	extWAV  = ".wav"
	extFLAC = ".flac"
	extOGG  = ".ogg"
	extOGA  = ".oga"
)

var supportedFormats = []string{extMP3, extWAV, extFLAC, extOGG, extOGA}
