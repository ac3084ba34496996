package beep

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"

	"github.com/tejashwikalptaru/wavepulse/internal/domain"
	"github.com/tejashwikalptaru/wavepulse/internal/ports"
)

// MetadataReader reads tags with dhowden/tag and measures the duration by
// opening the file's decoder.
type MetadataReader struct{}

// NewMetadataReader creates a metadata reader.
func NewMetadataReader() *MetadataReader {
	return &MetadataReader{}
}

// ReadMetadata extracts a Track from filePath. Missing or unreadable tags are
// not an error; the title then falls back to the file name.
func (m *MetadataReader) ReadMetadata(filePath string) (*domain.Track, error) {
	if filePath == "" {
		return nil, domain.ErrInvalidMediaRef
	}

	if _, err := os.Stat(filePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrFileNotFound
		}
		return nil, domain.NewAudioEngineError("metadata", filePath, "cannot stat file", err)
	}

	base := filepath.Base(filePath)
	track := &domain.Track{
		Title:    strings.TrimSuffix(base, filepath.Ext(base)),
		MediaRef: filePath,
	}

	readTags(track)
	track.Duration = measure(filePath)

	return track, nil
}

func readTags(track *domain.Track) {
	file, err := os.Open(track.MediaRef)
	if err != nil {
		return
	}
	defer file.Close()

	meta, err := tag.ReadFrom(file)
	if err != nil || meta == nil {
		return
	}

	if title := strings.TrimSpace(meta.Title()); title != "" {
		track.Title = title
	}
	track.Artist = strings.TrimSpace(meta.Artist())
	track.Album = strings.TrimSpace(meta.Album())
	track.Genre = strings.TrimSpace(meta.Genre())
}

// measure returns the decoded length, or 0 for formats the decoders reject.
func measure(filePath string) time.Duration {
	ext := strings.ToLower(filepath.Ext(filePath))
	file, err := os.Open(filePath)
	if err != nil {
		return 0
	}

	src, err := decode(file, ext)
	if err != nil {
		_ = file.Close()
		return 0
	}
	defer src.Close()

	return src.format.SampleRate.D(src.stream.Len())
}

var _ ports.MetadataReader = (*MetadataReader)(nil)
