package mock

import (
	"path/filepath"
	"strings"

	"github.com/tejashwikalptaru/wavepulse/internal/domain"
	"github.com/tejashwikalptaru/wavepulse/internal/ports"
)

// MetadataReader derives track metadata from the file name only.
type MetadataReader struct {
	// Fail lists paths that should fail to read
	Fail map[string]bool
}

// ReadMetadata returns a track titled after the file's base name.
func (m *MetadataReader) ReadMetadata(filePath string) (*domain.Track, error) {
	if filePath == "" {
		return nil, domain.ErrInvalidMediaRef
	}
	if m.Fail[filePath] {
		return nil, domain.NewAudioEngineError("metadata", filePath, "mock metadata failed", nil)
	}

	base := filepath.Base(filePath)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	return &domain.Track{
		Title:    name,
		Artist:   "Mock Artist",
		Album:    "Mock Album",
		Genre:    "Mock Genre",
		MediaRef: filePath,
		Duration: DefaultDuration,
	}, nil
}

var _ ports.MetadataReader = (*MetadataReader)(nil)
