package service

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/tejashwikalptaru/wavepulse/internal/domain"
	"github.com/tejashwikalptaru/wavepulse/internal/ports"
)

// LibraryService builds tracks from audio files on disk. The app uses it to
// turn a music folder into a catalog when one is configured.
// All operations are thread-safe via sync.RWMutex.
type LibraryService struct {
	// Dependencies (injected)
	logger *slog.Logger
	reader ports.MetadataReader
	bus    ports.EventBus

	// State
	scanning      bool
	cancelScan    context.CancelFunc
	supportedExts []string

	mu sync.RWMutex
}

// NewLibraryService creates a new library service.
func NewLibraryService(
	logger *slog.Logger,
	reader ports.MetadataReader,
	bus ports.EventBus,
) *LibraryService {
	return &LibraryService{
		logger:        logger,
		reader:        reader,
		bus:           bus,
		supportedExts: []string{".mp3", ".wav", ".flac", ".ogg", ".oga"},
	}
}

// begin marks a scan as running and returns its context.
func (s *LibraryService) begin(op string) (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scanning {
		return nil, domain.NewServiceError("LibraryService", op, "scan already in progress", domain.ErrScanInProgress)
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.scanning = true
	s.cancelScan = cancel
	return ctx, nil
}

func (s *LibraryService) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelScan != nil {
		s.cancelScan()
	}
	s.scanning = false
	s.cancelScan = nil
}

// ScanFolder walks folderPath recursively in lexical order and returns a
// track per readable audio file. Scanned tracks get fresh UUIDs.
// Publishes scan.started, scan.progress and scan.completed (or scan.cancelled).
func (s *LibraryService) ScanFolder(folderPath string) ([]domain.Track, error) {
	ctx, err := s.begin("ScanFolder")
	if err != nil {
		return nil, err
	}
	defer s.end()

	s.logger.Info("scanning folder", slog.String("path", folderPath))
	s.bus.Publish(domain.NewScanStartedEvent(folderPath))

	files, err := s.collectAudioFiles(ctx, folderPath)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			s.bus.Publish(domain.NewScanCancelledEvent("user cancelled"))
			return nil, domain.ErrScanCancelled
		}
		return nil, domain.NewServiceError("LibraryService", "ScanFolder", "cannot walk folder", err)
	}

	tracks, err := s.readAll(ctx, files)
	if err != nil {
		s.bus.Publish(domain.NewScanCancelledEvent("user cancelled"))
		return tracks, err
	}

	s.logger.Info("scan completed", slog.Int("files", len(files)), slog.Int("tracks", len(tracks)))
	s.bus.Publish(domain.NewScanCompletedEvent(tracks))
	return tracks, nil
}

// ScanFiles reads the given files, skipping unsupported or unreadable ones.
func (s *LibraryService) ScanFiles(filePaths []string) ([]domain.Track, error) {
	ctx, err := s.begin("ScanFiles")
	if err != nil {
		return nil, err
	}
	defer s.end()

	files := make([]string, 0, len(filePaths))
	for _, p := range filePaths {
		if s.IsFormatSupported(p) {
			files = append(files, p)
		}
	}
	return s.readAll(ctx, files)
}

func (s *LibraryService) readAll(ctx context.Context, files []string) ([]domain.Track, error) {
	tracks := make([]domain.Track, 0, len(files))
	total := len(files)

	for i, filePath := range files {
		if ctx.Err() != nil {
			return tracks, domain.ErrScanCancelled
		}

		track, err := s.reader.ReadMetadata(filePath)
		if err != nil {
			s.logger.Debug("skipping unreadable file", slog.String("path", filePath), slog.Any("error", err))
		} else if track != nil {
			if track.ID == "" {
				track.ID = uuid.NewString()
			}
			tracks = append(tracks, *track)
		}

		s.bus.Publish(domain.NewScanProgressEvent(domain.ScanProgress{
			CurrentFile:  filePath,
			FilesScanned: i + 1,
			TotalFiles:   total,
			TracksFound:  len(tracks),
		}))
	}
	return tracks, nil
}

// CancelScan cancels the running scan.
func (s *LibraryService) CancelScan() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.scanning {
		return domain.NewServiceError("LibraryService", "CancelScan", "no scan in progress", nil)
	}
	s.cancelScan()
	return nil
}

// IsScanning returns true if a scan is currently in progress.
func (s *LibraryService) IsScanning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scanning
}

// IsFormatSupported checks the file extension, case-insensitively.
func (s *LibraryService) IsFormatSupported(filePath string) bool {
	return slices.Contains(s.supportedExts, strings.ToLower(filepath.Ext(filePath)))
}

// SupportedFormats returns the accepted file extensions.
func (s *LibraryService) SupportedFormats() []string {
	return slices.Clone(s.supportedExts)
}

func (s *LibraryService) collectAudioFiles(ctx context.Context, folderPath string) ([]string, error) {
	files := make([]string, 0)

	err := filepath.WalkDir(folderPath, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return context.Canceled
		}
		if err != nil {
			if path == folderPath {
				return err
			}
			// Skip entries we can't access
			return nil
		}
		if !d.IsDir() && s.IsFormatSupported(path) {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

// ExtractMetadata reads a single file.
func (s *LibraryService) ExtractMetadata(filePath string) (*domain.Track, error) {
	if !s.IsFormatSupported(filePath) {
		return nil, domain.ErrUnsupportedFormat
	}
	return s.reader.ReadMetadata(filePath)
}

// Shutdown cancels any running scan.
func (s *LibraryService) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scanning && s.cancelScan != nil {
		s.cancelScan()
	}
	return nil
}

// Verify that LibraryService implements the expected interface patterns
var _ interface {
	ScanFolder(string) ([]domain.Track, error)
	ScanFiles([]string) ([]domain.Track, error)
	CancelScan() error
	IsScanning() bool
	IsFormatSupported(string) bool
	SupportedFormats() []string
	ExtractMetadata(string) (*domain.Track, error)
	Shutdown() error
} = (*LibraryService)(nil)
