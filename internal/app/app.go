// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"

	"github.com/tejashwikalptaru/wavepulse/internal/adapter/audio/beep"
	"github.com/tejashwikalptaru/wavepulse/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/wavepulse/internal/adapter/catalog/static"
	"github.com/tejashwikalptaru/wavepulse/internal/adapter/eventbus"
	fyneui "github.com/tejashwikalptaru/wavepulse/internal/adapter/ui/fyne"
	"github.com/tejashwikalptaru/wavepulse/internal/analysis"
	"github.com/tejashwikalptaru/wavepulse/internal/logger"
	"github.com/tejashwikalptaru/wavepulse/internal/ports"
	"github.com/tejashwikalptaru/wavepulse/internal/service"
)

// Application is the root application structure that holds all dependencies.
// It follows the Dependency Injection pattern with constructor-based injection.
//
// The Application struct is responsible for:
// - Creating and wiring all dependencies
// - Managing the application lifecycle (startup, shutdown)
// - Providing a clean entry point for main.go
type Application struct {
	// Core dependencies
	config  Config
	logger  *slog.Logger
	fyneApp fyne.App

	// Infrastructure
	eventBus *eventbus.SyncEventBus
	resource ports.AudioResource
	catalog  ports.TrackCatalog

	// Engine
	session    *service.PlaybackSession
	scheduler  *service.QueueScheduler
	graph      *analysis.Graph
	controller *service.Controller
	library    *service.LibraryService

	// UI
	presenter  *fyneui.Presenter
	mainWindow *fyneui.MainWindow

	shutdownOnce sync.Once
	shutdownErr  error
}

// Config holds application configuration.
type Config struct {
	// AppID is the unique application identifier
	AppID string

	// AppName is the display name
	AppName string

	// SampleRate is the speaker sample rate
	SampleRate int

	// UseMockAudio swaps the speaker for the simulated resource
	UseMockAudio bool

	// CatalogPath points to a YAML catalog; empty uses the embedded one
	CatalogPath string

	// MusicDir, when set, is scanned at startup and replaces the catalog
	MusicDir string

	// Logging
	LogLevel  slog.Level
	LogFormat string

	// TestFyneApp allows injecting a test Fyne app for testing (nil for production)
	TestFyneApp fyne.App
}

// Environment variables read by DefaultConfig.
const (
	EnvSampleRate = "WAVEPULSE_SAMPLE_RATE"
	EnvCatalog    = "WAVEPULSE_CATALOG"
	EnvMusicDir   = "WAVEPULSE_MUSIC_DIR"
	EnvMockAudio  = "WAVEPULSE_MOCK_AUDIO"
)

// DefaultConfig returns the default application configuration with
// environment overrides applied.
func DefaultConfig() Config {
	loggerCfg := logger.DefaultConfig()
	config := Config{
		AppID:      "com.wavepulse.app",
		AppName:    "WavePulse",
		SampleRate: beep.DefaultSampleRate,
		LogLevel:   loggerCfg.Level,
		LogFormat:  loggerCfg.Format,
	}
	config.applyEnv(os.LookupEnv)
	return config
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvSampleRate); ok {
		if rate, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && rate > 0 {
			c.SampleRate = rate
		}
	}
	if v, ok := lookup(EnvCatalog); ok {
		c.CatalogPath = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvMusicDir); ok {
		c.MusicDir = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvMockAudio); ok {
		if mockAudio, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			c.UseMockAudio = mockAudio
		}
	}
}

// NewApplication creates a new application with all dependencies wired.
// This is the main dependency injection function.
func NewApplication(config Config) (*Application, error) {
	app := &Application{config: config}

	// Step 1: Create Fyne application
	if config.TestFyneApp != nil {
		app.fyneApp = config.TestFyneApp
	} else {
		app.fyneApp = fyneapp.NewWithID(config.AppID)
	}

	// Step 2: Create logger
	app.logger = logger.NewLogger(logger.Config{
		Level:  config.LogLevel,
		Format: config.LogFormat,
	})
	app.logger.Info("initializing application",
		slog.String("app_id", config.AppID),
		slog.String("app_name", config.AppName),
		slog.String("version", GetVersionInfo().Version))

	// Step 3: Create an event bus
	app.eventBus = eventbus.NewSyncEventBus(app.logger.With(slog.String("component", "eventbus")))

	// Step 4: Create the audio resource and the tag reader
	var reader ports.MetadataReader
	if config.UseMockAudio {
		app.resource = mock.NewResource(app.logger.With(slog.String("resource", "mock")))
		reader = &mock.MetadataReader{}
	} else {
		cfg := beep.DefaultConfig()
		cfg.SampleRate = config.SampleRate
		app.resource = beep.NewResource(app.logger.With(slog.String("resource", "beep")), cfg)
		reader = beep.NewMetadataReader()
	}

	app.library = service.NewLibraryService(
		app.logger.With(slog.String("service", "LibraryService")),
		reader,
		app.eventBus,
	)

	// Step 5: Load the catalog
	catalog, err := app.loadCatalog()
	if err != nil {
		_ = app.release()
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	app.catalog = catalog

	// Step 6: Create the engine
	app.session = service.NewPlaybackSession(
		app.logger.With(slog.String("service", "PlaybackSession")),
		app.resource,
		app.eventBus,
	)
	app.scheduler = service.NewQueueScheduler(
		app.logger.With(slog.String("service", "QueueScheduler")),
		app.session,
		app.catalog,
		app.eventBus,
	)
	app.graph = analysis.NewGraph(
		app.logger.With(slog.String("service", "AnalysisGraph")),
		app.session,
	)
	app.controller = service.NewController(
		app.logger.With(slog.String("service", "Controller")),
		app.session,
		app.scheduler,
		app.graph,
		app.catalog,
		app.eventBus,
	)

	// Step 7: Create UI
	version := GetVersionInfo()
	app.mainWindow = fyneui.NewMainWindow(app.fyneApp,
		app.logger.With(slog.String("component", "ui")),
		fyneui.WindowOptions{Title: config.AppName, Version: version.FullString()})

	// Step 8: Create Presenter and wire with UI
	app.presenter = fyneui.NewPresenter(
		app.logger.With(slog.String("component", "presenter")),
		app.controller,
		app.library,
		app.eventBus,
		app.mainWindow,
	)
	app.mainWindow.SetPresenter(app.presenter)

	return app, nil
}

// loadCatalog picks the catalog source: a scanned music folder, a YAML file
// or the embedded catalog, in that order.
func (a *Application) loadCatalog() (*static.Catalog, error) {
	switch {
	case a.config.MusicDir != "":
		tracks, err := a.library.ScanFolder(a.config.MusicDir)
		if err != nil {
			return nil, err
		}
		a.logger.Info("catalog built from music folder",
			slog.String("path", a.config.MusicDir),
			slog.Int("tracks", len(tracks)))
		return static.FromTracks(tracks)

	case a.config.CatalogPath != "":
		a.logger.Info("loading catalog file", slog.String("path", a.config.CatalogPath))
		return static.LoadFile(a.config.CatalogPath)

	default:
		return static.Default()
	}
}

// Run shows the main window and blocks until it is closed.
func (a *Application) Run() error {
	a.logger.Info("WavePulse started", slog.Int("catalog_tracks", len(a.catalog.Tracks())))
	a.mainWindow.ShowAndRun()
	return nil
}

// Shutdown stops every component in reverse order of creation.
// It's safe to call multiple times.
func (a *Application) Shutdown() error {
	a.shutdownOnce.Do(func() {
		a.logger.Info("shutting down application")

		var errs []error
		if a.mainWindow != nil {
			a.mainWindow.Close()
		}
		if a.presenter != nil {
			a.presenter.Shutdown()
		}
		if a.controller != nil {
			errs = append(errs, a.wrapShutdown("controller", a.controller.Shutdown()))
		}
		if a.scheduler != nil {
			errs = append(errs, a.wrapShutdown("scheduler", a.scheduler.Shutdown()))
		}
		if a.session != nil {
			errs = append(errs, a.wrapShutdown("session", a.session.Shutdown()))
		}
		errs = append(errs, a.release())

		a.shutdownErr = errors.Join(errs...)
		a.logger.Info("application shutdown complete")
	})
	return a.shutdownErr
}

// release frees the infrastructure created before the engine.
func (a *Application) release() error {
	var errs []error
	if a.library != nil {
		errs = append(errs, a.wrapShutdown("library", a.library.Shutdown()))
	}
	if a.resource != nil {
		errs = append(errs, a.wrapShutdown("resource", a.resource.Close()))
	}
	if a.eventBus != nil {
		errs = append(errs, a.wrapShutdown("eventbus", a.eventBus.Close()))
	}
	return errors.Join(errs...)
}

func (a *Application) wrapShutdown(component string, err error) error {
	if err == nil {
		return nil
	}
	a.logger.Warn("failed to shutdown component", slog.String("component", component), slog.Any("error", err))
	return fmt.Errorf("shutdown %s: %w", component, err)
}

// Controller returns the engine API.
func (a *Application) Controller() *service.Controller {
	return a.controller
}

// Library returns the library service.
func (a *Application) Library() *service.LibraryService {
	return a.library
}

// EventBus returns the application event bus.
func (a *Application) EventBus() ports.EventBus {
	return a.eventBus
}

// FyneApp returns the Fyne application.
func (a *Application) FyneApp() fyne.App {
	return a.fyneApp
}

// MainWindow returns the main window.
func (a *Application) MainWindow() *fyneui.MainWindow {
	return a.mainWindow
}
