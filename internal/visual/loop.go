package visual

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tejashwikalptaru/wavepulse/internal/domain"
)

// Loop drives one renderer. While mounted it ticks the renderer at the
// renderer's interval and reports every finished frame through onFrame.
// An unmounted loop schedules nothing and keeps no reference to its source.
//
// Thread-safety: Mount and Unmount may be called from any goroutine, but
// never from onFrame, which runs on the loop goroutine.
type Loop struct {
	// Dependencies (injected)
	logger   *slog.Logger
	renderer Renderer
	onFrame  func()

	// State
	mu     sync.Mutex
	src    Source
	cancel context.CancelFunc
	done   chan struct{}

	frames atomic.Uint64
}

// NewLoop creates an unmounted loop for renderer. onFrame may be nil.
func NewLoop(logger *slog.Logger, renderer Renderer, onFrame func()) *Loop {
	return &Loop{
		logger:   logger.With(slog.String("renderer", renderer.Name())),
		renderer: renderer,
		onFrame:  onFrame,
	}
}

// Mount starts sampling src.
func (l *Loop) Mount(src Source) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		return fmt.Errorf("mount %s: %w", l.renderer.Name(), domain.ErrLoopMounted)
	}

	ctx, cancel := context.WithCancel(context.Background())
	l.src = src
	l.cancel = cancel
	l.done = make(chan struct{})

	go l.run(ctx, src, l.done)

	l.logger.Debug("render loop mounted", slog.Duration("interval", l.renderer.Interval()))
	return nil
}

// Unmount stops the loop and waits for the in-flight frame to finish.
// No frame is reported after Unmount returns. Idempotent.
func (l *Loop) Unmount() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.src, l.cancel, l.done = nil, nil, nil
	l.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	l.renderer.Reset()
	l.logger.Debug("render loop unmounted", slog.Uint64("frames", l.frames.Load()))
}

// Mounted reports whether the loop is running.
func (l *Loop) Mounted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src != nil
}

// Frames returns how many frames the loop has produced.
func (l *Loop) Frames() uint64 {
	return l.frames.Load()
}

// Renderer returns the driven renderer.
func (l *Loop) Renderer() Renderer {
	return l.renderer
}

func (l *Loop) run(ctx context.Context, src Source, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(l.renderer.Interval())
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			// select picks randomly between ready cases
			if ctx.Err() != nil {
				return
			}
			l.renderer.Tick(src, now.Sub(last))
			last = now

			l.frames.Add(1)
			if l.onFrame != nil {
				l.onFrame()
			}
		}
	}
}
