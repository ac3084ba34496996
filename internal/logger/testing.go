package logger

import (
	"bytes"
	"log/slog"
	"os"
	"sync"
)

// NewTestLogger creates a logger for tests.
// By default, uses WARN level to keep test output quiet.
// Set TEST_DEBUG environment variable to enable debug logging in tests.
func NewTestLogger() *slog.Logger {
	level := slog.LevelWarn

	if os.Getenv("TEST_DEBUG") != "" {
		level = slog.LevelDebug
	}

	return NewLogger(Config{Level: level, Format: "text", Output: os.Stdout})
}

// Buffer is a goroutine-safe log sink for asserting on emitted records.
type Buffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// Write implements io.Writer.
func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// String returns everything logged so far.
func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// NewCaptureLogger returns a debug-level text logger writing into the returned buffer.
func NewCaptureLogger() (*slog.Logger, *Buffer) {
	buf := &Buffer{}
	return NewLogger(Config{Level: slog.LevelDebug, Format: "text", Output: buf}), buf
}
