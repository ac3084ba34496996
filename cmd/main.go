// Package main is the production entry point for the WavePulse player.
//
// WavePulse plays catalog tracks and local files and draws live spectrum
// visualizations:
// - Event-driven communication between the engine and the shell
// - Dependency injection for testability
// - MVP pattern for UI decoupling
//
// Build:
//
//	go build -o build/wavepulse ./cmd
//
// Run:
//
//	./build/wavepulse
//
// Set WAVEPULSE_MOCK_AUDIO=true to run without an audio device.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/tejashwikalptaru/wavepulse/internal/app"
)

func main() {
	config := app.DefaultConfig()

	application, err := app.NewApplication(config)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Ensure a graceful shutdown
	defer func() {
		fmt.Println("\nShutting down...")
		if err := application.Shutdown(); err != nil {
			fmt.Fprintf(os.Stderr, "Shutdown error: %v\n", err)
		}
		fmt.Println("Shutdown complete")
	}()

	// Run application (blocks until the window closed)
	if err := application.Run(); err != nil {
		log.Printf("Application error: %v", err)
	}
}
