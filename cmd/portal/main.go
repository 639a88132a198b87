// Package main is the entry point for the SSC portal.
//
// The main package stays minimal. Its job is to:
//  1. Read configuration (environment and an optional .env file)
//  2. Create the logger
//  3. Build and start the server
//
// Everything else lives in internal/: the API client, the stores, the
// handlers and the server that wires them together.
package main

import (
	"log/slog"
	"os"

	"github.com/sakif/ssc-portal/internal/config"
	"github.com/sakif/ssc-portal/internal/server"
)

func main() {
	// === 1. READ CONFIGURATION ===
	// Load fails on anything it cannot use, e.g. a missing SSC_API_BASE_URL
	// or a malformed CSRF_KEY, so the process never half-starts.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. SET UP LOGGING ===
	// LOG_LEVEL picks the threshold: debug logs every API call, info logs
	// every request.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	if cfg.CSRFKeyGenerated {
		logger.Warn("CSRF_KEY not set; using a random key, open forms break on restart")
	}

	// === 3. CREATE AND START THE SERVER ===
	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT or SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
