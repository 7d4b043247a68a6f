// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command mindmesh starts the MindMesh collaboration HTTP server.
//
// This is the main entry point for the containerized collab service.
// It reads configuration from environment variables and starts the server.
//
// # Environment Variables
//
//   - MINDMESH_PORT: HTTP server port (default: 12310)
//   - MINDMESH_ROOM_TTL: idle room lifetime, Go duration (default: 30m)
//   - MINDMESH_PRESENCE_IDLE: participant idle eviction, Go duration (default: 5m)
//   - MINDMESH_SWEEP_INTERVAL: sweep cadence, Go duration (default: 1m)
//   - MINDMESH_ARCHIVE_PATH: BadgerDB directory for expired-room snapshots (optional)
//   - MINDMESH_SWEEP_LOG_DIR: directory for the sweep audit log (default: ./logs)
//   - MINDMESH_TRACING: "true" enables OTLP trace export (default: false)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OpenTelemetry collector (default: mindmesh-otel-collector:4317)
//
// # Usage
//
//	# Build
//	go build -o mindmesh ./cmd/mindmesh
//
//	# Run
//	./mindmesh
package main

import (
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/AleutianAI/MindMesh/services/collab"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Build configuration from environment variables
	cfg := collab.Config{
		Port:              getEnvInt("MINDMESH_PORT", 12310),
		RoomTTL:           getEnvDuration("MINDMESH_ROOM_TTL", 30*time.Minute),
		PresenceIdleAfter: getEnvDuration("MINDMESH_PRESENCE_IDLE", 5*time.Minute),
		SweepInterval:     getEnvDuration("MINDMESH_SWEEP_INTERVAL", time.Minute),
		ArchivePath:       os.Getenv("MINDMESH_ARCHIVE_PATH"),
		SweepLogDir:       getEnvString("MINDMESH_SWEEP_LOG_DIR", "./logs"),
		TracingEnabled:    getEnvBool("MINDMESH_TRACING", false),
		OTelEndpoint:      getEnvString("OTEL_EXPORTER_OTLP_ENDPOINT", "mindmesh-otel-collector:4317"),
		EnableMetrics:     true,
	}

	slog.Info("Starting mindmesh",
		"port", cfg.Port,
		"room_ttl", cfg.RoomTTL.String(),
		"presence_idle", cfg.PresenceIdleAfter.String(),
		"archive_path", cfg.ArchivePath,
	)

	// Create the service with default (no-op) extension options.
	// Enterprise builds will pass custom ServiceOptions here.
	svc, err := collab.New(cfg, nil)
	if err != nil {
		log.Fatalf("Failed to create collab service: %v", err)
	}

	// Run the server (blocks until shutdown)
	if err := svc.Run(); err != nil {
		log.Fatalf("Collab service error: %v", err)
	}
}

// getEnvString returns the environment variable value or a default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns the environment variable as a duration or a default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvBool returns the environment variable as bool or a default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
