// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package collab provides the real-time mind-map collaboration service.
//
// This package contains the main service type that coordinates all
// components: the room registry, websocket event fanout, the TTL sweep
// scheduler, the BadgerDB archive for expired rooms, and observability
// infrastructure.
//
// # Enterprise Integration
//
// The service supports dependency injection via extensions.ServiceOptions,
// enabling deployments to provide custom implementations of:
//   - AuthProvider: Custom authentication (JWT, API keys)
//   - AuditLogger: Compliance audit logging
//
// # Usage
//
// Open source (uses no-op defaults):
//
//	cfg := collab.Config{Port: 12310}
//	svc, err := collab.New(cfg, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svc.Run()
package collab

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AleutianAI/MindMesh/pkg/extensions"
	"github.com/AleutianAI/MindMesh/pkg/logging"
	"github.com/AleutianAI/MindMesh/services/collab/handlers"
	"github.com/AleutianAI/MindMesh/services/collab/observability"
	"github.com/AleutianAI/MindMesh/services/collab/registry"
	"github.com/AleutianAI/MindMesh/services/collab/routes"
	badgerstore "github.com/AleutianAI/MindMesh/services/collab/storage/badger"
	"github.com/AleutianAI/MindMesh/services/collab/ttl"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Service defines the contract for the collab service.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use. Run() blocks and should
// only be called once per instance.
type Service interface {
	// Run starts the HTTP server and blocks until shutdown or error.
	Run() error

	// Router returns the underlying Gin engine for testing.
	//
	// Callers must not modify the router after construction.
	Router() *gin.Engine

	// Registry returns the room registry, primarily for integration tests
	// that need to seed or inspect rooms directly.
	Registry() *registry.Registry
}

// =============================================================================
// Configuration
// =============================================================================

// Config holds collab service configuration options.
//
// All fields are optional with defaults applied by New().
//
// # Examples
//
//	// Minimal config (uses all defaults)
//	cfg := Config{}
//
//	// Custom port without tracing
//	cfg := Config{Port: 8080, TracingEnabled: false}
type Config struct {
	// Port is the HTTP server port. Default: 12310
	Port int

	// GinMode sets the Gin framework mode.
	// Valid values: "debug", "release", "test"
	// Default: uses GIN_MODE env var or "debug"
	GinMode string

	// OTelEndpoint is the OpenTelemetry collector endpoint.
	// Default: "mindmesh-otel-collector:4317"
	OTelEndpoint string

	// TracingEnabled turns on OTLP trace export. Default: false, since a
	// collector is rarely running on a laptop deployment.
	TracingEnabled bool

	// EnableMetrics enables the Prometheus metrics endpoint.
	EnableMetrics bool

	// RoomTTL is how long a room may sit with no participants and no
	// mutations before the sweep destroys it. Default: 30 minutes.
	RoomTTL time.Duration

	// PresenceIdleAfter is how long a participant may go without activity
	// before the presence sweep evicts them. Default: 5 minutes.
	PresenceIdleAfter time.Duration

	// SweepInterval is how often both sweeps run. Default: 1 minute.
	SweepInterval time.Duration

	// ArchivePath is the BadgerDB directory for expired-room snapshots.
	// Empty disables archiving.
	ArchivePath string

	// SweepLogDir is the directory for the sweep audit log file.
	// Empty disables the file; sweep results still go to slog.
	SweepLogDir string
}

// =============================================================================
// Implementation
// =============================================================================

// service implements Service for production use.
//
// # Thread Safety
//
// Thread-safe after construction. All fields are read-only after New()
// returns; mutable state lives inside the registry, hub, and scheduler.
type service struct {
	config        Config
	opts          extensions.ServiceOptions
	router        *gin.Engine
	registry      *registry.Registry
	hub           *handlers.Hub
	metrics       *observability.CollabMetrics
	archive       *badgerstore.SnapshotStore
	scheduler     *ttl.Scheduler
	sweepLog      *logging.Logger
	tracerCleanup func(context.Context)
}

// =============================================================================
// Constructor
// =============================================================================

// New creates a new collab Service with the given configuration.
//
// # Description
//
// New initializes all components:
//  1. Applies default configuration for missing values
//  2. Initializes OpenTelemetry tracing when enabled
//  3. Initializes Prometheus metrics when enabled
//  4. Opens the BadgerDB archive when a path is configured
//  5. Builds the registry over an in-memory store
//  6. Starts the TTL sweep scheduler
//  7. Sets up HTTP routes with extension options
//
// If opts is nil, DefaultOptions() is used (no-op implementations).
//
// # Outputs
//
//   - Service: Ready-to-run collab service
//   - error: Non-nil if initialization fails
func New(cfg Config, opts *extensions.ServiceOptions) (Service, error) {
	s := &service{
		config: applyConfigDefaults(cfg),
	}

	if opts != nil {
		s.opts = *opts
	} else {
		s.opts = extensions.DefaultOptions()
	}

	if s.config.TracingEnabled {
		cleanup, err := s.initTracer()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize tracer: %w", err)
		}
		s.tracerCleanup = cleanup
	}

	if s.config.EnableMetrics {
		s.metrics = observability.InitMetrics()
		slog.Info("Initialized Prometheus metrics for collab")
	}

	regOpts := []registry.Option{}
	if s.config.ArchivePath != "" {
		archive, err := badgerstore.Open(badgerstore.Config{
			Path:       s.config.ArchivePath,
			SyncWrites: true,
			Logger:     slog.Default(),
		})
		if err != nil {
			s.cleanup()
			return nil, fmt.Errorf("failed to open room archive: %w", err)
		}
		s.archive = archive
		regOpts = append(regOpts, registry.WithArchiver(archive))
		slog.Info("Room archive opened", "path", s.config.ArchivePath)
	}

	s.registry = registry.New(registry.NewMemoryStore(), regOpts...)
	s.hub = handlers.NewHub(s.metrics)

	if err := s.startScheduler(); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to start sweep scheduler: %w", err)
	}

	s.initRouter()

	return s, nil
}

// =============================================================================
// Service Interface Methods
// =============================================================================

// Run starts the HTTP server and blocks until shutdown or error.
// Cleanup is automatic on return.
func (s *service) Run() error {
	defer s.cleanup()

	addr := fmt.Sprintf(":%d", s.config.Port)
	slog.Info("Starting collab server", "port", s.config.Port)

	return s.router.Run(addr)
}

// Router returns the underlying Gin engine for testing.
func (s *service) Router() *gin.Engine {
	return s.router
}

// Registry returns the room registry.
func (s *service) Registry() *registry.Registry {
	return s.registry
}

// =============================================================================
// Private Initialization Methods
// =============================================================================

// applyConfigDefaults fills in missing configuration values.
func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 12310
	}
	if cfg.OTelEndpoint == "" {
		cfg.OTelEndpoint = "mindmesh-otel-collector:4317"
	}
	if cfg.RoomTTL == 0 {
		cfg.RoomTTL = 30 * time.Minute
	}
	if cfg.PresenceIdleAfter == 0 {
		cfg.PresenceIdleAfter = 5 * time.Minute
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = time.Minute
	}
	return cfg
}

// initTracer initializes OpenTelemetry distributed tracing.
//
// Uses an insecure gRPC connection, appropriate for internal networks.
func (s *service) initTracer() (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(s.config.OTelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("collab-service")))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))

	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	cleanup := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}

	return cleanup, nil
}

// startScheduler wires the two background sweeps and starts the ticker.
//
// The expiry sweep notifies websocket subscribers before their room's
// channel closes; the presence sweep pushes eviction events so clients can
// update presence indicators.
func (s *service) startScheduler() error {
	expireRooms := func(ctx context.Context) {
		destroyed := s.registry.SweepExpiredRooms(ctx, s.config.RoomTTL)
		for _, roomID := range destroyed {
			s.hub.DropRoom(roomID)
			if s.metrics != nil {
				s.metrics.RoomsExpiredTotal.Inc()
			}
			_ = s.opts.AuditLogger.Log(ctx, extensions.AuditEvent{
				EventType:    "room.expired",
				Timestamp:    time.Now().UTC(),
				UserID:       "system",
				Action:       "delete",
				ResourceType: "room",
				ResourceID:   roomID,
				Outcome:      "success",
			})
		}
	}

	evictIdle := func(ctx context.Context) {
		evicted := s.registry.SweepIdleParticipants(ctx, s.config.PresenceIdleAfter)
		for roomID, users := range evicted {
			rm, err := s.registry.Get(roomID)
			if err != nil {
				continue
			}
			for _, u := range users {
				user := u
				s.hub.Publish(handlers.Event{
					Type:        handlers.EventParticipantEvicted,
					RoomID:      roomID,
					Version:     rm.Version(),
					UserID:      user.ID,
					Participant: &user,
				})
				if s.metrics != nil {
					s.metrics.ParticipantsEvictedTotal.Inc()
				}
			}
		}
	}

	updateGauges := func(_ context.Context) {
		if s.metrics == nil {
			return
		}
		s.metrics.ActiveRooms.Set(float64(s.registry.Len()))
		total := 0
		for _, roomID := range s.registry.RoomIDs() {
			if rm, err := s.registry.Get(roomID); err == nil {
				total += rm.ParticipantCount()
			}
		}
		s.metrics.ActiveParticipants.Set(float64(total))
	}

	if s.config.SweepLogDir != "" {
		s.sweepLog = logging.New(logging.Config{
			LogDir:  s.config.SweepLogDir,
			Service: "mindmesh_sweeps",
			Quiet:   true,
		})
	}

	cfg := ttl.DefaultSchedulerConfig()
	cfg.Interval = s.config.SweepInterval
	s.scheduler = ttl.NewScheduler(cfg, s.sweepLog, expireRooms, evictIdle, updateGauges)

	return s.scheduler.Start(context.Background())
}

// initRouter sets up the Gin HTTP router with all routes.
func (s *service) initRouter() {
	if s.config.GinMode != "" {
		gin.SetMode(s.config.GinMode)
	}
	s.router = gin.Default()
	if s.config.TracingEnabled {
		s.router.Use(otelgin.Middleware("collab-service"))
	}

	routes.SetupRoutes(s.router, s.registry, s.hub, s.metrics, s.opts)
}

// cleanup releases all resources held by the service.
// Called when Run() exits or on initialization failure.
func (s *service) cleanup() {
	if s.scheduler != nil {
		if err := s.scheduler.Stop(); err != nil {
			slog.Warn("Sweep scheduler stop error", "error", err)
		}
	}
	if s.sweepLog != nil {
		if err := s.sweepLog.Close(); err != nil {
			slog.Warn("Sweep audit log close error", "error", err)
		}
	}
	if s.archive != nil {
		if err := s.archive.Close(); err != nil {
			slog.Warn("Room archive close error", "error", err)
		}
	}
	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
	}
}

// =============================================================================
// Compile-time Interface Compliance
// =============================================================================

var _ Service = (*service)(nil)
