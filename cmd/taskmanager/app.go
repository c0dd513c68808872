package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/Erbium-Sanbercode/22-service-observability/internal/clients"
	"github.com/Erbium-Sanbercode/22-service-observability/internal/config"
	"github.com/Erbium-Sanbercode/22-service-observability/internal/orchestrator"
	"github.com/Erbium-Sanbercode/22-service-observability/internal/service"
	"github.com/Erbium-Sanbercode/22-service-observability/internal/telemetry"
)

// AppContext holds every constructed dependency of one process run.
type AppContext struct {
	cfg          *config.Config
	otelProvider *telemetry.Provider
	postgres     *clients.PostgresClient
	dispatcher   *orchestrator.Dispatcher
}

// buildAppContext wires the process:
//  1. Initialises the OTEL provider (best-effort, non-fatal)
//  2. Creates one circuit breaker per backend
//  3. Creates the four backend facades
//  4. Creates the sequencer, shutdown coordinator and health prober
//  5. Creates the role servers and the dispatcher
//
// serviceName only labels the OTEL resource; the dispatcher still validates
// the role token itself.
func buildAppContext(ctx context.Context, cfg *config.Config, handler slog.Handler, serviceName string) *AppContext {
	app := &AppContext{cfg: cfg}

	// When OTLPEndpoint is empty, telemetry is disabled entirely. This avoids
	// the SDK's periodic-reader noise when no collector is running locally.
	if cfg.Telemetry.OTLPEndpoint == "" {
		slog.Debug("OTEL telemetry disabled (no endpoint configured)")
	} else {
		tp, err := telemetry.InitProvider(ctx, cfg.Telemetry.OTLPEndpoint, serviceName, cfg.Telemetry.OTLPInsecure)
		if err != nil {
			slog.Warn("OTEL provider init failed, telemetry disabled", "err", err)
		} else {
			app.otelProvider = tp
			// Fan out: keep stdout and add OTEL logs.
			handler = telemetry.NewTeeHandler(handler, tp.LogHandler)
			slog.SetDefault(slog.New(handler))
		}
	}

	// One circuit breaker per backend so each dependency trips independently.
	pg := clients.NewPostgresClient(cfg.Database, clients.NewCircuitBreaker("postgres", cfg.Breaker))
	objects := clients.NewObjectStoreClient(cfg.ObjectStore, clients.NewCircuitBreaker("minio", cfg.Breaker))
	bus := clients.NewNATSClient(cfg.Bus, clients.NewCircuitBreaker("nats", cfg.Breaker))
	kv := clients.NewRedisClient(cfg.KV, clients.NewCircuitBreaker("redis", cfg.Breaker))

	app.postgres = pg

	contexts := orchestrator.NewContextBuilder(handler, app.otelProvider.TracerProvider(), nil)
	sequencer := orchestrator.NewSequencer(pg, objects, bus, kv)
	coordinator := orchestrator.NewShutdownCoordinator(bus, kv)
	health := orchestrator.NewHealth(pg, objects, bus, kv)

	servers := orchestrator.RoleServers{
		Task:        service.NewServer(cfg.Server, cfg.Roles.Task, health),
		Worker:      service.NewServer(cfg.Server, cfg.Roles.Worker, health),
		Performance: service.NewServer(cfg.Server, cfg.Roles.Performance, health),
	}

	app.dispatcher = orchestrator.NewDispatcher(contexts, sequencer, coordinator, health, servers)
	return app
}

// close releases the database pool and flushes telemetry. The bus and key
// value connections belong to the shutdown coordinator.
func (a *AppContext) close() {
	a.postgres.Release()

	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.otelProvider.Shutdown(shutCtx); err != nil {
		slog.Warn("OTEL shutdown error", "err", err)
	}
}

// resourceName picks the OTEL service name before dispatch has run.
func resourceName(token string) string {
	role, err := orchestrator.ParseRole(token)
	if err != nil {
		return "main-service"
	}
	return role.ServiceName()
}
