// Package service hosts the role servers. The task, worker and performance
// roles share one HTTP server implementation, parametrized by the role's
// execution context and listen port.
package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Erbium-Sanbercode/22-service-observability/internal/api"
	"github.com/Erbium-Sanbercode/22-service-observability/internal/config"
	"github.com/Erbium-Sanbercode/22-service-observability/internal/orchestrator"
)

const defaultShutdownTimeout = 30 * time.Second

// Health runs the deep health probes served on /health/deep.
type Health interface {
	RunDeepHealth(ctx context.Context) map[string]orchestrator.ProbeResult
}

// Server is a role server. It satisfies orchestrator.RoleServer.
type Server struct {
	cfg    config.ServerConfig
	port   int
	health Health
	listen func(network, address string) (net.Listener, error)
}

func NewServer(cfg config.ServerConfig, role config.RoleConfig, health Health) *Server {
	return &Server{
		cfg:    cfg,
		port:   role.Port,
		health: health,
		listen: net.Listen,
	}
}

// Run serves HTTP until ctx is cancelled or the listener fails, drains
// in-flight requests and then calls stop. stop is called exactly once on
// every return path, including a failed listen.
func (s *Server) Run(ctx context.Context, ectx *orchestrator.ExecutionContext, stop orchestrator.ShutdownFunc) error {
	logger := ectx.Logger()

	router := api.NewRouter(logger, api.Info{
		Role:      ectx.Role().String(),
		Service:   ectx.Name(),
		StartedAt: time.Now().UTC(),
	}, s.health)

	addr := fmt.Sprintf(":%d", s.port)
	ln, err := s.listen("tcp", addr)
	if err != nil {
		stop(context.WithoutCancel(ctx))
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:      router.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	router.SetReady(true)
	logger.InfoContext(ctx, ectx.Name()+" listening", "addr", ln.Addr().String())

	var runErr error
	select {
	case err := <-serverErr:
		runErr = fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.InfoContext(ctx, "shutdown signal received")
	}

	router.SetReady(false)

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := srv.Shutdown(shutCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("graceful shutdown failed: %w", err)
	}

	stop(shutCtx)

	if runErr != nil {
		return runErr
	}
	logger.InfoContext(shutCtx, ectx.Name()+" stopped cleanly")
	return nil
}
