package orchestrator

import (
	"context"
	"log/slog"
	"sync"
)

// Closer releases a backend connection.
type Closer interface {
	Name() string
	Close(ctx context.Context) error
}

// ShutdownFunc is handed to the active role server, which calls it once
// when it decides to stop.
type ShutdownFunc func(ctx context.Context)

// ShutdownCoordinator closes the message-bus and key-value connections.
// The database pool and object-store client are not its concern: the
// launcher releases the pool after the role server returns, and the
// object-store client holds no connection.
type ShutdownCoordinator struct {
	bus  Closer
	kv   Closer
	once sync.Once
}

func NewShutdownCoordinator(bus, kv Closer) *ShutdownCoordinator {
	return &ShutdownCoordinator{bus: bus, kv: kv}
}

// Stop closes the bus, then the key-value store. Close errors are logged and
// do not stop the second close. Calls after the first are no-ops.
func (c *ShutdownCoordinator) Stop(ctx context.Context, logger *slog.Logger) {
	c.once.Do(func() {
		steps := []struct {
			kind   ConnectionKind
			closer Closer
		}{
			{KindBus, c.bus},
			{KindKeyValue, c.kv},
		}
		for _, s := range steps {
			if err := s.closer.Close(ctx); err != nil {
				logger.WarnContext(ctx, s.kind.String()+" close failed",
					"backend", s.kind.Key(), "connector", s.closer.Name(), "err", err)
				continue
			}
			logger.InfoContext(ctx, s.kind.String()+" closed", "backend", s.kind.Key())
		}
	})
}
