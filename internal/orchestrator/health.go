package orchestrator

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

// Prober is satisfied by every connector in internal/clients.
type Prober interface {
	Probe(ctx context.Context) ProbeResult
}

// Health runs deep health probes against the four shared backends.
type Health struct {
	probers map[ConnectionKind]Prober
}

func NewHealth(db, objectStore, bus, kv Prober) *Health {
	return &Health{
		probers: map[ConnectionKind]Prober{
			KindDatabase:    db,
			KindObjectStore: objectStore,
			KindBus:         bus,
			KindKeyValue:    kv,
		},
	}
}

// RunDeepHealth probes all backends concurrently and returns a map of
// backend key (database, object_store, bus, kv) to ProbeResult. A failing
// probe never cancels its siblings.
func (h *Health) RunDeepHealth(ctx context.Context) map[string]ProbeResult {
	ctx, span := otel.Tracer("task-manager").Start(ctx, "health.deep")
	defer span.End()

	results := make(map[string]ProbeResult, len(h.probers))
	var mu sync.Mutex
	// Plain errgroup: no shared cancellation between probes.
	var g errgroup.Group

	for kind, p := range h.probers {
		kind, p := kind, p
		g.Go(func() error {
			probe := p.Probe(ctx)
			mu.Lock()
			results[kind.Key()] = probe
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()

	healthy := true
	for _, r := range results {
		if !r.OK {
			healthy = false
			break
		}
	}
	span.SetAttributes(attribute.Bool("health.ok", healthy))
	if !healthy {
		span.SetStatus(codes.Error, "one or more backends unhealthy")
	}

	return results
}
