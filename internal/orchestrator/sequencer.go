package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

// Connector is the facade over one backend. Connect must leave the backend
// ready for use; retries, if any, are the connector's business.
type Connector interface {
	Name() string
	Connect(ctx context.Context) error
}

// ConnectionKind identifies a backend slot in the initialization order.
type ConnectionKind int

const (
	KindDatabase ConnectionKind = iota
	KindObjectStore
	KindBus
	KindKeyValue
)

func (k ConnectionKind) String() string {
	switch k {
	case KindDatabase:
		return "database"
	case KindObjectStore:
		return "object storage"
	case KindBus:
		return "message bus"
	case KindKeyValue:
		return "key value store"
	default:
		return fmt.Sprintf("backend(%d)", int(k))
	}
}

// Key is the machine-friendly name used for span names, metric attributes and
// health result keys.
func (k ConnectionKind) Key() string {
	switch k {
	case KindDatabase:
		return "database"
	case KindObjectStore:
		return "object_store"
	case KindBus:
		return "bus"
	case KindKeyValue:
		return "kv"
	default:
		return "unknown"
	}
}

// ConnectionDescriptor pairs a backend slot with the connector that fills it.
type ConnectionDescriptor struct {
	Kind      ConnectionKind
	Connector Connector
}

// ConnectionError is returned by Initialize when a backend fails to connect.
// It is always fatal for the process.
type ConnectionError struct {
	Kind ConnectionKind
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s connection failed: %v", e.Kind, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Sequencer connects the four shared backends in a fixed order.
type Sequencer struct {
	steps []ConnectionDescriptor
}

// NewSequencer fixes the order database → object store → bus → key-value.
func NewSequencer(db, objectStore, bus, kv Connector) *Sequencer {
	return &Sequencer{
		steps: []ConnectionDescriptor{
			{Kind: KindDatabase, Connector: db},
			{Kind: KindObjectStore, Connector: objectStore},
			{Kind: KindBus, Connector: bus},
			{Kind: KindKeyValue, Connector: kv},
		},
	}
}

// Initialize runs every connect step in order and stops at the first
// failure, returning a *ConnectionError naming the failed backend. Steps
// already completed are not rolled back. No timeout is applied here: a
// connector that never returns blocks the remaining steps.
func (s *Sequencer) Initialize(ctx context.Context, ectx *ExecutionContext) error {
	logger := ectx.Logger()

	ctx, span := ectx.Tracer().Start(ctx, "initialize")
	defer span.End()

	// A failed instrument registration yields a usable no-op histogram.
	duration, _ := ectx.Meter().Float64Histogram(
		"taskmanager.connect.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Time spent connecting to each backend at startup."),
	)

	for _, step := range s.steps {
		logger.InfoContext(ctx, "connect to "+step.Kind.String(),
			"backend", step.Kind.Key(), "connector", step.Connector.Name())

		stepCtx, stepSpan := ectx.Tracer().Start(ctx, "connect."+step.Kind.Key())
		start := time.Now()
		err := step.Connector.Connect(stepCtx)
		elapsed := time.Since(start)

		status := StatusOK
		if err != nil {
			status = StatusError
			stepSpan.RecordError(err)
			stepSpan.SetStatus(codes.Error, err.Error())
		}
		duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
			attribute.String("backend", step.Kind.Key()),
			attribute.String("status", status),
		))
		stepSpan.End()

		if err != nil {
			logger.ErrorContext(ctx, step.Kind.String()+" connection failed",
				"backend", step.Kind.Key(), "err", err)
			span.SetStatus(codes.Error, step.Kind.Key()+" connection failed")
			return &ConnectionError{Kind: step.Kind, Err: err}
		}

		logger.InfoContext(ctx, step.Kind.String()+" connected",
			"backend", step.Kind.Key(), "latency_ms", elapsed.Milliseconds())
	}

	span.SetStatus(codes.Ok, "")
	return nil
}
