package orchestrator

import (
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// mainServiceName tags log lines emitted before a role is known.
const mainServiceName = "main-service"

// ExecutionContext bundles the role-tagged logging and tracing identity of
// a process. It is built once and shared by pointer; it has no setters.
type ExecutionContext struct {
	role   Role
	name   string
	logger *slog.Logger
	tracer trace.Tracer
	meter  metric.Meter
}

func (c *ExecutionContext) Role() Role { return c.role }
func (c *ExecutionContext) Name() string { return c.name }
func (c *ExecutionContext) Logger() *slog.Logger { return c.logger }
func (c *ExecutionContext) Tracer() trace.Tracer { return c.tracer }
func (c *ExecutionContext) Meter() metric.Meter { return c.meter }

// ContextBuilder produces ExecutionContexts from the process log handler and
// OTEL providers.
type ContextBuilder struct {
	handler        slog.Handler
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// NewContextBuilder returns a builder. Nil providers fall back to the OTEL
// globals, which are no-ops unless telemetry was initialised.
func NewContextBuilder(h slog.Handler, tp trace.TracerProvider, mp metric.MeterProvider) *ContextBuilder {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	return &ContextBuilder{handler: h, tracerProvider: tp, meterProvider: mp}
}

// Build returns a context whose logger, tracer and meter are all named
// "<role>-service". It has no side effects.
func (b *ContextBuilder) Build(role Role) *ExecutionContext {
	name := role.ServiceName()
	return &ExecutionContext{
		role:   role,
		name:   name,
		logger: slog.New(b.handler).With("service", name),
		tracer: b.tracerProvider.Tracer(name),
		meter:  b.meterProvider.Meter(name),
	}
}

// MainLogger is the logger used before dispatch has picked a role.
func (b *ContextBuilder) MainLogger() *slog.Logger {
	return slog.New(b.handler).With("service", mainServiceName)
}
