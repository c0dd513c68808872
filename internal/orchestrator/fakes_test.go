package orchestrator

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// callLog records connector and server calls in the order they happen.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// fakeConnector stands in for one backend facade.
type fakeConnector struct {
	name       string
	log        *callLog
	connectErr error
	closeErr   error
	probe      ProbeResult
}

func (f *fakeConnector) Name() string { return f.name }

func (f *fakeConnector) Connect(_ context.Context) error {
	f.log.add("connect:" + f.name)
	return f.connectErr
}

func (f *fakeConnector) Close(_ context.Context) error {
	f.log.add("close:" + f.name)
	return f.closeErr
}

func (f *fakeConnector) Probe(_ context.Context) ProbeResult {
	if f.probe.Name == "" {
		return ProbeResult{Name: f.name, OK: true}
	}
	return f.probe
}

// fakeServer stands in for a role server.
type fakeServer struct {
	name      string
	log       *callLog
	calls     int
	got       *ExecutionContext
	stopOnRun bool
	err       error
}

func (s *fakeServer) Run(ctx context.Context, ectx *ExecutionContext, stop ShutdownFunc) error {
	s.calls++
	s.got = ectx
	s.log.add("run:" + s.name)
	if s.stopOnRun {
		stop(ctx)
	}
	return s.err
}

// fixture wires a Dispatcher from fakes, capturing logs and spans.
type fixture struct {
	log      *callLog
	out      *bytes.Buffer
	recorder *tracetest.SpanRecorder

	db, store, bus, kv *fakeConnector
	task, worker, perf *fakeServer

	contexts *ContextBuilder
}

func newFixture() *fixture {
	log := &callLog{}
	out := &bytes.Buffer{}
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug})

	return &fixture{
		log:      log,
		out:      out,
		recorder: recorder,
		db:       &fakeConnector{name: "postgres", log: log},
		store:    &fakeConnector{name: "minio", log: log},
		bus:      &fakeConnector{name: "nats", log: log},
		kv:       &fakeConnector{name: "redis", log: log},
		task:     &fakeServer{name: "task", log: log, stopOnRun: true},
		worker:   &fakeServer{name: "worker", log: log, stopOnRun: true},
		perf:     &fakeServer{name: "performance", log: log, stopOnRun: true},
		contexts: NewContextBuilder(handler, tp, nil),
	}
}

func (f *fixture) sequencer() *Sequencer {
	return NewSequencer(f.db, f.store, f.bus, f.kv)
}

func (f *fixture) dispatcher() *Dispatcher {
	return NewDispatcher(
		f.contexts,
		f.sequencer(),
		NewShutdownCoordinator(f.bus, f.kv),
		NewHealth(f.db, f.store, f.bus, f.kv),
		RoleServers{Task: f.task, Worker: f.worker, Performance: f.perf},
	)
}

func (f *fixture) totalRuns() int {
	return f.task.calls + f.worker.calls + f.perf.calls
}

// logLines decodes every JSON log line written so far.
func (f *fixture) logLines(t *testing.T) []map[string]any {
	t.Helper()

	var lines []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(f.out.Bytes()))
	for sc.Scan() {
		var line map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &line))
		lines = append(lines, line)
	}
	return lines
}

// messages returns the msg field of every log line at the given level.
func (f *fixture) messages(t *testing.T, level string) []string {
	t.Helper()

	var msgs []string
	for _, line := range f.logLines(t) {
		if line["level"] == level {
			msgs = append(msgs, line["msg"].(string))
		}
	}
	return msgs
}
