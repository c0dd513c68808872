package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
)

// RoleServer is the entry point of one service role. Run blocks until the
// server decides to stop; it must call stop exactly once on its way out.
type RoleServer interface {
	Run(ctx context.Context, ectx *ExecutionContext, stop ShutdownFunc) error
}

// RoleServers holds one server per role.
type RoleServers struct {
	Task        RoleServer
	Worker      RoleServer
	Performance RoleServer
}

// Dispatcher selects one role from a command token, brings up the shared
// backends and hands control to that role's server.
type Dispatcher struct {
	contexts    *ContextBuilder
	sequencer   *Sequencer
	coordinator *ShutdownCoordinator
	health      *Health
	servers     RoleServers

	state atomic.Int32
}

func NewDispatcher(
	contexts *ContextBuilder,
	sequencer *Sequencer,
	coordinator *ShutdownCoordinator,
	health *Health,
	servers RoleServers,
) *Dispatcher {
	return &Dispatcher{
		contexts:    contexts,
		sequencer:   sequencer,
		coordinator: coordinator,
		health:      health,
		servers:     servers,
	}
}

// State reports where the process is in its lifecycle.
func (d *Dispatcher) State() State {
	return State(d.state.Load())
}

// Dispatch runs the role named by token. It returns an
// *UnrecognizedRoleError without touching any backend when the token names
// no role, a *ConnectionError when a backend fails to come up, or whatever
// the role server's Run returns.
func (d *Dispatcher) Dispatch(ctx context.Context, token string) error {
	ectx, srv, err := d.prepare(ctx, token)
	if err != nil {
		return err
	}

	d.state.Store(int32(StateRunning))
	ectx.Logger().InfoContext(ctx, "starting "+ectx.Name())

	if err := srv.Run(ctx, ectx, d.stopFunc(ectx)); err != nil {
		d.state.CompareAndSwap(int32(StateRunning), int32(StateFailed))
		return fmt.Errorf("%s: %w", ectx.Name(), err)
	}
	return nil
}

// Check validates token, brings up every backend, probes each one and then
// releases the bus and key-value connections. No role server is started.
func (d *Dispatcher) Check(ctx context.Context, token string) (*CheckResult, error) {
	ectx, _, err := d.prepare(ctx, token)
	if err != nil {
		return nil, err
	}

	d.state.Store(int32(StateRunning))
	probes := d.health.RunDeepHealth(ctx)
	d.stopFunc(ectx)(ctx)

	result := &CheckResult{Status: StatusOK, Service: ectx.Name(), Backends: probes}
	for _, p := range probes {
		if !p.OK {
			result.Status = StatusError
			break
		}
	}
	return result, nil
}

// prepare covers Dispatching and Initializing: parse the token, build the
// role context, connect the backends.
func (d *Dispatcher) prepare(ctx context.Context, token string) (*ExecutionContext, RoleServer, error) {
	d.state.Store(int32(StateDispatching))

	role, err := ParseRole(token)
	if err != nil {
		d.diagnose(ctx, err)
		d.state.Store(int32(StateFailed))
		return nil, nil, err
	}

	srv, err := d.server(role)
	if err != nil {
		d.state.Store(int32(StateFailed))
		return nil, nil, err
	}

	ectx := d.contexts.Build(role)

	d.state.Store(int32(StateInitializing))
	if err := d.sequencer.Initialize(ctx, ectx); err != nil {
		d.state.Store(int32(StateFailed))
		return nil, nil, err
	}

	return ectx, srv, nil
}

func (d *Dispatcher) server(role Role) (RoleServer, error) {
	var srv RoleServer
	switch role {
	case RoleTask:
		srv = d.servers.Task
	case RoleWorker:
		srv = d.servers.Worker
	case RolePerformance:
		srv = d.servers.Performance
	case RoleUnknown:
		return nil, &UnrecognizedRoleError{}
	}
	if srv == nil {
		return nil, fmt.Errorf("no server registered for role %s", role)
	}
	return srv, nil
}

func (d *Dispatcher) stopFunc(ectx *ExecutionContext) ShutdownFunc {
	return func(ctx context.Context) {
		d.state.CompareAndSwap(int32(StateRunning), int32(StateStopping))
		d.coordinator.Stop(ctx, ectx.Logger())
		d.state.CompareAndSwap(int32(StateStopping), int32(StateStopped))
	}
}

func (d *Dispatcher) diagnose(ctx context.Context, err error) {
	logger := d.contexts.MainLogger()

	var roleErr *UnrecognizedRoleError
	if !errors.As(err, &roleErr) {
		logger.ErrorContext(ctx, "dispatch failed", "err", err)
		return
	}
	logger.InfoContext(ctx, roleErr.Received()+" not recognized", "token", roleErr.Token)
	logger.InfoContext(ctx, "valid commands: "+strings.Join(ValidTokens(), ", "))
}
