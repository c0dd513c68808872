package clients

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sony/gobreaker"

	"github.com/Erbium-Sanbercode/22-service-observability/internal/config"
	"github.com/Erbium-Sanbercode/22-service-observability/internal/orchestrator"
)

const natsName = "nats"

// streamSpec describes a single JetStream stream to provision.
type streamSpec struct {
	name      string
	subjects  []string
	retention nats.RetentionPolicy
	maxAge    time.Duration
}

// requiredStreams lists the streams the task platform publishes to, one per
// role.
var requiredStreams = []streamSpec{
	{
		name:      "TASKS",
		subjects:  []string{"task.>"},
		retention: nats.WorkQueuePolicy,
		maxAge:    168 * time.Hour,
	},
	{
		name:      "WORKERS",
		subjects:  []string{"worker.>"},
		retention: nats.LimitsPolicy,
		maxAge:    168 * time.Hour,
	},
	{
		name:      "PERFORMANCE",
		subjects:  []string{"performance.>"},
		retention: nats.LimitsPolicy,
		maxAge:    24 * time.Hour,
	},
}

// jsContext is the subset of nats.JetStreamContext used in stream management.
type jsContext interface {
	StreamInfo(stream string, opts ...nats.JSOpt) (*nats.StreamInfo, error)
	AddStream(cfg *nats.StreamConfig, opts ...nats.JSOpt) (*nats.StreamInfo, error)
	UpdateStream(cfg *nats.StreamConfig, opts ...nats.JSOpt) (*nats.StreamInfo, error)
}

// NATSClient owns the process's single bus connection. Connect opens it and
// provisions the streams; Close drains it.
type NATSClient struct {
	cfg  config.BusConfig
	cb   *gobreaker.CircuitBreaker
	dial func(cfg config.BusConfig) (jsContext, func() error, error)

	mu      sync.RWMutex
	js      jsContext
	closeFn func() error
}

// NewNATSClient constructs a NATSClient. No connection is made until Connect.
func NewNATSClient(cfg config.BusConfig, cb *gobreaker.CircuitBreaker) *NATSClient {
	return &NATSClient{
		cfg:  cfg,
		cb:   cb,
		dial: dialJetStream,
	}
}

func (c *NATSClient) Name() string { return natsName }

// Connect opens the connection and creates or updates the required streams.
// If provisioning fails the connection is closed again.
func (c *NATSClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.js != nil {
		return nil
	}

	return execute(c.cb, func() error {
		js, closeFn, err := c.dial(c.cfg)
		if err != nil {
			return fmt.Errorf("connecting to NATS: %w", err)
		}

		for _, spec := range requiredStreams {
			if err := ctx.Err(); err != nil {
				closeFn() //nolint:errcheck
				return err
			}
			if err := provisionStream(js, spec); err != nil {
				closeFn() //nolint:errcheck
				return err
			}
		}

		c.js = js
		c.closeFn = closeFn
		return nil
	})
}

// Close drains the connection. Closing an unconnected client is a no-op.
func (c *NATSClient) Close(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closeFn == nil {
		return nil
	}
	err := c.closeFn()
	c.js = nil
	c.closeFn = nil
	if err != nil {
		return fmt.Errorf("draining NATS connection: %w", err)
	}
	return nil
}

// Probe asks JetStream for the first stream. A missing stream is not a
// failure; the server answering is what matters.
func (c *NATSClient) Probe(_ context.Context) orchestrator.ProbeResult {
	c.mu.RLock()
	js := c.js
	c.mu.RUnlock()

	if js == nil {
		return notConnected(natsName)
	}

	return probe(c.cb, natsName, func() error {
		_, err := js.StreamInfo(requiredStreams[0].name)
		if err != nil && !errors.Is(err, nats.ErrStreamNotFound) {
			return fmt.Errorf("stream info: %w", err)
		}
		return nil
	})
}

// provisionStream creates the stream if it does not exist, or updates it if it
// does. nats.ErrStreamNotFound signals "create"; any other error is returned.
func provisionStream(js jsContext, spec streamSpec) error {
	cfg := &nats.StreamConfig{
		Name:      spec.name,
		Subjects:  spec.subjects,
		Retention: spec.retention,
		MaxAge:    spec.maxAge,
	}

	_, err := js.StreamInfo(spec.name)
	switch {
	case errors.Is(err, nats.ErrStreamNotFound):
		if _, addErr := js.AddStream(cfg); addErr != nil {
			return fmt.Errorf("creating stream %s: %w", spec.name, addErr)
		}
	case err != nil:
		return fmt.Errorf("querying stream %s: %w", spec.name, err)
	default:
		if _, updErr := js.UpdateStream(cfg); updErr != nil {
			return fmt.Errorf("updating stream %s: %w", spec.name, updErr)
		}
	}
	return nil
}

// dialJetStream opens a real NATS connection and returns its JetStream context
// plus a function that drains the connection.
func dialJetStream(cfg config.BusConfig) (jsContext, func() error, error) {
	nc, err := nats.Connect(cfg.URL, nats.Name(cfg.Name))
	if err != nil {
		return nil, nil, fmt.Errorf("nats connect %s: %w", cfg.URL, err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("nats jetstream context: %w", err)
	}

	return js, nc.Drain, nil
}
