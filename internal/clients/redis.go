package clients

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/Erbium-Sanbercode/22-service-observability/internal/config"
	"github.com/Erbium-Sanbercode/22-service-observability/internal/orchestrator"
)

const redisName = "redis"

// redisPinger is the interface used by RedisClient. It is implemented by the
// real go-redis client and by test doubles.
type redisPinger interface {
	PingResult(ctx context.Context) (string, error)
	Close() error
}

// realRedisPinger adapts *redis.Client so tests can inject a fake without
// constructing a *redis.StatusCmd.
type realRedisPinger struct {
	client *redis.Client
}

func (r *realRedisPinger) PingResult(ctx context.Context) (string, error) {
	return r.client.Ping(ctx).Result()
}

func (r *realRedisPinger) Close() error {
	return r.client.Close()
}

// RedisClient is the key-value store facade.
type RedisClient struct {
	cfg       config.KVConfig
	cb        *gobreaker.CircuitBreaker
	newPinger func(cfg config.KVConfig) redisPinger

	mu     sync.RWMutex
	pinger redisPinger
}

// NewRedisClient creates a RedisClient. No connection is opened until Connect.
func NewRedisClient(cfg config.KVConfig, cb *gobreaker.CircuitBreaker) *RedisClient {
	return &RedisClient{
		cfg:       cfg,
		cb:        cb,
		newPinger: newRealPinger,
	}
}

func (c *RedisClient) Name() string { return redisName }

// Connect builds the client and requires PING to answer PONG. On failure the
// client is closed and discarded.
func (c *RedisClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pinger != nil {
		return nil
	}

	return execute(c.cb, func() error {
		p := c.newPinger(c.cfg)
		if err := ping(ctx, p); err != nil {
			p.Close() //nolint:errcheck
			return err
		}
		c.pinger = p
		return nil
	})
}

// Close closes the client. Closing an unconnected client is a no-op.
func (c *RedisClient) Close(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pinger == nil {
		return nil
	}
	err := c.pinger.Close()
	c.pinger = nil
	if err != nil {
		return fmt.Errorf("closing redis client: %w", err)
	}
	return nil
}

// Probe sends a PING over the established client.
func (c *RedisClient) Probe(ctx context.Context) orchestrator.ProbeResult {
	c.mu.RLock()
	p := c.pinger
	c.mu.RUnlock()

	if p == nil {
		return notConnected(redisName)
	}

	return probe(c.cb, redisName, func() error {
		return ping(ctx, p)
	})
}

func ping(ctx context.Context, p redisPinger) error {
	val, err := p.PingResult(ctx)
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	if val != "PONG" {
		return fmt.Errorf("unexpected PING response: %q", val)
	}
	return nil
}

func newRealPinger(cfg config.KVConfig) redisPinger {
	return &realRedisPinger{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr(),
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
	}
}
