package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShutdownCoordinator_ClosesBusAndKVOnly(t *testing.T) {
	t.Parallel()

	f := newFixture()
	c := NewShutdownCoordinator(f.bus, f.kv)

	c.Stop(context.Background(), f.contexts.Build(RoleTask).Logger())

	assert.Equal(t, []string{"close:nats", "close:redis"}, f.log.list())
	assert.Equal(t, []string{"message bus closed", "key value store closed"}, f.messages(t, "INFO"))
}

func TestShutdownCoordinator_Idempotent(t *testing.T) {
	t.Parallel()

	f := newFixture()
	c := NewShutdownCoordinator(f.bus, f.kv)
	logger := f.contexts.Build(RoleWorker).Logger()

	c.Stop(context.Background(), logger)
	c.Stop(context.Background(), logger)
	c.Stop(context.Background(), logger)

	assert.Equal(t, []string{"close:nats", "close:redis"}, f.log.list())
}

func TestShutdownCoordinator_BusCloseErrorStillClosesKV(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.bus.closeErr = errors.New("nats: connection closed")
	c := NewShutdownCoordinator(f.bus, f.kv)

	c.Stop(context.Background(), f.contexts.Build(RoleTask).Logger())

	assert.Equal(t, []string{"close:nats", "close:redis"}, f.log.list())
	assert.Equal(t, []string{"message bus close failed"}, f.messages(t, "WARN"))
}
