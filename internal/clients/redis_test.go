package clients

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Erbium-Sanbercode/22-service-observability/internal/config"
)

// mockRedisPinger is a test double for redisPinger.
type mockRedisPinger struct {
	pingVal  string
	pingErr  error
	closeErr error
	closed   int
}

func (m *mockRedisPinger) PingResult(_ context.Context) (string, error) {
	return m.pingVal, m.pingErr
}

func (m *mockRedisPinger) Close() error {
	m.closed++
	return m.closeErr
}

func makeRedisClient(p *mockRedisPinger, name string) *RedisClient {
	return &RedisClient{
		cb:        newTestBreaker(name),
		newPinger: func(_ config.KVConfig) redisPinger { return p },
	}
}

func TestRedisConnect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		pingVal    string
		pingErr    error
		wantErrSub string
	}{
		{
			name:    "success: PING returns PONG",
			pingVal: "PONG",
		},
		{
			name:       "failure: PING returns error",
			pingErr:    errors.New("connection refused"),
			wantErrSub: "connection refused",
		},
		{
			name:       "failure: PING returns unexpected value",
			pingVal:    "WHOOPS",
			wantErrSub: "unexpected PING response",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mock := &mockRedisPinger{pingVal: tc.pingVal, pingErr: tc.pingErr}
			client := makeRedisClient(mock, "redis-connect-"+tc.name)

			err := client.Connect(context.Background())

			if tc.wantErrSub == "" {
				require.NoError(t, err)
				assert.Zero(t, mock.closed)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErrSub)
			assert.Equal(t, 1, mock.closed, "failed client must be closed")
		})
	}
}

func TestRedisProbe(t *testing.T) {
	t.Parallel()

	t.Run("not connected", func(t *testing.T) {
		t.Parallel()
		client := makeRedisClient(&mockRedisPinger{pingVal: "PONG"}, "redis-probe-nc")
		result := client.Probe(context.Background())
		assert.Equal(t, redisName, result.Name)
		assert.False(t, result.OK)
		assert.Equal(t, "not connected", result.Error)
	})

	t.Run("healthy", func(t *testing.T) {
		t.Parallel()
		client := makeRedisClient(&mockRedisPinger{pingVal: "PONG"}, "redis-probe-ok")
		require.NoError(t, client.Connect(context.Background()))
		result := client.Probe(context.Background())
		assert.True(t, result.OK)
		assert.Empty(t, result.Error)
	})

	t.Run("server went away", func(t *testing.T) {
		t.Parallel()
		mock := &mockRedisPinger{pingVal: "PONG"}
		client := makeRedisClient(mock, "redis-probe-gone")
		require.NoError(t, client.Connect(context.Background()))

		mock.pingErr = errors.New("EOF")
		result := client.Probe(context.Background())
		assert.False(t, result.OK)
		assert.Contains(t, result.Error, "EOF")
	})
}

func TestRedisProbeCircuitBreaker_OpensAfterThreeFailures(t *testing.T) {
	t.Parallel()

	mock := &mockRedisPinger{pingVal: "PONG"}
	client := makeRedisClient(mock, "redis-cb-open-test")
	require.NoError(t, client.Connect(context.Background()))
	mock.pingErr = errors.New("connection refused")

	// Three consecutive failures should trip the breaker.
	for i := 0; i < 3; i++ {
		result := client.Probe(context.Background())
		assert.False(t, result.OK, "probe %d should fail", i+1)
		assert.NotEqual(t, "circuit open", result.Error,
			"probe %d should not be circuit-open yet", i+1)
	}

	// The 4th call must be rejected immediately by the open breaker.
	result := client.Probe(context.Background())
	assert.False(t, result.OK)
	assert.Equal(t, "circuit open", result.Error)
}

func TestRedisClose(t *testing.T) {
	t.Parallel()

	mock := &mockRedisPinger{pingVal: "PONG"}
	client := makeRedisClient(mock, "redis-close")
	require.NoError(t, client.Connect(context.Background()))

	require.NoError(t, client.Close(context.Background()))
	require.NoError(t, client.Close(context.Background()))
	assert.Equal(t, 1, mock.closed)

	mockErr := &mockRedisPinger{pingVal: "PONG", closeErr: errors.New("already closed")}
	failing := makeRedisClient(mockErr, "redis-close-err")
	require.NoError(t, failing.Connect(context.Background()))
	assert.ErrorContains(t, failing.Close(context.Background()), "already closed")
}

func TestNewRedisClient(t *testing.T) {
	t.Parallel()

	client := NewRedisClient(config.KVConfig{Host: "localhost", Port: 6379}, newTestBreaker("redis-new"))
	assert.Equal(t, "redis", client.Name())
	assert.NotNil(t, client.newPinger)
}
