package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock probers ---

type mockProber struct {
	result ProbeResult
}

func (m *mockProber) Probe(_ context.Context) ProbeResult { return m.result }

// slowProber blocks until released, used to show probes run concurrently.
type slowProber struct {
	entered chan struct{}
	release chan struct{}
}

func (s *slowProber) Probe(_ context.Context) ProbeResult {
	s.entered <- struct{}{}
	<-s.release
	return ProbeResult{Name: "slow", OK: true}
}

func ok(name string) *mockProber {
	return &mockProber{result: ProbeResult{Name: name, OK: true}}
}

func failing(name, msg string) *mockProber {
	return &mockProber{result: ProbeResult{Name: name, OK: false, Error: msg}}
}

// --- tests ---

func TestRunDeepHealth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		db     Prober
		store  Prober
		bus    Prober
		kv     Prober
		wantOK map[string]bool
	}{
		{
			name:  "all healthy",
			db:    ok("postgres"),
			store: ok("minio"),
			bus:   ok("nats"),
			kv:    ok("redis"),
			wantOK: map[string]bool{
				"database":     true,
				"object_store": true,
				"bus":          true,
				"kv":           true,
			},
		},
		{
			name:  "object store unhealthy",
			db:    ok("postgres"),
			store: failing("minio", "bucket task-manager missing"),
			bus:   ok("nats"),
			kv:    ok("redis"),
			wantOK: map[string]bool{
				"database":     true,
				"object_store": false,
				"bus":          true,
				"kv":           true,
			},
		},
		{
			name:  "all unhealthy",
			db:    failing("postgres", "down"),
			store: failing("minio", "down"),
			bus:   failing("nats", "down"),
			kv:    failing("redis", "down"),
			wantOK: map[string]bool{
				"database":     false,
				"object_store": false,
				"bus":          false,
				"kv":           false,
			},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			h := NewHealth(tc.db, tc.store, tc.bus, tc.kv)
			results := h.RunDeepHealth(context.Background())

			assert.Len(t, results, 4)
			for key, wantOK := range tc.wantOK {
				probe, found := results[key]
				require.True(t, found, "expected result for %q", key)
				assert.Equal(t, wantOK, probe.OK, "probe %q OK mismatch", key)
			}
		})
	}
}

func TestRunDeepHealth_Concurrent(t *testing.T) {
	t.Parallel()

	entered := make(chan struct{}, 4)
	release := make(chan struct{})
	slow := func() *slowProber { return &slowProber{entered: entered, release: release} }

	h := NewHealth(slow(), slow(), slow(), slow())

	done := make(chan map[string]ProbeResult, 1)
	go func() { done <- h.RunDeepHealth(context.Background()) }()

	// All four probes must be in flight at once before any is released.
	for i := 0; i < 4; i++ {
		select {
		case <-entered:
		case <-time.After(2 * time.Second):
			t.Fatal("probes did not run concurrently")
		}
	}
	close(release)

	results := <-done
	assert.Len(t, results, 4)
}
