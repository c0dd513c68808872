package clients

import (
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/Erbium-Sanbercode/22-service-observability/internal/config"
	"github.com/Erbium-Sanbercode/22-service-observability/internal/orchestrator"
)

// ErrNotConnected is reported by Probe before Connect has succeeded.
var ErrNotConnected = errors.New("not connected")

// NewCircuitBreaker returns a gobreaker that trips after cfg.MaxFailures
// consecutive failures and half-opens after cfg.OpenTimeout. Zero values
// fall back to 3 failures and 30 seconds.
func NewCircuitBreaker(name string, cfg config.BreakerConfig) *gobreaker.CircuitBreaker {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = 3
	}
	timeout := cfg.OpenTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
	})
}

// execute runs fn inside cb. A rejection by the open breaker is reported as
// "circuit open: ...".
func execute(cb *gobreaker.CircuitBreaker, fn func() error) error {
	_, err := cb.Execute(func() (any, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) {
		return fmt.Errorf("circuit open: %w", err)
	}
	return err
}

// probe times fn inside cb and folds the outcome into a ProbeResult.
func probe(cb *gobreaker.CircuitBreaker, name string, fn func() error) orchestrator.ProbeResult {
	start := time.Now()

	_, err := cb.Execute(func() (any, error) {
		return nil, fn()
	})

	latency := time.Since(start).Milliseconds()

	if err != nil {
		errMsg := err.Error()
		if errors.Is(err, gobreaker.ErrOpenState) {
			errMsg = "circuit open"
		}
		return orchestrator.ProbeResult{
			Name:      name,
			OK:        false,
			LatencyMs: latency,
			Error:     errMsg,
		}
	}

	return orchestrator.ProbeResult{
		Name:      name,
		OK:        true,
		LatencyMs: latency,
	}
}

// notConnected is the probe result for a facade whose Connect has not
// succeeded yet. It bypasses the breaker.
func notConnected(name string) orchestrator.ProbeResult {
	return orchestrator.ProbeResult{Name: name, OK: false, Error: ErrNotConnected.Error()}
}
