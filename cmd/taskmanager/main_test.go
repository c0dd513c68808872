package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Erbium-Sanbercode/22-service-observability/internal/orchestrator"
)

// These tests drive the shared rootCmd and package globals, so they do not
// run in parallel.

func TestRootCommand_UnrecognizedRoleExitsTwo(t *testing.T) {
	for _, args := range [][]string{{"unknown"}, {}, {"Task"}, {"--check", "unknown"}} {
		args := args
		t.Run(fmt.Sprint(args), func(t *testing.T) {
			checkOnly = false
			rootCmd.SetArgs(args)

			err := rootCmd.Execute()

			var roleErr *orchestrator.UnrecognizedRoleError
			require.ErrorAs(t, err, &roleErr)
			assert.Equal(t, orchestrator.ExitUnrecognizedRole, orchestrator.ExitCode(err))
			assert.True(t, reported(err))
		})
	}
	checkOnly = false
}

func TestRootCommand_TooManyArgs(t *testing.T) {
	rootCmd.SetArgs([]string{"task", "worker"})

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Equal(t, orchestrator.ExitFailure, orchestrator.ExitCode(err))
	assert.False(t, reported(err))
}

func TestResourceName(t *testing.T) {
	assert.Equal(t, "task-service", resourceName("task"))
	assert.Equal(t, "performance-service", resourceName("performance"))
	assert.Equal(t, "main-service", resourceName("bogus"))
	assert.Equal(t, "main-service", resourceName(""))
}

func TestTokenArg(t *testing.T) {
	assert.Equal(t, "", tokenArg(nil))
	assert.Equal(t, "worker", tokenArg([]string{"worker"}))
}

func TestReported(t *testing.T) {
	connErr := &orchestrator.ConnectionError{Kind: orchestrator.KindBus, Err: errors.New("refused")}
	assert.True(t, reported(fmt.Errorf("wrapped: %w", connErr)))
	assert.True(t, reported(&orchestrator.UnrecognizedRoleError{Token: "x"}))
	assert.False(t, reported(errCheckFailed))
}

func TestPrintCheckResult(t *testing.T) {
	var buf bytes.Buffer
	printCheckResult(&buf, &orchestrator.CheckResult{
		Status:  orchestrator.StatusError,
		Service: "worker-service",
		Backends: map[string]orchestrator.ProbeResult{
			"kv": {Name: "redis", OK: false, Error: "circuit open"},
		},
	})

	var got orchestrator.CheckResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "error", got.Status)
	assert.Equal(t, "worker-service", got.Service)
	assert.Equal(t, "circuit open", got.Backends["kv"].Error)
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	printResult(&buf, orchestrator.StatusError, "message bus: connection refused")

	var got map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, map[string]string{"status": "error", "error": "message bus: connection refused"}, got)
}
