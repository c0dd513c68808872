package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Erbium-Sanbercode/22-service-observability/internal/orchestrator"
)

var errCheckFailed = errors.New("dependency check failed")

// runCheck connects every backend for the role named by token, probes them
// and prints the result as JSON on stdout. No role server is started.
func runCheck(ctx context.Context, app *AppContext, token string) error {
	result, err := app.dispatcher.Check(ctx, token)
	if err != nil {
		printResult(os.Stdout, orchestrator.StatusError, err.Error())
		return err
	}

	printCheckResult(os.Stdout, result)
	if result.Status == orchestrator.StatusError {
		return errCheckFailed
	}

	slog.Info("dependency check passed", "service", result.Service)
	return nil
}

func printCheckResult(w io.Writer, result *orchestrator.CheckResult) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(w, `{"status":%q}`+"\n", result.Status)
	}
}

func printResult(w io.Writer, status, errMsg string) {
	result := map[string]string{"status": status}
	if errMsg != "" {
		result["error"] = errMsg
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		// Fallback to plain text if JSON encoding somehow fails.
		fmt.Fprintf(w, `{"status":%q}`+"\n", status)
	}
}
