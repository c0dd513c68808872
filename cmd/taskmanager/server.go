package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// runRole dispatches the role named by the single positional argument. It
// returns once the role server has stopped, after the database pool and
// telemetry have been released.
func runRole(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	token := tokenArg(args)

	app := buildAppContext(ctx, cfg, logHandler, resourceName(token))
	defer app.close()

	if checkOnly {
		return runCheck(ctx, app, token)
	}

	return app.dispatcher.Dispatch(ctx, token)
}
