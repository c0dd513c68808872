package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Erbium-Sanbercode/22-service-observability/internal/config"
	"github.com/Erbium-Sanbercode/22-service-observability/internal/orchestrator"
	"github.com/Erbium-Sanbercode/22-service-observability/internal/telemetry"
)

var (
	cfgFile   string
	logLevel  string
	checkOnly bool

	// cfg is populated by PersistentPreRunE.
	cfg *config.Config

	// logHandler is the stdout handler installed by PersistentPreRunE.
	logHandler slog.Handler
)

var rootCmd = &cobra.Command{
	Use:   "taskmanager [task|worker|performance]",
	Short: "Task manager platform: run one service role",
	Long: `taskmanager runs exactly one service role of the task manager platform.

It connects the database, object storage, message bus and key value store
in that order, stopping at the first failure, and then starts the HTTP
server of the chosen role. SIGINT or SIGTERM stop the server and close the
message bus and key value store connections.

Exit codes: 0 on success, 1 when a backend cannot be reached or the server
fails, 2 when the command is not a known role.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRole,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().BoolVar(&checkOnly, "check", false, "connect every backend, print a JSON health report and exit")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		initLogger(logLevel)

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		// --log-level flag takes precedence over value in config file.
		if cmd.Flags().Changed("log-level") {
			cfg.Telemetry.LogLevel = logLevel
		} else if cfg.Telemetry.LogLevel != "" {
			initLogger(cfg.Telemetry.LogLevel)
		}

		return nil
	}
}

// Execute is the entry point called by main. It is the only place the
// process exits.
func Execute() {
	err := rootCmd.Execute()
	if err != nil && !reported(err) {
		slog.Error("taskmanager failed", "err", err)
	}
	os.Exit(orchestrator.ExitCode(err))
}

// reported tells whether err was already logged by the dispatcher or the
// sequencer.
func reported(err error) bool {
	var roleErr *orchestrator.UnrecognizedRoleError
	var connErr *orchestrator.ConnectionError
	return errors.As(err, &roleErr) || errors.As(err, &connErr)
}

func initLogger(level string) {
	logHandler = telemetry.NewHandler(os.Stdout, level)
	slog.SetDefault(slog.New(logHandler))
}

func tokenArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
