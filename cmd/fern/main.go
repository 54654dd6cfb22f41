package main

import (
	"fmt"
	"os"

	"github.com/Gobusters/ectologger"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/pkg/logger"
)

const programName = "fern"

var globalFlags = struct {
	configFile string
	debug      bool
}{}

// commonRun loads the configuration and builds the logger. The returned zap
// logger must be synced before exit.
func commonRun() (*config.Config, ectologger.Logger, *zap.Logger, error) {
	cfg, err := config.Load(globalFlags.configFile)
	if err != nil {
		return nil, nil, nil, err
	}
	if globalFlags.debug {
		cfg.LogLevel = "debug"
	}

	log, zapLogger, err := logger.New(cfg.LogLevel, cfg.PrettyLogs)
	if err != nil {
		return nil, nil, nil, err
	}

	// Configure max processes with our logger wrapper, toss undo func
	if _, err := maxprocs.Set(maxprocs.Logger(zapLogger.Sugar().Infof)); err != nil {
		return nil, nil, nil, err
	}

	log.WithFields(map[string]any{
		"component": programName,
		"version":   cfg.Version,
	}).Info("starting")
	return cfg, log, zapLogger, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Form builder backend: forms, entries, statuses and charts",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveRun(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().StringVarP(&globalFlags.configFile, "config", "c", "", "path to config file to load")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")

	rootCmd.AddCommand(
		serveCommand(),
		migrateCommand(),
		formsCommand(),
		volumesCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
