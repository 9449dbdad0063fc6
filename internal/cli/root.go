// Package cli defines the clover command line.
package cli

import (
	"context"
	"io"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/clover/config"
	"github.com/Ramsey-B/clover/pkg/logging"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app holds what every command needs once the configuration is loaded.
type app struct {
	config *config.Config
	logger ectologger.Logger
	zap    *zap.Logger
	stdout io.Writer

	shutdownTracing func(context.Context) error
}

// Execute runs the command line with args and flushes the logger and the
// tracer whatever the outcome.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := &app{config: &config.Config{}, stdout: stdout}
	rc := newRootCommand(a, stderr)
	rc.SetArgs(args)
	defer a.teardown(context.WithoutCancel(ctx))
	return rc.ExecuteContext(ctx)
}

func newRootCommand(a *app, stderr io.Writer) *cobra.Command {
	rc := &cobra.Command{
		Use:   "clover",
		Short: "Consolidates the yearly road accident files into one row per accident.",
		Long: `Consolidates the four yearly road accident files (characteristics,
locations, persons, vehicles) into one row per accident with decoded labels,
person and vehicle aggregates and a severity score.

Every option can be given as a flag, as a CLOVER_* environment variable or in
the file named by --config.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	a.config.RegisterFlags(rc.PersistentFlags())

	rc.AddCommand(newConsolidateCommand(a))
	rc.AddCommand(newServeCommand(a))
	rc.AddCommand(newMigrateCommand(a))

	rc.SetOut(a.stdout)
	rc.SetErr(stderr)
	return rc
}

func (a *app) setup(cmd *cobra.Command) error {
	if err := a.config.Load(cmd.Flags()); err != nil {
		return err
	}

	logger, z, err := logging.New(a.config.LogLevel)
	if err != nil {
		return err
	}
	a.logger, a.zap = logger, z

	shutdown, err := tracing.Setup(cmd.Context(), a.config.AppName, a.config.Tracing)
	if err != nil {
		return err
	}
	a.shutdownTracing = shutdown
	return nil
}

func (a *app) teardown(ctx context.Context) {
	if a.shutdownTracing != nil {
		if err := a.shutdownTracing(ctx); err != nil {
			a.logger.WithError(err).Warn("Failed to flush traces")
		}
	}
	if a.zap != nil {
		_ = a.zap.Sync()
	}
}
