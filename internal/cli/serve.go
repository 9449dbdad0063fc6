package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/Ramsey-B/clover/internal/repositories/accident"
	"github.com/Ramsey-B/clover/pkg/cache"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/routes"
	"github.com/Ramsey-B/clover/pkg/server"
	"github.com/Ramsey-B/clover/pkg/startup"
	"github.com/spf13/cobra"
)

const startupMaxAttempts = 5

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the stored runs and their analytics over HTTP.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			c := a.config
			var (
				db     database.DB
				client *cache.Client
			)
			checks := map[string]routes.HealthCheck{}

			deps := startup.NewStartup(a.logger, startupMaxAttempts)
			deps.AddDependency(startup.Func{
				Name: "database",
				StartFunc: func(ctx context.Context) error {
					var err error
					if db, err = a.openDatabase(ctx); err != nil {
						return err
					}
					if err := a.migrate(db, c.Database.MigrationVersion); err != nil {
						db.Close()
						return err
					}
					checks["database"] = db.PingContext
					return nil
				},
				StopFunc: func(context.Context) error { return db.Close() },
			})
			if c.Redis.Addr != "" {
				deps.AddDependency(startup.Func{
					Name: "redis",
					StartFunc: func(ctx context.Context) error {
						var err error
						if client, err = a.openCache(ctx); err != nil {
							return err
						}
						checks["redis"] = client.Ping
						return nil
					},
					StopFunc: func(context.Context) error { return client.Close() },
				})
			}

			if err := deps.Start(ctx); err != nil {
				return err
			}
			defer deps.Stop(context.WithoutCancel(ctx))

			var summaries *cache.SummaryCache
			if client != nil {
				summaries = cache.NewSummaryCache(client, c.Redis.TTL, a.logger)
			}

			repo := accident.NewRepository(db, a.logger, c.Database.BatchSize)
			handler := routes.NewHandler(repo, summaries, a.logger, checks, c.HTTP.MaxPageSize)

			return server.New(server.Config{
				AppName:           c.AppName,
				Port:              c.HTTP.Port,
				ReadTimeout:       c.HTTP.ReadTimeout,
				WriteTimeout:      c.HTTP.WriteTimeout,
				IdleTimeout:       c.HTTP.IdleTimeout,
				ReadHeaderTimeout: c.HTTP.ReadHeaderTimeout,
				ShutdownTimeout:   c.HTTP.ShutdownTimeout,
			}, handler, a.logger).Run(ctx)
		},
	}
}
