package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/Ramsey-B/clover/internal/repositories/accident"
	"github.com/Ramsey-B/clover/internal/services/consolidation"
	"github.com/Ramsey-B/clover/pkg/cache"
	"github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/output"
	"github.com/spf13/cobra"
)

func newConsolidateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "consolidate",
		Short: "Consolidate one dataset year and write the output files.",
		Long: `Reads the four input files of --year, writes the consolidated CSV, a
seeded sample and a run manifest to --output-dir. When configured, the run is
also stored in the database, its KPIs cached in Redis and its outcome
published to Kafka.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			c := a.config
			pipeline, err := c.PipelineConfig()
			if err != nil {
				return errors.NewStageErrorf("%w", err).AddStage(errors.StageConfig)
			}

			sinks := consolidation.Sinks{}

			if c.Database.Driver != "" {
				db, err := a.openDatabase(ctx)
				if err != nil {
					return errors.NewStageErrorf("%w", err).AddStage(errors.StagePersist)
				}
				defer db.Close()
				if err := a.migrate(db, c.Database.MigrationVersion); err != nil {
					return errors.NewStageErrorf("%w", err).AddStage(errors.StagePersist)
				}
				sinks.Store = accident.NewRepository(db, a.logger, c.Database.BatchSize)
			}

			client, err := a.openCache(ctx)
			if err != nil {
				return errors.NewStageErrorf("%w", err).AddStage(errors.StagePersist)
			}
			if client != nil {
				defer client.Close()
				sinks.Locker = cache.NewLocker(client, "")
				sinks.LockTTL = c.Redis.LockTTL
				sinks.Summaries = cache.NewSummaryCache(client, c.Redis.TTL, a.logger)
			}

			if len(c.Kafka.Brokers) > 0 {
				producerConfig := kafka.DefaultProducerConfig()
				producerConfig.Brokers = c.Kafka.Brokers
				producerConfig.EventTopic = c.Kafka.EventTopic
				producerConfig.RecordTopic = c.Kafka.RecordTopic
				producerConfig.BatchSize = c.Kafka.BatchSize
				producerConfig.BatchTimeout = c.Kafka.BatchTimeout
				producerConfig.RequiredAcks = c.Kafka.RequiredAcks
				producerConfig.Compression = c.Kafka.Compression

				producer, err := kafka.NewProducer(producerConfig, a.logger)
				if err != nil {
					return errors.NewStageErrorf("%w", err).AddStage(errors.StagePublish)
				}
				defer producer.Close()
				sinks.Publisher = producer
				sinks.PublishRecords = c.Kafka.PublishRecords
				sinks.RecordTopic = c.Kafka.RecordTopic
			}

			service := consolidation.NewService(a.logger, output.NewWriter(a.logger, c.OutputDir), sinks)
			manifest, err := service.Run(ctx, consolidation.Request{
				Year:       c.Year,
				Files:      c.Files(),
				Table:      c.TableOptions(),
				Pipeline:   pipeline,
				SampleSize: c.SampleSize,
				SampleSeed: c.SampleSeed,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(a.stdout, "run %s: %d accidents written to %s (sample: %d rows in %s)\n",
				manifest.RunID, manifest.Stats.Accidents, manifest.Outputs.Consolidated,
				manifest.Sample.Rows, manifest.Outputs.Sample)
			return nil
		},
	}
}
