// Package consolidation runs one consolidation end to end: it reads the input
// files, runs the pipeline, writes the output files and feeds the optional
// sinks.
package consolidation

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/clover/pkg/analytics"
	"github.com/Ramsey-B/clover/pkg/consolidate"
	clovercontext "github.com/Ramsey-B/clover/pkg/context"
	"github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/output"
	"github.com/Ramsey-B/clover/pkg/table"
	"github.com/Ramsey-B/clover/pkg/tracing"
	pkgerrors "github.com/pkg/errors"
)

type RunStore interface {
	SaveRun(ctx context.Context, manifest *output.Manifest, accidents []models.ConsolidatedAccident) error
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, event *kafka.RunEvent) error
	PublishRecords(ctx context.Context, runID string, year int, accidents []models.ConsolidatedAccident, traceID, spanID string) error
}

// Locker serializes persistence of a dataset year across processes.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func() error) error
}

type SummaryPrimer interface {
	Prime(ctx context.Context, runID string, kpis analytics.KPIs) error
}

// Request describes one run.
type Request struct {
	Year       int
	Files      consolidate.Files
	Table      table.Options
	Pipeline   consolidate.Config
	SampleSize int
	SampleSeed uint64
}

// Sinks are all optional. A nil sink is skipped.
type Sinks struct {
	Store          RunStore
	Publisher      EventPublisher
	PublishRecords bool
	RecordTopic    string
	Locker         Locker
	LockTTL        time.Duration
	Summaries      SummaryPrimer
}

type Service struct {
	logger ectologger.Logger
	writer *output.Writer
	sinks  Sinks
	now    func() time.Time
}

func NewService(logger ectologger.Logger, writer *output.Writer, sinks Sinks) *Service {
	return &Service{
		logger: logger,
		writer: writer,
		sinks:  sinks,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Run executes a consolidation. Any failure, including a sink failure, is
// returned as a StageError and announced on the event stream when one is
// configured.
func (s *Service) Run(ctx context.Context, req Request) (*output.Manifest, error) {
	runID := output.NewRunID()
	ctx = clovercontext.SetRunID(ctx, runID)
	ctx, span := tracing.StartSpan(ctx, "consolidation.Run", tracing.AttrRunID.String(runID), tracing.AttrYear.Int(req.Year))
	defer span.End()

	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"run_id": runID,
		"year":   req.Year,
	})
	log.Info("Starting consolidation run")

	manifest, result, err := s.consolidate(ctx, runID, req)
	if err == nil {
		err = s.persist(ctx, manifest, result.Accidents)
	}
	if err == nil {
		err = s.publish(ctx, manifest, result.Accidents)
	}
	if err != nil {
		stageErr := errors.WrapStageError(err)
		tracing.Fail(span, stageErr)
		log.WithError(stageErr).Error("Consolidation run failed")
		s.announceFailure(ctx, runID, req, stageErr)
		return manifest, stageErr
	}

	log.WithFields(map[string]any{
		"accidents": manifest.Stats.Accidents,
		"output":    manifest.Outputs.Consolidated,
	}).Info("Consolidation run completed")
	return manifest, nil
}

func (s *Service) consolidate(ctx context.Context, runID string, req Request) (*output.Manifest, *consolidate.Result, error) {
	started := s.now()

	inputs, err := consolidate.Load(ctx, req.Files, req.Table)
	if err != nil {
		return nil, nil, err
	}

	result, err := consolidate.NewPipeline(s.logger, req.Pipeline).Run(ctx, inputs)
	if err != nil {
		return nil, nil, err
	}

	consolidated, err := s.writer.WriteConsolidated(ctx, req.Year, result)
	if err != nil {
		return nil, nil, err
	}
	sample, rows, err := s.writer.WriteSample(ctx, result, req.SampleSize, req.SampleSeed)
	if err != nil {
		return nil, nil, err
	}

	manifest := output.NewManifest(runID, req.Year, string(req.Pipeline.Locale), req.Files, result)
	manifest.StartedAt = started
	manifest.FinishedAt = s.now()
	manifest.Outputs = output.Outputs{Consolidated: consolidated, Sample: sample}
	manifest.Sample = output.SampleInfo{Seed: req.SampleSeed, Size: req.SampleSize, Rows: rows}

	if _, err := s.writer.WriteManifest(ctx, manifest); err != nil {
		return nil, nil, err
	}
	return manifest, result, nil
}

func (s *Service) persist(ctx context.Context, manifest *output.Manifest, accidents []models.ConsolidatedAccident) error {
	if s.sinks.Store == nil {
		return nil
	}
	ctx, span := tracing.StartSpan(ctx, "consolidation.Persist", tracing.AttrRows.Int(len(accidents)))
	defer span.End()

	save := func() error {
		return s.sinks.Store.SaveRun(ctx, manifest, accidents)
	}

	var err error
	if s.sinks.Locker != nil {
		err = s.sinks.Locker.WithLock(ctx, fmt.Sprintf("persist:%d", manifest.Year), s.sinks.LockTTL, save)
	} else {
		err = save()
	}
	if err != nil {
		metrics.SinkErrors.WithLabelValues("database").Inc()
		if errors.IsStageError(err) {
			return err
		}
		return errors.NewStageErrorf("failed to persist run: %w", pkgerrors.Wrap(err, "database")).
			AddStage(errors.StagePersist).
			AddKey(manifest.RunID)
	}

	// the cache only speeds up reads, the run is already stored
	if s.sinks.Summaries != nil {
		if err := s.sinks.Summaries.Prime(ctx, manifest.RunID, manifest.KPIs); err != nil {
			metrics.SinkErrors.WithLabelValues("redis").Inc()
			s.logger.WithContext(ctx).WithError(err).Warn("Failed to prime summary cache")
		}
	}
	return nil
}

func (s *Service) publish(ctx context.Context, manifest *output.Manifest, accidents []models.ConsolidatedAccident) error {
	if s.sinks.Publisher == nil {
		return nil
	}
	ctx, span := tracing.StartSpan(ctx, "consolidation.Publish")
	defer span.End()

	traceID, spanID := tracing.GetTraceID(ctx), tracing.GetSpanID(ctx)

	if s.sinks.PublishRecords {
		err := s.sinks.Publisher.PublishRecords(ctx, manifest.RunID, manifest.Year, accidents, traceID, spanID)
		if err != nil {
			metrics.SinkErrors.WithLabelValues("kafka").Inc()
			return errors.NewStageErrorf("failed to publish records: %w", pkgerrors.Wrap(err, "kafka")).
				AddStage(errors.StagePublish).
				AddKey(manifest.RunID)
		}
	}

	event := &kafka.RunEvent{
		Type:      kafka.EventConsolidationCompleted,
		RunID:     manifest.RunID,
		Year:      manifest.Year,
		Locale:    manifest.Locale,
		Timestamp: manifest.FinishedAt,
		Stats:     &manifest.Stats,
		KPIs:      &manifest.KPIs,
		Columns:   manifest.Columns,
		Outputs: map[string]string{
			"consolidated": manifest.Outputs.Consolidated,
			"sample":       manifest.Outputs.Sample,
		},
		TraceID: traceID,
		SpanID:  spanID,
	}
	if s.sinks.PublishRecords {
		event.RecordTopic = s.sinks.RecordTopic
	}

	if err := s.sinks.Publisher.PublishEvent(ctx, event); err != nil {
		metrics.SinkErrors.WithLabelValues("kafka").Inc()
		return errors.NewStageErrorf("failed to publish run event: %w", pkgerrors.Wrap(err, "kafka")).
			AddStage(errors.StagePublish).
			AddKey(manifest.RunID)
	}
	return nil
}

// announceFailure is best effort. The run error is what the caller reports.
func (s *Service) announceFailure(ctx context.Context, runID string, req Request, stageErr *errors.StageError) {
	if s.sinks.Publisher == nil || stageErr.Stage == errors.StagePublish {
		return
	}

	event := &kafka.RunEvent{
		Type:      kafka.EventConsolidationFailed,
		RunID:     runID,
		Year:      req.Year,
		Locale:    string(req.Pipeline.Locale),
		Timestamp: s.now(),
		Stage:     stageErr.Stage,
		File:      stageErr.File,
		Error:     stageErr.Error(),
		TraceID:   tracing.GetTraceID(ctx),
		SpanID:    tracing.GetSpanID(ctx),
	}
	if err := s.sinks.Publisher.PublishEvent(ctx, event); err != nil {
		metrics.SinkErrors.WithLabelValues("kafka").Inc()
		s.logger.WithContext(ctx).WithError(err).Warn("Failed to publish failure event")
	}
}
