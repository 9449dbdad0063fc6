// Package consolidate merges the four accident tables into one row per accident.
package consolidate

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/clover/pkg/codes"
	"github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// DefaultReferenceYear is the year ages are computed against.
const DefaultReferenceYear = 2024

type Config struct {
	ReferenceYear      int
	Locale             codes.Locale
	LocationDuplicates DuplicatePolicy
}

func DefaultConfig() Config {
	return Config{
		ReferenceYear:      DefaultReferenceYear,
		Locale:             codes.LocaleEN,
		LocationDuplicates: DuplicateStrict,
	}
}

// Stats counts the records seen by a run.
type Stats struct {
	Characteristics    int                      `json:"caract" yaml:"caract"`
	Locations          int                      `json:"lieux" yaml:"lieux"`
	Persons            int                      `json:"usagers" yaml:"usagers"`
	Vehicles           int                      `json:"vehicules" yaml:"vehicules"`
	Accidents          int                      `json:"accidents" yaml:"accidents"`
	DuplicateLocations int                      `json:"duplicate_locations" yaml:"duplicate_locations"`
	Stages             map[string]time.Duration `json:"stages" yaml:"stages"`
}

// Result is the output of one run, held fully in memory.
type Result struct {
	Accidents []models.ConsolidatedAccident
	People    []models.Person
	Columns   []Column
	Stats     Stats
}

type Pipeline struct {
	logger ectologger.Logger
	config Config
}

func NewPipeline(logger ectologger.Logger, config Config) *Pipeline {
	if config.ReferenceYear == 0 {
		config.ReferenceYear = DefaultReferenceYear
	}
	if config.Locale == "" {
		config.Locale = codes.LocaleEN
	}
	if config.LocationDuplicates == "" {
		config.LocationDuplicates = DuplicateStrict
	}
	return &Pipeline{logger: logger, config: config}
}

// stage runs fn inside a span and records its duration.
func (p *Pipeline) stage(ctx context.Context, stats *Stats, name string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return errors.NewStageErrorf("run cancelled: %w", err).AddStage(name)
	}

	ctx, span := tracing.StartSpan(ctx, "consolidate."+name, tracing.AttrStage.String(name))
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	tracing.Fail(span, err)

	stats.Stages[name] = elapsed
	metrics.StageDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	p.logger.WithContext(ctx).WithFields(map[string]any{
		"stage":    name,
		"duration": elapsed.String(),
	}).Debugf("Stage '%s' finished", name)

	return err
}

// Run consolidates the loaded inputs. It fails only on a duplicate location
// key in strict mode or a cancelled context; every other data problem is
// absorbed as a missing value, a zero count or a "Not specified" label.
func (p *Pipeline) Run(ctx context.Context, in *Inputs) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "consolidate.Run")
	defer span.End()

	log := p.logger.WithContext(ctx)
	stats := Stats{
		Characteristics: in.Characteristics.Len(),
		Locations:       in.Locations.Len(),
		Persons:         in.Persons.Len(),
		Vehicles:        in.Vehicles.Len(),
		Stages:          map[string]time.Duration{},
	}
	log.WithFields(map[string]any{
		TableCharacteristics: stats.Characteristics,
		TableLocations:       stats.Locations,
		TablePersons:         stats.Persons,
		TableVehicles:        stats.Vehicles,
	}).Info("Consolidating accident records")

	var joined *joinResult
	err := p.stage(ctx, &stats, errors.StageJoin, func(ctx context.Context) error {
		var err error
		joined, err = joinLocations(in.Characteristics, in.Locations, p.config.LocationDuplicates, in.files.Locations)
		return err
	})
	if err != nil {
		metrics.RunsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}
	if joined.duplicates > 0 {
		stats.DuplicateLocations = joined.duplicates
		metrics.DuplicateLocations.Add(float64(joined.duplicates))
		log.WithField("duplicates", joined.duplicates).Warnf("Skipped %d duplicate location rows, keeping the first row per accident", joined.duplicates)
	}

	var (
		people   []models.Person
		persons  map[string]models.PersonSummary
		vehicles map[string]models.VehicleSummary
	)
	err = p.stage(ctx, &stats, errors.StageAggregate, func(ctx context.Context) error {
		people = normalizePersons(in.Persons, p.config.ReferenceYear)
		persons = aggregatePersons(people)
		vehicles = aggregateVehicles(in.Vehicles, people)
		if in.Vehicles.Len() == 0 {
			p.logger.WithContext(ctx).Warn("Vehicle table is empty, every accident gets a zero vehicle summary")
		}
		return nil
	})
	if err != nil {
		metrics.RunsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	result := &Result{People: people}
	err = p.stage(ctx, &stats, errors.StageAssemble, func(ctx context.Context) error {
		result.Accidents = make([]models.ConsolidatedAccident, 0, len(joined.rows))
		for _, row := range joined.rows {
			result.Accidents = append(result.Accidents, assemble(row, persons, vehicles, p.config.Locale))
		}
		result.Columns = selectColumns(joined.columns)
		return nil
	})
	if err != nil {
		metrics.RunsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	stats.Accidents = len(result.Accidents)
	result.Stats = stats
	metrics.AccidentsConsolidated.Add(float64(stats.Accidents))
	metrics.RunsTotal.WithLabelValues("succeeded").Inc()

	log.WithFields(map[string]any{
		"accidents": stats.Accidents,
		"columns":   len(result.Columns),
	}).Info("Consolidation finished")

	return result, nil
}
