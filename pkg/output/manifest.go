package output

import (
	"context"
	"os"
	"time"

	"github.com/Ramsey-B/clover/pkg/analytics"
	"github.com/Ramsey-B/clover/pkg/consolidate"
	"github.com/Ramsey-B/clover/pkg/errors"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Manifest describes one consolidation run.
type Manifest struct {
	RunID           string             `json:"run_id" yaml:"run_id"`
	Year            int                `json:"year" yaml:"year"`
	Locale          string             `json:"locale" yaml:"locale"`
	StartedAt       time.Time          `json:"started_at" yaml:"started_at"`
	FinishedAt      time.Time          `json:"finished_at" yaml:"finished_at"`
	Inputs          consolidate.Files  `json:"inputs" yaml:"inputs"`
	Outputs         Outputs            `json:"outputs" yaml:"outputs"`
	Columns         []string           `json:"columns" yaml:"columns"`
	Stats           consolidate.Stats  `json:"stats" yaml:"stats"`
	Sample          SampleInfo         `json:"sample" yaml:"sample"`
	KPIs            analytics.KPIs     `json:"kpis" yaml:"kpis"`
	AgeDistribution []analytics.Bucket `json:"age_distribution" yaml:"age_distribution"`
}

type Outputs struct {
	Consolidated string `json:"consolidated" yaml:"consolidated"`
	Sample       string `json:"sample" yaml:"sample"`
}

type SampleInfo struct {
	Seed uint64 `json:"seed" yaml:"seed"`
	Size int    `json:"size" yaml:"size"`
	Rows int    `json:"rows" yaml:"rows"`
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.New().String()
}

// NewManifest fills the manifest fields derived from a run result.
func NewManifest(runID string, year int, locale string, files consolidate.Files, result *consolidate.Result) *Manifest {
	return &Manifest{
		RunID:           runID,
		Year:            year,
		Locale:          locale,
		Inputs:          files,
		Columns:         consolidate.ColumnNames(result.Columns),
		Stats:           result.Stats,
		KPIs:            analytics.ComputeKPIs(result.Accidents),
		AgeDistribution: analytics.AgeDistribution(result.People, consolidate.AgeBuckets()),
	}
}

// WriteManifest writes the manifest as YAML next to the outputs.
func (w *Writer) WriteManifest(ctx context.Context, m *Manifest) (string, error) {
	path := w.Path(ManifestFile)
	if err := ctx.Err(); err != nil {
		return "", errors.NewStageErrorf("run cancelled: %w", err).AddStage(errors.StageWrite).AddFile(path)
	}

	b, err := yaml.Marshal(m)
	if err != nil {
		return "", errors.NewStageErrorf("failed to encode manifest: %w", err).AddStage(errors.StageWrite).AddFile(path)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", errors.NewStageErrorf("failed to write manifest: %w", err).AddStage(errors.StageWrite).AddFile(path)
	}
	return path, nil
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) (*Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m := &Manifest{}
	if err := yaml.Unmarshal(b, m); err != nil {
		return nil, err
	}
	return m, nil
}
