// Package output persists the consolidated table, its sample and the run manifest.
package output

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/clover/pkg/consolidate"
	"github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const (
	SampleFile   = "accidents_sample.csv"
	ManifestFile = "manifest.yaml"
)

// ConsolidatedFile returns the name of the consolidated file for a dataset year.
func ConsolidatedFile(year int) string {
	return fmt.Sprintf("accidents_routiers_%d_consolide.csv", year)
}

type Writer struct {
	logger ectologger.Logger
	dir    string
}

func NewWriter(logger ectologger.Logger, dir string) *Writer {
	return &Writer{logger: logger, dir: dir}
}

// Path returns the location of name inside the output directory.
func (w *Writer) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// WriteTable writes the accidents as a UTF-8, comma-separated file with a
// header row. Missing values are written as empty cells.
func (w *Writer) WriteTable(ctx context.Context, name string, columns []consolidate.Column, accidents []models.ConsolidatedAccident) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "output.WriteTable")
	defer span.End()

	path := w.Path(name)
	if err := ctx.Err(); err != nil {
		return "", errors.NewStageErrorf("run cancelled: %w", err).AddStage(errors.StageWrite).AddFile(path)
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", errors.NewStageErrorf("failed to create output directory: %w", err).AddStage(errors.StageWrite).AddFile(w.dir)
	}

	// the table only replaces an existing file once it is fully written
	tmp, err := os.CreateTemp(w.dir, "."+name+".*")
	if err != nil {
		return "", errors.NewStageErrorf("output is not writable: %w", err).AddStage(errors.StageWrite).AddFile(path)
	}
	defer os.Remove(tmp.Name())

	cw := csv.NewWriter(tmp)
	if err := cw.Write(consolidate.ColumnNames(columns)); err != nil {
		tmp.Close()
		return "", errors.NewStageErrorf("failed to write header: %w", err).AddStage(errors.StageWrite).AddFile(path)
	}
	for i := range accidents {
		if err := cw.Write(consolidate.Row(columns, &accidents[i])); err != nil {
			tmp.Close()
			return "", errors.NewStageErrorf("failed to write row %d: %w", i, err).AddStage(errors.StageWrite).AddFile(path)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		tmp.Close()
		return "", errors.NewStageErrorf("failed to flush output: %w", err).AddStage(errors.StageWrite).AddFile(path)
	}
	if err := tmp.Close(); err != nil {
		return "", errors.NewStageErrorf("failed to close output: %w", err).AddStage(errors.StageWrite).AddFile(path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", errors.NewStageErrorf("failed to move output into place: %w", err).AddStage(errors.StageWrite).AddFile(path)
	}

	w.logger.WithContext(ctx).WithFields(map[string]any{
		"file": path,
		"rows": len(accidents),
	}).Infof("Wrote %d rows to %s", len(accidents), path)

	return path, nil
}

// WriteConsolidated writes the full consolidated table for a dataset year.
func (w *Writer) WriteConsolidated(ctx context.Context, year int, result *consolidate.Result) (string, error) {
	return w.WriteTable(ctx, ConsolidatedFile(year), result.Columns, result.Accidents)
}

// WriteSample writes a seeded random sample of up to size rows.
func (w *Writer) WriteSample(ctx context.Context, result *consolidate.Result, size int, seed uint64) (string, int, error) {
	sample := consolidate.Sample(result.Accidents, size, seed)
	path, err := w.WriteTable(ctx, SampleFile, result.Columns, sample)
	return path, len(sample), err
}
