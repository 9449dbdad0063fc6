package consolidate

import (
	"context"
	"os"

	"github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/table"
)

// KeyColumn is the accident identifier shared by the four input files.
const KeyColumn = "Num_Acc"

// Source table names.
const (
	TableCharacteristics = "caract"
	TableLocations       = "lieux"
	TablePersons         = "usagers"
	TableVehicles        = "vehicules"
)

// Files are the paths of the four input tables.
type Files struct {
	Characteristics string `json:"caract" yaml:"caract"`
	Locations       string `json:"lieux" yaml:"lieux"`
	Persons         string `json:"usagers" yaml:"usagers"`
	Vehicles        string `json:"vehicules" yaml:"vehicules"`
}

// Inputs holds the four loaded tables.
type Inputs struct {
	Characteristics *table.Table
	Locations       *table.Table
	Persons         *table.Table
	Vehicles        *table.Table

	files Files
}

// Load reads the four input files. A missing or unreadable file, or a file
// without the key column, is fatal and reported with the file it concerns.
func Load(ctx context.Context, files Files, opts table.Options) (*Inputs, error) {
	in := &Inputs{files: files}

	sources := []struct {
		name string
		path string
		dst  **table.Table
	}{
		{TableCharacteristics, files.Characteristics, &in.Characteristics},
		{TableLocations, files.Locations, &in.Locations},
		{TablePersons, files.Persons, &in.Persons},
		{TableVehicles, files.Vehicles, &in.Vehicles},
	}

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewStageErrorf("run cancelled: %w", err).AddStage(errors.StageIngest).AddFile(src.path)
		}

		if _, err := os.Stat(src.path); err != nil {
			return nil, errors.NewStageErrorf("input file is not accessible: %w", err).AddStage(errors.StageIngest).AddFile(src.path)
		}

		t, err := table.ReadFile(ctx, src.path, src.name, opts)
		if err != nil {
			return nil, errors.NewStageErrorf("failed to read input: %w", err).AddStage(errors.StageIngest).AddFile(src.path)
		}

		if !t.Has(KeyColumn) {
			return nil, errors.NewStageError("missing accident identifier column").
				AddStage(errors.StageIngest).
				AddFile(src.path).
				AddColumn(KeyColumn)
		}

		metrics.RecordsRead.WithLabelValues(src.name).Add(float64(t.Len()))
		*src.dst = t
	}

	return in, nil
}

// Files returns the paths the inputs were loaded from.
func (in *Inputs) Files() Files {
	return in.files
}

// FromTables builds Inputs from tables already in memory.
func FromTables(characteristics, locations, persons, vehicles *table.Table) *Inputs {
	return &Inputs{
		Characteristics: characteristics,
		Locations:       locations,
		Persons:         persons,
		Vehicles:        vehicles,
		files: Files{
			Characteristics: characteristics.Name,
			Locations:       locations.Name,
			Persons:         persons.Name,
			Vehicles:        vehicles.Name,
		},
	}
}
