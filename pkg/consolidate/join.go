package consolidate

import (
	"fmt"
	"strings"

	"github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/table"
)

// DuplicatePolicy decides what happens when an accident id appears more than
// once in the location table.
type DuplicatePolicy string

const (
	// DuplicateStrict fails the run on the first duplicate key.
	DuplicateStrict DuplicatePolicy = "strict"
	// DuplicateFirst keeps the first location row and skips the others.
	DuplicateFirst DuplicatePolicy = "first"
)

func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch DuplicatePolicy(strings.ToLower(s)) {
	case DuplicateStrict, "":
		return DuplicateStrict, nil
	case DuplicateFirst:
		return DuplicateFirst, nil
	default:
		return "", fmt.Errorf("unsupported location duplicate policy %q (use 'strict' or 'first')", s)
	}
}

// accidentRow is a characteristic row with its matched location row, if any.
type accidentRow struct {
	key      string
	caract   table.Record
	location *table.Record
}

// get reads a column from the characteristic row, falling back to the location row.
func (r accidentRow) get(column string) table.Value {
	if r.caract.Has(column) {
		return r.caract.Get(column)
	}
	if r.location != nil {
		return r.location.Get(column)
	}
	return table.Missing()
}

// joinResult is the accident-level table.
type joinResult struct {
	rows       []accidentRow
	columns    map[string]bool
	duplicates int
}

// joinLocations left-joins characteristics with locations on the accident id.
// Every characteristic row is kept and none is repeated.
func joinLocations(caract, lieux *table.Table, policy DuplicatePolicy, file string) (*joinResult, error) {
	index := make(map[string]int, lieux.Len())
	duplicates := 0
	for i := 0; i < lieux.Len(); i++ {
		key := lieux.Get(i, KeyColumn).Key()
		if key == "" {
			continue
		}
		if _, exists := index[key]; exists {
			if policy == DuplicateStrict {
				return nil, errors.NewStageError("accident id appears more than once in the location table").
					AddStage(errors.StageJoin).
					AddFile(file).
					AddColumn(KeyColumn).
					AddKey(key)
			}
			duplicates++
			continue
		}
		index[key] = i
	}

	columns := make(map[string]bool, len(caract.Columns)+len(lieux.Columns))
	for _, c := range caract.Columns {
		columns[c] = true
	}
	for _, c := range lieux.Columns {
		columns[c] = true
	}

	rows := make([]accidentRow, 0, caract.Len())
	for i := 0; i < caract.Len(); i++ {
		row := accidentRow{
			key:    caract.Get(i, KeyColumn).Key(),
			caract: caract.Record(i),
		}
		if j, ok := index[row.key]; ok && row.key != "" {
			loc := lieux.Record(j)
			row.location = &loc
		}
		rows = append(rows, row)
	}

	return &joinResult{rows: rows, columns: columns, duplicates: duplicates}, nil
}
