package table

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

const utf8BOM = "\ufeff"

// Options describes the delimited text layout.
type Options struct {
	Comma   rune
	Decimal rune
}

// DefaultOptions matches the published accident files: ';' fields and ',' decimals.
func DefaultOptions() Options {
	return Options{
		Comma:   ';',
		Decimal: ',',
	}
}

// ReadFile opens path and reads it as a delimited table named after name.
func ReadFile(ctx context.Context, path, name string, opts Options) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	t, err := Read(f, name, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return t, nil
}

// Read parses delimited text with a header row. Every cell is coerced with Coerce.
func Read(r io.Reader, name string, opts Options) (*Table, error) {
	if opts.Comma == 0 {
		opts.Comma = DefaultOptions().Comma
	}

	br := bufio.NewReader(r)
	if b, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(b, []byte(utf8BOM)) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.Comma = opts.Comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("missing header row")
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading header")
	}

	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.Trim(strings.TrimSpace(h), `"`)
	}

	t := New(name, columns)
	line := 1
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, errors.Wrapf(err, "reading line %d", line)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}

		row := make([]Value, len(rec))
		for i, cell := range rec {
			row[i] = Coerce(cell, opts.Decimal)
		}
		t.Append(row)
	}

	return t, nil
}
