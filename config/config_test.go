package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Ramsey-B/clover/pkg/codes"
	"github.com/Ramsey-B/clover/pkg/consolidate"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags(c *Config) *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	c.RegisterFlags(flags)
	return flags
}

func TestLoadDefaults(t *testing.T) {
	c := &Config{}
	flags := newFlags(c)
	require.NoError(t, flags.Parse(nil))
	require.NoError(t, c.Load(flags))

	assert.Equal(t, "clover", c.AppName)
	assert.Equal(t, consolidate.DefaultReferenceYear, c.Year)
	assert.Equal(t, consolidate.DefaultReferenceYear, c.ReferenceYear)
	assert.Equal(t, ";", c.FieldSeparator)
	assert.Equal(t, uint64(42), c.SampleSeed)
	assert.Equal(t, consolidate.DefaultSampleSize, c.SampleSize)
	assert.Equal(t, "strict", c.LocationDuplicates)
	assert.Empty(t, c.Kafka.Brokers)
	assert.Equal(t, time.Hour, c.Redis.TTL)
}

func TestLoadPriority(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "clover.yaml")
	require.NoError(t, os.WriteFile(file, []byte("year: 2021\nlocale: fr\nsample-size: 10\nkafka-brokers:\n  - a:9092\n  - b:9092\n"), 0o644))

	t.Setenv("CLOVER_SAMPLE_SIZE", "20")
	t.Setenv("CLOVER_HTTP_PORT", "8080")

	c := &Config{}
	flags := newFlags(c)
	require.NoError(t, flags.Parse([]string{"--config", file, "--year", "2022"}))
	require.NoError(t, c.Load(flags))

	assert.Equal(t, 2022, c.Year, "flag wins over file")
	assert.Equal(t, 20, c.SampleSize, "env wins over file")
	assert.Equal(t, "fr", c.Locale)
	assert.Equal(t, 8080, c.HTTP.Port)
	assert.Equal(t, []string{"a:9092", "b:9092"}, c.Kafka.Brokers)
}

func TestLoadRejectsUnknownFileKeys(t *testing.T) {
	file := filepath.Join(t.TempDir(), "clover.yaml")
	require.NoError(t, os.WriteFile(file, []byte("colour: blue\n"), 0o644))

	c := &Config{}
	flags := newFlags(c)
	require.NoError(t, flags.Parse([]string{"--config", file}))
	err := c.Load(flags)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "colour")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "locale", args: []string{"--locale", "de"}},
		{name: "duplicate policy", args: []string{"--location-duplicates", "last"}},
		{name: "separator", args: []string{"--field-separator", ";;"}},
		{name: "db driver", args: []string{"--db-driver", "mysql", "--db-dsn", "x"}},
		{name: "db dsn", args: []string{"--db-driver", "sqlite"}},
		{name: "compression", args: []string{"--kafka-compression", "brotli"}},
		{name: "tracing protocol", args: []string{"--tracing-protocol", "udp"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := &Config{}
			flags := newFlags(c)
			require.NoError(t, flags.Parse(test.args))
			assert.Error(t, c.Load(flags))
		})
	}
}

func TestFiles(t *testing.T) {
	c := &Config{InputDir: "data", Year: 2023, PersonsFile: "/tmp/u.csv"}
	files := c.Files()
	assert.Equal(t, filepath.Join("data", "caract-2023.csv"), files.Characteristics)
	assert.Equal(t, filepath.Join("data", "lieux-2023.csv"), files.Locations)
	assert.Equal(t, "/tmp/u.csv", files.Persons)
	assert.Equal(t, filepath.Join("data", "vehicules-2023.csv"), files.Vehicles)
}

func TestPipelineConfig(t *testing.T) {
	c := &Config{ReferenceYear: 2023, Locale: "fr", LocationDuplicates: "first", FieldSeparator: ",", DecimalSeparator: "."}
	pc, err := c.PipelineConfig()
	require.NoError(t, err)
	assert.Equal(t, codes.LocaleFR, pc.Locale)
	assert.Equal(t, consolidate.DuplicateFirst, pc.LocationDuplicates)
	assert.Equal(t, 2023, pc.ReferenceYear)

	opts := c.TableOptions()
	assert.Equal(t, ',', opts.Comma)
	assert.Equal(t, '.', opts.Decimal)
}
