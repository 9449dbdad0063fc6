package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Ramsey-B/clover/pkg/codes"
	"github.com/Ramsey-B/clover/pkg/consolidate"
	"github.com/Ramsey-B/clover/pkg/table"
	"github.com/Ramsey-B/clover/pkg/tracing/exporters"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by the service.
const EnvPrefix = "CLOVER"

type Config struct {
	// ConfigFile is an optional YAML, JSON or TOML file holding flag values
	ConfigFile string
	AppName    string `validate:"required"`
	LogLevel   string `validate:"oneof=debug info warn error"`

	// Dataset year, used to derive the default input and output file names
	Year     int    `validate:"min=2005,max=2100"`
	InputDir string `validate:"required"`
	// File overrides. Empty means <input-dir>/<table>-<year>.csv
	CharacteristicsFile string
	LocationsFile       string
	PersonsFile         string
	VehiclesFile        string
	OutputDir           string `validate:"required"`

	FieldSeparator     string `validate:"len=1"`
	DecimalSeparator   string `validate:"len=1"`
	ReferenceYear      int    `validate:"min=1900,max=2100"`
	Locale             string `validate:"oneof=en fr"`
	LocationDuplicates string `validate:"oneof=strict first"`

	SampleSize int `validate:"min=0"`
	SampleSeed uint64

	Database DatabaseConfig
	Kafka    KafkaConfig
	Redis    RedisConfig
	HTTP     HTTPConfig
	Tracing  exporters.OTLPConfig
}

type DatabaseConfig struct {
	// Driver is empty when the relational sink is disabled
	Driver          string `validate:"omitempty,oneof=postgres sqlite"`
	DSN             string `validate:"required_with=Driver"`
	MaxOpenConns    int    `validate:"min=1"`
	MaxIdleConns    int    `validate:"min=0"`
	ConnMaxLifetime time.Duration
	// Migration Folder Path. Empty uses the migrations embedded in the binary
	MigrationFolderPath string
	MigrationVersion    uint
	BatchSize           int `validate:"min=1"`
}

type KafkaConfig struct {
	Brokers        []string
	EventTopic     string `validate:"required"`
	RecordTopic    string `validate:"required"`
	PublishRecords bool
	BatchSize      int           `validate:"min=1"`
	BatchTimeout   time.Duration `validate:"min=0"`
	RequiredAcks   int           `validate:"oneof=-1 0 1"`
	Compression    string        `validate:"oneof=none gzip snappy lz4 zstd"`
}

type RedisConfig struct {
	// Addr is empty when the summary cache is disabled
	Addr     string
	Password string
	DB       int           `validate:"min=0"`
	TTL      time.Duration `validate:"min=0"`
	LockTTL  time.Duration `validate:"min=0"`
}

type HTTPConfig struct {
	Port              int           `validate:"min=1,max=65535"`
	ReadTimeout       time.Duration `validate:"min=0"`
	WriteTimeout      time.Duration `validate:"min=0"`
	IdleTimeout       time.Duration `validate:"min=0"`
	ReadHeaderTimeout time.Duration `validate:"min=0"`
	ShutdownTimeout   time.Duration `validate:"min=0"`
	MaxPageSize       int           `validate:"min=1"`
}

// RegisterFlags defines every configuration option on flags, with its
// default, storing the values into c.
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&c.ConfigFile, "config", "c", "", "Configuration file to read from.")
	flags.StringVar(&c.AppName, "app-name", "clover", "Service name reported in logs and traces.")
	flags.StringVar(&c.LogLevel, "log-level", "info", "Log level: debug, info, warn or error.")

	flags.IntVar(&c.Year, "year", consolidate.DefaultReferenceYear, "Dataset year.")
	flags.StringVar(&c.InputDir, "input-dir", "data", "Directory holding the yearly input files.")
	flags.StringVar(&c.CharacteristicsFile, "caract-file", "", "Characteristics file. Defaults to <input-dir>/caract-<year>.csv.")
	flags.StringVar(&c.LocationsFile, "lieux-file", "", "Locations file. Defaults to <input-dir>/lieux-<year>.csv.")
	flags.StringVar(&c.PersonsFile, "usagers-file", "", "Persons file. Defaults to <input-dir>/usagers-<year>.csv.")
	flags.StringVar(&c.VehiclesFile, "vehicules-file", "", "Vehicles file. Defaults to <input-dir>/vehicules-<year>.csv.")
	flags.StringVar(&c.OutputDir, "output-dir", "output", "Directory receiving the consolidated files.")

	flags.StringVar(&c.FieldSeparator, "field-separator", ";", "Input field separator.")
	flags.StringVar(&c.DecimalSeparator, "decimal-separator", ",", "Input decimal separator.")
	flags.IntVar(&c.ReferenceYear, "reference-year", consolidate.DefaultReferenceYear, "Year used to derive ages from birth years.")
	flags.StringVar(&c.Locale, "locale", string(codes.LocaleEN), "Label locale for decoded columns: en or fr.")
	flags.StringVar(&c.LocationDuplicates, "location-duplicates", string(consolidate.DuplicateStrict), "Duplicate location key policy: strict or first.")

	flags.IntVar(&c.SampleSize, "sample-size", consolidate.DefaultSampleSize, "Rows in the random sample file.")
	flags.Uint64Var(&c.SampleSeed, "sample-seed", 42, "Seed of the random sample.")

	flags.StringVar(&c.Database.Driver, "db-driver", "", "Database driver: postgres or sqlite. Empty disables the database sink.")
	flags.StringVar(&c.Database.DSN, "db-dsn", "", "Database connection string.")
	flags.IntVar(&c.Database.MaxOpenConns, "db-max-open-conns", 25, "Maximum open database connections.")
	flags.IntVar(&c.Database.MaxIdleConns, "db-max-idle-conns", 10, "Maximum idle database connections.")
	flags.DurationVar(&c.Database.ConnMaxLifetime, "db-conn-max-lifetime", 10*time.Minute, "Maximum lifetime of a database connection.")
	flags.StringVar(&c.Database.MigrationFolderPath, "db-migration-folder-path", "", "Migration folder. Empty uses the embedded migrations.")
	flags.UintVar(&c.Database.MigrationVersion, "db-migration-version", 0, "Target migration version. 0 migrates up to the latest.")
	flags.IntVar(&c.Database.BatchSize, "db-batch-size", 500, "Rows per insert statement.")

	flags.StringSliceVar(&c.Kafka.Brokers, "kafka-brokers", nil, "Kafka brokers. Empty disables publishing.")
	flags.StringVar(&c.Kafka.EventTopic, "kafka-event-topic", "accidents.consolidation", "Topic receiving run events.")
	flags.StringVar(&c.Kafka.RecordTopic, "kafka-record-topic", "accidents.records", "Topic receiving consolidated records.")
	flags.BoolVar(&c.Kafka.PublishRecords, "kafka-publish-records", false, "Publish every consolidated record.")
	flags.IntVar(&c.Kafka.BatchSize, "kafka-batch-size", 100, "Producer batch size.")
	flags.DurationVar(&c.Kafka.BatchTimeout, "kafka-batch-timeout", 100*time.Millisecond, "Producer batch timeout.")
	flags.IntVar(&c.Kafka.RequiredAcks, "kafka-required-acks", 1, "Required acks: -1, 0 or 1.")
	flags.StringVar(&c.Kafka.Compression, "kafka-compression", "snappy", "Compression: none, gzip, snappy, lz4 or zstd.")

	flags.StringVar(&c.Redis.Addr, "redis-addr", "", "Redis address. Empty disables the summary cache.")
	flags.StringVar(&c.Redis.Password, "redis-password", "", "Redis password.")
	flags.IntVar(&c.Redis.DB, "redis-db", 0, "Redis database.")
	flags.DurationVar(&c.Redis.TTL, "redis-ttl", time.Hour, "Summary cache TTL.")
	flags.DurationVar(&c.Redis.LockTTL, "redis-lock-ttl", 10*time.Minute, "TTL of the run lock held while persisting.")

	flags.IntVar(&c.HTTP.Port, "http-port", 3000, "HTTP port.")
	flags.DurationVar(&c.HTTP.ReadTimeout, "http-read-timeout", 10*time.Second, "HTTP read timeout.")
	flags.DurationVar(&c.HTTP.WriteTimeout, "http-write-timeout", 10*time.Second, "HTTP write timeout.")
	flags.DurationVar(&c.HTTP.IdleTimeout, "http-idle-timeout", 10*time.Second, "HTTP idle timeout.")
	flags.DurationVar(&c.HTTP.ReadHeaderTimeout, "http-read-header-timeout", 10*time.Second, "HTTP read header timeout.")
	flags.DurationVar(&c.HTTP.ShutdownTimeout, "http-shutdown-timeout", 15*time.Second, "Graceful shutdown timeout.")
	flags.IntVar(&c.HTTP.MaxPageSize, "http-max-page-size", 500, "Maximum page size of list endpoints.")

	flags.StringVar(&c.Tracing.Endpoint, "tracing-endpoint", "", "OTLP collector endpoint. Empty disables export.")
	flags.StringVar(&c.Tracing.Protocol, "tracing-protocol", "grpc", "OTLP protocol: grpc or http.")
	flags.BoolVar(&c.Tracing.Insecure, "tracing-insecure", true, "Disable TLS to the collector.")
	flags.StringToStringVar(&c.Tracing.Headers, "tracing-headers", nil, "Headers sent to the collector.")
	flags.DurationVar(&c.Tracing.Timeout, "tracing-timeout", 10*time.Second, "OTLP export timeout.")
}

// Load applies, in decreasing priority, command line flags, CLOVER_*
// environment variables (a .env file is loaded first when present) and the
// configuration file named by the "config" flag, then validates the result.
func (c *Config) Load(flags *pflag.FlagSet) error {
	_ = godotenv.Load()

	if err := setAllConfig(viper.New(), flags); err != nil {
		return err
	}
	return c.Validate()
}

// setAllConfig reads every flag from the environment and the config file
// unless it was set on the command line. Environment variables are the
// upper-cased flag names with dashes replaced by underscores, prefixed with
// CLOVER_.
func setAllConfig(v *viper.Viper, flags *pflag.FlagSet) error {
	if err := v.BindPFlags(flags); err != nil {
		return err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	validTags := make(map[string]bool)
	flags.VisitAll(func(f *pflag.Flag) {
		validTags[f.Name] = true
	})

	if c := v.GetString("config"); c != "" {
		v.SetConfigFile(c)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading configuration file '%s': %v", c, err)
		}
		for _, key := range v.AllKeys() {
			if _, ok := validTags[key]; !ok {
				// nested maps such as tracing-headers.<name> are flattened by viper
				if root, _, found := strings.Cut(key, "."); found && validTags[root] {
					continue
				}
				return fmt.Errorf("invalid option in configuration file: %v", key)
			}
		}
	}

	var flagErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if flagErr != nil || f.Changed {
			return
		}
		var value string
		switch f.Value.Type() {
		case "stringSlice":
			// a list from the config file is not readable with GetString
			value = strings.Join(v.GetStringSlice(f.Name), ",")
		case "stringToString":
			m := v.GetStringMapString(f.Name)
			pairs := make([]string, 0, len(m))
			for k, val := range m {
				pairs = append(pairs, k+"="+val)
			}
			sort.Strings(pairs)
			value = strings.Join(pairs, ",")
		default:
			value = v.GetString(f.Name)
		}
		if value == "" && f.Value.Type() != "string" {
			return
		}
		if err := f.Value.Set(value); err != nil {
			flagErr = fmt.Errorf("invalid value for %s: %v", f.Name, err)
		}
	})
	return flagErr
}

// Validate checks every field against its validate tag.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func (c *Config) inputFile(override, name string) string {
	if override != "" {
		return override
	}
	return filepath.Join(c.InputDir, fmt.Sprintf("%s-%d.csv", name, c.Year))
}

// Files resolves the four input paths.
func (c *Config) Files() consolidate.Files {
	return consolidate.Files{
		Characteristics: c.inputFile(c.CharacteristicsFile, consolidate.TableCharacteristics),
		Locations:       c.inputFile(c.LocationsFile, consolidate.TableLocations),
		Persons:         c.inputFile(c.PersonsFile, consolidate.TablePersons),
		Vehicles:        c.inputFile(c.VehiclesFile, consolidate.TableVehicles),
	}
}

func (c *Config) TableOptions() table.Options {
	opts := table.DefaultOptions()
	if r, _ := utf8.DecodeRuneInString(c.FieldSeparator); r != utf8.RuneError {
		opts.Comma = r
	}
	if r, _ := utf8.DecodeRuneInString(c.DecimalSeparator); r != utf8.RuneError {
		opts.Decimal = r
	}
	return opts
}

func (c *Config) PipelineConfig() (consolidate.Config, error) {
	locale, err := codes.ParseLocale(c.Locale)
	if err != nil {
		return consolidate.Config{}, err
	}
	policy, err := consolidate.ParseDuplicatePolicy(c.LocationDuplicates)
	if err != nil {
		return consolidate.Config{}, err
	}
	return consolidate.Config{
		ReferenceYear:      c.ReferenceYear,
		Locale:             locale,
		LocationDuplicates: policy,
	}, nil
}
