package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DB interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
	Close() error
	DriverName() string
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	PingContext(ctx context.Context) error
	QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error)
	Rebind(query string) string
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	Stats() sql.DBStats
	// Flavor is the SQL dialect queries must be built for.
	Flavor() sqlbuilder.Flavor
	// StdDB exposes the underlying pool to the migration drivers.
	StdDB() *sql.DB
	GetTx(ctx context.Context, opts *sql.TxOptions) (context.Context, Tx, error)
}

type Config struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// StartupMaxAttempts bounds the connection attempts made by Open
	StartupMaxAttempts int
}

type DatabaseInstance struct {
	*sqlx.DB
	logger ectologger.Logger
}

func NewDatabaseInstance(db *sqlx.DB, logger ectologger.Logger) DB {
	return &DatabaseInstance{
		DB:     db,
		logger: logger,
	}
}

// Open connects to the configured database and waits until it answers a ping.
func Open(ctx context.Context, cfg Config, logger ectologger.Logger) (DB, error) {
	if _, err := FlavorOf(cfg.Driver); err != nil {
		return nil, err
	}

	db, err := sqlx.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}

	if cfg.Driver == DriverSQLite {
		// a single connection serializes writers and keeps in-memory databases alive
		db.SetMaxOpenConns(1)
	} else {
		if cfg.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	attempts := max(cfg.StartupMaxAttempts, 1)
	for attempt := 1; ; attempt++ {
		err = db.PingContext(ctx)
		if err == nil {
			break
		}
		if attempt >= attempts {
			db.Close()
			return nil, fmt.Errorf("failed to connect to %s database after %d attempts: %w", cfg.Driver, attempt, err)
		}
		logger.WithContext(ctx).WithError(err).Warnf("Database not ready, retrying (%d/%d)", attempt, attempts)
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}

	logger.WithContext(ctx).Infof("Connected to %s database", cfg.Driver)
	return NewDatabaseInstance(db, logger), nil
}

// FlavorOf maps a driver name to its SQL dialect.
func FlavorOf(driver string) (sqlbuilder.Flavor, error) {
	switch driver {
	case DriverPostgres:
		return sqlbuilder.PostgreSQL, nil
	case DriverSQLite:
		return sqlbuilder.SQLite, nil
	default:
		return sqlbuilder.PostgreSQL, fmt.Errorf("unsupported database driver %q (use 'postgres' or 'sqlite')", driver)
	}
}

func (db *DatabaseInstance) Flavor() sqlbuilder.Flavor {
	flavor, _ := FlavorOf(db.DriverName())
	return flavor
}

func (db *DatabaseInstance) StdDB() *sql.DB {
	return db.DB.DB
}

func (db *DatabaseInstance) GetTx(ctx context.Context, opts *sql.TxOptions) (context.Context, Tx, error) {
	return GetTx(ctx, db.logger, db, opts)
}
