package cli

import (
	"context"
	"fmt"

	"github.com/Ramsey-B/clover/pkg/cache"
	"github.com/Ramsey-B/clover/pkg/database"
)

func (a *app) openDatabase(ctx context.Context) (database.DB, error) {
	c := a.config.Database
	if c.Driver == "" {
		return nil, fmt.Errorf("no database configured, set --db-driver and --db-dsn")
	}
	return database.Open(ctx, database.Config{
		Driver:          c.Driver,
		DSN:             c.DSN,
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
	}, a.logger)
}

func (a *app) migrate(db database.DB, version uint) error {
	return database.NewMigrationService(a.logger, &database.MigrationConfig{
		MigrationFolderPath: a.config.Database.MigrationFolderPath,
		Version:             version,
	}).Migrate(db)
}

// openCache returns nil when no Redis address is configured.
func (a *app) openCache(ctx context.Context) (*cache.Client, error) {
	c := a.config.Redis
	if c.Addr == "" {
		return nil, nil
	}
	return cache.NewClient(ctx, cache.Config{Addr: c.Addr, Password: c.Password, DB: c.DB}, a.logger)
}
