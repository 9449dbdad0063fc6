package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/clover/db/migrations"
	"github.com/huandu/go-sqlbuilder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func openSQLite(t *testing.T) DB {
	t.Helper()
	db, err := Open(context.Background(), Config{
		Driver: DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "clover.db"),
	}, newTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func tableExists(t *testing.T, db DB, name string) bool {
	t.Helper()
	var count int
	require.NoError(t, db.GetContext(context.Background(), &count, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name))
	return count == 1
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "mysql"}, newTestLogger())
	assert.Error(t, err)
}

func TestFlavorOf(t *testing.T) {
	flavor, err := FlavorOf(DriverPostgres)
	require.NoError(t, err)
	assert.Equal(t, sqlbuilder.PostgreSQL, flavor)

	flavor, err = FlavorOf(DriverSQLite)
	require.NoError(t, err)
	assert.Equal(t, sqlbuilder.SQLite, flavor)

	assert.Equal(t, sqlbuilder.SQLite, openSQLite(t).Flavor())
}

func TestMigrate(t *testing.T) {
	db := openSQLite(t)
	ms := NewMigrationService(newTestLogger(), &MigrationConfig{AutoRollback: true})

	require.NoError(t, ms.Migrate(db))
	assert.True(t, tableExists(t, db, "runs"))
	assert.True(t, tableExists(t, db, "accidents"))

	// a second run has nothing to apply
	require.NoError(t, ms.Migrate(db))

	down := NewMigrationService(newTestLogger(), &MigrationConfig{Version: 1})
	require.NoError(t, down.Migrate(db))
	assert.True(t, tableExists(t, db, "runs"))
	assert.False(t, tableExists(t, db, "accidents"))
}

func TestMigrateDatabaseAheadOfFolder(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, NewMigrationService(newTestLogger(), &MigrationConfig{}).Migrate(db))

	// a folder that only knows the first migration, as after a binary rollback
	folder := t.TempDir()
	for _, name := range []string{"000001_create_runs.up.sql", "000001_create_runs.down.sql"} {
		body, err := migrations.FS.ReadFile(name)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(folder, name), body, 0o600))
	}

	ms := NewMigrationService(newTestLogger(), &MigrationConfig{MigrationFolderPath: folder})
	require.NoError(t, ms.Migrate(db))
	assert.True(t, tableExists(t, db, "accidents"))

	// forced to the folder's latest version, so the next run is a no-op
	require.NoError(t, ms.Migrate(db))
}

func TestMigrateMissingFolder(t *testing.T) {
	ms := NewMigrationService(newTestLogger(), &MigrationConfig{MigrationFolderPath: filepath.Join(t.TempDir(), "nope")})
	assert.Error(t, ms.Migrate(openSQLite(t)))
}

func TestGetLatestVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"000001_a.up.sql":   {},
		"000001_a.down.sql": {},
		"000010_b.up.sql":   {},
		"README.md":         {},
	}
	v, err := getLatestVersion(fsys)
	require.NoError(t, err)
	assert.Equal(t, 10, v)

	_, err = getLatestVersion(fstest.MapFS{})
	assert.Error(t, err)
}

func TestGetTxBorrowsOpenTransaction(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	_, err := db.ExecContext(ctx, "CREATE TABLE items (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)

	ctx, outer, err := db.GetTx(ctx, nil)
	require.NoError(t, err)

	_, inner, err := db.GetTx(ctx, nil)
	require.NoError(t, err)
	_, err = inner.ExecContext(ctx, "INSERT INTO items (id) VALUES (1)")
	require.NoError(t, err)

	// the borrowed handle cannot end the outer transaction
	require.NoError(t, inner.Rollback(ctx))
	assert.True(t, outer.IsOpen())

	require.NoError(t, outer.Commit(ctx))
	assert.False(t, outer.IsOpen())

	var count int
	require.NoError(t, db.GetContext(context.Background(), &count, "SELECT COUNT(*) FROM items"))
	assert.Equal(t, 1, count)
}

func TestJSONScan(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	var fromBytes JSON[payload]
	require.NoError(t, fromBytes.Scan([]byte(`{"name":"a"}`)))
	assert.Equal(t, "a", fromBytes.Data.Name)

	var fromString JSON[payload]
	require.NoError(t, fromString.Scan(`{"name":"b"}`))
	assert.Equal(t, "b", fromString.Data.Name)

	assert.Error(t, fromString.Scan(42))

	v, err := JSON[payload]{Data: payload{Name: "c"}}.Value()
	require.NoError(t, err)
	assert.Equal(t, `{"name":"c"}`, v)
}

func TestUpsertSQL(t *testing.T) {
	type row struct {
		ID   string `db:"id"`
		Name string `db:"name"`
	}
	s := NewStruct(new(row), sqlbuilder.SQLite)
	sql, args := s.InsertInto("items", &row{ID: "1", Name: "x"}).OnConflictUpdate([]string{"id"}, "name").Build()
	assert.Equal(t, "INSERT INTO items (id, name) VALUES (?, ?) ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name", sql)
	assert.Equal(t, []any{"1", "x"}, args)
}
