// Package testutil opens throwaway databases migrated with the real schema.
package testutil

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/db"
	"github.com/Ramsey-B/fern/pkg/database"
)

func Logger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

// NewDB returns a migrated in-memory sqlite database closed with the test.
func NewDB(t *testing.T) database.DB {
	t.Helper()

	logger := Logger()
	conn, err := database.Connect(context.Background(), database.ConnectionConfig{
		Driver:       "sqlite",
		Path:         ":memory:",
		// every connection to :memory: is a separate database
		MaxOpenConns: 1,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	name, driver, err := database.NewMigrationDriver(conn)
	require.NoError(t, err)

	migrations := database.NewMigrationService(logger, &database.MigrationConfig{
		FS:  db.Migrations,
		Dir: db.Dir(conn.DriverName()),
	})
	require.NoError(t, migrations.Migrate(name, driver))

	return conn
}
