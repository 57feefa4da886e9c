//go:build integration

// Package dbtest starts a disposable Postgres with every service schema
// migrated, for integration tests.
package dbtest

import (
	"context"
	"testing"
	"time"

	"eduweb/internal/platform/db"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

const (
	image          = "postgres:16-alpine"
	startupTimeout = 60 * time.Second
)

// Start runs the container, applies the embedded migrations and returns the
// gorm handle. Everything is torn down through t.Cleanup.
func Start(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		image,
		tcpostgres.WithDatabase("eduweb"),
		tcpostgres.WithUsername("eduweb"),
		tcpostgres.WithPassword("eduweb"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(startupTimeout),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pg, err := db.Connect(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Close() })
	require.NoError(t, pg.Migrate())
	return pg.DB
}
