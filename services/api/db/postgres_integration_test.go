//go:build integration

package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("surveillance"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("warning: failed to terminate postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func TestPostgresStore(t *testing.T) {
	dsn := startPostgres(t)

	runStoreSuite(t, func(t *testing.T, opts Options) Store {
		t.Helper()
		opts.Migrate = true
		s, err := NewPostgres(context.Background(), dsn, opts)
		require.NoError(t, err)
		_, err = s.DeleteAll(context.Background())
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestPostgresMigrationsRoundTrip(t *testing.T) {
	dsn := startPostgres(t)

	require.NoError(t, RunMigrations(dsn))
	require.NoError(t, RunMigrations(dsn))
	require.NoError(t, RunMigrationsDown(dsn))
	require.NoError(t, RunMigrations(dsn))
}
