package testutils

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// SetupTestDB connects to TEST_DATABASE_URL and drops the capacity schema so the
// caller can migrate it from scratch. Tests are skipped when the variable is unset.
// The pool is closed and the table truncated when the test completes.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database test")
	}

	config, err := pgxpool.ParseConfig(dbURL)
	require.NoError(t, err)

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	require.NoError(t, err)

	// Use a mutex to ensure pool is closed only once
	var mu sync.Mutex
	closed := false

	t.Cleanup(func() {
		mu.Lock()
		defer mu.Unlock()
		if !closed {
			pool.Close()
			closed = true
		}
	})

	tx, err := pool.Begin(context.Background())
	require.NoError(t, err)

	_, err = tx.Exec(context.Background(), `DROP TABLE IF EXISTS pure_capacity, goose_db_version CASCADE`)
	require.NoError(t, err)

	err = tx.Commit(context.Background())
	require.NoError(t, err)

	// Registered after the close hook, so it runs first.
	t.Cleanup(func() {
		_, err := pool.Exec(context.Background(), `TRUNCATE TABLE pure_capacity`)
		if err != nil {
			t.Logf("Failed to truncate pure_capacity: %v", err)
		}
	})

	return pool
}
