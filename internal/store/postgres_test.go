package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"bookshelf/internal/platform/postgres"
)

// setupPGStore expects the db/migrations schema to be applied to DB_TEST_DSN.
func setupPGStore(t *testing.T) *PGStore {
	t.Helper()
	dsn := os.Getenv("DB_TEST_DSN")
	if dsn == "" {
		t.Skip("Skipping test: DB_TEST_DSN not set")
	}

	pool, err := postgres.Open(context.Background(), dsn, 2*time.Second)
	if err != nil {
		t.Skipf("Skipping test: cannot connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	return NewPGStore(pool, 5*time.Second)
}

func TestPGStore(t *testing.T) {
	s := setupPGStore(t)
	testStore(t, s, uuid.NewString())
}
