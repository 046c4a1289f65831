package integration_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/geocoder89/guruhub/internal/db"
	"github.com/geocoder89/guruhub/internal/repo/postgres"
	"github.com/google/uuid"
)

// Runs the same scenario against a real database when TEST_DB_DSN is set.
func TestAuthFlow_Postgres(t *testing.T) {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Migrate(ctx, dsn); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	pool, err := db.NewPool(ctx, dsn, 4)
	if err != nil {
		t.Fatalf("Failed to create pgx pool: %v", err)
	}
	t.Cleanup(pool.Close)

	app := newTestApp(t, testConfig(), stores{
		users:      postgres.NewUsersRepo(pool, nil),
		categories: postgres.NewCategoriesRepo(pool, nil),
		gurus:      postgres.NewGurusRepo(pool, nil),
	})

	runAuthScenario(t, app, uuid.NewString()+"@x.com")
}
