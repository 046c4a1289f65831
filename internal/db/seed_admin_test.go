package db

import (
	"context"
	"testing"

	"github.com/geocoder89/guruhub/internal/config"
	"github.com/geocoder89/guruhub/internal/domain/user"
	"github.com/geocoder89/guruhub/internal/repo/memory"
	"github.com/geocoder89/guruhub/internal/security"
	"golang.org/x/crypto/bcrypt"
)

func TestEnsureAdminUser(t *testing.T) {
	ctx := context.Background()
	hasher := security.NewBcryptHasher(bcrypt.MinCost)

	t.Run("skips when not configured", func(t *testing.T) {
		users := memory.NewUsersRepo()

		if err := EnsureAdminUser(ctx, users, hasher, config.Config{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := users.GetByEmail(ctx, "admin@example.com"); err == nil {
			t.Fatalf("expected no user to be created")
		}
	})

	t.Run("creates admin once", func(t *testing.T) {
		users := memory.NewUsersRepo()
		cfg := config.Config{AdminEmail: "Admin@Example.com", AdminPassword: "s3cret", AdminName: "Root"}

		for i := 0; i < 2; i++ {
			if err := EnsureAdminUser(ctx, users, hasher, cfg); err != nil {
				t.Fatalf("run %d: unexpected error: %v", i, err)
			}
		}

		u, err := users.GetByEmail(ctx, "admin@example.com")
		if err != nil {
			t.Fatalf("expected admin to exist: %v", err)
		}

		if u.Role != user.RoleAdmin {
			t.Fatalf("expected admin role, got %q", u.Role)
		}

		if err := hasher.Verify(u.PasswordHash, "s3cret"); err != nil {
			t.Fatalf("stored hash does not verify: %v", err)
		}
	})
}
