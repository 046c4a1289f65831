package db

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/geocoder89/guruhub/internal/config"
	"github.com/geocoder89/guruhub/internal/domain/user"
	"github.com/geocoder89/guruhub/internal/repo"
	"github.com/geocoder89/guruhub/internal/security"
	"github.com/google/uuid"
)

// AdminStore is the slice of the users repository the seeder needs.
type AdminStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

// EnsureAdminUser creates the configured admin account when it does not exist yet.
func EnsureAdminUser(ctx context.Context, users AdminStore, hasher security.Hasher, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	_, err := users.GetByEmail(ctx, cfg.AdminEmail)

	if err == nil {
		return nil
	}

	if !errors.Is(err, repo.ErrUserNotFound) {
		return err
	}

	hash, err := hasher.Hash(cfg.AdminPassword)

	if err != nil {
		return err
	}

	now := time.Now().UTC()

	u := user.User{
		ID:           uuid.NewString(),
		Email:        user.NormalizeEmail(cfg.AdminEmail),
		PasswordHash: hash,
		Name:         cfg.AdminName,
		Role:         user.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = users.Create(ctx, u)

	// another replica may have seeded between the lookup and the insert
	if errors.Is(err, repo.ErrEmailAlreadyUsed) {
		return nil
	}

	if err != nil {
		return err
	}

	slog.Info("seeded admin user", "user_id", u.ID)

	return nil
}
