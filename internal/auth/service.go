package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/geocoder89/guruhub/internal/domain/user"
	"github.com/geocoder89/guruhub/internal/repo"
	"github.com/geocoder89/guruhub/internal/security"
	"github.com/google/uuid"
)

// UserStore is the credential store the service reads and writes.
type UserStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
}

type TokenIssuer interface {
	Issue(userID string, role user.Role) (string, error)
}

// Observer receives auth outcomes for metrics.
type Observer interface {
	ObserveLogin(result string)
	ObserveRegistration(role string)
}

type noopObserver struct{}

func (noopObserver) ObserveLogin(string)        {}
func (noopObserver) ObserveRegistration(string) {}

type Options struct {
	// AllowSelfAdmin lets anonymous callers register with the admin role.
	AllowSelfAdmin bool
	Logger         *slog.Logger
	Observer       Observer
}

type Service struct {
	users          UserStore
	hasher         security.Hasher
	tokens         TokenIssuer
	allowSelfAdmin bool
	log            *slog.Logger
	obs            Observer

	dummyOnce sync.Once
	dummyHash string
}

func NewService(users UserStore, hasher security.Hasher, tokens TokenIssuer, opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	var obs Observer = noopObserver{}
	if opts.Observer != nil {
		obs = opts.Observer
	}

	return &Service{
		users:          users,
		hasher:         hasher,
		tokens:         tokens,
		allowSelfAdmin: opts.AllowSelfAdmin,
		log:            log,
		obs:            obs,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

type LoginResult struct {
	Token   string       `json:"token"`
	Profile user.Profile `json:"profile"`
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (user.Profile, error) {
	name := strings.TrimSpace(in.Name)
	email := user.NormalizeEmail(in.Email)

	switch {
	case name == "":
		return user.Profile{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	case email == "":
		return user.Profile{}, fmt.Errorf("%w: email is required", ErrInvalidInput)
	case strings.TrimSpace(in.Password) == "":
		return user.Profile{}, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}

	role, err := user.ParseRole(in.Role)
	if err != nil {
		return user.Profile{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	if role == user.RoleAdmin && !s.allowSelfAdmin {
		return user.Profile{}, ErrForbiddenRole
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return user.Profile{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()

	created, err := s.users.Create(ctx, user.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, repo.ErrEmailAlreadyUsed) {
			return user.Profile{}, ErrDuplicateEmail
		}
		return user.Profile{}, fmt.Errorf("create user: %w", err)
	}

	if created.Role == user.RoleAdmin {
		s.log.WarnContext(ctx, "admin account self-registered", "user_id", created.ID)
	}

	s.obs.ObserveRegistration(created.Role.String())
	s.log.InfoContext(ctx, "user registered", "user_id", created.ID, "role", created.Role)

	return created.Profile(), nil
}

func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = user.NormalizeEmail(email)

	if email == "" || password == "" {
		s.obs.ObserveLogin("invalid_credentials")
		return LoginResult{}, ErrInvalidCredentials
	}

	found, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			// unknown emails still pay for one hash comparison
			_ = s.hasher.Verify(s.placeholderHash(), password)
			s.obs.ObserveLogin("invalid_credentials")
			return LoginResult{}, ErrInvalidCredentials
		}
		s.obs.ObserveLogin("error")
		return LoginResult{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := s.hasher.Verify(found.PasswordHash, password); err != nil {
		s.obs.ObserveLogin("invalid_credentials")
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(found.ID, found.Role)
	if err != nil {
		s.obs.ObserveLogin("error")
		return LoginResult{}, fmt.Errorf("issue token: %w", err)
	}

	s.obs.ObserveLogin("success")
	s.log.InfoContext(ctx, "user logged in", "user_id", found.ID, "role", found.Role)

	return LoginResult{Token: token, Profile: found.Profile()}, nil
}

func (s *Service) Profile(ctx context.Context, userID string) (user.Profile, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return user.Profile{}, ErrNotFound
		}
		return user.Profile{}, fmt.Errorf("lookup user: %w", err)
	}

	return u.Profile(), nil
}

func (s *Service) placeholderHash() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash(uuid.NewString())
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}
