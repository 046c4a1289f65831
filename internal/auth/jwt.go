package auth

import (
	"errors"
	"time"

	"github.com/geocoder89/guruhub/internal/domain/user"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Claims struct {
	Role user.Role `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) UserID() string {
	return c.Subject
}

// Failure is the reason a presented token was rejected.
type Failure int

const (
	FailureNone Failure = iota
	FailureMalformed
	FailureInvalidSignature
	FailureExpired
)

func (f Failure) String() string {
	switch f {
	case FailureNone:
		return "none"
	case FailureMalformed:
		return "malformed"
	case FailureInvalidSignature:
		return "invalid_signature"
	case FailureExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Verification is the outcome of checking a token: either Claims or a Failure.
type Verification struct {
	Claims  *Claims
	Failure Failure
}

func (v Verification) OK() bool {
	return v.Failure == FailureNone && v.Claims != nil
}

func (v Verification) Err() error {
	switch v.Failure {
	case FailureNone:
		return nil
	case FailureExpired:
		return ErrExpired
	case FailureInvalidSignature:
		return ErrInvalidSignature
	default:
		return ErrMalformed
	}
}

type Manager struct {
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
}

func NewManager(secret string, accessTTL time.Duration) *Manager {
	return &Manager{
		secret:    []byte(secret),
		accessTTL: accessTTL,
		now:       time.Now,
	}
}

// WithClock swaps the time source; used by tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

func (m *Manager) TTL() time.Duration {
	return m.accessTTL
}

// Issue signs a token for the user with the configured TTL.
func (m *Manager) Issue(userID string, role user.Role) (string, error) {
	return m.IssueWithTTL(userID, role, m.accessTTL)
}

// IssueWithTTL signs a token expiring ttl from now. A ttl <= 0 produces a token that is already expired.
func (m *Manager) IssueWithTTL(userID string, role user.Role, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("issue token: empty user id")
	}

	if !role.Valid() {
		return "", user.ErrInvalidRole
	}

	now := m.now().UTC()

	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify checks signature first, then expiry, then the shape of the claims.
func (m *Manager) Verify(tokenStr string) Verification {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		// Enforce HS256
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	},
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)

	if err != nil {
		return Verification{Failure: classify(err)}
	}

	if !token.Valid || claims.Subject == "" || !claims.Role.Valid() {
		return Verification{Failure: FailureMalformed}
	}

	return Verification{Claims: claims}
}

func classify(err error) Failure {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return FailureInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return FailureExpired
	default:
		return FailureMalformed
	}
}
