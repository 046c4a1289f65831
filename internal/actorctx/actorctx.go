package actorctx

import (
	"context"

	"github.com/geocoder89/guruhub/internal/domain/user"
)

type ctxKey struct{}

// Identity is the caller proven by a verified bearer token.
type Identity struct {
	UserID string
	Role   user.Role
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)

	return id, ok && id.UserID != ""
}

func UserIDFrom(ctx context.Context) (string, bool) {
	id, ok := IdentityFrom(ctx)

	return id.UserID, ok
}
