package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/perkstore/perkstore/internal/domain"
)

// Identity is the authenticated caller as established by the auth middleware.
type Identity struct {
	UserID uuid.UUID
	Role   domain.UserRole
}

func (i Identity) IsAdmin() bool {
	return i.Role == domain.RoleAdmin
}

type identityKey struct{}

func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
