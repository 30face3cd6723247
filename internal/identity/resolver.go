package identity

import (
	"context"

	"classtrack/internal/apperr"
	"classtrack/internal/model"
)

// UserStore is the slice of the user repository the resolvers need.
type UserStore interface {
	Get(ctx context.Context, id string) (model.User, error)
	FindOrCreateByEmail(ctx context.Context, email, name string) (model.User, error)
}

// Resolver maps a bearer credential to an active user identity.
// Exactly one implementation is active per deployment, chosen at startup.
type Resolver interface {
	Resolve(ctx context.Context, token string) (model.User, error)
}

// requireActive rejects identities that exist but are switched off.
func requireActive(u model.User) (model.User, error) {
	if u.Status != model.StatusActive {
		return model.User{}, apperr.Unauthenticatedf("account is inactive")
	}
	return u, nil
}
