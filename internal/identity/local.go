package identity

import (
	"context"

	"classtrack/internal/apperr"
	"classtrack/internal/model"
)

// LocalResolver verifies server-signed HS256 tokens and loads the embedded
// identity. The identity must still exist and be active.
type LocalResolver struct {
	users      UserStore
	signingKey string
	issuer     string
}

// NewLocalResolver creates the local-token backend.
func NewLocalResolver(users UserStore, signingKey, issuer string) *LocalResolver {
	return &LocalResolver{users: users, signingKey: signingKey, issuer: issuer}
}

// Resolve implements Resolver.
func (r *LocalResolver) Resolve(ctx context.Context, token string) (model.User, error) {
	claims, err := ParseToken(token, r.signingKey, r.issuer)
	if err != nil {
		return model.User{}, apperr.Unauthenticatedf("invalid token")
	}
	u, err := r.users.Get(ctx, claims.Subject)
	if err != nil {
		if apperr.KindOf(err) == apperr.NotFound {
			return model.User{}, apperr.Unauthenticatedf("user no longer exists")
		}
		return model.User{}, err
	}
	return requireActive(u)
}
