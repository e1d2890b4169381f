package ports

import "context"

type AuthTokens struct {
	AccessToken  string
	IDToken      string
	RefreshToken string
}

// IdentityProvider is the external authority that owns credentials.
type IdentityProvider interface {
	Login(ctx context.Context, username, password string) (*AuthTokens, error)
	SignUp(ctx context.Context, username, password, email string) (userSub string, err error)
}

type AuthService interface {
	Login(ctx context.Context, username, password string) (*AuthTokens, error)
	Register(ctx context.Context, username, password, email string) (userSub string, err error)
}
