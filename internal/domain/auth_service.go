package domain

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/Vovarama1992/nexcast/internal/ports"
)

type authService struct {
	idp ports.IdentityProvider
}

func NewAuthService(idp ports.IdentityProvider) ports.AuthService {
	return &authService{idp: idp}
}

func (s *authService) Login(ctx context.Context, username, password string) (*ports.AuthTokens, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password required", ErrBadRequest)
	}

	tokens, err := s.idp.Login(ctx, username, password)
	if err != nil {
		return nil, fmt.Errorf("%w: login: %w", ErrUpstreamAuth, err)
	}
	return tokens, nil
}

func (s *authService) Register(ctx context.Context, username, password, email string) (string, error) {
	if username == "" || password == "" || email == "" {
		return "", fmt.Errorf("%w: username, password, and email required", ErrBadRequest)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%w: invalid email", ErrBadRequest)
	}

	sub, err := s.idp.SignUp(ctx, username, password, email)
	if err != nil {
		return "", fmt.Errorf("%w: sign up: %w", ErrUpstreamAuth, err)
	}
	return sub, nil
}
