package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/cert-tracker/internal/auth"
	"github.com/sakif/cert-tracker/internal/model"
)

// AuthService turns a verified provider profile into a signed session.
//
//	AuthHandler (HTTP) → AuthService → IdentityService → UserRepository
//	                               ↘ TokenService (JWT)
type AuthService struct {
	identity *IdentityService
	tokens   *auth.TokenService
	logger   *slog.Logger
}

func NewAuthService(identity *IdentityService, tokens *auth.TokenService, logger *slog.Logger) *AuthService {
	return &AuthService{
		identity: identity,
		tokens:   tokens,
		logger:   logger,
	}
}

// AuthResult bundles the user with the issued session token so the handler
// can set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// SignInGoogle resolves the Google profile to an internal user and issues a
// session token for it.
func (s *AuthService) SignInGoogle(ctx context.Context, gUser *auth.GoogleUser) (*AuthResult, error) {
	if gUser == nil {
		return nil, fmt.Errorf("service/auth: Google user must not be nil")
	}

	user, err := s.identity.Resolve(ctx, model.ExternalIdentity{
		ID:        gUser.Sub,
		Email:     gUser.Email,
		FullName:  gUser.Name,
		AvatarURL: gUser.Picture,
	})
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user signed in", slog.String("userID", user.ID))

	return &AuthResult{User: user, Token: token}, nil
}
