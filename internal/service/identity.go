// Package service contains the business logic of the tracker.
//
//	Handler (HTTP)  → parses requests, writes responses
//	Service         → validates input, enforces domain rules, orchestrates
//	Repository      → reads/writes the database
//
// Services depend on the repository interfaces, never on the sqlite package,
// and know nothing about HTTP. Every owner-scoped operation takes the caller's
// user ID explicitly; it comes from the verified session, never from the
// request body.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/cert-tracker/internal/apperror"
	"github.com/sakif/cert-tracker/internal/model"
	"github.com/sakif/cert-tracker/internal/repository"
)

// fallbackDisplayName is used when the identity has neither a name nor an email.
const fallbackDisplayName = "user"

// IdentityService maps external sign-in identities to internal users.
type IdentityService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

func NewIdentityService(users repository.UserRepository, logger *slog.Logger) *IdentityService {
	return &IdentityService{users: users, logger: logger}
}

// Resolve returns the internal user for ident, creating it on first sign-in.
//
// The stored profile is written once. Later sign-ins with a changed name or
// avatar return the existing row unchanged.
func (s *IdentityService) Resolve(ctx context.Context, ident model.ExternalIdentity) (*model.User, error) {
	externalID := strings.TrimSpace(ident.ID)
	if externalID == "" {
		return nil, apperror.ValidationFailed("externalId", "external identity ID is required")
	}

	user, err := s.users.GetUserByExternalID(ctx, externalID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/identity: looking up %s: %w", externalID, err)
	}

	// Concurrent first sign-ins all land here; CreateIfMissing returns the
	// single row that won.
	user, err = s.users.CreateIfMissing(ctx, &model.User{
		ExternalID:  externalID,
		Email:       strings.TrimSpace(ident.Email),
		DisplayName: displayName(ident),
		AvatarURL:   strings.TrimSpace(ident.AvatarURL),
	})
	if err != nil {
		s.logger.Error("failed to create user",
			slog.String("externalID", externalID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/identity: creating user %s: %w", externalID, err)
	}

	s.logger.Info("user resolved",
		slog.String("userID", user.ID),
		slog.String("externalID", externalID),
	)
	return user, nil
}

// GetUser returns a user by internal ID.
func (s *IdentityService) GetUser(ctx context.Context, id string) (*model.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}
	return s.users.GetUserByID(ctx, id)
}

// displayName picks the full name, then the local part of the email.
func displayName(ident model.ExternalIdentity) string {
	if name := strings.TrimSpace(ident.FullName); name != "" {
		return name
	}
	email := strings.TrimSpace(ident.Email)
	if local, _, ok := strings.Cut(email, "@"); ok && local != "" {
		return local
	}
	if email != "" {
		return email
	}
	return fallbackDisplayName
}
