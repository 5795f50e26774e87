package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/odyssey-erp/odyssey-backoffice/internal/api"
	"github.com/odyssey-erp/odyssey-backoffice/internal/shared"
)

// Authenticator exchanges credentials for a backend token.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, error)
}

// Service wraps the backend login.
type Service struct {
	backend Authenticator
	logger  *slog.Logger
}

// NewService constructs a new Service.
func NewService(backend Authenticator, logger *slog.Logger) *Service {
	return &Service{backend: backend, logger: logger}
}

// Authenticate returns the backend token for the credentials. Rejected
// credentials map to shared.ErrInvalidCredentials; everything else is
// returned as is.
func (s *Service) Authenticate(ctx context.Context, username, password string) (string, error) {
	token, err := s.backend.Login(ctx, strings.TrimSpace(username), password)
	switch {
	case errors.Is(err, api.ErrUnauthorized), errors.Is(err, api.ErrValidation):
		return "", shared.ErrInvalidCredentials
	case err != nil:
		return "", err
	}
	if info, ok := InspectToken(token); ok {
		s.logger.Info("signed in", slog.String("subject", info.Subject), slog.Time("expires_at", info.ExpiresAt))
	} else {
		s.logger.Info("signed in", slog.String("username", username))
	}
	return token, nil
}
