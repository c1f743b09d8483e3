package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/heartmarshall/civic-client/internal/domain"
)

// ErrInProgress is returned when a login or registration is already running.
var ErrInProgress = errors.New("authentication already in progress")

// Login exchanges credentials for a token and stores it.
// The returned user is nil when the backend does not include it.
func (s *Service) Login(ctx context.Context, input LoginInput) (*domain.User, error) {
	input.Username = strings.TrimSpace(input.Username)

	if err := input.Validate(); err != nil {
		return nil, err
	}

	if !s.beginAuth() {
		return nil, ErrInProgress
	}

	sess, err := s.api.Login(ctx, domain.Credentials{Username: input.Username, Password: input.Password})
	if err != nil {
		s.endAuth(domain.AuthStateUnauthenticated)
		s.log.InfoContext(ctx, "login failed",
			slog.String("username", input.Username),
			slog.String("kind", domain.KindOf(err).String()))
		return nil, err
	}

	if err := s.store.Set(ctx, sess.AccessToken); err != nil {
		s.endAuth(domain.AuthStateUnauthenticated)
		return nil, fmt.Errorf("auth.Login store token: %w", err)
	}

	s.endAuth(domain.AuthStateAuthenticated)
	s.log.InfoContext(ctx, "user logged in", slog.String("username", input.Username))

	return sess.User, nil
}
