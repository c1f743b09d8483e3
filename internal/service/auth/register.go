package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/heartmarshall/civic-client/internal/domain"
)

// Register creates an account and logs in. When the registration response
// already carries a token it is used directly; otherwise a login follows.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	input.Username = strings.TrimSpace(input.Username)

	if err := input.Validate(); err != nil {
		return nil, err
	}

	if !s.beginAuth() {
		return nil, ErrInProgress
	}

	cred := domain.Credentials{Username: input.Username, Password: input.Password}

	sess, err := s.api.Register(ctx, cred)
	if err != nil {
		s.endAuth(domain.AuthStateUnauthenticated)
		return nil, err
	}
	s.log.InfoContext(ctx, "user registered", slog.String("username", input.Username))

	if sess.AccessToken == "" {
		sess, err = s.api.Login(ctx, cred)
		if err != nil {
			s.endAuth(domain.AuthStateUnauthenticated)
			return nil, err
		}
	}

	if err := s.store.Set(ctx, sess.AccessToken); err != nil {
		s.endAuth(domain.AuthStateUnauthenticated)
		return nil, fmt.Errorf("auth.Register store token: %w", err)
	}

	s.endAuth(domain.AuthStateAuthenticated)
	return sess.User, nil
}
