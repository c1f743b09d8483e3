package auth

import (
	"context"
	"fmt"

	"github.com/heartmarshall/civic-client/internal/domain"
)

// Logout clears the stored credential. Logging out twice is not an error.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("auth.Logout: %w", err)
	}

	s.transition(domain.AuthStateUnauthenticated)
	s.log.InfoContext(ctx, "user logged out")
	return nil
}
