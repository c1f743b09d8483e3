// Package auth tracks the client's session state and drives login,
// registration and logout.
package auth

import (
	"context"
	"log/slog"
	"sync"

	"github.com/heartmarshall/civic-client/internal/domain"
)

// authAPI defines the backend calls needed by the auth service.
type authAPI interface {
	Login(ctx context.Context, cred domain.Credentials) (*domain.Session, error)
	Register(ctx context.Context, cred domain.Credentials) (*domain.Session, error)
	Me(ctx context.Context) (*domain.User, error)
}

// tokenStore defines the credential storage needed by the auth service.
type tokenStore interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Service implements the session state machine
// Unauthenticated → Authenticating → Authenticated → Unauthenticated.
type Service struct {
	log   *slog.Logger
	api   authAPI
	store tokenStore

	mu             sync.Mutex
	authenticating bool
	last           domain.AuthState
	observers      map[int]func(domain.AuthState)
	nextObserver   int
}

// NewService creates a new auth service instance.
func NewService(logger *slog.Logger, api authAPI, store tokenStore) *Service {
	return &Service{
		log:       logger.With("service", "auth"),
		api:       api,
		store:     store,
		last:      domain.AuthStateUnauthenticated,
		observers: make(map[int]func(domain.AuthState)),
	}
}

// State derives the current state from the token store. A login or
// registration in progress reports Authenticating.
func (s *Service) State(ctx context.Context) domain.AuthState {
	s.mu.Lock()
	busy := s.authenticating
	s.mu.Unlock()
	if busy {
		return domain.AuthStateAuthenticating
	}

	token, err := s.store.Get(ctx)
	if err != nil {
		s.log.WarnContext(ctx, "token store read failed", slog.String("error", err.Error()))
		token = ""
	}

	state := domain.AuthStateUnauthenticated
	if token != "" {
		state = domain.AuthStateAuthenticated
	}
	s.transition(state)
	return state
}

// Subscribe registers fn to be called on every state transition.
// The returned function removes the subscription.
func (s *Service) Subscribe(fn func(domain.AuthState)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextObserver
	s.nextObserver++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// HandleError moves to Unauthenticated when err is an authorization failure.
// The gateway has already cleared the credential. It reports whether the
// caller must re-authenticate.
func (s *Service) HandleError(ctx context.Context, err error) bool {
	if domain.KindOf(err) != domain.KindUnauthorized {
		return false
	}
	s.log.InfoContext(ctx, "session expired")
	s.transition(domain.AuthStateUnauthenticated)
	return true
}

// CurrentUser asks the backend who the stored credential belongs to.
func (s *Service) CurrentUser(ctx context.Context) (*domain.User, error) {
	user, err := s.api.Me(ctx)
	if err != nil {
		s.HandleError(ctx, err)
		return nil, err
	}
	s.transition(domain.AuthStateAuthenticated)
	return user, nil
}

// beginAuth marks a login in progress. It fails when one is already running.
func (s *Service) beginAuth() bool {
	s.mu.Lock()
	if s.authenticating {
		s.mu.Unlock()
		return false
	}
	s.authenticating = true
	s.mu.Unlock()

	s.transition(domain.AuthStateAuthenticating)
	return true
}

func (s *Service) endAuth(state domain.AuthState) {
	s.mu.Lock()
	s.authenticating = false
	s.mu.Unlock()

	s.transition(state)
}

// transition records state and notifies observers when it changed.
// Observers run outside the lock.
func (s *Service) transition(state domain.AuthState) {
	s.mu.Lock()
	if s.last == state {
		s.mu.Unlock()
		return
	}
	s.last = state
	fns := make([]func(domain.AuthState), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}
