// Package auth owns the client-side session: who is logged in, and whether
// that question has been answered yet. The Store is the single writer of
// session state; views only read it.
package auth

import (
	"context"
	"sync"

	"github.com/fakeyudi/cropscan/internal/api"
)

// Phase tracks the session lifecycle. It moves from PhaseInitializing to
// PhaseResolved exactly once, on the first completed identity check.
type Phase int

const (
	PhaseInitializing Phase = iota
	PhaseResolved
)

// Service is the remote surface the Store needs. *api.Client satisfies it.
type Service interface {
	CurrentUser(ctx context.Context) (api.User, error)
	Register(ctx context.Context, req api.RegisterRequest) (api.User, string, error)
	Login(ctx context.Context, email, password string) (api.User, string, error)
	Logout(ctx context.Context) (string, error)
}

// Outcome reports the result of a login, registration or logout attempt in
// user-facing terms.
type Outcome struct {
	OK      bool
	Message string
}

// Store holds the current identity. All mutation goes through its methods.
type Store struct {
	svc Service

	mu    sync.Mutex
	phase Phase
	user  *api.User
}

// NewStore returns a Store in PhaseInitializing with no identity.
func NewStore(svc Service) *Store {
	return &Store{svc: svc}
}

// CheckIdentity asks the service who the current credential belongs to.
// Any failure (transport trouble included) resolves to the anonymous
// state; an unanswered "who am I" is normal, not an error.
func (s *Store) CheckIdentity(ctx context.Context) {
	user, err := s.svc.CurrentUser(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.user = nil
	} else {
		s.user = &user
	}
	s.phase = PhaseResolved
}

// Register creates an account and, on success, adopts the returned identity.
// On failure the identity is left unchanged and the server's error text (or a
// generic fallback) is reported.
func (s *Store) Register(ctx context.Context, req api.RegisterRequest) Outcome {
	user, msg, err := s.svc.Register(ctx, req)
	if err != nil {
		return Outcome{Message: api.ErrorMessage(err, "Registration failed")}
	}

	s.mu.Lock()
	s.user = &user
	s.phase = PhaseResolved
	s.mu.Unlock()
	return Outcome{OK: true, Message: msg}
}

// Login authenticates and, on success, adopts the returned identity.
func (s *Store) Login(ctx context.Context, email, password string) Outcome {
	user, msg, err := s.svc.Login(ctx, email, password)
	if err != nil {
		return Outcome{Message: api.ErrorMessage(err, "Login failed")}
	}

	s.mu.Lock()
	s.user = &user
	s.phase = PhaseResolved
	s.mu.Unlock()
	return Outcome{OK: true, Message: msg}
}

// Logout clears the identity regardless of what the network says: the user's
// intent to leave the authenticated area is honored locally even when the
// remote call fails.
func (s *Store) Logout(ctx context.Context) Outcome {
	msg, err := s.svc.Logout(ctx)
	if err != nil || msg == "" {
		msg = "Logout successful"
	}

	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
	return Outcome{OK: true, Message: msg}
}

// Phase returns the current lifecycle phase.
func (s *Store) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Authenticated reports whether an identity is present.
func (s *Store) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil
}

// User returns the current identity, if any.
func (s *Store) User() (api.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return api.User{}, false
	}
	return *s.user, true
}
