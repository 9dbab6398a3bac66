package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/travel-backoffice/internal"
	"github.com/frahmantamala/travel-backoffice/internal/permission"
	"github.com/frahmantamala/travel-backoffice/internal/session"
	"github.com/frahmantamala/travel-backoffice/internal/user"
)

// UserRepository looks users up by email, ignoring letter case, and by id.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id string) (*user.User, error)
}

type PermissionTable interface {
	IsRoleAllowed(ctx context.Context, pageID string, role permission.Role) bool
}

// dummyHash is compared against when the email is unknown so both failure paths cost a bcrypt check.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("no-such-user-placeholder"), bcrypt.DefaultCost)

type Config struct {
	// MinLatency is the least time a login takes, success or failure. Zero disables it.
	MinLatency time.Duration
}

// Service runs the login state machine for every client scope.
type Service struct {
	users       UserRepository
	sessions    session.Store
	permissions PermissionTable
	minLatency  time.Duration
	logger      *slog.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewService(users UserRepository, sessions session.Store, permissions PermissionTable, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:       users,
		sessions:    sessions,
		permissions: permissions,
		minLatency:  cfg.MinLatency,
		logger:      logger,
		inFlight:    make(map[string]struct{}),
	}
}

// Login authenticates the credentials and stores the principal as the scope's session.
// A second Login on the same scope while one is outstanding fails with AlreadyInProgress.
// A failed attempt leaves any existing session untouched.
func (s *Service) Login(ctx context.Context, email, password string) (*session.Principal, error) {
	scope := internal.ClientIDFromContext(ctx)
	if !s.begin(scope) {
		return nil, internal.ErrAlreadyInProgress
	}
	defer s.end(scope)

	start := time.Now()
	principal, err := s.verify(ctx, email, password)
	if waitErr := s.waitFloor(ctx, start); waitErr != nil && err == nil {
		return nil, waitErr
	}
	if err != nil {
		s.logger.Info("login failed", "client_id", scope, "reason", err)
		return nil, err
	}

	principal.LoggedIn = time.Now().UTC()
	if err := s.sessions.SetCurrentUser(ctx, *principal); err != nil {
		s.logger.Error("failed to store session", "client_id", scope, "error", err)
		return nil, internal.NewInternalError("failed to store session", err)
	}

	s.logger.Info("login succeeded", "client_id", scope, "user_id", principal.ID, "role", principal.Role)
	return principal, nil
}

func (s *Service) verify(ctx context.Context, email, password string) (*session.Principal, error) {
	u, err := s.users.FindByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		if errors.Is(err, internal.ErrUserNotFound) {
			return nil, internal.ErrInvalidCredentials
		}
		s.logger.Error("user lookup failed", "error", err)
		return nil, internal.NewInternalError("failed to look up user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, internal.ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, internal.ErrInvalidCredentials
	}

	p := u.Principal()
	return &p, nil
}

func (s *Service) waitFloor(ctx context.Context, start time.Time) error {
	remaining := s.minLatency - time.Since(start)
	if remaining <= 0 {
		return nil
	}
	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return internal.NewTimeoutError("login cancelled").WithCause(ctx.Err())
	}
}

func (s *Service) begin(scope string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[scope]; busy {
		return false
	}
	s.inFlight[scope] = struct{}{}
	return true
}

func (s *Service) end(scope string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, scope)
}

// Logout clears the scope's session. It succeeds whether or not a session exists.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.sessions.ClearCurrentUser(ctx); err != nil {
		s.logger.Error("failed to clear session", "client_id", internal.ClientIDFromContext(ctx), "error", err)
		return internal.NewInternalError("failed to clear session", err)
	}
	return nil
}

// CurrentUser returns the scope's principal checked against the user record. A session
// whose user was deleted or deactivated is cleared and reported as absent. A changed
// role or name is written back to the session.
func (s *Service) CurrentUser(ctx context.Context) (*session.Principal, bool, error) {
	p, ok, err := s.sessions.GetCurrentUser(ctx)
	if err != nil || !ok {
		return nil, false, err
	}

	u, err := s.users.GetByID(ctx, p.ID)
	switch {
	case errors.Is(err, internal.ErrUserNotFound):
		return nil, false, s.invalidate(ctx, p, "user no longer exists")
	case err != nil:
		return nil, false, internal.NewInternalError("failed to look up session user", err)
	case !u.IsActive:
		return nil, false, s.invalidate(ctx, p, "user deactivated")
	}

	fresh := u.Principal()
	fresh.LoggedIn = p.LoggedIn
	if fresh != *p {
		if err := s.sessions.SetCurrentUser(ctx, fresh); err != nil {
			s.logger.Error("failed to refresh session", "user_id", p.ID, "error", err)
		}
	}
	return &fresh, true, nil
}

func (s *Service) invalidate(ctx context.Context, p *session.Principal, reason string) error {
	s.logger.Info("session invalidated", "client_id", internal.ClientIDFromContext(ctx), "user_id", p.ID, "reason", reason)
	if err := s.sessions.ClearCurrentUser(ctx); err != nil {
		return internal.NewInternalError("failed to clear session", err)
	}
	return nil
}

// State reports where the scope sits in the login state machine.
func (s *Service) State(ctx context.Context) State {
	if internal.IsAnonymous(ctx) {
		return StateLoggedOut
	}
	scope := internal.ClientIDFromContext(ctx)
	s.mu.Lock()
	_, busy := s.inFlight[scope]
	s.mu.Unlock()
	if busy {
		return StateAuthenticating
	}
	if _, ok, err := s.CurrentUser(ctx); err == nil && ok {
		return StateLoggedIn
	}
	return StateLoggedOut
}

// HasPermission reports whether the current session's role may open pageID.
// Without a session the answer is false.
func (s *Service) HasPermission(ctx context.Context, pageID string) bool {
	p, ok, err := s.CurrentUser(ctx)
	if err != nil {
		s.logger.Error("failed to read session", "error", err)
		return false
	}
	if !ok {
		return false
	}
	return s.permissions.IsRoleAllowed(ctx, pageID, permission.Role(p.Role))
}
