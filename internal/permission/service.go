package permission

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/frahmantamala/travel-backoffice/internal"
	"github.com/frahmantamala/travel-backoffice/internal/core/common/validation"
)

// Service owns the page permission table. The table is seeded with DefaultPermissions
// the first time it is read while empty.
type Service struct {
	repo   Repository
	logger *slog.Logger

	mu     sync.Mutex
	seeded bool
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) ensureSeeded(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seeded {
		return nil
	}

	count, err := s.repo.Count(ctx)
	if err != nil {
		return internal.NewInternalError("failed to read page permissions", err)
	}
	if count == 0 {
		defaults := DefaultPermissions()
		if err := s.repo.Seed(ctx, defaults); err != nil {
			return internal.NewInternalError("failed to seed page permissions", err)
		}
		s.logger.Info("seeded default page permissions", "pages", len(defaults))
	}
	s.seeded = true
	return nil
}

// ListPermissions returns every page record ordered by position.
func (s *Service) ListPermissions(ctx context.Context) ([]PagePermission, error) {
	if err := s.ensureSeeded(ctx); err != nil {
		return nil, err
	}
	perms, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list page permissions", "error", err)
		return nil, internal.NewInternalError("failed to list page permissions", err)
	}
	if perms == nil {
		perms = []PagePermission{}
	}
	return perms, nil
}

// UpdateRolesForPage replaces the role set of an existing page. It never creates a page.
func (s *Service) UpdateRolesForPage(ctx context.Context, pageID string, roles []Role) (*PagePermission, error) {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	v := validation.NewValidator()
	v.Field("page_id", pageID).Required()
	v.Field("roles", names).OneOf(internal.ErrCodeInvalidRole, RoleNames()...)
	if err := v.Validate(); err != nil {
		return nil, err
	}

	if err := s.ensureSeeded(ctx); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateRoles(ctx, pageID, dedupe(roles)); err != nil {
		if appErr, ok := internal.IsAppError(err); ok {
			return nil, appErr
		}
		s.logger.Error("failed to update page roles", "page_id", pageID, "error", err)
		return nil, internal.NewInternalError("failed to update page roles", err)
	}

	s.logger.Info("page roles updated", "page_id", pageID, "roles", names)
	return s.repo.Get(ctx, pageID)
}

// IsRoleAllowed reports whether role may open pageID. Unknown pages and store
// failures both deny.
func (s *Service) IsRoleAllowed(ctx context.Context, pageID string, role Role) bool {
	if err := s.ensureSeeded(ctx); err != nil {
		s.logger.Error("permission check failed", "page_id", pageID, "error", err)
		return false
	}
	perm, err := s.repo.Get(ctx, pageID)
	if err != nil {
		if appErr, ok := internal.IsAppError(err); !ok || appErr.Type != internal.ErrorTypeNotFound {
			s.logger.Error("permission check failed", "page_id", pageID, "error", err)
		}
		return false
	}
	return perm.Allows(role)
}

// AllowedPages lists the pages role may open, in navigation order.
func (s *Service) AllowedPages(ctx context.Context, role Role) ([]PagePermission, error) {
	perms, err := s.ListPermissions(ctx)
	if err != nil {
		return nil, err
	}
	allowed := make([]PagePermission, 0, len(perms))
	for _, p := range perms {
		if p.Allows(role) {
			allowed = append(allowed, p)
		}
	}
	return allowed, nil
}

// Reset drops every record and reinstalls the defaults.
func (s *Service) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.Clear(ctx); err != nil {
		return fmt.Errorf("clear page permissions: %w", err)
	}
	if err := s.repo.Seed(ctx, DefaultPermissions()); err != nil {
		return fmt.Errorf("seed page permissions: %w", err)
	}
	s.seeded = true
	return nil
}

func dedupe(roles []Role) []Role {
	seen := make(map[Role]struct{}, len(roles))
	out := make([]Role, 0, len(roles))
	for _, r := range roles {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
