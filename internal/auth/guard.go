package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/travel-backoffice/internal"
	"github.com/frahmantamala/travel-backoffice/internal/session"
	"github.com/frahmantamala/travel-backoffice/internal/transport"
	"github.com/frahmantamala/travel-backoffice/pkg/logger"
)

const (
	ReasonNoSession = "no_session"
	ReasonForbidden = "role_not_allowed"
)

// Decision is the outcome of a navigation check.
type Decision struct {
	Allowed   bool
	Reason    string
	Principal *session.Principal
}

// Authority answers session questions for the guard. *Service implements it.
type Authority interface {
	CurrentUser(ctx context.Context) (*session.Principal, bool, error)
	HasPermission(ctx context.Context, pageID string) bool
}

// Guard decides whether the current session may enter a page.
type Guard struct {
	auth   Authority
	logger *slog.Logger
}

func NewGuard(auth Authority, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{
		auth:   auth,
		logger: logger,
	}
}

// Allow denies with ReasonNoSession when nobody is logged in, and with
// ReasonForbidden when the session's role is not listed for pageID.
func (g *Guard) Allow(ctx context.Context, pageID string) Decision {
	p, ok, err := g.auth.CurrentUser(ctx)
	if err != nil {
		g.logger.ErrorContext(ctx, "guard could not read session", "error", err, "page_id", pageID)
		return Decision{Reason: ReasonNoSession}
	}
	if !ok {
		return Decision{Reason: ReasonNoSession}
	}
	if !g.auth.HasPermission(ctx, pageID) {
		return Decision{Reason: ReasonForbidden, Principal: p}
	}
	return Decision{Allowed: true, Principal: p}
}

// Require is middleware answering 401 without a session and 403 when the role is not allowed.
func (g *Guard) Require(pageID string) func(http.Handler) http.Handler {
	base := transport.NewBaseHandler(g.logger)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := g.Allow(r.Context(), pageID)
			switch {
			case d.Allowed:
				ctx := internal.ContextWithActorID(r.Context(), d.Principal.ID)
				next.ServeHTTP(w, r.WithContext(ctx))
			case d.Reason == ReasonNoSession:
				base.WriteAppError(w, internal.ErrNoSession)
			default:
				logger.From(r.Context()).Warn("access denied: role not allowed",
					"user_id", d.Principal.ID,
					"role", d.Principal.Role,
					"page_id", pageID)
				base.WriteAppError(w, internal.ErrAccessDenied)
			}
		})
	}
}
