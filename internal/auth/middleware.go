package auth

import (
	"net/http"

	"github.com/frahmantamala/travel-backoffice/internal"
	"github.com/frahmantamala/travel-backoffice/internal/transport"
	"github.com/frahmantamala/travel-backoffice/pkg/logger"
)

type ScopeParser interface {
	ParseScope(token string) (string, error)
}

// SessionMiddleware resolves the bearer token into a client scope on the request context.
// Requests without a token pass through anonymous: they never see a stored session,
// including the process-wide one used by single-client processes.
// A token that fails validation is rejected with 401.
func SessionMiddleware(tokens ScopeParser, base *transport.BaseHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := transport.BearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r.WithContext(internal.ContextAnonymous(r.Context())))
				return
			}

			scope, err := tokens.ParseScope(token)
			if err != nil {
				base.WriteAppError(w, err)
				return
			}

			ctx := internal.ContextWithClientID(r.Context(), scope)
			ctx = logger.With(ctx, "client_id", scope)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
