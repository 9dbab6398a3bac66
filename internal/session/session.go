package session

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/travel-backoffice/internal"
)

// Principal is the authenticated user held by a session. It never carries a secret.
type Principal struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `json:"role"`
	LoggedIn  time.Time `json:"logged_in_at"`
}

func (p Principal) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// Store persists at most one principal per client scope. The scope is read from the
// context with internal.ClientIDFromContext. Anonymous contexts see no session and
// cannot store one.
type Store interface {
	// SetCurrentUser replaces any principal already stored for the scope.
	SetCurrentUser(ctx context.Context, p Principal) error
	// GetCurrentUser reports ok=false when the scope has no session. A missing
	// session is never an error.
	GetCurrentUser(ctx context.Context) (*Principal, bool, error)
	// ClearCurrentUser is idempotent.
	ClearCurrentUser(ctx context.Context) error
}

// ErrAnonymous is returned when a session is stored for an anonymous context.
var ErrAnonymous = errors.New("session: anonymous caller has no scope")

// scope returns ok=false for anonymous contexts, which never own a session.
func scope(ctx context.Context) (string, bool) {
	if internal.IsAnonymous(ctx) {
		return "", false
	}
	return internal.ClientIDFromContext(ctx), true
}
