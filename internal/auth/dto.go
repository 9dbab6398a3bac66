package auth

import (
	"time"

	"github.com/frahmantamala/travel-backoffice/internal/session"
)

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expires_at"`
	User      *session.Principal `json:"user"`
}

type MeResponse struct {
	State State              `json:"state"`
	User  *session.Principal `json:"user,omitempty"`
}

type DecisionResponse struct {
	PageID  string `json:"page_id"`
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}
