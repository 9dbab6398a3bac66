package auth

import (
	"context"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/google/uuid"

	"github.com/frahmantamala/travel-backoffice/internal"
	"github.com/frahmantamala/travel-backoffice/internal/core/common/validation"
	"github.com/frahmantamala/travel-backoffice/internal/session"
	"github.com/frahmantamala/travel-backoffice/internal/transport"
)

type ServiceAPI interface {
	Login(ctx context.Context, email, password string) (*session.Principal, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*session.Principal, bool, error)
	State(ctx context.Context) State
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Tokens  *TokenIssuer
	Guard   *Guard
	// LoginLimiter, when set, wraps the login endpoint only.
	LoginLimiter func(http.Handler) http.Handler
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI, tokens *TokenIssuer, guard *Guard) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
		Tokens:      tokens,
		Guard:       guard,
	}
}

func (h *Handler) Routes(r chi.Router) {
	login := http.Handler(http.HandlerFunc(h.Login))
	if h.LoginLimiter != nil {
		login = h.LoginLimiter(login)
	}
	r.Method(http.MethodPost, "/login", login)
	r.Post("/logout", h.Logout)
	r.Get("/me", h.Me)
	r.Get("/can/{pageId}", h.Can)
}

// Login opens a fresh client scope unless the caller already presented one.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := h.DecodeJSON(w, r, &dto); err != nil {
		h.WriteAppError(w, err)
		return
	}
	if err := validation.Struct(dto); err != nil {
		h.WriteAppError(w, err)
		return
	}

	ctx := r.Context()
	scope := internal.ClientIDFromContext(ctx)
	if scope == "" {
		scope = uuid.NewString()
		ctx = internal.ContextWithClientID(ctx, scope)
	}

	principal, err := h.Service.Login(ctx, dto.Email, dto.Password)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	token, expiresAt, err := h.Tokens.Issue(scope, principal.ID)
	if err != nil {
		h.WriteAppError(w, internal.NewInternalError("failed to issue session token", err))
		return
	}

	h.WriteJSON(w, http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      principal,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Logout(r.Context()); err != nil {
		h.WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok, err := h.Service.CurrentUser(r.Context())
	if err != nil {
		h.WriteAppError(w, internal.NewInternalError("failed to read session", err))
		return
	}
	resp := MeResponse{State: h.Service.State(r.Context())}
	if ok {
		resp.User = p
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) Can(w http.ResponseWriter, r *http.Request) {
	pageID := chi.URLParam(r, "pageId")
	d := h.Guard.Allow(r.Context(), pageID)
	h.WriteJSON(w, http.StatusOK, DecisionResponse{PageID: pageID, Allowed: d.Allowed, Reason: d.Reason})
}
