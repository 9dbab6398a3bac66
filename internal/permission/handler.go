package permission

import (
	"context"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/travel-backoffice/internal"
	"github.com/frahmantamala/travel-backoffice/internal/session"
	"github.com/frahmantamala/travel-backoffice/internal/transport"
)

type ServiceAPI interface {
	ListPermissions(ctx context.Context) ([]PagePermission, error)
	UpdateRolesForPage(ctx context.Context, pageID string, roles []Role) (*PagePermission, error)
	IsRoleAllowed(ctx context.Context, pageID string, role Role) bool
	AllowedPages(ctx context.Context, role Role) ([]PagePermission, error)
}

// SessionReader resolves the principal of the calling client scope, already checked
// against the user record.
type SessionReader interface {
	CurrentUser(ctx context.Context) (*session.Principal, bool, error)
}

type Handler struct {
	*transport.BaseHandler
	Service  ServiceAPI
	Sessions SessionReader
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI, sessions SessionReader) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
		Sessions:    sessions,
	}
}

func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.Service.ListPermissions(r.Context())
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, PermissionsResponse{Permissions: perms})
}

func (h *Handler) UpdateRoles(w http.ResponseWriter, r *http.Request) {
	pageID := chi.URLParam(r, "pageId")

	var req UpdateRolesRequest
	if err := h.DecodeJSON(w, r, &req); err != nil {
		h.WriteAppError(w, err)
		return
	}

	roles := make([]Role, 0, len(req.Roles))
	for _, name := range req.Roles {
		roles = append(roles, Role(name))
	}

	updated, err := h.Service.UpdateRolesForPage(r.Context(), pageID, roles)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, updated)
}

// Check answers whether the current session may open the page. Without a session the answer is no.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	pageID := chi.URLParam(r, "pageId")

	p, ok, err := h.Sessions.CurrentUser(r.Context())
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	resp := CheckResponse{PageID: pageID}
	if ok {
		resp.Role = p.Role
		resp.Allowed = h.Service.IsRoleAllowed(r.Context(), pageID, Role(p.Role))
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) Navigation(w http.ResponseWriter, r *http.Request) {
	p, ok, err := h.Sessions.CurrentUser(r.Context())
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	if !ok {
		h.WriteAppError(w, internal.ErrNoSession)
		return
	}

	pages, err := h.Service.AllowedPages(r.Context(), Role(p.Role))
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ToNavigation(pages))
}
