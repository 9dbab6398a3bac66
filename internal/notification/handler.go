package notification

import (
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/travel-backoffice/internal"
	"github.com/frahmantamala/travel-backoffice/internal/transport"
)

type Handler struct {
	*transport.Resource[Notification, CreateNotificationRequest, UpdateNotificationRequest]
	Service *Service
}

func NewHandler(baseHandler *transport.BaseHandler, service *Service) *Handler {
	return &Handler{
		Resource: transport.NewResource[Notification, CreateNotificationRequest, UpdateNotificationRequest](baseHandler, service),
		Service:  service,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/mine", h.Mine)
	r.Get("/mine/unread", h.Unread)
	r.Post("/mine/read", h.MarkAllRead)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/read", h.MarkRead)
}

// Mine lists the caller's notifications and broadcasts; ?unread=true narrows to unread ones.
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.actor(w, r)
	if !ok {
		return
	}
	unread := r.URL.Query().Get("unread") == "true"
	transport.WriteResult(h.BaseHandler, w, http.StatusOK, h.Service.FetchForUser(r.Context(), userID, unread))
}

func (h *Handler) Unread(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.actor(w, r)
	if !ok {
		return
	}
	transport.WriteResult(h.BaseHandler, w, http.StatusOK, h.Service.UnreadCount(r.Context(), userID))
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.actor(w, r)
	if !ok {
		return
	}
	transport.WriteResult(h.BaseHandler, w, http.StatusOK, h.Service.MarkRead(r.Context(), chi.URLParam(r, "id"), userID))
}

func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.actor(w, r)
	if !ok {
		return
	}
	transport.WriteResult(h.BaseHandler, w, http.StatusOK, h.Service.MarkAllRead(r.Context(), userID))
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := internal.ActorIDFromContext(r.Context())
	if userID == "" {
		h.WriteAppError(w, internal.ErrNoSession)
		return "", false
	}
	return userID, true
}
