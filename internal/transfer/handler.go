package transfer

import (
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/travel-backoffice/internal"
	"github.com/frahmantamala/travel-backoffice/internal/core/common/validation"
	"github.com/frahmantamala/travel-backoffice/internal/transport"
)

const defaultUpcomingWindow = 48 * time.Hour

type Handler struct {
	*transport.Resource[Transfer, CreateTransferRequest, UpdateTransferRequest]
	Service *Service
}

func NewHandler(baseHandler *transport.BaseHandler, service *Service) *Handler {
	return &Handler{
		Resource: transport.NewResource[Transfer, CreateTransferRequest, UpdateTransferRequest](baseHandler, service),
		Service:  service,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/upcoming", h.Upcoming)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Put("/{id}/status", h.UpdateStatus)
	r.Put("/{id}/driver", h.AssignDriver)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if bookingID := r.URL.Query().Get("booking_id"); bookingID != "" {
		transport.WriteResult(h.BaseHandler, w, http.StatusOK, h.Service.FetchByBooking(r.Context(), bookingID))
		return
	}
	h.Resource.List(w, r)
}

// Upcoming takes an optional window such as "24h"; the default is two days.
func (h *Handler) Upcoming(w http.ResponseWriter, r *http.Request) {
	window := defaultUpcomingWindow
	if raw := r.URL.Query().Get("within"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			h.WriteAppError(w, internal.NewValidationFieldError("within", "within must be a positive duration such as 24h", internal.ErrCodeValidationFailed))
			return
		}
		window = d
	}
	transport.WriteResult(h.BaseHandler, w, http.StatusOK, h.Service.FetchUpcoming(r.Context(), window))
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if err := h.DecodeJSON(w, r, &req); err != nil {
		h.WriteAppError(w, err)
		return
	}
	transport.WriteResult(h.BaseHandler, w, http.StatusOK, h.Service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status))
}

func (h *Handler) AssignDriver(w http.ResponseWriter, r *http.Request) {
	var req AssignDriverRequest
	if err := h.DecodeJSON(w, r, &req); err != nil {
		h.WriteAppError(w, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		h.WriteAppError(w, err)
		return
	}
	transport.WriteResult(h.BaseHandler, w, http.StatusOK, h.Service.AssignDriver(r.Context(), chi.URLParam(r, "id"), req))
}
