package booking

import (
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/travel-backoffice/internal/transport"
)

type Handler struct {
	*transport.Resource[Booking, CreateBookingRequest, UpdateBookingRequest]
	Service *Service
}

func NewHandler(baseHandler *transport.BaseHandler, service *Service) *Handler {
	return &Handler{
		Resource: transport.NewResource[Booking, CreateBookingRequest, UpdateBookingRequest](baseHandler, service),
		Service:  service,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Put("/{id}/status", h.UpdateStatus)
	r.Get("/{id}/balance", h.Balance)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	switch {
	case q.Get("customer_id") != "":
		transport.WriteResult(h.BaseHandler, w, http.StatusOK, h.Service.FetchByCustomer(r.Context(), q.Get("customer_id")))
	case q.Get("status") != "":
		transport.WriteResult(h.BaseHandler, w, http.StatusOK, h.Service.FetchByStatus(r.Context(), q.Get("status")))
	default:
		h.Resource.List(w, r)
	}
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if err := h.DecodeJSON(w, r, &req); err != nil {
		h.WriteAppError(w, err)
		return
	}
	transport.WriteResult(h.BaseHandler, w, http.StatusOK, h.Service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status))
}

func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	transport.WriteResult(h.BaseHandler, w, http.StatusOK, h.Service.Balance(r.Context(), chi.URLParam(r, "id")))
}
