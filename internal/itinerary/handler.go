package itinerary

import (
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/travel-backoffice/internal/transport"
)

type Handler struct {
	*transport.Resource[Itinerary, CreateItineraryRequest, UpdateItineraryRequest]
	Service *Service
}

func NewHandler(baseHandler *transport.BaseHandler, service *Service) *Handler {
	return &Handler{
		Resource: transport.NewResource[Itinerary, CreateItineraryRequest, UpdateItineraryRequest](baseHandler, service),
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
	r.Post("/share/{bookingId}", h.Share)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if bookingID := r.URL.Query().Get("booking_id"); bookingID != "" {
		transport.WriteResult(h.BaseHandler, w, http.StatusOK, h.Service.FetchByBooking(r.Context(), bookingID))
		return
	}
	h.Resource.List(w, r)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if err := h.DecodeJSON(w, r, &req); err != nil {
		h.WriteAppError(w, err)
		return
	}
	transport.WriteResult(h.BaseHandler, w, http.StatusOK, h.Service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status))
}

func (h *Handler) Share(w http.ResponseWriter, r *http.Request) {
	transport.WriteResult(h.BaseHandler, w, http.StatusOK, h.Service.ShareBooking(r.Context(), chi.URLParam(r, "bookingId")))
}
