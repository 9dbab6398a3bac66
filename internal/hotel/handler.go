package hotel

import (
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/travel-backoffice/internal/transport"
)

type Handler struct {
	*transport.Resource[Hotel, CreateHotelRequest, UpdateHotelRequest]
	Service *Service
}

func NewHandler(baseHandler *transport.BaseHandler, service *Service) *Handler {
	return &Handler{
		Resource: transport.NewResource[Hotel, CreateHotelRequest, UpdateHotelRequest](baseHandler, service),
		Service:  service,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Put("/{id}/active", h.SetActive)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	switch {
	case q.Get("city") != "":
		transport.WriteResult(h.BaseHandler, w, http.StatusOK, h.Service.FetchByCity(r.Context(), q.Get("city")))
	case q.Get("active") == "true":
		transport.WriteResult(h.BaseHandler, w, http.StatusOK, h.Service.FetchActive(r.Context()))
	default:
		h.Resource.List(w, r)
	}
}

func (h *Handler) SetActive(w http.ResponseWriter, r *http.Request) {
	var req ActiveRequest
	if err := h.DecodeJSON(w, r, &req); err != nil {
		h.WriteAppError(w, err)
		return
	}
	transport.WriteResult(h.BaseHandler, w, http.StatusOK, h.Service.SetActive(r.Context(), chi.URLParam(r, "id"), req.Active))
}
