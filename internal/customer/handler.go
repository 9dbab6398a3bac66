package customer

import (
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/travel-backoffice/internal/transport"
)

type Handler struct {
	*transport.Resource[Customer, CreateCustomerRequest, UpdateCustomerRequest]
	Service *Service
}

func NewHandler(baseHandler *transport.BaseHandler, service *Service) *Handler {
	return &Handler{
		Resource: transport.NewResource[Customer, CreateCustomerRequest, UpdateCustomerRequest](baseHandler, service),
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
	r.Put("/{id}/assignee", h.Assign)
}

// List accepts optional status, assigned_to and q filters, applied in that order of preference.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	switch {
	case q.Get("status") != "":
		transport.WriteResult(h.BaseHandler, w, http.StatusOK, h.Service.FetchByStatus(r.Context(), q.Get("status")))
	case q.Get("assigned_to") != "":
		transport.WriteResult(h.BaseHandler, w, http.StatusOK, h.Service.FetchAssigned(r.Context(), q.Get("assigned_to")))
	case q.Get("q") != "":
		transport.WriteResult(h.BaseHandler, w, http.StatusOK, h.Service.Search(r.Context(), q.Get("q")))
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

func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	var req AssignRequest
	if err := h.DecodeJSON(w, r, &req); err != nil {
		h.WriteAppError(w, err)
		return
	}
	transport.WriteResult(h.BaseHandler, w, http.StatusOK, h.Service.Assign(r.Context(), chi.URLParam(r, "id"), req.AssignedTo))
}
