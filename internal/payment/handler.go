package payment

import (
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/travel-backoffice/internal"
	"github.com/frahmantamala/travel-backoffice/internal/transport"
)

type Handler struct {
	*transport.Resource[Payment, CreatePaymentRequest, UpdatePaymentRequest]
	Service *Service
}

func NewHandler(baseHandler *transport.BaseHandler, service *Service) *Handler {
	return &Handler{
		Resource: transport.NewResource[Payment, CreatePaymentRequest, UpdatePaymentRequest](baseHandler, service),
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
	r.Post("/{id}/receipts", h.AttachReceipt)
	r.Get("/{id}/receipts", h.ListReceipts)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	switch {
	case q.Get("booking_id") != "":
		transport.WriteResult(h.BaseHandler, w, http.StatusOK, h.Service.FetchByBooking(r.Context(), q.Get("booking_id")))
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

// AttachReceipt expects a multipart form with the receipt in the "file" field.
func (h *Handler) AttachReceipt(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxReceiptSize+(1<<20))
	if err := r.ParseMultipartForm(MaxReceiptSize); err != nil {
		h.WriteAppError(w, internal.NewValidationFieldError("file", "invalid multipart upload", internal.ErrCodeValidationFailed))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.WriteAppError(w, internal.NewValidationFieldError("file", "file is required", internal.ErrCodeValidationFailed))
		return
	}
	defer file.Close()

	res := h.Service.AttachReceipt(r.Context(), chi.URLParam(r, "id"), file, header.Size, header.Header.Get("Content-Type"))
	transport.WriteResult(h.BaseHandler, w, http.StatusCreated, res)
}

func (h *Handler) ListReceipts(w http.ResponseWriter, r *http.Request) {
	transport.WriteResult(h.BaseHandler, w, http.StatusOK, h.Service.ListReceipts(r.Context(), chi.URLParam(r, "id")))
}
