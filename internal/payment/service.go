package payment

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/travel-backoffice/internal"
	"github.com/frahmantamala/travel-backoffice/internal/core/common/validation"
	"github.com/frahmantamala/travel-backoffice/internal/core/events"
	"github.com/frahmantamala/travel-backoffice/internal/datastore"
)

const (
	Table           = "payments"
	DefaultCurrency = "INR"
)

type Service struct {
	table     *datastore.Table[Payment]
	receipts  ReceiptStore
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewService wires the payment service. receipts and publisher may be nil; receipt
// operations then fail with a server error.
func NewService(client *datastore.Client, receipts ReceiptStore, publisher events.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		table: datastore.NewTable[Payment](client, datastore.TableSpec{
			Name:   Table,
			Select: "*,booking:bookings(id,reference,total_amount,currency)",
		}),
		receipts:  receipts,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) FetchAll(ctx context.Context) datastore.Result[[]Payment] {
	return s.table.FetchAll(ctx)
}

func (s *Service) FetchByID(ctx context.Context, id string) datastore.Result[Payment] {
	return s.table.FetchByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, in CreatePaymentRequest) datastore.Result[Payment] {
	if in.Status == "" {
		in.Status = StatusPending
	}
	if in.Currency == "" {
		in.Currency = DefaultCurrency
	}
	if err := validateStatus(string(in.Status)); err != nil {
		return datastore.Fail[Payment](err)
	}
	if in.RecordedBy == nil {
		if actor := internal.ActorIDFromContext(ctx); actor != "" {
			in.RecordedBy = &actor
		}
	}

	body := struct {
		CreatePaymentRequest
		PaidAt *time.Time `json:"paid_at,omitempty"`
	}{CreatePaymentRequest: in}
	if in.Status == StatusPaid {
		now := s.now().UTC()
		body.PaidAt = &now
	}
	return s.table.Create(ctx, body)
}

func (s *Service) Update(ctx context.Context, id string, in UpdatePaymentRequest) datastore.Result[Payment] {
	return s.table.Update(ctx, id, in)
}

func (s *Service) Delete(ctx context.Context, id string) datastore.Result[datastore.Empty] {
	return s.table.Delete(ctx, id)
}

func (s *Service) FetchByBooking(ctx context.Context, bookingID string) datastore.Result[[]Payment] {
	return s.table.Find(ctx, datastore.Query{Filters: []datastore.Filter{datastore.Eq("booking_id", bookingID)}})
}

func (s *Service) FetchByStatus(ctx context.Context, status string) datastore.Result[[]Payment] {
	if err := validateStatus(status); err != nil {
		return datastore.Fail[[]Payment](err)
	}
	return s.table.Find(ctx, datastore.Query{Filters: []datastore.Filter{datastore.Eq("status", status)}})
}

// UpdateStatus stamps paid_at when a payment becomes paid and clears it when it
// falls back to pending or failed. Refunds keep the original paid_at.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) datastore.Result[Payment] {
	if err := validateStatus(status); err != nil {
		return datastore.Fail[Payment](err)
	}

	current := s.table.FetchByID(ctx, id)
	if !current.OK() {
		return current
	}

	patch := map[string]interface{}{"status": status}
	switch Status(status) {
	case StatusPaid:
		if current.Value.Status != StatusPaid {
			patch["paid_at"] = s.now().UTC()
		}
	case StatusPending, StatusFailed:
		patch["paid_at"] = nil
	}

	res := s.table.Update(ctx, id, patch)
	if !res.OK() {
		return res
	}

	s.logger.Info("payment status changed",
		"payment_id", id,
		"booking_id", res.Value.BookingID,
		"from", current.Value.Status,
		"to", status)

	if current.Value.Status != Status(status) && s.publisher != nil {
		event := events.NewStatusChangedEvent(
			events.EventTypePaymentStatusChanged, "payment", id, res.Value.BookingID,
			string(current.Value.Status), status, internal.ActorIDFromContext(ctx),
		)
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Error("failed to publish payment event", "payment_id", id, "error", err)
		}
	}
	return res
}

// AttachReceipt uploads a receipt for an existing payment and records its URL on the payment.
func (s *Service) AttachReceipt(ctx context.Context, id string, file io.Reader, size int64, contentType string) datastore.Result[Payment] {
	if s.receipts == nil {
		return datastore.Fail[Payment](internal.NewInternalError("receipt storage is not configured", nil))
	}
	if err := validateReceipt(size, contentType); err != nil {
		return datastore.Fail[Payment](err)
	}
	contentType = strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))

	current := s.table.FetchByID(ctx, id)
	if !current.OK() {
		return current
	}

	obj, err := s.receipts.Upload(ctx, receiptKey(id, contentType), file, size, contentType)
	if err != nil {
		s.logger.Error("failed to upload receipt", "payment_id", id, "error", err)
		return datastore.Fail[Payment](err)
	}

	return s.table.Update(ctx, id, map[string]string{"receipt_url": obj.URL})
}

func (s *Service) ListReceipts(ctx context.Context, id string) datastore.Result[[]Receipt] {
	if s.receipts == nil {
		return datastore.Fail[[]Receipt](internal.NewInternalError("receipt storage is not configured", nil))
	}
	objects, err := s.receipts.List(ctx, receiptPrefix(id))
	if err != nil {
		return datastore.Fail[[]Receipt](err)
	}
	out := make([]Receipt, 0, len(objects))
	for _, obj := range objects {
		out = append(out, toReceipt(obj))
	}
	return datastore.Ok(out, 0)
}

func validateStatus(status string) *internal.AppError {
	v := validation.NewValidator()
	v.Field("status", status).Required().OneOf(internal.ErrCodeInvalidStatus, Statuses()...)
	return v.Validate()
}
