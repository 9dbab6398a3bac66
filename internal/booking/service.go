package booking

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/travel-backoffice/internal"
	"github.com/frahmantamala/travel-backoffice/internal/core/common/validation"
	"github.com/frahmantamala/travel-backoffice/internal/core/events"
	"github.com/frahmantamala/travel-backoffice/internal/datastore"
)

const (
	Table           = "bookings"
	DefaultCurrency = "INR"
)

const selectWithRelations = "*,customer:customers(id,full_name,email,phone),payments(id,amount,status,paid_at)"

type Service struct {
	table     *datastore.Table[Booking]
	publisher events.Publisher
	logger    *slog.Logger
}

// NewService builds the booking service. publisher may be nil, in which case status
// changes are not announced.
func NewService(client *datastore.Client, publisher events.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		table: datastore.NewTable[Booking](client, datastore.TableSpec{
			Name:   Table,
			Select: selectWithRelations,
		}),
		publisher: publisher,
		logger:    logger,
	}
}

// FetchAll lists bookings newest first, each with its customer and payment summaries.
func (s *Service) FetchAll(ctx context.Context) datastore.Result[[]Booking] {
	return s.table.FetchAll(ctx)
}

func (s *Service) FetchByID(ctx context.Context, id string) datastore.Result[Booking] {
	return s.table.FetchByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, in CreateBookingRequest) datastore.Result[Booking] {
	if in.Status == "" {
		in.Status = StatusPending
	}
	if in.Currency == "" {
		in.Currency = DefaultCurrency
	}
	if err := validateStatus(string(in.Status)); err != nil {
		return datastore.Fail[Booking](err)
	}
	if in.CreatedBy == nil {
		if actor := internal.ActorIDFromContext(ctx); actor != "" {
			in.CreatedBy = &actor
		}
	}
	return s.table.Create(ctx, in)
}

func (s *Service) Update(ctx context.Context, id string, in UpdateBookingRequest) datastore.Result[Booking] {
	return s.table.Update(ctx, id, in)
}

func (s *Service) Delete(ctx context.Context, id string) datastore.Result[datastore.Empty] {
	return s.table.Delete(ctx, id)
}

func (s *Service) FetchByCustomer(ctx context.Context, customerID string) datastore.Result[[]Booking] {
	return s.table.Find(ctx, datastore.Query{Filters: []datastore.Filter{datastore.Eq("customer_id", customerID)}})
}

func (s *Service) FetchByStatus(ctx context.Context, status string) datastore.Result[[]Booking] {
	if err := validateStatus(status); err != nil {
		return datastore.Fail[[]Booking](err)
	}
	return s.table.Find(ctx, datastore.Query{Filters: []datastore.Filter{datastore.Eq("status", status)}})
}

// UpdateStatus moves the booking to status and announces the change once the store accepted it.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) datastore.Result[Booking] {
	if err := validateStatus(status); err != nil {
		return datastore.Fail[Booking](err)
	}

	current := s.table.FetchByID(ctx, id)
	if !current.OK() {
		return current
	}

	res := s.table.Update(ctx, id, map[string]string{"status": status})
	if !res.OK() {
		return res
	}

	s.logger.Info("booking status changed",
		"booking_id", id,
		"from", current.Value.Status,
		"to", status)
	s.publish(ctx, events.NewStatusChangedEvent(
		events.EventTypeBookingStatusChanged, "booking", id, id,
		string(current.Value.Status), status, internal.ActorIDFromContext(ctx),
	))
	return res
}

func (s *Service) Balance(ctx context.Context, id string) datastore.Result[BalanceResponse] {
	return datastore.Map(s.table.FetchByID(ctx, id), Booking.Balance)
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish booking event", "event_type", event.EventType(), "error", err)
	}
}

func validateStatus(status string) *internal.AppError {
	v := validation.NewValidator()
	v.Field("status", status).Required().OneOf(internal.ErrCodeInvalidStatus, Statuses()...)
	return v.Validate()
}
