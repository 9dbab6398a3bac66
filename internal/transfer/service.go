package transfer

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/travel-backoffice/internal"
	"github.com/frahmantamala/travel-backoffice/internal/core/common/validation"
	"github.com/frahmantamala/travel-backoffice/internal/core/events"
	"github.com/frahmantamala/travel-backoffice/internal/datastore"
)

const Table = "transfers"

type Service struct {
	table     *datastore.Table[Transfer]
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(client *datastore.Client, publisher events.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		table: datastore.NewTable[Transfer](client, datastore.TableSpec{
			Name:  Table,
			Order: []datastore.Order{datastore.Asc("pickup_time")},
		}),
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// FetchAll lists transfers by pickup time, earliest first.
func (s *Service) FetchAll(ctx context.Context) datastore.Result[[]Transfer] {
	return s.table.FetchAll(ctx)
}

func (s *Service) FetchByID(ctx context.Context, id string) datastore.Result[Transfer] {
	return s.table.FetchByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, in CreateTransferRequest) datastore.Result[Transfer] {
	if in.Status == "" {
		in.Status = StatusScheduled
	}
	if err := validateStatus(string(in.Status)); err != nil {
		return datastore.Fail[Transfer](err)
	}
	return s.table.Create(ctx, in)
}

func (s *Service) Update(ctx context.Context, id string, in UpdateTransferRequest) datastore.Result[Transfer] {
	return s.table.Update(ctx, id, in)
}

func (s *Service) Delete(ctx context.Context, id string) datastore.Result[datastore.Empty] {
	return s.table.Delete(ctx, id)
}

func (s *Service) FetchByBooking(ctx context.Context, bookingID string) datastore.Result[[]Transfer] {
	return s.table.Find(ctx, datastore.Query{Filters: []datastore.Filter{datastore.Eq("booking_id", bookingID)}})
}

// FetchUpcoming lists transfers picking up within the window from now, cancelled ones excluded.
func (s *Service) FetchUpcoming(ctx context.Context, within time.Duration) datastore.Result[[]Transfer] {
	now := s.now()
	return s.table.Find(ctx, datastore.Query{Filters: []datastore.Filter{
		datastore.Gte("pickup_time", now),
		datastore.Lte("pickup_time", now.Add(within)),
		datastore.Neq("status", string(StatusCancelled)),
	}})
}

func (s *Service) AssignDriver(ctx context.Context, id string, in AssignDriverRequest) datastore.Result[Transfer] {
	patch := map[string]interface{}{
		"driver_name":  in.DriverName,
		"driver_phone": in.DriverPhone,
	}
	if in.VehicleType != nil {
		patch["vehicle_type"] = *in.VehicleType
	}
	return s.changeStatus(ctx, id, StatusAssigned, patch)
}

func (s *Service) UpdateStatus(ctx context.Context, id, status string) datastore.Result[Transfer] {
	if err := validateStatus(status); err != nil {
		return datastore.Fail[Transfer](err)
	}
	return s.changeStatus(ctx, id, Status(status), map[string]interface{}{})
}

func (s *Service) changeStatus(ctx context.Context, id string, to Status, patch map[string]interface{}) datastore.Result[Transfer] {
	current := s.table.FetchByID(ctx, id)
	if !current.OK() {
		return current
	}

	patch["status"] = string(to)
	res := s.table.Update(ctx, id, patch)
	if !res.OK() {
		return res
	}

	if current.Value.Status != to && s.publisher != nil {
		event := events.NewStatusChangedEvent(
			events.EventTypeTransferStatusChanged, "transfer", id, res.Value.BookingID,
			string(current.Value.Status), string(to), internal.ActorIDFromContext(ctx),
		)
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Error("failed to publish transfer event", "transfer_id", id, "error", err)
		}
	}
	return res
}

func validateStatus(status string) *internal.AppError {
	v := validation.NewValidator()
	v.Field("status", status).Required().OneOf(internal.ErrCodeInvalidStatus, Statuses()...)
	return v.Validate()
}
