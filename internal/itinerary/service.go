package itinerary

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/travel-backoffice/internal"
	"github.com/frahmantamala/travel-backoffice/internal/core/common/validation"
	"github.com/frahmantamala/travel-backoffice/internal/datastore"
)

const Table = "itineraries"

type Service struct {
	table  *datastore.Table[Itinerary]
	logger *slog.Logger
}

func NewService(client *datastore.Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		table: datastore.NewTable[Itinerary](client, datastore.TableSpec{
			Name:   Table,
			Select: "*,hotel:hotels(id,name,city)",
		}),
		logger: logger,
	}
}

func (s *Service) FetchAll(ctx context.Context) datastore.Result[[]Itinerary] {
	return s.table.FetchAll(ctx)
}

func (s *Service) FetchByID(ctx context.Context, id string) datastore.Result[Itinerary] {
	return s.table.FetchByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, in CreateItineraryRequest) datastore.Result[Itinerary] {
	if in.Status == "" {
		in.Status = StatusDraft
	}
	if err := validateStatus(string(in.Status)); err != nil {
		return datastore.Fail[Itinerary](err)
	}
	return s.table.Create(ctx, in)
}

func (s *Service) Update(ctx context.Context, id string, in UpdateItineraryRequest) datastore.Result[Itinerary] {
	return s.table.Update(ctx, id, in)
}

func (s *Service) Delete(ctx context.Context, id string) datastore.Result[datastore.Empty] {
	return s.table.Delete(ctx, id)
}

// FetchByBooking returns the booking's plan in day order.
func (s *Service) FetchByBooking(ctx context.Context, bookingID string) datastore.Result[[]Itinerary] {
	return s.table.Find(ctx, datastore.Query{
		Filters: []datastore.Filter{datastore.Eq("booking_id", bookingID)},
		Order:   []datastore.Order{datastore.Asc("day")},
	})
}

func (s *Service) UpdateStatus(ctx context.Context, id, status string) datastore.Result[Itinerary] {
	if err := validateStatus(status); err != nil {
		return datastore.Fail[Itinerary](err)
	}
	return s.table.Update(ctx, id, map[string]string{"status": status})
}

// ShareBooking marks every draft day of a booking as shared with the customer.
func (s *Service) ShareBooking(ctx context.Context, bookingID string) datastore.Result[[]Itinerary] {
	res := s.table.UpdateWhere(ctx, []datastore.Filter{
		datastore.Eq("booking_id", bookingID),
		datastore.Eq("status", string(StatusDraft)),
	}, map[string]string{"status": string(StatusShared)})
	if res.OK() {
		s.logger.Info("itinerary shared", "booking_id", bookingID, "days", len(res.Value))
	}
	return res
}

func validateStatus(status string) *internal.AppError {
	v := validation.NewValidator()
	v.Field("status", status).Required().OneOf(internal.ErrCodeInvalidStatus, Statuses()...)
	return v.Validate()
}
