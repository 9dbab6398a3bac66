package hotel

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/travel-backoffice/internal/datastore"
)

const Table = "hotels"

// Service manages the hotel catalogue, listed alphabetically.
type Service struct {
	table  *datastore.Table[Hotel]
	logger *slog.Logger
}

func NewService(client *datastore.Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		table: datastore.NewTable[Hotel](client, datastore.TableSpec{
			Name:  Table,
			Order: []datastore.Order{datastore.Asc("name")},
		}),
		logger: logger,
	}
}

func (s *Service) FetchAll(ctx context.Context) datastore.Result[[]Hotel] {
	return s.table.FetchAll(ctx)
}

func (s *Service) FetchByID(ctx context.Context, id string) datastore.Result[Hotel] {
	return s.table.FetchByID(ctx, id)
}

// Create adds a hotel; new hotels are active unless stated otherwise.
func (s *Service) Create(ctx context.Context, in CreateHotelRequest) datastore.Result[Hotel] {
	if in.IsActive == nil {
		active := true
		in.IsActive = &active
	}
	return s.table.Create(ctx, in)
}

func (s *Service) Update(ctx context.Context, id string, in UpdateHotelRequest) datastore.Result[Hotel] {
	return s.table.Update(ctx, id, in)
}

func (s *Service) Delete(ctx context.Context, id string) datastore.Result[datastore.Empty] {
	return s.table.Delete(ctx, id)
}

// FetchByCity matches the city case-insensitively. Inactive hotels are left out.
func (s *Service) FetchByCity(ctx context.Context, city string) datastore.Result[[]Hotel] {
	return s.table.Find(ctx, datastore.Query{Filters: []datastore.Filter{
		datastore.ILike("city", city),
		datastore.Is("is_active", "true"),
	}})
}

func (s *Service) FetchActive(ctx context.Context) datastore.Result[[]Hotel] {
	return s.table.Find(ctx, datastore.Query{Filters: []datastore.Filter{datastore.Is("is_active", "true")}})
}

func (s *Service) SetActive(ctx context.Context, id string, active bool) datastore.Result[Hotel] {
	res := s.table.Update(ctx, id, map[string]bool{"is_active": active})
	if res.OK() {
		s.logger.Info("hotel availability changed", "hotel_id", id, "active", active)
	}
	return res
}
