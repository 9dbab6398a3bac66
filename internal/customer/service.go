package customer

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/travel-backoffice/internal"
	"github.com/frahmantamala/travel-backoffice/internal/core/common/validation"
	"github.com/frahmantamala/travel-backoffice/internal/datastore"
)

const Table = "customers"

type Service struct {
	table  *datastore.Table[Customer]
	logger *slog.Logger
}

func NewService(client *datastore.Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		table:  datastore.NewTable[Customer](client, datastore.TableSpec{Name: Table}),
		logger: logger,
	}
}

func (s *Service) FetchAll(ctx context.Context) datastore.Result[[]Customer] {
	return s.table.FetchAll(ctx)
}

func (s *Service) FetchByID(ctx context.Context, id string) datastore.Result[Customer] {
	return s.table.FetchByID(ctx, id)
}

// Create stores a new lead. Leads start in the "new" status unless one is given.
func (s *Service) Create(ctx context.Context, in CreateCustomerRequest) datastore.Result[Customer] {
	if in.Status == "" {
		in.Status = StatusNew
	}
	if err := validateStatus(string(in.Status)); err != nil {
		return datastore.Fail[Customer](err)
	}
	return s.table.Create(ctx, in)
}

func (s *Service) Update(ctx context.Context, id string, in UpdateCustomerRequest) datastore.Result[Customer] {
	return s.table.Update(ctx, id, in)
}

func (s *Service) Delete(ctx context.Context, id string) datastore.Result[datastore.Empty] {
	return s.table.Delete(ctx, id)
}

func (s *Service) FetchByStatus(ctx context.Context, status string) datastore.Result[[]Customer] {
	if err := validateStatus(status); err != nil {
		return datastore.Fail[[]Customer](err)
	}
	return s.table.Find(ctx, datastore.Query{Filters: []datastore.Filter{datastore.Eq("status", status)}})
}

// FetchAssigned lists the leads owned by one user.
func (s *Service) FetchAssigned(ctx context.Context, userID string) datastore.Result[[]Customer] {
	return s.table.Find(ctx, datastore.Query{Filters: []datastore.Filter{datastore.Eq("assigned_to", userID)}})
}

// Search matches name, email or phone case-insensitively.
func (s *Service) Search(ctx context.Context, term string) datastore.Result[[]Customer] {
	pattern := "*" + term + "*"
	return s.table.Find(ctx, datastore.Query{Or: []datastore.Filter{
		datastore.ILike("full_name", pattern),
		datastore.ILike("email", pattern),
		datastore.ILike("phone", pattern),
	}})
}

func (s *Service) UpdateStatus(ctx context.Context, id, status string) datastore.Result[Customer] {
	if err := validateStatus(status); err != nil {
		return datastore.Fail[Customer](err)
	}
	res := s.table.Update(ctx, id, map[string]string{"status": status})
	if res.OK() {
		s.logger.Info("lead status changed", "customer_id", id, "status", status)
	}
	return res
}

// Assign hands the lead to a user, or unassigns it when userID is nil.
func (s *Service) Assign(ctx context.Context, id string, userID *string) datastore.Result[Customer] {
	return s.table.Update(ctx, id, map[string]*string{"assigned_to": userID})
}

func validateStatus(status string) *internal.AppError {
	v := validation.NewValidator()
	v.Field("status", status).Required().OneOf(internal.ErrCodeInvalidStatus, Statuses()...)
	return v.Validate()
}
