package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/travel-backoffice/internal"
	"github.com/frahmantamala/travel-backoffice/internal/datastore"
)

const Table = "notifications"

type Service struct {
	table  *datastore.Table[Notification]
	logger *slog.Logger
	now    func() time.Time
}

func NewService(client *datastore.Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		table:  datastore.NewTable[Notification](client, datastore.TableSpec{Name: Table}),
		logger: logger,
		now:    time.Now,
	}
}

func (s *Service) FetchAll(ctx context.Context) datastore.Result[[]Notification] {
	return s.table.FetchAll(ctx)
}

func (s *Service) FetchByID(ctx context.Context, id string) datastore.Result[Notification] {
	return s.table.FetchByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, in CreateNotificationRequest) datastore.Result[Notification] {
	if in.Kind == "" {
		in.Kind = KindInfo
	}
	return s.table.Create(ctx, struct {
		CreateNotificationRequest
		Read bool `json:"read"`
	}{CreateNotificationRequest: in})
}

func (s *Service) Update(ctx context.Context, id string, in UpdateNotificationRequest) datastore.Result[Notification] {
	return s.table.Update(ctx, id, in)
}

func (s *Service) Delete(ctx context.Context, id string) datastore.Result[datastore.Empty] {
	return s.table.Delete(ctx, id)
}

// FetchForUser returns the user's own notifications together with broadcasts.
func (s *Service) FetchForUser(ctx context.Context, userID string, unreadOnly bool) datastore.Result[[]Notification] {
	q := datastore.Query{Or: []datastore.Filter{
		datastore.Eq("user_id", userID),
		datastore.Is("user_id", "null"),
	}}
	if unreadOnly {
		q = q.Where(datastore.Is("read", "false"))
	}
	return s.table.Find(ctx, q)
}

func (s *Service) UnreadCount(ctx context.Context, userID string) datastore.Result[UnreadResponse] {
	return datastore.Map(s.FetchForUser(ctx, userID, true), func(items []Notification) UnreadResponse {
		return UnreadResponse{Unread: len(items)}
	})
}

// MarkRead marks one of the user's own notifications as read. A broadcast keeps a
// single read flag shared by every recipient, so it is reported as not found here
// just like another user's row.
func (s *Service) MarkRead(ctx context.Context, id, userID string) datastore.Result[Notification] {
	res := s.table.UpdateWhere(ctx, []datastore.Filter{
		datastore.Eq("id", id),
		datastore.Eq("user_id", userID),
	}, map[string]interface{}{
		"read":    true,
		"read_at": s.now().UTC(),
	})
	if !res.OK() {
		return datastore.Result[Notification]{Err: res.Err, Status: res.Status, StatusCode: res.StatusCode}
	}
	if len(res.Value) == 0 {
		return datastore.Fail[Notification](internal.ErrNotFound.WithMessage(fmt.Sprintf("notification %s not found", id)))
	}
	return datastore.Ok(res.Value[0], res.StatusCode)
}

// MarkAllRead marks the user's own unread notifications as read. Broadcasts are left alone.
func (s *Service) MarkAllRead(ctx context.Context, userID string) datastore.Result[[]Notification] {
	res := s.table.UpdateWhere(ctx, []datastore.Filter{
		datastore.Eq("user_id", userID),
		datastore.Is("read", "false"),
	}, map[string]interface{}{
		"read":    true,
		"read_at": s.now().UTC(),
	})
	if res.OK() {
		s.logger.Debug("notifications marked read", "user_id", userID, "count", len(res.Value))
	}
	return res
}
