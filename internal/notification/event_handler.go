package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/travel-backoffice/internal"
	"github.com/frahmantamala/travel-backoffice/internal/core/events"
)

type Enqueuer interface {
	Enqueue(job Job) error
}

// EventHandler turns status changes into broadcast notifications.
type EventHandler struct {
	dispatcher Enqueuer
	logger     *slog.Logger
}

func NewEventHandler(dispatcher Enqueuer, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

func (h *EventHandler) HandleStatusChanged(ctx context.Context, event events.Event) error {
	changed, ok := event.(*events.StatusChangedEvent)
	if !ok {
		h.logger.Error("invalid event type for status handler", "event_type", event.EventType())
		return fmt.Errorf("expected StatusChangedEvent, got %T", event)
	}

	job := Job{
		Request: notificationFor(changed),
		TraceID: internal.TraceIDFromContext(ctx),
	}
	if err := h.dispatcher.Enqueue(job); err != nil {
		h.logger.Error("failed to queue status notification",
			"error", err,
			"entity", changed.Entity,
			"record_id", changed.RecordID,
			"event_id", changed.EventID())
		return err
	}
	return nil
}

func notificationFor(e *events.StatusChangedEvent) CreateNotificationRequest {
	kind := KindInfo
	link := ""
	switch e.Entity {
	case "booking":
		kind = KindBooking
		link = "/bookings/" + e.RecordID
	case "payment":
		kind = KindPayment
		link = "/payments/" + e.RecordID
	case "transfer":
		kind = KindTransfer
		link = "/transfers/" + e.RecordID
	}

	msg := fmt.Sprintf("%s %s is now %s", e.Entity, e.RecordID, e.ToStatus)
	if e.FromStatus != "" {
		msg = fmt.Sprintf("%s %s moved from %s to %s", e.Entity, e.RecordID, e.FromStatus, e.ToStatus)
	}

	req := CreateNotificationRequest{
		Kind:    kind,
		Title:   fmt.Sprintf("%s %s", e.Entity, e.ToStatus),
		Message: msg,
	}
	if link != "" {
		req.Link = &link
	}
	return req
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	types := []string{
		events.EventTypeBookingStatusChanged,
		events.EventTypePaymentStatusChanged,
		events.EventTypeTransferStatusChanged,
	}
	for _, t := range types {
		eventBus.Subscribe(t, h.HandleStatusChanged)
	}

	h.logger.Info("notification event handlers registered", "handlers", types)
}
