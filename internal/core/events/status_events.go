package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeBookingStatusChanged  = "booking.status_changed"
	EventTypePaymentStatusChanged  = "payment.status_changed"
	EventTypeTransferStatusChanged = "transfer.status_changed"
)

// Publisher is the slice of EventBus the entity services depend on.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// StatusChangedEvent is raised after a record's status was persisted by the store.
type StatusChangedEvent struct {
	BaseEvent
	Entity     string `json:"entity"`
	RecordID   string `json:"record_id"`
	BookingID  string `json:"booking_id,omitempty"`
	FromStatus string `json:"from_status,omitempty"`
	ToStatus   string `json:"to_status"`
	ChangedBy  string `json:"changed_by,omitempty"`
}

func NewStatusChangedEvent(eventType, entity, recordID, bookingID, from, to, changedBy string) *StatusChangedEvent {
	return &StatusChangedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"entity":      entity,
				"record_id":   recordID,
				"booking_id":  bookingID,
				"from_status": from,
				"to_status":   to,
				"changed_by":  changedBy,
			},
		},
		Entity:     entity,
		RecordID:   recordID,
		BookingID:  bookingID,
		FromStatus: from,
		ToStatus:   to,
		ChangedBy:  changedBy,
	}
}
