package notification

import "time"

type Kind string

const (
	KindInfo     Kind = "info"
	KindBooking  Kind = "booking"
	KindPayment  Kind = "payment"
	KindTransfer Kind = "transfer"
)

// Notification is addressed to one user, or to everyone when UserID is nil.
type Notification struct {
	ID        string     `json:"id"`
	UserID    *string    `json:"user_id,omitempty"`
	Kind      Kind       `json:"kind"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Link      *string    `json:"link,omitempty"`
	Read      bool       `json:"read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type CreateNotificationRequest struct {
	UserID  *string `json:"user_id,omitempty"`
	Kind    Kind    `json:"kind,omitempty" validate:"omitempty,oneof=info booking payment transfer"`
	Title   string  `json:"title" validate:"required"`
	Message string  `json:"message" validate:"required"`
	Link    *string `json:"link,omitempty"`
}

type UpdateNotificationRequest struct {
	Title   *string `json:"title,omitempty" validate:"omitempty,min=1"`
	Message *string `json:"message,omitempty" validate:"omitempty,min=1"`
	Link    *string `json:"link,omitempty"`
}

type UnreadResponse struct {
	Unread int `json:"unread"`
}
