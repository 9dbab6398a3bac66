package payment

import "time"

type Status string

const (
	StatusPending  Status = "pending"
	StatusPaid     Status = "paid"
	StatusFailed   Status = "failed"
	StatusRefunded Status = "refunded"
)

func Statuses() []string {
	return []string{string(StatusPending), string(StatusPaid), string(StatusFailed), string(StatusRefunded)}
}

type Method string

const (
	MethodCash         Method = "cash"
	MethodCard         Method = "card"
	MethodBankTransfer Method = "bank_transfer"
	MethodUPI          Method = "upi"
)

// BookingSummary is the embedded view of the booking a payment settles.
type BookingSummary struct {
	ID          string  `json:"id"`
	Reference   string  `json:"reference"`
	TotalAmount float64 `json:"total_amount"`
	Currency    string  `json:"currency"`
}

type Payment struct {
	ID         string          `json:"id"`
	BookingID  string          `json:"booking_id"`
	Booking    *BookingSummary `json:"booking,omitempty"`
	Amount     float64         `json:"amount"`
	Currency   string          `json:"currency"`
	Method     Method          `json:"method"`
	Status     Status          `json:"status"`
	Reference  *string         `json:"reference,omitempty"`
	PaidAt     *time.Time      `json:"paid_at,omitempty"`
	ReceiptURL *string         `json:"receipt_url,omitempty"`
	Notes      *string         `json:"notes,omitempty"`
	RecordedBy *string         `json:"recorded_by,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  *time.Time      `json:"updated_at,omitempty"`
}

type CreatePaymentRequest struct {
	BookingID  string  `json:"booking_id" validate:"required"`
	Amount     float64 `json:"amount" validate:"gt=0"`
	Currency   string  `json:"currency,omitempty" validate:"omitempty,len=3"`
	Method     Method  `json:"method" validate:"required,oneof=cash card bank_transfer upi"`
	Status     Status  `json:"status,omitempty"`
	Reference  *string `json:"reference,omitempty"`
	Notes      *string `json:"notes,omitempty"`
	RecordedBy *string `json:"recorded_by,omitempty"`
}

type UpdatePaymentRequest struct {
	Amount    *float64 `json:"amount,omitempty" validate:"omitempty,gt=0"`
	Method    *Method  `json:"method,omitempty" validate:"omitempty,oneof=cash card bank_transfer upi"`
	Reference *string  `json:"reference,omitempty"`
	Notes     *string  `json:"notes,omitempty"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// Receipt is one uploaded proof of payment.
type Receipt struct {
	Key         string    `json:"key"`
	URL         string    `json:"url"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at"`
}
