package booking

import (
	"math"
	"time"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

func Statuses() []string {
	return []string{
		string(StatusPending),
		string(StatusConfirmed),
		string(StatusInProgress),
		string(StatusCompleted),
		string(StatusCancelled),
	}
}

// CustomerSummary is the embedded view of the booking's customer.
type CustomerSummary struct {
	ID       string  `json:"id"`
	FullName string  `json:"full_name"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
}

// PaymentSummary is the embedded view of one payment against the booking.
type PaymentSummary struct {
	ID     string     `json:"id"`
	Amount float64    `json:"amount"`
	Status string     `json:"status"`
	PaidAt *time.Time `json:"paid_at,omitempty"`
}

type Booking struct {
	ID          string           `json:"id"`
	Reference   string           `json:"reference"`
	CustomerID  string           `json:"customer_id"`
	Customer    *CustomerSummary `json:"customer,omitempty"`
	Payments    []PaymentSummary `json:"payments,omitempty"`
	Destination *string          `json:"destination,omitempty"`
	StartDate   *string          `json:"start_date,omitempty"`
	EndDate     *string          `json:"end_date,omitempty"`
	Travellers  int              `json:"travellers"`
	TotalAmount float64          `json:"total_amount"`
	Currency    string           `json:"currency"`
	Status      Status           `json:"status"`
	Notes       *string          `json:"notes,omitempty"`
	CreatedBy   *string          `json:"created_by,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   *time.Time       `json:"updated_at,omitempty"`
}

// AmountPaid sums the payments in the "paid" status.
func (b Booking) AmountPaid() float64 {
	var paid float64
	for _, p := range b.Payments {
		if p.Status == "paid" {
			paid += p.Amount
		}
	}
	return paid
}

// Outstanding is never negative; overpayment reads as zero.
func (b Booking) Outstanding() float64 {
	return math.Max(0, b.TotalAmount-b.AmountPaid())
}

type CreateBookingRequest struct {
	Reference   string  `json:"reference" validate:"required"`
	CustomerID  string  `json:"customer_id" validate:"required"`
	Destination *string `json:"destination,omitempty"`
	StartDate   *string `json:"start_date,omitempty"`
	EndDate     *string `json:"end_date,omitempty"`
	Travellers  int     `json:"travellers" validate:"gte=1"`
	TotalAmount float64 `json:"total_amount" validate:"gte=0"`
	Currency    string  `json:"currency,omitempty" validate:"omitempty,len=3"`
	Status      Status  `json:"status,omitempty"`
	Notes       *string `json:"notes,omitempty"`
	CreatedBy   *string `json:"created_by,omitempty"`
}

type UpdateBookingRequest struct {
	Destination *string  `json:"destination,omitempty"`
	StartDate   *string  `json:"start_date,omitempty"`
	EndDate     *string  `json:"end_date,omitempty"`
	Travellers  *int     `json:"travellers,omitempty" validate:"omitempty,gte=1"`
	TotalAmount *float64 `json:"total_amount,omitempty" validate:"omitempty,gte=0"`
	Currency    *string  `json:"currency,omitempty" validate:"omitempty,len=3"`
	Notes       *string  `json:"notes,omitempty"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// BalanceResponse is the payment position of one booking.
type BalanceResponse struct {
	BookingID   string  `json:"booking_id"`
	Currency    string  `json:"currency"`
	TotalAmount float64 `json:"total_amount"`
	AmountPaid  float64 `json:"amount_paid"`
	Outstanding float64 `json:"outstanding"`
}

func (b Booking) Balance() BalanceResponse {
	return BalanceResponse{
		BookingID:   b.ID,
		Currency:    b.Currency,
		TotalAmount: b.TotalAmount,
		AmountPaid:  b.AmountPaid(),
		Outstanding: b.Outstanding(),
	}
}
