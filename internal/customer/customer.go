package customer

import (
	"time"
)

// Status is the position of a lead in the sales pipeline.
type Status string

const (
	StatusNew       Status = "new"
	StatusContacted Status = "contacted"
	StatusQualified Status = "qualified"
	StatusProposal  Status = "proposal_sent"
	StatusWon       Status = "won"
	StatusLost      Status = "lost"
)

func Statuses() []string {
	return []string{
		string(StatusNew),
		string(StatusContacted),
		string(StatusQualified),
		string(StatusProposal),
		string(StatusWon),
		string(StatusLost),
	}
}

// Customer is a lead or a customer with at least one booking.
type Customer struct {
	ID          string     `json:"id"`
	FullName    string     `json:"full_name"`
	Email       *string    `json:"email,omitempty"`
	Phone       *string    `json:"phone,omitempty"`
	Source      *string    `json:"source,omitempty"`
	Destination *string    `json:"destination,omitempty"`
	TravelDate  *string    `json:"travel_date,omitempty"`
	Travellers  *int       `json:"travellers,omitempty"`
	Budget      *float64   `json:"budget,omitempty"`
	Status      Status     `json:"status"`
	AssignedTo  *string    `json:"assigned_to,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

type CreateCustomerRequest struct {
	FullName    string   `json:"full_name" validate:"required"`
	Email       *string  `json:"email,omitempty" validate:"omitempty,email"`
	Phone       *string  `json:"phone,omitempty"`
	Source      *string  `json:"source,omitempty"`
	Destination *string  `json:"destination,omitempty"`
	TravelDate  *string  `json:"travel_date,omitempty"`
	Travellers  *int     `json:"travellers,omitempty" validate:"omitempty,gte=1"`
	Budget      *float64 `json:"budget,omitempty" validate:"omitempty,gte=0"`
	Status      Status   `json:"status,omitempty"`
	AssignedTo  *string  `json:"assigned_to,omitempty"`
	Notes       *string  `json:"notes,omitempty"`
}

// UpdateCustomerRequest is a partial update; nil fields are left untouched.
type UpdateCustomerRequest struct {
	FullName    *string  `json:"full_name,omitempty" validate:"omitempty,min=1"`
	Email       *string  `json:"email,omitempty" validate:"omitempty,email"`
	Phone       *string  `json:"phone,omitempty"`
	Source      *string  `json:"source,omitempty"`
	Destination *string  `json:"destination,omitempty"`
	TravelDate  *string  `json:"travel_date,omitempty"`
	Travellers  *int     `json:"travellers,omitempty" validate:"omitempty,gte=1"`
	Budget      *float64 `json:"budget,omitempty" validate:"omitempty,gte=0"`
	Notes       *string  `json:"notes,omitempty"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type AssignRequest struct {
	// AssignedTo is a user id; null unassigns the lead.
	AssignedTo *string `json:"assigned_to"`
}
