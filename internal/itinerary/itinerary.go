package itinerary

import "time"

type Status string

const (
	StatusDraft    Status = "draft"
	StatusShared   Status = "shared"
	StatusApproved Status = "approved"
	StatusArchived Status = "archived"
)

func Statuses() []string {
	return []string{string(StatusDraft), string(StatusShared), string(StatusApproved), string(StatusArchived)}
}

// Itinerary is one day of a booking's travel plan.
type Itinerary struct {
	ID          string     `json:"id"`
	BookingID   string     `json:"booking_id"`
	Day         int        `json:"day"`
	Date        *string    `json:"date,omitempty"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	City        *string    `json:"city,omitempty"`
	HotelID     *string    `json:"hotel_id,omitempty"`
	Hotel       *Hotel     `json:"hotel,omitempty"`
	Activities  []string   `json:"activities,omitempty"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// Hotel is the embedded stay for the day.
type Hotel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	City string `json:"city"`
}

type CreateItineraryRequest struct {
	BookingID   string   `json:"booking_id" validate:"required"`
	Day         int      `json:"day" validate:"gte=1"`
	Date        *string  `json:"date,omitempty"`
	Title       string   `json:"title" validate:"required"`
	Description *string  `json:"description,omitempty"`
	City        *string  `json:"city,omitempty"`
	HotelID     *string  `json:"hotel_id,omitempty"`
	Activities  []string `json:"activities,omitempty"`
	Status      Status   `json:"status,omitempty"`
}

type UpdateItineraryRequest struct {
	Day         *int     `json:"day,omitempty" validate:"omitempty,gte=1"`
	Date        *string  `json:"date,omitempty"`
	Title       *string  `json:"title,omitempty" validate:"omitempty,min=1"`
	Description *string  `json:"description,omitempty"`
	City        *string  `json:"city,omitempty"`
	HotelID     *string  `json:"hotel_id,omitempty"`
	Activities  []string `json:"activities,omitempty"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}
