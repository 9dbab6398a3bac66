package hotel

import "time"

type Hotel struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	City         string     `json:"city"`
	Country      *string    `json:"country,omitempty"`
	Address      *string    `json:"address,omitempty"`
	StarRating   *int       `json:"star_rating,omitempty"`
	ContactEmail *string    `json:"contact_email,omitempty"`
	ContactPhone *string    `json:"contact_phone,omitempty"`
	RatePerNight *float64   `json:"rate_per_night,omitempty"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

type CreateHotelRequest struct {
	Name         string   `json:"name" validate:"required"`
	City         string   `json:"city" validate:"required"`
	Country      *string  `json:"country,omitempty"`
	Address      *string  `json:"address,omitempty"`
	StarRating   *int     `json:"star_rating,omitempty" validate:"omitempty,gte=1,lte=5"`
	ContactEmail *string  `json:"contact_email,omitempty" validate:"omitempty,email"`
	ContactPhone *string  `json:"contact_phone,omitempty"`
	RatePerNight *float64 `json:"rate_per_night,omitempty" validate:"omitempty,gte=0"`
	IsActive     *bool    `json:"is_active,omitempty"`
}

type UpdateHotelRequest struct {
	Name         *string  `json:"name,omitempty" validate:"omitempty,min=1"`
	City         *string  `json:"city,omitempty" validate:"omitempty,min=1"`
	Country      *string  `json:"country,omitempty"`
	Address      *string  `json:"address,omitempty"`
	StarRating   *int     `json:"star_rating,omitempty" validate:"omitempty,gte=1,lte=5"`
	ContactEmail *string  `json:"contact_email,omitempty" validate:"omitempty,email"`
	ContactPhone *string  `json:"contact_phone,omitempty"`
	RatePerNight *float64 `json:"rate_per_night,omitempty" validate:"omitempty,gte=0"`
}

type ActiveRequest struct {
	Active bool `json:"active"`
}
