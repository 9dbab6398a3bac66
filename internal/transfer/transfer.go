package transfer

import "time"

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusAssigned  Status = "assigned"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func Statuses() []string {
	return []string{string(StatusScheduled), string(StatusAssigned), string(StatusCompleted), string(StatusCancelled)}
}

// Kind is what the vehicle is booked for.
type Kind string

const (
	KindAirportPickup Kind = "airport_pickup"
	KindAirportDrop   Kind = "airport_drop"
	KindIntercity     Kind = "intercity"
	KindLocal         Kind = "local"
)

type Transfer struct {
	ID             string     `json:"id"`
	BookingID      string     `json:"booking_id"`
	Kind           Kind       `json:"kind"`
	PickupLocation string     `json:"pickup_location"`
	DropLocation   string     `json:"drop_location"`
	PickupTime     time.Time  `json:"pickup_time"`
	Passengers     int        `json:"passengers"`
	VehicleType    *string    `json:"vehicle_type,omitempty"`
	DriverName     *string    `json:"driver_name,omitempty"`
	DriverPhone    *string    `json:"driver_phone,omitempty"`
	FlightNumber   *string    `json:"flight_number,omitempty"`
	Status         Status     `json:"status"`
	Notes          *string    `json:"notes,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

type CreateTransferRequest struct {
	BookingID      string    `json:"booking_id" validate:"required"`
	Kind           Kind      `json:"kind" validate:"required,oneof=airport_pickup airport_drop intercity local"`
	PickupLocation string    `json:"pickup_location" validate:"required"`
	DropLocation   string    `json:"drop_location" validate:"required"`
	PickupTime     time.Time `json:"pickup_time" validate:"required"`
	Passengers     int       `json:"passengers" validate:"gte=1"`
	VehicleType    *string   `json:"vehicle_type,omitempty"`
	FlightNumber   *string   `json:"flight_number,omitempty"`
	Status         Status    `json:"status,omitempty"`
	Notes          *string   `json:"notes,omitempty"`
}

type UpdateTransferRequest struct {
	PickupLocation *string    `json:"pickup_location,omitempty" validate:"omitempty,min=1"`
	DropLocation   *string    `json:"drop_location,omitempty" validate:"omitempty,min=1"`
	PickupTime     *time.Time `json:"pickup_time,omitempty"`
	Passengers     *int       `json:"passengers,omitempty" validate:"omitempty,gte=1"`
	VehicleType    *string    `json:"vehicle_type,omitempty"`
	FlightNumber   *string    `json:"flight_number,omitempty"`
	Notes          *string    `json:"notes,omitempty"`
}

// AssignDriverRequest puts a driver on the transfer and moves it to "assigned".
type AssignDriverRequest struct {
	DriverName  string  `json:"driver_name" validate:"required"`
	DriverPhone string  `json:"driver_phone" validate:"required"`
	VehicleType *string `json:"vehicle_type,omitempty"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}
