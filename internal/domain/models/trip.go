package models

import "time"

// TripStatus mirrors the trips.status enum. Status and departure time are
// owned by the scheduling module; this engine only reads them and mutates
// available_seats through the inventory.
type TripStatus string

const (
	TripScheduled  TripStatus = "scheduled"
	TripInProgress TripStatus = "in_progress"
	TripCompleted  TripStatus = "completed"
	TripCancelled  TripStatus = "cancelled"
)

// Trip is a scheduled departure with a fixed seat capacity.
type Trip struct {
	ID             int64      `json:"id"`
	RouteFrom      string     `json:"route_from"`
	RouteTo        string     `json:"route_to"`
	DepartureTime  time.Time  `json:"departure_time"`
	TotalSeats     int        `json:"total_seats"`
	AvailableSeats int        `json:"available_seats"`
	BasePrice      int64      `json:"base_price"`
	Status         TripStatus `json:"status"`
}

// Bookable reports whether new bookings may be taken on the trip.
func (t Trip) Bookable() bool {
	return t.Status == TripScheduled
}
