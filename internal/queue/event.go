// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names. Durable queues, declared idempotently by the publisher.
const (
	BookingCreatedQueue   = "booking.created"
	BookingCancelledQueue = "booking.cancelled"
	PaymentSettledQueue   = "payment.settled"
)

// BookingCreatedEvent is published after the booking transaction commits.
// Downstream consumers (email/SMS, ticket encoding) act on it without
// querying the primary database.
type BookingCreatedEvent struct {
	BookingID        int64  `json:"booking_id"`
	BookingReference string `json:"booking_reference"`
	TripID           int64  `json:"trip_id"`
	RouteFrom        string `json:"route_from"`
	RouteTo          string `json:"route_to"`
	DepartureTime    string `json:"departure_time"`
	PassengerCount   int    `json:"passenger_count"`
	TotalAmount      int64  `json:"total_amount"`
	ContactPhone     string `json:"contact_phone,omitempty"`
	CreatedAt        string `json:"created_at"`
}

type BookingCancelledEvent struct {
	BookingID        int64  `json:"booking_id"`
	BookingReference string `json:"booking_reference"`
	TripID           int64  `json:"trip_id"`
	SeatsReleased    int    `json:"seats_released"`
	CancelledAt      string `json:"cancelled_at"`
}

// PaymentSettledEvent covers completed, failed and refunded settlements.
type PaymentSettledEvent struct {
	BookingID        int64  `json:"booking_id"`
	BookingReference string `json:"booking_reference"`
	PaymentRef       string `json:"payment_ref"`
	Provider         string `json:"provider"`
	Status           string `json:"status"`
	Amount           int64  `json:"amount"`
	SettledAt        string `json:"settled_at"`
}
