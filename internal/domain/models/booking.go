package models

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingRefunded  BookingStatus = "refunded"
)

// Terminal reports whether no further transition is allowed.
func (s BookingStatus) Terminal() bool {
	return s == BookingCancelled || s == BookingRefunded
}

// BookingPaymentStatus is the booking-level payment summary, distinct from
// the per-attempt Payment.Status.
type BookingPaymentStatus string

const (
	BookingPaymentPending  BookingPaymentStatus = "pending"
	BookingPaymentPaid     BookingPaymentStatus = "paid"
	BookingPaymentFailed   BookingPaymentStatus = "failed"
	BookingPaymentRefunded BookingPaymentStatus = "refunded"
)

// Booking reserves seats on a trip for a set of passengers. Rows are never
// deleted, only status-transitioned, so the audit trail stays replayable.
type Booking struct {
	ID               int64                `json:"id"`
	TripID           int64                `json:"trip_id"`
	BookingReference string               `json:"booking_reference"`
	PassengerCount   int                  `json:"passenger_count"`
	TotalAmount      int64                `json:"total_amount"`
	Status           BookingStatus        `json:"status"`
	PaymentStatus    BookingPaymentStatus `json:"payment_status"`
	RequesterID      int64                `json:"requester_id,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
}

// Passenger is created atomically with its parent booking and never exists
// without one.
type Passenger struct {
	ID        int64  `json:"id"`
	BookingID int64  `json:"booking_id"`
	FullName  string `json:"full_name"`
	Age       int    `json:"age"`
	Phone     string `json:"phone"`
}

// PassengerInput carries passenger data on booking creation.
type PassengerInput struct {
	FullName string `json:"full_name"`
	Age      int    `json:"age"`
	Phone    string `json:"phone"`
}
