package models

import "time"

type PaymentStatus string

const (
	PaymentInitiated PaymentStatus = "initiated"
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// Settled reports whether the provider has given a final answer.
func (s PaymentStatus) Settled() bool {
	return s == PaymentCompleted || s == PaymentFailed || s == PaymentRefunded
}

// Payment is a single settlement attempt against a booking. A booking may
// accumulate several attempts; at most one ever reaches completed.
type Payment struct {
	ID                    int64         `json:"id"`
	BookingID             int64         `json:"booking_id"`
	PaymentRef            string        `json:"payment_ref"`
	Provider              string        `json:"provider"`
	ProviderTransactionID string        `json:"provider_transaction_id,omitempty"`
	Method                string        `json:"method"`
	Amount                int64         `json:"amount"`
	Status                PaymentStatus `json:"status"`
	Instructions          string        `json:"instructions,omitempty"`
	CreatedAt             time.Time     `json:"created_at"`
}
