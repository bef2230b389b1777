// Package gateway defines the contract the engine consumes from external
// payment providers. Providers deliver status both by polling (Verify) and
// by webhook; webhook delivery is at-least-once and unordered.
package gateway

import "context"

// Status is the provider-side view of a transaction.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
)

// Payment methods accepted on booking creation. Card and counter cash
// settle synchronously; mobile money settles out-of-band.
const (
	MethodCard        = "card"
	MethodCash        = "cash"
	MethodMobileMoney = "mobile_money"
)

// Immediate reports whether the method resolves within the Initiate call.
func Immediate(method string) bool {
	switch method {
	case MethodCard, MethodCash:
		return true
	default:
		return false
	}
}

// KnownMethod validates the payment_method request field.
func KnownMethod(method string) bool {
	switch method {
	case MethodCard, MethodCash, MethodMobileMoney:
		return true
	default:
		return false
	}
}

type CustomerInfo struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type InitiateRequest struct {
	PaymentRef string
	Amount     int64
	Currency   string
	Method     string
	Customer   CustomerInfo
}

// InitiateResult carries the provider transaction id plus either a redirect
// URL (card) or human instructions (mobile money, counter).
type InitiateResult struct {
	TransactionID string
	Status        Status
	RedirectURL   string
	Instructions  string
}

type Gateway interface {
	Name() string
	Initiate(ctx context.Context, req InitiateRequest) (InitiateResult, error)
	Verify(ctx context.Context, transactionID string) (Status, error)
	Refund(ctx context.Context, transactionID string, amount int64) (Status, error)
}

// WebhookEvent is the inbound provider notification payload:
// {"event": "charge.completed", "data": {"id": "...", "status": "..."}}.
type WebhookEvent struct {
	Event string      `json:"event"`
	Data  WebhookData `json:"data"`
}

type WebhookData struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount int64  `json:"amount,omitempty"`
}

// EventStatus maps the event name to a Status; data.status is the
// fallback for providers that put the state only in the body.
func (e WebhookEvent) EventStatus() (Status, bool) {
	switch e.Event {
	case "charge.completed", "payment.completed":
		return StatusCompleted, true
	case "charge.failed", "payment.failed":
		return StatusFailed, true
	case "charge.refunded", "payment.refunded":
		return StatusRefunded, true
	case "charge.pending", "payment.pending":
		return StatusPending, true
	}
	switch Status(e.Data.Status) {
	case StatusCompleted, StatusFailed, StatusRefunded, StatusPending:
		return Status(e.Data.Status), true
	}
	return "", false
}
