package models

import "time"

// Audit actions recorded by the engine.
const (
	AuditActionCreate           = "CREATE"
	AuditActionCancel           = "CANCEL"
	AuditActionPaymentInitiated = "PAYMENT_INITIATED"
	AuditActionPaymentCompleted = "PAYMENT_COMPLETED"
	AuditActionPaymentFailed    = "PAYMENT_FAILED"
	AuditActionRefund           = "REFUND"
)

// AuditEntry is an append-only record of a state transition. Before/After
// hold JSON snapshots of the entity around the transition.
type AuditEntry struct {
	ID         int64     `json:"id"`
	Actor      string    `json:"actor"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   int64     `json:"entity_id"`
	Before     string    `json:"before,omitempty"`
	After      string    `json:"after,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
