package services

import (
	"context"
	"encoding/json"
	"fmt"

	"tiketku/internal/domain/models"
	"tiketku/internal/repositories"
	"tiketku/internal/utils"
)

// AuditRecorder appends state-transition records. Recording is best-effort:
// a failure is logged as a warning and never rolls back the transition it
// describes, so audit-store availability cannot gate bookings.
type AuditRecorder struct {
	Repo repositories.AuditRepository
	// Insert overrides the repository append when set.
	Insert    func(ctx context.Context, e models.AuditEntry) error
	RequestID string
}

func (a AuditRecorder) insert(ctx context.Context, e models.AuditEntry) error {
	if a.Insert != nil {
		return a.Insert(ctx, e)
	}
	return a.Repo.Insert(ctx, e)
}

// Record snapshots before/after as JSON and appends the entry.
func (a AuditRecorder) Record(ctx context.Context, actor, action, entityType string, entityID int64, before, after any) {
	entry := models.AuditEntry{
		Actor:      actor,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Before:     snapshot(before),
		After:      snapshot(after),
	}
	if err := a.insert(ctx, entry); err != nil {
		utils.LogEvent(a.RequestID, "audit", action,
			fmt.Sprintf("append warning: %s %d: %v", entityType, entityID, err))
	}
}

func snapshot(v any) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
