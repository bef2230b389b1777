package repositories

import (
	"context"
	"database/sql"

	intconfig "tiketku/internal/config"
	"tiketku/internal/domain/models"
)

// AuditRepository appends transition records. The table has no UPDATE or
// DELETE path anywhere in the codebase.
type AuditRepository struct {
	DB *sql.DB
}

func (r AuditRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r AuditRepository) Insert(ctx context.Context, e models.AuditEntry) error {
	_, err := r.db().ExecContext(ctx, `
		INSERT INTO audit_log (actor, action, entity_type, entity_id, before_state, after_state)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.Actor, e.Action, e.EntityType, e.EntityID, e.Before, e.After,
	)
	return err
}

// ListByEntity returns entries oldest first, for support tooling.
func (r AuditRepository) ListByEntity(ctx context.Context, entityType string, entityID int64) ([]models.AuditEntry, error) {
	rows, err := r.db().QueryContext(ctx, `
		SELECT id, actor, action, entity_type, entity_id, COALESCE(before_state,''), COALESCE(after_state,''), created_at
		FROM audit_log
		WHERE entity_type=? AND entity_id=?
		ORDER BY id`, entityType, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.AuditEntry{}
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.EntityType, &e.EntityID, &e.Before, &e.After, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
