package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/turfbook/turf-booking/internal/model"
)

// AuditRepo appends to and reads the 'audit_logs' table.  Rows are
// never updated or deleted.
type AuditRepo struct{ DB *sql.DB }

func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{DB: db} }

// Append records one privileged action.  actorID is nil for system
// actions.
func (r *AuditRepo) Append(ctx context.Context, actorID *uint64, action model.AuditAction, entity string, entityID uint64, meta map[string]any) error {
	var metadata any
	if len(meta) > 0 {
		b, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("encode audit metadata: %w", err)
		}
		metadata = b
	}
	var actor any
	if actorID != nil {
		actor = *actorID
	}
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO audit_logs (actor_id, action, entity, entity_id, metadata) VALUES (?, ?, ?, ?, ?)`,
		actor, action, entity, entityID, metadata)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// ListRecent returns the most recent entries, newest first.
func (r *AuditRepo) ListRecent(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, actor_id, action, entity, entity_id, metadata, created_at
         FROM audit_logs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.AuditEntry, 0)
	for rows.Next() {
		var (
			e     model.AuditEntry
			actor sql.NullInt64
			meta  []byte
		)
		if err := rows.Scan(&e.ID, &actor, &e.Action, &e.Entity, &e.EntityID, &meta, &e.CreatedAt); err != nil {
			return nil, err
		}
		if actor.Valid {
			v := uint64(actor.Int64)
			e.ActorID = &v
		}
		if len(meta) > 0 {
			e.Metadata = json.RawMessage(meta)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
