package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/turfbook/turf-booking/internal/model"
)

// TurfRepo provides access to the 'turfs' table.
type TurfRepo struct{ DB *sql.DB }

func NewTurfRepo(db *sql.DB) *TurfRepo { return &TurfRepo{DB: db} }

const turfColumns = "id, owner_id, name, hourly_price_cents, status, created_at, updated_at"

// GetByID returns the turf or ErrNotFound.
func (r *TurfRepo) GetByID(ctx context.Context, id uint64) (*model.Turf, error) {
	var t model.Turf
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+turfColumns+" FROM turfs WHERE id = ?", id,
	).Scan(&t.ID, &t.OwnerID, &t.Name, &t.HourlyPriceCents, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListApproved returns the turfs open for booking, ordered by name.
func (r *TurfRepo) ListApproved(ctx context.Context, limit, offset int) ([]model.Turf, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+turfColumns+" FROM turfs WHERE status = ? ORDER BY name, id LIMIT ? OFFSET ?",
		model.TurfApproved, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Turf, 0)
	for rows.Next() {
		var t model.Turf
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Name, &t.HourlyPriceCents, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SetStatus changes a turf's approval state.
func (r *TurfRepo) SetStatus(ctx context.Context, id uint64, status model.TurfStatus) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE turfs SET status = ? WHERE id = ?", status, id)
	if err != nil {
		return fmt.Errorf("update turf status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// MySQL reports 0 affected rows when the value is unchanged.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
