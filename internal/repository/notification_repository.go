package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/turfbook/turf-booking/internal/model"
)

// NotificationRepo is the persisted per-user inbox.
type NotificationRepo struct{ DB *sql.DB }

func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{DB: db} }

// Notify stores a notification for userID.
func (r *NotificationRepo) Notify(ctx context.Context, userID uint64, in model.NotificationInput) error {
	var meta any
	if len(in.Meta) > 0 {
		b, err := json.Marshal(in.Meta)
		if err != nil {
			return fmt.Errorf("encode notification meta: %w", err)
		}
		meta = b
	}
	typ := in.Type
	if typ == "" {
		typ = "info"
	}
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO notifications (user_id, title, message, type, meta) VALUES (?, ?, ?, ?, ?)`,
		userID, in.Title, in.Message, typ, meta)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// ListByUser returns the user's notifications, newest first.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID uint64, limit int) ([]model.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, user_id, title, message, type, meta, is_read, created_at
         FROM notifications WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Notification, 0)
	for rows.Next() {
		var (
			n    model.Notification
			meta []byte
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &meta, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			n.Meta = json.RawMessage(meta)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead flags one of the user's notifications as read.  A
// notification belonging to someone else is reported as ErrNotFound.
func (r *NotificationRepo) MarkRead(ctx context.Context, userID, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	return r.requireOwned(ctx, res, userID, id)
}

// Delete removes one of the user's notifications.
func (r *NotificationRepo) Delete(ctx context.Context, userID, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM notifications WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// requireOwned distinguishes "already read" (0 rows changed) from "not
// yours / missing".
func (r *NotificationRepo) requireOwned(ctx context.Context, res sql.Result, userID, id uint64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var one int
	err = r.DB.QueryRowContext(ctx,
		`SELECT 1 FROM notifications WHERE id = ? AND user_id = ?`, id, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
