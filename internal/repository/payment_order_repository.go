package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/turfbook/turf-booking/internal/model"
)

// PaymentOrderRepo stores the gateway orders issued for bookings, so a
// verification can be matched against the order it claims to settle.
type PaymentOrderRepo struct{ DB *sql.DB }

func NewPaymentOrderRepo(db *sql.DB) *PaymentOrderRepo { return &PaymentOrderRepo{DB: db} }

// Create persists an order.  Re-issuing the same order ID is an error.
func (r *PaymentOrderRepo) Create(ctx context.Context, o *model.PaymentOrder) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO payment_orders (id, booking_id, amount_cents, currency, receipt, synthetic)
         VALUES (?, ?, ?, ?, ?, ?)`,
		o.ID, o.BookingID, o.AmountCents, o.Currency, o.Receipt, o.Synthetic)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("payment order %s: %w", o.ID, ErrConflict)
		}
		return fmt.Errorf("insert payment order: %w", err)
	}
	return nil
}

// Get returns an order by its gateway ID or ErrNotFound.
func (r *PaymentOrderRepo) Get(ctx context.Context, id string) (*model.PaymentOrder, error) {
	var o model.PaymentOrder
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, booking_id, amount_cents, currency, receipt, synthetic, created_at
         FROM payment_orders WHERE id = ?`, id,
	).Scan(&o.ID, &o.BookingID, &o.AmountCents, &o.Currency, &o.Receipt, &o.Synthetic, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}
