package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/turfbook/turf-booking/internal/model"
)

// BookingRepo is the authoritative store of bookings.  It is the only
// component that writes booking status, and it does so exclusively
// through compare-and-swap updates.
//
// Mutual exclusion on a slot is enforced by the database: every active
// booking_slots row carries a non-NULL slot_key protected by a UNIQUE
// index, and the key is cleared in the same transaction that cancels
// the booking.  All timestamps are UTC.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// ReserveParams describes a reservation request.  Slots must already be
// normalized with model.NormalizeSlots.
type ReserveParams struct {
	TurfID     uint64
	UserID     uint64
	Slots      []model.Slot
	PriceCents uint32
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const bookingColumns = `b.id, b.user_id, b.turf_id, b.total_price_cents, b.status, b.cancel_reason, b.created_at, b.updated_at,
       p.amount_cents, p.method, p.order_id, p.payment_id, p.signature, p.status, p.paid_at`

// TryReserve atomically creates a pending booking owning all requested
// slots, or reports the booking that already holds one of them.  The
// whole slot list is checked before anything is inserted, so a batch is
// either reserved completely or not at all.
//
// Two concurrent requests for the same slot can both pass the scan; the
// UNIQUE index on slot_key then rejects the second insert, or InnoDB
// picks it as a deadlock victim.  In either case the transaction is
// rolled back and the winner is read back so the caller still gets a
// *SlotConflictError.  Nothing is retried.
//
// Slots are inserted in key order so overlapping batches lock the
// shared index entries in the same order.
func (r *BookingRepo) TryReserve(ctx context.Context, p ReserveParams) (*model.Booking, error) {
	if len(p.Slots) == 0 {
		return nil, model.ErrInvalidSlot
	}
	slots, keys := sortedByKey(p.TurfID, p.Slots)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin reserve: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	conflict, err := findActiveConflict(ctx, tx, keys)
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		return nil, conflict
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO bookings (user_id, turf_id, total_price_cents, status) VALUES (?, ?, ?, ?)`,
		p.UserID, p.TurfID, p.PriceCents, model.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("insert booking: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	query := `INSERT INTO booking_slots (booking_id, turf_id, slot_date, start_time, end_time, slot_key) VALUES `
	args := make([]any, 0, len(slots)*6)
	for i, s := range slots {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?)"
		args = append(args, id, p.TurfID, s.Date, s.StartTime, s.EndTime, keys[i])
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if isDuplicateKey(err) || isLockContention(err) {
			_ = tx.Rollback()
			committed = true
			return nil, r.resolveLostRace(ctx, keys)
		}
		return nil, fmt.Errorf("insert booking slots: %w", err)
	}

	b := &model.Booking{
		ID:              uint64(id),
		UserID:          p.UserID,
		TurfID:          p.TurfID,
		Slots:           slots,
		TotalPriceCents: p.PriceCents,
		Status:          model.StatusPending,
	}
	if err := tx.QueryRowContext(ctx,
		`SELECT created_at, updated_at FROM bookings WHERE id = ?`, id,
	).Scan(&b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit reserve: %w", err)
	}
	committed = true
	return b, nil
}

// sortedByKey returns a copy of slots ordered by slot key, together
// with the keys in the same order.
func sortedByKey(turfID uint64, slots []model.Slot) ([]model.Slot, []string) {
	out := append([]model.Slot(nil), slots...)
	keys := make([]string, len(out))
	for i, s := range out {
		keys[i] = model.KeyFor(turfID, s).String()
	}
	sort.Sort(byKey{slots: out, keys: keys})
	return out, keys
}

type byKey struct {
	slots []model.Slot
	keys  []string
}

func (b byKey) Len() int           { return len(b.keys) }
func (b byKey) Less(i, j int) bool { return b.keys[i] < b.keys[j] }
func (b byKey) Swap(i, j int) {
	b.keys[i], b.keys[j] = b.keys[j], b.keys[i]
	b.slots[i], b.slots[j] = b.slots[j], b.slots[i]
}

// TryReserveBatch is TryReserve for a multi-slot request.  It exists so
// call sites read the same way the contract is written.
func (r *BookingRepo) TryReserveBatch(ctx context.Context, p ReserveParams) (*model.Booking, error) {
	return r.TryReserve(ctx, p)
}

// resolveLostRace reads the booking that won a unique-index race.  The
// read runs outside the failed transaction so the committed winner is
// visible.
func (r *BookingRepo) resolveLostRace(ctx context.Context, keys []string) error {
	conflict, err := findActiveConflict(ctx, r.db, keys)
	if err != nil {
		return err
	}
	if conflict != nil {
		return conflict
	}
	return fmt.Errorf("reserve slots: %w", ErrConflict)
}

// findActiveConflict returns the first active booking holding any of
// the given slot keys, or nil.
func findActiveConflict(ctx context.Context, q queryer, keys []string) (*SlotConflictError, error) {
	args := make([]any, 0, len(keys)+len(model.ActiveStatuses))
	for _, k := range keys {
		args = append(args, k)
	}
	for _, s := range model.ActiveStatuses {
		args = append(args, s)
	}
	query := `SELECT b.id, b.user_id, bs.slot_date, bs.start_time, bs.end_time
              FROM booking_slots bs
              JOIN bookings b ON b.id = bs.booking_id
              WHERE bs.slot_key IN (` + placeholders(len(keys)) + `)
                AND b.status IN (` + placeholders(len(model.ActiveStatuses)) + `)
              ORDER BY b.id
              LIMIT 1`
	var (
		c    SlotConflictError
		date time.Time
	)
	err := q.QueryRowContext(ctx, query, args...).Scan(&c.BookingID, &c.UserID, &date, &c.Slot.StartTime, &c.Slot.EndTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan slot conflicts: %w", err)
	}
	c.Slot.Date = date.Format(model.DateLayout)
	return &c, nil
}

// TransitionStatus moves a booking to `to` only if its current status is
// one of `from`.  When the target is cancelled the booking's slot keys
// are released in the same transaction.  The updated booking is read
// before commit, so a returned error always means nothing changed.  It returns ErrNotFound when the
// booking does not exist and ErrInvalidTransition when the CAS misses.
func (r *BookingRepo) TransitionStatus(ctx context.Context, id uint64, from []model.Status, to model.Status, reason string) (*model.Booking, error) {
	if len(from) == 0 {
		return nil, ErrInvalidTransition
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transition: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var cancelReason any
	if to == model.StatusCancelled && reason != "" {
		cancelReason = reason
	}
	args := []any{to, cancelReason, id}
	for _, s := range from {
		args = append(args, s)
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status = ?, cancel_reason = COALESCE(?, cancel_reason)
         WHERE id = ? AND status IN (`+placeholders(len(from))+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("update booking status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		current, err := currentStatus(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: booking %d is %s", ErrInvalidTransition, id, current)
	}
	if to == model.StatusCancelled {
		if _, err := tx.ExecContext(ctx,
			`UPDATE booking_slots SET slot_key = NULL WHERE booking_id = ?`, id); err != nil {
			return nil, fmt.Errorf("release booking slots: %w", err)
		}
	}
	b, err := getBooking(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("read transitioned booking: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}
	committed = true
	return b, nil
}

// MarkPaid is the only way a booking becomes paid.  It moves the
// booking pending → paid and stores the payment row in one transaction.
// A booking that is already paid is returned unchanged with applied set
// to false, which makes repeated gateway callbacks harmless.
func (r *BookingRepo) MarkPaid(ctx context.Context, id uint64, pay model.Payment) (*model.Booking, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin mark paid: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status = ? WHERE id = ? AND status = ?`,
		model.StatusPaid, id, model.StatusPending)
	if err != nil {
		return nil, false, fmt.Errorf("update booking status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}
	if n == 0 {
		current, err := currentStatus(ctx, tx, id)
		if err != nil {
			return nil, false, err
		}
		if current != model.StatusPaid {
			return nil, false, fmt.Errorf("%w: booking %d is %s", ErrInvalidTransition, id, current)
		}
		_ = tx.Rollback()
		committed = true
		b, err := r.GetByID(ctx, id)
		return b, false, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO payments (booking_id, amount_cents, method, order_id, payment_id, signature, status, paid_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, pay.AmountCents, pay.Method, pay.OrderID, pay.PaymentID, pay.Signature, pay.Status, pay.PaidAt.UTC(),
	); err != nil {
		return nil, false, fmt.Errorf("insert payment: %w", err)
	}
	b, err := getBooking(ctx, tx, id)
	if err != nil {
		return nil, false, fmt.Errorf("read paid booking: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit mark paid: %w", err)
	}
	committed = true
	return b, true, nil
}

// currentStatus reads a booking's status inside tx, mapping a missing
// row to ErrNotFound.
func currentStatus(ctx context.Context, tx *sql.Tx, id uint64) (model.Status, error) {
	var s string
	err := tx.QueryRowContext(ctx, `SELECT status FROM bookings WHERE id = ?`, id).Scan(&s)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return model.Status(s), nil
}

// GetByID loads a booking with its slots and payment.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	return getBooking(ctx, r.db, id)
}

// getBooking reads through q so a status change can be read back inside
// its own transaction.
func getBooking(ctx context.Context, q queryer, id uint64) (*model.Booking, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+bookingColumns+`
         FROM bookings b
         LEFT JOIN payments p ON p.booking_id = b.id
         WHERE b.id = ?`, id)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := attachSlots(ctx, q, []*model.Booking{b}); err != nil {
		return nil, err
	}
	return b, nil
}

// ListByUser returns a user's bookings, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	return r.list(ctx, `WHERE b.user_id = ? ORDER BY b.created_at DESC, b.id DESC`, userID)
}

// ListByTurf returns the bookings of a turf, optionally restricted to
// those touching date, newest first.
func (r *BookingRepo) ListByTurf(ctx context.Context, turfID uint64, date string) ([]model.Booking, error) {
	if date == "" {
		return r.list(ctx, `WHERE b.turf_id = ? ORDER BY b.created_at DESC, b.id DESC`, turfID)
	}
	return r.list(ctx,
		`WHERE b.turf_id = ? AND EXISTS (SELECT 1 FROM booking_slots s WHERE s.booking_id = b.id AND s.slot_date = ?)
         ORDER BY b.created_at DESC, b.id DESC`, turfID, date)
}

func (r *BookingRepo) list(ctx context.Context, where string, args ...any) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookingColumns+`
         FROM bookings b
         LEFT JOIN payments p ON p.booking_id = b.id `+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]*model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := attachSlots(ctx, r.db, items); err != nil {
		return nil, err
	}
	out := make([]model.Booking, 0, len(items))
	for _, b := range items {
		out = append(out, *b)
	}
	return out, nil
}

// attachSlots loads the slots of all given bookings in one query.
func attachSlots(ctx context.Context, q queryer, bookings []*model.Booking) error {
	if len(bookings) == 0 {
		return nil
	}
	index := make(map[uint64]*model.Booking, len(bookings))
	ids := make([]any, 0, len(bookings))
	for _, b := range bookings {
		b.Slots = []model.Slot{}
		index[b.ID] = b
		ids = append(ids, b.ID)
	}
	rows, err := q.QueryContext(ctx,
		`SELECT booking_id, slot_date, start_time, end_time
         FROM booking_slots
         WHERE booking_id IN (`+placeholders(len(ids))+`)
         ORDER BY booking_id, slot_date, start_time`, ids...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			bid  uint64
			date time.Time
			s    model.Slot
		)
		if err := rows.Scan(&bid, &date, &s.StartTime, &s.EndTime); err != nil {
			return err
		}
		s.Date = date.Format(model.DateLayout)
		if b, ok := index[bid]; ok {
			b.Slots = append(b.Slots, s)
		}
	}
	return rows.Err()
}

// FindOccupied returns the confirmed or paid slot occupations of a turf,
// optionally for a single date.  Pending holds are not listed even
// though they block new reservations.
func (r *BookingRepo) FindOccupied(ctx context.Context, turfID uint64, date string) ([]model.Occupation, error) {
	args := []any{turfID}
	for _, s := range model.BlockingStatuses {
		args = append(args, s)
	}
	query := `SELECT bs.booking_id, bs.slot_date, bs.start_time, bs.end_time, b.status
              FROM booking_slots bs
              JOIN bookings b ON b.id = bs.booking_id
              WHERE bs.turf_id = ? AND b.status IN (` + placeholders(len(model.BlockingStatuses)) + `)`
	if date != "" {
		query += ` AND bs.slot_date = ?`
		args = append(args, date)
	}
	query += ` ORDER BY bs.slot_date, bs.start_time`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Occupation, 0)
	for rows.Next() {
		var (
			o      model.Occupation
			d      time.Time
			status string
		)
		if err := rows.Scan(&o.BookingID, &d, &o.StartTime, &o.EndTime, &status); err != nil {
			return nil, err
		}
		o.Date = d.Format(model.DateLayout)
		o.Status = model.Status(status)
		out = append(out, o)
	}
	return out, rows.Err()
}

// ListStalePending returns IDs of pending bookings created before the
// cutoff, oldest first.
func (r *BookingRepo) ListStalePending(ctx context.Context, before time.Time, limit int) ([]uint64, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM bookings WHERE status = ? AND created_at < ? ORDER BY created_at, id LIMIT ?`,
		model.StatusPending, before.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make([]uint64, 0)
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*model.Booking, error) {
	var (
		b         model.Booking
		status    string
		reason    sql.NullString
		amount    sql.NullInt64
		method    sql.NullString
		orderID   sql.NullString
		paymentID sql.NullString
		signature sql.NullString
		payStatus sql.NullString
		paidAt    sql.NullTime
	)
	if err := row.Scan(
		&b.ID, &b.UserID, &b.TurfID, &b.TotalPriceCents, &status, &reason, &b.CreatedAt, &b.UpdatedAt,
		&amount, &method, &orderID, &paymentID, &signature, &payStatus, &paidAt,
	); err != nil {
		return nil, err
	}
	b.Status = model.Status(status)
	if reason.Valid {
		v := reason.String
		b.CancelReason = &v
	}
	if paymentID.Valid {
		b.Payment = &model.Payment{
			AmountCents: uint32(amount.Int64),
			Method:      method.String,
			OrderID:     orderID.String,
			PaymentID:   paymentID.String,
			Signature:   signature.String,
			Status:      payStatus.String,
			PaidAt:      paidAt.Time,
		}
	}
	return &b, nil
}

// placeholders returns "?, ?, ..." with n markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
