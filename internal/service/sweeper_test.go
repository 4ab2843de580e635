package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/turfbook/turf-booking/internal/model"
	"github.com/turfbook/turf-booking/internal/repository"
)

func newTestSweeper(store BookingStore, audit *memAudit, sink *recordingSink) *Sweeper {
	return NewSweeper(store, audit, sink, holdTTL, time.Minute, 2, zap.NewNop())
}

func TestSweep_ExpiresOnlyStalePending(t *testing.T) {
	f := newPaymentFixture(testSecret)
	ctx := context.Background()

	stale, err := f.svc.Reserve(ctx, alice, ReserveInput{TurfID: turfT1, Slots: []model.Slot{slot("08:00", "09:00")}})
	require.NoError(t, err)
	fresh, err := f.svc.Reserve(ctx, alice, ReserveInput{TurfID: turfT1, Slots: []model.Slot{slot("09:00", "10:00")}})
	require.NoError(t, err)
	confirmed, err := f.svc.Reserve(ctx, bob, ReserveInput{TurfID: turfT1, Slots: []model.Slot{slot("10:00", "11:00")}})
	require.NoError(t, err)
	_, err = f.svc.Confirm(ctx, venueAdmin, confirmed.Booking.ID)
	require.NoError(t, err)

	f.store.backdate(stale.Booking.ID, time.Hour)
	f.store.backdate(confirmed.Booking.ID, time.Hour)

	sw := newTestSweeper(f.store, f.audit, f.sink)
	n, err := sw.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, _ := f.store.GetByID(ctx, stale.Booking.ID)
	assert.Equal(t, model.StatusCancelled, got.Status)
	require.NotNil(t, got.CancelReason)
	assert.Equal(t, "expired", *got.CancelReason)

	got, _ = f.store.GetByID(ctx, fresh.Booking.ID)
	assert.Equal(t, model.StatusPending, got.Status)
	got, _ = f.store.GetByID(ctx, confirmed.Booking.ID)
	assert.Equal(t, model.StatusConfirmed, got.Status)

	assert.Contains(t, f.audit.actions(), model.AuditExpire)

	n, err = sw.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSweep_WalksAllBatches(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()
	starts := []string{"06:00", "07:00", "08:00", "09:00", "10:00"}
	for i, s := range starts[:len(starts)-1] {
		res, err := f.svc.Reserve(ctx, alice, ReserveInput{TurfID: turfT1, Slots: []model.Slot{slot(s, starts[i+1])}})
		require.NoError(t, err)
		f.store.backdate(res.Booking.ID, time.Hour)
	}

	n, err := newTestSweeper(f.store, f.audit, f.sink).Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

// payingStore pays a booking between the sweeper's scan and its update.
type payingStore struct {
	*memStore
	payID uint64
}

func (p *payingStore) ListStalePending(ctx context.Context, before time.Time, limit int) ([]uint64, error) {
	ids, err := p.memStore.ListStalePending(ctx, before, limit)
	if err == nil && p.payID != 0 {
		_, _, err = p.memStore.MarkPaid(ctx, p.payID, model.Payment{PaymentID: "pay_race"})
		p.payID = 0
	}
	return ids, err
}

func TestSweep_RespectsConcurrentPayment(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()
	res, err := f.svc.Reserve(ctx, alice, ReserveInput{TurfID: turfT1, Slots: []model.Slot{slot("18:00", "19:00")}})
	require.NoError(t, err)
	f.store.backdate(res.Booking.ID, time.Hour)

	store := &payingStore{memStore: f.store, payID: res.Booking.ID}
	n, err := newTestSweeper(store, f.audit, f.sink).Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := f.store.GetByID(ctx, res.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPaid, got.Status)
	assert.Empty(t, f.audit.actions())
}

func TestSweeper_StartStop(t *testing.T) {
	f := newBookingFixture()
	sw := NewSweeper(f.store, f.audit, f.sink, holdTTL, 0, 10, zap.NewNop())
	assert.Error(t, sw.Start(context.Background()), "zero interval is rejected")

	sw = NewSweeper(f.store, f.audit, f.sink, holdTTL, time.Hour, 10, zap.NewNop())
	require.NoError(t, sw.Start(context.Background()))
	assert.Error(t, sw.Start(context.Background()))
	sw.Stop()
	sw.Stop()
}

// End-to-end: hold, conflicting request, payment, sweep.
func TestScenario_ReservePaySweep(t *testing.T) {
	f := newPaymentFixture(testSecret)
	ctx := context.Background()
	in := ReserveInput{TurfID: turfT1, Date: "2025-01-10", Slots: []model.Slot{{StartTime: "18:00", EndTime: "19:00"}}}

	res, err := f.svc.Reserve(ctx, alice, in)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, res.Booking.Status)
	assert.Equal(t, uint32(500), res.Booking.TotalPriceCents)

	_, err = f.svc.Reserve(ctx, bob, in)
	var conflict *repository.SlotConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, res.Booking.ID, conflict.BookingID)

	order, err := f.pay.CreateOrder(ctx, alice, res.Booking.ID)
	require.NoError(t, err)
	paid, err := f.pay.Verify(ctx, alice, VerifyInput{
		OrderID: order.Order.ID, PaymentID: "pay_1",
		Signature: Sign(testSecret, order.Order.ID, "pay_1"), BookingID: res.Booking.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPaid, paid.Status)

	other, err := f.svc.Reserve(ctx, bob, ReserveInput{TurfID: turfT1, Date: "2025-01-10", Slots: []model.Slot{{StartTime: "19:00", EndTime: "20:00"}}})
	require.NoError(t, err)
	f.store.backdate(res.Booking.ID, time.Hour)
	f.store.backdate(other.Booking.ID, time.Hour)

	n, err := newTestSweeper(f.store, f.audit, f.sink).Sweep(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1)

	got, _ := f.store.GetByID(ctx, res.Booking.ID)
	assert.Equal(t, model.StatusPaid, got.Status)
	got, _ = f.store.GetByID(ctx, other.Booking.ID)
	assert.Equal(t, model.StatusCancelled, got.Status)
}
