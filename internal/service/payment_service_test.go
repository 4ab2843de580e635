package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/turfbook/turf-booking/internal/model"
	"github.com/turfbook/turf-booking/internal/queue"
	"github.com/turfbook/turf-booking/internal/repository"
)

const testSecret = "whsec_test"

type paymentFixture struct {
	*bookingFixture
	orders *memOrders
	pay    *PaymentService
}

func newPaymentFixture(secret string) *paymentFixture {
	f := &paymentFixture{bookingFixture: newBookingFixture(), orders: newMemOrders()}
	f.pay = NewPaymentService(f.store, f.orders, LocalGateway{}, f.sink,
		PaymentConfig{KeyID: "rzp_test_key", KeySecret: secret}, zap.NewNop())
	return f
}

func (f *paymentFixture) holdAndOrder(t *testing.T, p model.Principal) (*model.Booking, *model.PaymentOrder) {
	t.Helper()
	ctx := context.Background()
	res, err := f.svc.Reserve(ctx, p, ReserveInput{TurfID: turfT1, Slots: []model.Slot{slot("18:00", "19:00")}})
	require.NoError(t, err)
	order, err := f.pay.CreateOrder(ctx, p, res.Booking.ID)
	require.NoError(t, err)
	return res.Booking, order.Order
}

func TestSignature(t *testing.T) {
	sig := Sign(testSecret, "order_1", "pay_1")
	assert.Len(t, sig, 64)
	assert.True(t, VerifySignature(testSecret, "order_1", "pay_1", sig))
	assert.False(t, VerifySignature(testSecret, "order_1", "pay_2", sig))
	assert.False(t, VerifySignature("other", "order_1", "pay_1", sig))
	assert.False(t, VerifySignature("", "order_1", "pay_1", Sign("", "order_1", "pay_1")), "empty secret never verifies")
}

func TestCreateOrder_Synthetic(t *testing.T) {
	f := newPaymentFixture(testSecret)
	b, order := f.holdAndOrder(t, alice)

	assert.True(t, order.Synthetic)
	assert.Contains(t, order.ID, "order_")
	assert.Equal(t, b.TotalPriceCents, order.AmountCents)
	assert.Equal(t, "INR", order.Currency)
	assert.Equal(t, b.ID, order.BookingID)

	stored, err := f.orders.Get(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, stored.BookingID)

	again, err := f.store.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, again.Status, "order creation never mutates the booking")
}

func TestCreateOrder_Rules(t *testing.T) {
	f := newPaymentFixture(testSecret)
	ctx := context.Background()
	b, _ := f.holdAndOrder(t, alice)

	_, err := f.pay.CreateOrder(ctx, bob, b.ID)
	assert.ErrorIs(t, err, repository.ErrForbidden)

	_, err = f.svc.Release(ctx, venueAdmin, b.ID, "")
	require.NoError(t, err)
	_, err = f.pay.CreateOrder(ctx, alice, b.ID)
	assert.ErrorIs(t, err, repository.ErrInvalidTransition)
}

func TestVerify_MarksPaidOnce(t *testing.T) {
	f := newPaymentFixture(testSecret)
	ctx := context.Background()
	b, order := f.holdAndOrder(t, alice)
	in := VerifyInput{OrderID: order.ID, PaymentID: "pay_1", Signature: Sign(testSecret, order.ID, "pay_1"), BookingID: b.ID}

	first, err := f.pay.Verify(ctx, alice, in)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPaid, first.Status)
	require.NotNil(t, first.Payment)
	assert.Equal(t, "pay_1", first.Payment.PaymentID)
	assert.Equal(t, uint32(500), first.Payment.AmountCents)

	second, err := f.pay.Verify(ctx, alice, in)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPaid, second.Status)

	assert.Equal(t, 1, f.store.paymentCount())
	assert.Equal(t, []string{queue.KindSlotReserved, queue.KindBookingPaid}, f.sink.kinds())
}

func TestVerify_BadSignatureLeavesPending(t *testing.T) {
	f := newPaymentFixture(testSecret)
	ctx := context.Background()
	b, order := f.holdAndOrder(t, alice)

	_, err := f.pay.Verify(ctx, alice, VerifyInput{OrderID: order.ID, PaymentID: "pay_1", Signature: "deadbeef", BookingID: b.ID})
	assert.ErrorIs(t, err, ErrVerificationFailed)

	got, err := f.store.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status)
	assert.Nil(t, got.Payment)
	assert.Equal(t, 0, f.store.paymentCount())
}

func TestVerify_WithoutSecretNeverPays(t *testing.T) {
	f := newPaymentFixture("")
	ctx := context.Background()
	b, order := f.holdAndOrder(t, alice)

	_, err := f.pay.Verify(ctx, alice, VerifyInput{OrderID: order.ID, PaymentID: "pay_1", Signature: Sign("", order.ID, "pay_1"), BookingID: b.ID})
	assert.ErrorIs(t, err, ErrVerificationFailed)
}

func TestVerify_OrderMustBelongToBooking(t *testing.T) {
	f := newPaymentFixture(testSecret)
	ctx := context.Background()
	b, _ := f.holdAndOrder(t, alice)

	_, err := f.pay.Verify(ctx, alice, VerifyInput{OrderID: "order_unknown", PaymentID: "pay_1",
		Signature: Sign(testSecret, "order_unknown", "pay_1"), BookingID: b.ID})
	assert.ErrorIs(t, err, ErrVerificationFailed)

	res, err := f.svc.Reserve(ctx, bob, ReserveInput{TurfID: turfT1, Slots: []model.Slot{slot("20:00", "21:00")}})
	require.NoError(t, err)
	bobOrder, err := f.pay.CreateOrder(ctx, bob, res.Booking.ID)
	require.NoError(t, err)

	_, err = f.pay.Verify(ctx, alice, VerifyInput{OrderID: bobOrder.Order.ID, PaymentID: "pay_2",
		Signature: Sign(testSecret, bobOrder.Order.ID, "pay_2"), BookingID: b.ID})
	assert.ErrorIs(t, err, ErrVerificationFailed)
}

func TestVerify_CancelledBookingIsRejected(t *testing.T) {
	f := newPaymentFixture(testSecret)
	ctx := context.Background()
	b, order := f.holdAndOrder(t, alice)
	_, err := f.svc.Release(ctx, venueAdmin, b.ID, "")
	require.NoError(t, err)

	_, err = f.pay.Verify(ctx, alice, VerifyInput{OrderID: order.ID, PaymentID: "pay_1",
		Signature: Sign(testSecret, order.ID, "pay_1"), BookingID: b.ID})
	assert.ErrorIs(t, err, repository.ErrInvalidTransition)
	assert.Equal(t, 0, f.store.paymentCount())
}

func TestRazorpayGateway_CreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key", user)
		assert.Equal(t, "secret", pass)

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(500), body["amount"])
		assert.Equal(t, "booking_7", body["receipt"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_abc","amount":500,"currency":"INR","receipt":"booking_7","status":"created"}`))
	}))
	defer srv.Close()

	g := NewRazorpayGateway(srv.URL, "key", "secret")
	order, err := g.CreateOrder(context.Background(), OrderRequest{AmountCents: 500, Currency: "INR", Receipt: "booking_7"})
	require.NoError(t, err)
	assert.Equal(t, "order_abc", order.ID)
	assert.False(t, order.Synthetic)
}

func TestRazorpayGateway_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"bad key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewRazorpayGateway(srv.URL, "key", "wrong").CreateOrder(context.Background(), OrderRequest{AmountCents: 1})
	assert.ErrorContains(t, err, "401")
}
