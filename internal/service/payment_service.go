package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/turfbook/turf-booking/internal/metrics"
	"github.com/turfbook/turf-booking/internal/model"
	"github.com/turfbook/turf-booking/internal/queue"
	"github.com/turfbook/turf-booking/internal/repository"
)

// PaymentConfig holds the gateway credentials.  An empty KeySecret makes
// every verification fail.
type PaymentConfig struct {
	KeyID     string
	KeySecret string
	Currency  string
	Method    string
}

// PaymentService issues payment orders and reconciles gateway callbacks
// into the paid state.  It is the only caller of BookingStore.MarkPaid.
type PaymentService struct {
	bookings BookingStore
	orders   OrderStore
	gateway  Gateway
	events   EventSink
	cfg      PaymentConfig
	log      *zap.Logger
	now      func() time.Time
}

func NewPaymentService(bookings BookingStore, orders OrderStore, gateway Gateway, events EventSink, cfg PaymentConfig, log *zap.Logger) *PaymentService {
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	if cfg.Method == "" {
		cfg.Method = "razorpay"
	}
	return &PaymentService{
		bookings: bookings,
		orders:   orders,
		gateway:  gateway,
		events:   events,
		cfg:      cfg,
		log:      log.Named("payment"),
		now:      time.Now,
	}
}

// OrderResult is what a client needs to open the gateway checkout.
type OrderResult struct {
	Order            *model.PaymentOrder `json:"order"`
	GatewayPublicKey string              `json:"gatewayPublicKey"`
}

// VerifyInput is the payment assertion posted back by the client.
type VerifyInput struct {
	OrderID   string
	PaymentID string
	Signature string
	BookingID uint64
}

// CreateOrder requests an order for a pending booking's price.  The
// booking itself is not modified.
func (s *PaymentService) CreateOrder(ctx context.Context, p model.Principal, bookingID uint64) (*OrderResult, error) {
	b, err := s.ownedBooking(ctx, p, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != model.StatusPending {
		return nil, fmt.Errorf("%w: booking %d is %s", repository.ErrInvalidTransition, b.ID, b.Status)
	}
	order, err := s.gateway.CreateOrder(ctx, OrderRequest{
		AmountCents: b.TotalPriceCents,
		Currency:    s.cfg.Currency,
		Receipt:     fmt.Sprintf("booking_%d", b.ID),
	})
	if err != nil {
		return nil, fmt.Errorf("create gateway order: %w", err)
	}
	order.BookingID = b.ID
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}
	s.log.Info("payment order created",
		zap.Uint64("booking_id", b.ID), zap.String("order_id", order.ID), zap.Bool("synthetic", order.Synthetic))
	return &OrderResult{Order: order, GatewayPublicKey: s.cfg.KeyID}, nil
}

// Verify checks the gateway signature and marks the booking paid.  A
// repeated callback for an already paid booking succeeds without a
// second payment row or event.
func (s *PaymentService) Verify(ctx context.Context, p model.Principal, in VerifyInput) (*model.Booking, error) {
	b, err := s.ownedBooking(ctx, p, in.BookingID)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.Get(ctx, in.OrderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.RecordVerification("unknown_order")
			return nil, ErrVerificationFailed
		}
		return nil, err
	}
	if order.BookingID != b.ID {
		metrics.RecordVerification("order_mismatch")
		return nil, ErrVerificationFailed
	}
	if !VerifySignature(s.cfg.KeySecret, in.OrderID, in.PaymentID, in.Signature) {
		metrics.RecordVerification("bad_signature")
		s.log.Warn("payment signature mismatch", zap.Uint64("booking_id", b.ID), zap.String("order_id", in.OrderID))
		return nil, ErrVerificationFailed
	}

	paid, applied, err := s.bookings.MarkPaid(ctx, b.ID, model.Payment{
		AmountCents: order.AmountCents,
		Method:      s.cfg.Method,
		OrderID:     in.OrderID,
		PaymentID:   in.PaymentID,
		Signature:   in.Signature,
		Status:      "captured",
		PaidAt:      s.now().UTC(),
	})
	if err != nil {
		metrics.RecordVerification("rejected")
		return nil, err
	}
	if !applied {
		metrics.RecordVerification("replay")
		return paid, nil
	}
	metrics.RecordVerification("ok")
	metrics.RecordTransition(string(model.StatusPaid), "payment")
	s.log.Info("booking paid", zap.Uint64("booking_id", paid.ID), zap.String("payment_id", in.PaymentID))
	actor := p.ID
	s.events.Dispatch(ctx, Event{Kind: queue.KindBookingPaid, Booking: paid, ActorID: &actor})
	return paid, nil
}

func (s *PaymentService) ownedBooking(ctx context.Context, p model.Principal, id uint64) (*model.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.UserID != p.ID && p.Role != model.RoleSuperAdmin {
		return nil, repository.ErrForbidden
	}
	return b, nil
}

// Sign computes hex(HMAC-SHA256(secret, orderID|paymentID)).
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares in constant time.  An empty secret never
// verifies.
func VerifySignature(secret, orderID, paymentID, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	return hmac.Equal([]byte(Sign(secret, orderID, paymentID)), []byte(signature))
}
