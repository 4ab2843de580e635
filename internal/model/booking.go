package model

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a Booking.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// transitions is the booking state machine.  paid → cancelled exists
// for administrative cancellation only; callers enforce the role.
var transitions = map[Status][]Status{
	StatusPending:   {StatusPaid, StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled},
	StatusPaid:      {StatusCancelled},
	StatusCancelled: {},
}

// ActiveStatuses are the states in which a booking occupies its slots
// and blocks new reservations.
var ActiveStatuses = []Status{StatusPending, StatusConfirmed, StatusPaid}

// BlockingStatuses are the states shown as taken in the public
// availability view.  Pending holds are deliberately left out.
var BlockingStatuses = []Status{StatusConfirmed, StatusPaid}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransitionTo reports whether the state machine allows s → to.
func (s Status) CanTransitionTo(to Status) bool {
	for _, t := range transitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// IsActive reports whether a booking in this status holds its slots.
func (s Status) IsActive() bool {
	for _, a := range ActiveStatuses {
		if a == s {
			return true
		}
	}
	return false
}

// ParseStatus converts a string to a Status.
func ParseStatus(v string) (Status, error) {
	s := Status(v)
	if !s.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", v)
	}
	return s, nil
}

// Booking is the central aggregate: one user's hold or reservation of
// one or more slots at a turf.  It corresponds to a row in `bookings`
// plus its `booking_slots` and optional `payments` row.
type Booking struct {
	ID              uint64    `json:"id"`
	UserID          uint64    `json:"userId"`
	TurfID          uint64    `json:"turfId"`
	Slots           []Slot    `json:"slots"`
	TotalPriceCents uint32    `json:"totalPriceCents"`
	Status          Status    `json:"status"`
	CancelReason    *string   `json:"cancelReason,omitempty"`
	Payment         *Payment  `json:"payment,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Keys returns the canonical slot keys of the booking.
func (b *Booking) Keys() []SlotKey {
	keys := make([]SlotKey, 0, len(b.Slots))
	for _, s := range b.Slots {
		keys = append(keys, KeyFor(b.TurfID, s))
	}
	return keys
}

// Payment records a verified gateway payment.  It only exists for a
// booking that reached paid.
type Payment struct {
	AmountCents uint32    `json:"amountCents"`
	Method      string    `json:"method"`
	OrderID     string    `json:"orderId"`
	PaymentID   string    `json:"paymentId"`
	Signature   string    `json:"signature"`
	Status      string    `json:"status"`
	PaidAt      time.Time `json:"paidAt"`
}

// PaymentOrder is the advisory order handed to a client so it can
// complete payment with the gateway.
type PaymentOrder struct {
	ID          string    `json:"id"`
	BookingID   uint64    `json:"bookingId"`
	AmountCents uint32    `json:"amount"`
	Currency    string    `json:"currency"`
	Receipt     string    `json:"receipt"`
	Synthetic   bool      `json:"synthetic"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Occupation is one taken slot in the public availability view.
type Occupation struct {
	BookingID uint64 `json:"bookingId"`
	Slot
	Status Status `json:"status"`
}
