// Package queue defines message payloads exchanged over the message broker
// and the consumer that journals them.
package queue

import (
	"time"

	"github.com/turfbook/turf-booking/internal/model"
)

// Event kinds double as AMQP routing keys on the booking exchange.
const (
	KindSlotReserved   = "slot.reserved"
	KindBookingUpdated = "booking.updated"
	KindBookingPaid    = "booking.paid"
)

// ExchangeName is the topic exchange every booking event is published to.
const ExchangeName = "booking.events"

// BookingEvent is published after a booking state change has committed.
// It carries enough for downstream consumers to log, notify, or feed
// analytics without querying the primary database.
type BookingEvent struct {
	Kind            string   `json:"kind"`
	BookingID       uint64   `json:"booking_id"`
	UserID          uint64   `json:"user_id"`
	TurfID          uint64   `json:"turf_id"`
	Status          string   `json:"status"`
	Slots           []string `json:"slots"`
	TotalPriceCents uint32   `json:"total_price_cents"`
	ActorID         *uint64  `json:"actor_id,omitempty"`
	Reason          string   `json:"reason,omitempty"`
	OccurredAt      string   `json:"occurred_at"`
}

// NewBookingEvent snapshots b for publication.
func NewBookingEvent(kind string, b *model.Booking, actorID *uint64, at time.Time) BookingEvent {
	slots := make([]string, 0, len(b.Slots))
	for _, s := range b.Slots {
		slots = append(slots, s.String())
	}
	ev := BookingEvent{
		Kind:            kind,
		BookingID:       b.ID,
		UserID:          b.UserID,
		TurfID:          b.TurfID,
		Status:          string(b.Status),
		Slots:           slots,
		TotalPriceCents: b.TotalPriceCents,
		ActorID:         actorID,
		OccurredAt:      at.UTC().Format(time.RFC3339),
	}
	if b.CancelReason != nil {
		ev.Reason = *b.CancelReason
	}
	return ev
}
