package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/turfbook/turf-booking/internal/metrics"
	"github.com/turfbook/turf-booking/internal/model"
	"github.com/turfbook/turf-booking/internal/queue"
)

// AdminRoom is the live room every venue admin and super admin joins.
const AdminRoom = "admins"

// UserRoom returns the live room of a single user.
func UserRoom(userID uint64) string { return "user:" + strconv.FormatUint(userID, 10) }

// Event is a committed booking state change.  Kind is one of the
// queue.Kind* constants.
type Event struct {
	Kind    string
	Booking *model.Booking
	ActorID *uint64
}

// Dispatcher fans a booking state change out to the owner's inbox, the
// live rooms and the message broker.  It is only called after the state
// change has committed, and it never reports failure to its caller.
type Dispatcher struct {
	notifier  Notifier
	emitter   Emitter
	publisher EventPublisher
	log       *zap.Logger
	timeout   time.Duration
	now       func() time.Time
	wg        sync.WaitGroup
}

// NewDispatcher wires a dispatcher.  emitter and publisher may be nil.
func NewDispatcher(notifier Notifier, emitter Emitter, publisher EventPublisher, log *zap.Logger) *Dispatcher {
	if emitter == nil {
		emitter = NopEmitter{}
	}
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &Dispatcher{
		notifier:  notifier,
		emitter:   emitter,
		publisher: publisher,
		log:       log.Named("dispatcher"),
		timeout:   5 * time.Second,
		now:       time.Now,
	}
}

// Dispatch persists exactly one notification for the booking owner and
// then delivers the live and broker events in the background.  The
// request context's cancellation is detached so a client hanging up
// right after a commit does not drop its notification.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) {
	if ev.Booking == nil {
		return
	}
	base := context.WithoutCancel(ctx)
	b := *ev.Booking

	nctx, cancel := context.WithTimeout(base, d.timeout)
	err := d.notifier.Notify(nctx, b.UserID, notificationFor(ev.Kind, &b))
	cancel()
	if err != nil {
		metrics.RecordDispatch("notification", "error")
		d.log.Error("persist notification failed",
			zap.Uint64("booking_id", b.ID), zap.String("kind", ev.Kind), zap.Error(err))
	} else {
		metrics.RecordDispatch("notification", "ok")
	}

	msg := queue.NewBookingEvent(ev.Kind, &b, ev.ActorID, d.now())
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		lctx, cancel := context.WithTimeout(base, d.timeout)
		defer cancel()

		userEvent := queue.KindBookingUpdated
		if ev.Kind == queue.KindSlotReserved {
			userEvent = queue.KindSlotReserved
		}
		d.emit(lctx, UserRoom(b.UserID), userEvent, msg)
		if ev.Kind == queue.KindSlotReserved || ev.Kind == queue.KindBookingPaid {
			d.emit(lctx, AdminRoom, ev.Kind, msg)
		}

		if err := d.publisher.Publish(lctx, msg); err != nil {
			metrics.RecordDispatch("broker", "error")
			d.log.Warn("publish booking event failed",
				zap.Uint64("booking_id", b.ID), zap.String("kind", ev.Kind), zap.Error(err))
			return
		}
		metrics.RecordDispatch("broker", "ok")
	}()
}

func (d *Dispatcher) emit(ctx context.Context, room, event string, payload any) {
	if err := d.emitter.Emit(ctx, room, event, payload); err != nil {
		metrics.RecordDispatch("live", "error")
		d.log.Warn("live emit failed", zap.String("room", room), zap.String("event", event), zap.Error(err))
		return
	}
	metrics.RecordDispatch("live", "ok")
}

// Wait blocks until all background deliveries have finished.
func (d *Dispatcher) Wait() { d.wg.Wait() }

func notificationFor(kind string, b *model.Booking) model.NotificationInput {
	meta := map[string]any{
		"bookingId": b.ID,
		"turfId":    b.TurfID,
		"status":    string(b.Status),
	}
	switch kind {
	case queue.KindSlotReserved:
		return model.NotificationInput{
			Title:   "Slot on hold",
			Message: fmt.Sprintf("Booking #%d is reserved for you. Complete payment to keep it.", b.ID),
			Type:    "booking",
			Meta:    meta,
		}
	case queue.KindBookingPaid:
		return model.NotificationInput{
			Title:   "Payment received",
			Message: fmt.Sprintf("Booking #%d is paid and confirmed.", b.ID),
			Type:    "payment",
			Meta:    meta,
		}
	}
	in := model.NotificationInput{
		Title:   "Booking " + string(b.Status),
		Message: fmt.Sprintf("Booking #%d is now %s.", b.ID, b.Status),
		Type:    "booking",
		Meta:    meta,
	}
	if b.CancelReason != nil {
		meta["reason"] = *b.CancelReason
	}
	return in
}
