package service

import (
	"context"
	"time"

	"github.com/turfbook/turf-booking/internal/model"
	"github.com/turfbook/turf-booking/internal/queue"
	"github.com/turfbook/turf-booking/internal/repository"
)

// BookingStore is the Reservation Store as seen by the services.  It is
// implemented by *repository.BookingRepo.
type BookingStore interface {
	TryReserve(ctx context.Context, p repository.ReserveParams) (*model.Booking, error)
	TransitionStatus(ctx context.Context, id uint64, from []model.Status, to model.Status, reason string) (*model.Booking, error)
	MarkPaid(ctx context.Context, id uint64, pay model.Payment) (*model.Booking, bool, error)
	GetByID(ctx context.Context, id uint64) (*model.Booking, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error)
	ListByTurf(ctx context.Context, turfID uint64, date string) ([]model.Booking, error)
	FindOccupied(ctx context.Context, turfID uint64, date string) ([]model.Occupation, error)
	ListStalePending(ctx context.Context, before time.Time, limit int) ([]uint64, error)
}

// TurfStore is implemented by *repository.TurfRepo.
type TurfStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Turf, error)
	ListApproved(ctx context.Context, limit, offset int) ([]model.Turf, error)
	SetStatus(ctx context.Context, id uint64, status model.TurfStatus) error
}

// UserDirectory resolves display identities; *repository.UserRepo.
type UserDirectory interface {
	DisplayName(ctx context.Context, id uint64) (string, error)
}

// AuditWriter is implemented by *repository.AuditRepo.
type AuditWriter interface {
	Append(ctx context.Context, actorID *uint64, action model.AuditAction, entity string, entityID uint64, meta map[string]any) error
}

// OrderStore is implemented by *repository.PaymentOrderRepo.
type OrderStore interface {
	Create(ctx context.Context, o *model.PaymentOrder) error
	Get(ctx context.Context, id string) (*model.PaymentOrder, error)
}

// Notifier persists a per-user notification; *repository.NotificationRepo.
type Notifier interface {
	Notify(ctx context.Context, userID uint64, in model.NotificationInput) error
}

// Emitter pushes an event to a live room.
type Emitter interface {
	Emit(ctx context.Context, room, event string, payload any) error
}

// EventPublisher hands booking events to the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.BookingEvent) error
}

// EventSink receives committed booking state changes.
type EventSink interface {
	Dispatch(ctx context.Context, ev Event)
}
