package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/turfbook/turf-booking/internal/metrics"
	"github.com/turfbook/turf-booking/internal/model"
	"github.com/turfbook/turf-booking/internal/queue"
	"github.com/turfbook/turf-booking/internal/repository"
)

// BookingService is the booking lifecycle engine.  Every status change
// goes through the store's compare-and-swap transition; this type only
// decides which transition is allowed for which principal.
type BookingService struct {
	store   BookingStore
	turfs   TurfStore
	users   UserDirectory
	audit   AuditWriter
	events  EventSink
	holdTTL time.Duration
	log     *zap.Logger
}

func NewBookingService(store BookingStore, turfs TurfStore, users UserDirectory, audit AuditWriter, events EventSink, holdTTL time.Duration, log *zap.Logger) *BookingService {
	return &BookingService{
		store:   store,
		turfs:   turfs,
		users:   users,
		audit:   audit,
		events:  events,
		holdTTL: holdTTL,
		log:     log.Named("booking"),
	}
}

// ReserveInput is a reservation request.  Slots with an empty Date take
// Date.  PriceCents overrides the turf's hourly price × slot count when
// non-zero.
type ReserveInput struct {
	TurfID     uint64
	Date       string
	Slots      []model.Slot
	PriceCents uint32
}

// ReserveResult is a created hold and the moment it expires.
type ReserveResult struct {
	Booking       *model.Booking `json:"booking"`
	HoldExpiresAt time.Time      `json:"holdExpiresAt"`
}

// Reserve creates a pending hold on every requested slot or none.  On a
// conflict the returned *repository.SlotConflictError names the holding
// booking; the holder's display name is only filled in for that same
// user or an admin.
func (s *BookingService) Reserve(ctx context.Context, p model.Principal, in ReserveInput) (*ReserveResult, error) {
	slots, err := model.NormalizeSlots(in.Date, in.Slots)
	if err != nil {
		return nil, err
	}
	turf, err := s.turfs.GetByID(ctx, in.TurfID)
	if err != nil {
		return nil, err
	}
	if turf.Status != model.TurfApproved {
		return nil, ErrTurfUnavailable
	}
	price := in.PriceCents
	if price == 0 {
		price = turf.HourlyPriceCents * uint32(len(slots))
	}

	b, err := s.store.TryReserve(ctx, repository.ReserveParams{
		TurfID:     turf.ID,
		UserID:     p.ID,
		Slots:      slots,
		PriceCents: price,
	})
	if err != nil {
		var conflict *repository.SlotConflictError
		if errors.As(err, &conflict) {
			metrics.RecordReservation("conflict")
			if conflict.UserID == p.ID || p.Role.IsAdmin() {
				if name, nerr := s.users.DisplayName(ctx, conflict.UserID); nerr == nil {
					conflict.Reserver = name
				} else {
					s.log.Warn("resolve reserver name", zap.Uint64("user_id", conflict.UserID), zap.Error(nerr))
				}
			}
			return nil, conflict
		}
		metrics.RecordReservation("error")
		return nil, err
	}

	metrics.RecordReservation("created")
	s.log.Info("hold created",
		zap.Uint64("booking_id", b.ID), zap.Uint64("turf_id", b.TurfID),
		zap.Uint64("user_id", b.UserID), zap.Int("slots", len(b.Slots)))
	actor := p.ID
	s.events.Dispatch(ctx, Event{Kind: queue.KindSlotReserved, Booking: b, ActorID: &actor})

	return &ReserveResult{Booking: b, HoldExpiresAt: b.CreatedAt.Add(s.holdTTL)}, nil
}

// Release cancels a pending hold on behalf of a turf admin.
func (s *BookingService) Release(ctx context.Context, p model.Principal, id uint64, reason string) (*model.Booking, error) {
	if reason == "" {
		reason = "released"
	}
	return s.adminTransition(ctx, p, id, []model.Status{model.StatusPending}, model.StatusCancelled, reason, model.AuditRelease)
}

// Confirm manually confirms a pending hold, e.g. for a cash payment at
// the venue.
func (s *BookingService) Confirm(ctx context.Context, p model.Principal, id uint64) (*model.Booking, error) {
	return s.adminTransition(ctx, p, id, []model.Status{model.StatusPending}, model.StatusConfirmed, "", model.AuditConfirm)
}

// AdminCancel cancels a confirmed or paid booking.
func (s *BookingService) AdminCancel(ctx context.Context, p model.Principal, id uint64, reason string) (*model.Booking, error) {
	if reason == "" {
		reason = "cancelled by admin"
	}
	return s.adminTransition(ctx, p, id, []model.Status{model.StatusConfirmed, model.StatusPaid}, model.StatusCancelled, reason, model.AuditCancel)
}

func (s *BookingService) adminTransition(ctx context.Context, p model.Principal, id uint64, from []model.Status, to model.Status, reason string, action model.AuditAction) (*model.Booking, error) {
	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeTurfAdmin(ctx, p, current.TurfID); err != nil {
		return nil, err
	}

	b, err := s.store.TransitionStatus(ctx, id, from, to, reason)
	if err != nil {
		return nil, err
	}
	metrics.RecordTransition(string(to), string(action))

	actor := p.ID
	meta := map[string]any{"from": string(current.Status), "to": string(to)}
	if reason != "" {
		meta["reason"] = reason
	}
	if err := s.audit.Append(ctx, &actor, action, "booking", id, meta); err != nil {
		s.log.Error("append audit log", zap.Uint64("booking_id", id), zap.String("action", string(action)), zap.Error(err))
	}
	s.log.Info("booking transitioned",
		zap.Uint64("booking_id", id), zap.String("to", string(to)), zap.Uint64("actor_id", p.ID))
	s.events.Dispatch(ctx, Event{Kind: queue.KindBookingUpdated, Booking: b, ActorID: &actor})
	return b, nil
}

// Get returns a booking visible to p: its owner, the turf's venue admin
// or a super admin.
func (s *BookingService) Get(ctx context.Context, p model.Principal, id uint64) (*model.Booking, error) {
	b, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.UserID == p.ID {
		return b, nil
	}
	if err := s.authorizeTurfAdmin(ctx, p, b.TurfID); err != nil {
		return nil, err
	}
	return b, nil
}

// ListMine returns the caller's bookings, newest first.
func (s *BookingService) ListMine(ctx context.Context, p model.Principal) ([]model.Booking, error) {
	return s.store.ListByUser(ctx, p.ID)
}

// ListForTurf returns a turf's bookings for its admin.
func (s *BookingService) ListForTurf(ctx context.Context, p model.Principal, turfID uint64, date string) ([]model.Booking, error) {
	if date != "" {
		if _, err := time.Parse(model.DateLayout, date); err != nil {
			return nil, fmt.Errorf("%w: date %q", model.ErrInvalidSlot, date)
		}
	}
	if err := s.authorizeTurfAdmin(ctx, p, turfID); err != nil {
		return nil, err
	}
	return s.store.ListByTurf(ctx, turfID, date)
}

// Availability returns the confirmed or paid occupations of a turf.
// Pending holds are not shown even though they block reservations.
func (s *BookingService) Availability(ctx context.Context, turfID uint64, date string) ([]model.Occupation, error) {
	if date != "" {
		d, err := time.Parse(model.DateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("%w: date %q", model.ErrInvalidSlot, date)
		}
		date = d.Format(model.DateLayout)
	}
	if _, err := s.turfs.GetByID(ctx, turfID); err != nil {
		return nil, err
	}
	return s.store.FindOccupied(ctx, turfID, date)
}

// authorizeTurfAdmin allows super admins everywhere and venue admins on
// the turfs they own.
func (s *BookingService) authorizeTurfAdmin(ctx context.Context, p model.Principal, turfID uint64) error {
	switch p.Role {
	case model.RoleSuperAdmin:
		return nil
	case model.RoleVenueAdmin:
		turf, err := s.turfs.GetByID(ctx, turfID)
		if err != nil {
			return err
		}
		if turf.OwnerID == p.ID {
			return nil
		}
	}
	return repository.ErrForbidden
}
