package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/turfbook/turf-booking/internal/metrics"
	"github.com/turfbook/turf-booking/internal/model"
	"github.com/turfbook/turf-booking/internal/queue"
	"github.com/turfbook/turf-booking/internal/repository"
)

// expiredReason is stored on bookings cancelled by the sweeper.
const expiredReason = "expired"

// Sweeper cancels pending holds older than the hold TTL.  It uses the
// same compare-and-swap transition as a manual release, so a hold paid
// while the sweep runs stays paid.
type Sweeper struct {
	store    BookingStore
	audit    AuditWriter
	events   EventSink
	ttl      time.Duration
	batch    int
	interval time.Duration
	log      *zap.Logger
	now      func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

func NewSweeper(store BookingStore, audit AuditWriter, events EventSink, ttl, interval time.Duration, batch int, log *zap.Logger) *Sweeper {
	if batch <= 0 {
		batch = 200
	}
	return &Sweeper{
		store:    store,
		audit:    audit,
		events:   events,
		ttl:      ttl,
		batch:    batch,
		interval: interval,
		log:      log.Named("sweeper"),
		now:      time.Now,
	}
}

// Sweep reclaims stale holds and returns how many it cancelled.  Holds
// that left pending between the scan and the update are skipped.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	cutoff := s.now().UTC().Add(-s.ttl)
	count := 0
	for {
		ids, err := s.store.ListStalePending(ctx, cutoff, s.batch)
		if err != nil {
			return count, fmt.Errorf("list stale holds: %w", err)
		}
		for _, id := range ids {
			b, err := s.store.TransitionStatus(ctx, id, []model.Status{model.StatusPending}, model.StatusCancelled, expiredReason)
			if errors.Is(err, repository.ErrInvalidTransition) || errors.Is(err, repository.ErrNotFound) {
				continue
			}
			if err != nil {
				return count, fmt.Errorf("expire booking %d: %w", id, err)
			}
			count++
			if err := s.audit.Append(ctx, nil, model.AuditExpire, "booking", id, map[string]any{"ttl": s.ttl.String()}); err != nil {
				s.log.Error("append audit log", zap.Uint64("booking_id", id), zap.Error(err))
			}
			s.events.Dispatch(ctx, Event{Kind: queue.KindBookingUpdated, Booking: b})
		}
		if len(ids) < s.batch {
			break
		}
	}
	if count > 0 {
		metrics.RecordExpired(count)
		metrics.RecordTransition(string(model.StatusCancelled), "expiry")
		s.log.Info("expired stale holds", zap.Int("count", count))
	}
	return count, nil
}

// Start schedules Sweep every interval.  Overlapping runs are skipped.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return errors.New("sweeper already started")
	}
	if s.interval <= 0 {
		return fmt.Errorf("invalid sweep interval %s", s.interval)
	}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc("@every "+s.interval.String(), func() {
		if _, err := s.Sweep(ctx); err != nil {
			s.log.Error("sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}
	c.Start()
	s.cron = c
	s.log.Info("sweeper started", zap.Duration("interval", s.interval), zap.Duration("ttl", s.ttl))
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
}
