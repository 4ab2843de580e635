package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/turfbook/turf-booking/internal/model"
	"github.com/turfbook/turf-booking/internal/repository"
)

// memStore is an in-memory BookingStore.  Its single mutex plays the
// role of the database's unique slot-key index.
type memStore struct {
	mu       sync.Mutex
	nextID   uint64
	bookings map[uint64]*model.Booking
	active   map[string]uint64
	payments map[uint64]model.Payment
	now      func() time.Time
}

func newMemStore() *memStore {
	return &memStore{
		bookings: map[uint64]*model.Booking{},
		active:   map[string]uint64{},
		payments: map[uint64]model.Payment{},
		now:      time.Now,
	}
}

func (m *memStore) TryReserve(_ context.Context, p repository.ReserveParams) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range p.Slots {
		if id, ok := m.active[model.KeyFor(p.TurfID, s).String()]; ok {
			return nil, &repository.SlotConflictError{BookingID: id, UserID: m.bookings[id].UserID, Slot: s}
		}
	}
	m.nextID++
	b := &model.Booking{
		ID:              m.nextID,
		UserID:          p.UserID,
		TurfID:          p.TurfID,
		Slots:           append([]model.Slot(nil), p.Slots...),
		TotalPriceCents: p.PriceCents,
		Status:          model.StatusPending,
		CreatedAt:       m.now().UTC(),
		UpdatedAt:       m.now().UTC(),
	}
	m.bookings[b.ID] = b
	for _, s := range p.Slots {
		m.active[model.KeyFor(p.TurfID, s).String()] = b.ID
	}
	return m.copyOf(b), nil
}

func (m *memStore) TransitionStatus(_ context.Context, id uint64, from []model.Status, to model.Status, reason string) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	allowed := false
	for _, s := range from {
		if b.Status == s {
			allowed = true
		}
	}
	if !allowed {
		return nil, repository.ErrInvalidTransition
	}
	b.Status = to
	if to == model.StatusCancelled {
		if reason != "" {
			r := reason
			b.CancelReason = &r
		}
		for _, k := range b.Keys() {
			delete(m.active, k.String())
		}
	}
	return m.copyOf(b), nil
}

func (m *memStore) MarkPaid(_ context.Context, id uint64, pay model.Payment) (*model.Booking, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, false, repository.ErrNotFound
	}
	switch b.Status {
	case model.StatusPaid:
		return m.copyOf(b), false, nil
	case model.StatusPending:
	default:
		return nil, false, repository.ErrInvalidTransition
	}
	b.Status = model.StatusPaid
	m.payments[id] = pay
	return m.copyOf(b), true, nil
}

func (m *memStore) GetByID(_ context.Context, id uint64) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return m.copyOf(b), nil
}

func (m *memStore) ListByUser(_ context.Context, userID uint64) ([]model.Booking, error) {
	return m.filter(func(b *model.Booking) bool { return b.UserID == userID }), nil
}

func (m *memStore) ListByTurf(_ context.Context, turfID uint64, date string) ([]model.Booking, error) {
	return m.filter(func(b *model.Booking) bool {
		if b.TurfID != turfID {
			return false
		}
		if date == "" {
			return true
		}
		for _, s := range b.Slots {
			if s.Date == date {
				return true
			}
		}
		return false
	}), nil
}

func (m *memStore) FindOccupied(_ context.Context, turfID uint64, date string) ([]model.Occupation, error) {
	out := []model.Occupation{}
	for _, b := range m.filter(func(b *model.Booking) bool { return b.TurfID == turfID }) {
		if b.Status != model.StatusConfirmed && b.Status != model.StatusPaid {
			continue
		}
		for _, s := range b.Slots {
			if date == "" || s.Date == date {
				out = append(out, model.Occupation{BookingID: b.ID, Slot: s, Status: b.Status})
			}
		}
	}
	return out, nil
}

func (m *memStore) ListStalePending(_ context.Context, before time.Time, limit int) ([]uint64, error) {
	var ids []uint64
	for _, b := range m.filter(func(b *model.Booking) bool {
		return b.Status == model.StatusPending && b.CreatedAt.Before(before)
	}) {
		if len(ids) == limit {
			break
		}
		ids = append(ids, b.ID)
	}
	return ids, nil
}

func (m *memStore) filter(keep func(*model.Booking) bool) []model.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Booking{}
	for _, b := range m.bookings {
		if keep(b) {
			out = append(out, *m.copyOf(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memStore) copyOf(b *model.Booking) *model.Booking {
	c := *b
	c.Slots = append([]model.Slot(nil), b.Slots...)
	if p, ok := m.payments[b.ID]; ok {
		pp := p
		c.Payment = &pp
	}
	return &c
}

// backdate moves a booking's creation time into the past.
func (m *memStore) backdate(id uint64, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[id].CreatedAt = m.bookings[id].CreatedAt.Add(-d)
}

func (m *memStore) paymentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payments)
}

type memTurfs struct {
	mu    sync.Mutex
	turfs map[uint64]*model.Turf
}

func newMemTurfs(ts ...model.Turf) *memTurfs {
	m := &memTurfs{turfs: map[uint64]*model.Turf{}}
	for i := range ts {
		t := ts[i]
		m.turfs[t.ID] = &t
	}
	return m
}

func (m *memTurfs) GetByID(_ context.Context, id uint64) (*model.Turf, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.turfs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *t
	return &c, nil
}

func (m *memTurfs) ListApproved(_ context.Context, _, _ int) ([]model.Turf, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Turf{}
	for _, t := range m.turfs {
		if t.Status == model.TurfApproved {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memTurfs) SetStatus(_ context.Context, id uint64, status model.TurfStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.turfs[id]
	if !ok {
		return repository.ErrNotFound
	}
	t.Status = status
	return nil
}

type staticUsers map[uint64]string

func (u staticUsers) DisplayName(_ context.Context, id uint64) (string, error) {
	if n, ok := u[id]; ok {
		return n, nil
	}
	return "", repository.ErrNotFound
}

type auditRecord struct {
	ActorID  *uint64
	Action   model.AuditAction
	Entity   string
	EntityID uint64
}

type memAudit struct {
	mu      sync.Mutex
	entries []auditRecord
}

func (a *memAudit) Append(_ context.Context, actorID *uint64, action model.AuditAction, entity string, entityID uint64, _ map[string]any) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, auditRecord{ActorID: actorID, Action: action, Entity: entity, EntityID: entityID})
	return nil
}

func (a *memAudit) actions() []model.AuditAction {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]model.AuditAction, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

type memOrders struct {
	mu     sync.Mutex
	orders map[string]model.PaymentOrder
}

func newMemOrders() *memOrders { return &memOrders{orders: map[string]model.PaymentOrder{}} }

func (o *memOrders) Create(_ context.Context, order *model.PaymentOrder) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.orders[order.ID]; ok {
		return repository.ErrConflict
	}
	o.orders[order.ID] = *order
	return nil
}

func (o *memOrders) Get(_ context.Context, id string) (*model.PaymentOrder, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	order, ok := o.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &order, nil
}

// recordingSink captures dispatched events.
type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingSink) Dispatch(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingSink) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}
