package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/turfbook/turf-booking/internal/model"
	"github.com/turfbook/turf-booking/internal/repository"
)

// TurfService exposes the public turf catalogue and the super admin's
// approval controls.
type TurfService struct {
	turfs TurfStore
	audit AuditWriter
	log   *zap.Logger
}

func NewTurfService(turfs TurfStore, audit AuditWriter, log *zap.Logger) *TurfService {
	return &TurfService{turfs: turfs, audit: audit, log: log.Named("turf")}
}

// List returns approved turfs.
func (s *TurfService) List(ctx context.Context, limit, offset int) ([]model.Turf, error) {
	return s.turfs.ListApproved(ctx, limit, offset)
}

// Get returns an approved turf.  Pending and blocked turfs are reported
// as not found to the public.
func (s *TurfService) Get(ctx context.Context, id uint64) (*model.Turf, error) {
	t, err := s.turfs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status != model.TurfApproved {
		return nil, repository.ErrNotFound
	}
	return t, nil
}

// Approve opens a turf for booking.
func (s *TurfService) Approve(ctx context.Context, p model.Principal, id uint64) (*model.Turf, error) {
	return s.setStatus(ctx, p, id, model.TurfApproved, model.AuditTurfApprove)
}

// Block closes a turf.  Existing bookings are not touched.
func (s *TurfService) Block(ctx context.Context, p model.Principal, id uint64) (*model.Turf, error) {
	return s.setStatus(ctx, p, id, model.TurfBlocked, model.AuditTurfBlock)
}

func (s *TurfService) setStatus(ctx context.Context, p model.Principal, id uint64, status model.TurfStatus, action model.AuditAction) (*model.Turf, error) {
	if p.Role != model.RoleSuperAdmin {
		return nil, repository.ErrForbidden
	}
	before, err := s.turfs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.turfs.SetStatus(ctx, id, status); err != nil {
		return nil, err
	}
	actor := p.ID
	meta := map[string]any{"from": string(before.Status), "to": string(status)}
	if err := s.audit.Append(ctx, &actor, action, "turf", id, meta); err != nil {
		s.log.Error("append audit log", zap.Uint64("turf_id", id), zap.Error(err))
	}
	after := *before
	after.Status = status
	return &after, nil
}
