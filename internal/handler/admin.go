package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/turfbook/turf-booking/internal/model"
)

// BookingAdminAPI is the administrative part of *service.BookingService.
type BookingAdminAPI interface {
	Release(ctx context.Context, p model.Principal, id uint64, reason string) (*model.Booking, error)
	Confirm(ctx context.Context, p model.Principal, id uint64) (*model.Booking, error)
	AdminCancel(ctx context.Context, p model.Principal, id uint64, reason string) (*model.Booking, error)
	ListForTurf(ctx context.Context, p model.Principal, turfID uint64, date string) ([]model.Booking, error)
}

// TurfAdminAPI is implemented by *service.TurfService.
type TurfAdminAPI interface {
	Approve(ctx context.Context, p model.Principal, id uint64) (*model.Turf, error)
	Block(ctx context.Context, p model.Principal, id uint64) (*model.Turf, error)
}

// Sweeper runs one expiry pass; *service.Sweeper.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// AuditLister is implemented by *repository.AuditRepo.
type AuditLister interface {
	ListRecent(ctx context.Context, limit int) ([]model.AuditEntry, error)
}

// AdminHandler serves /v1/admin.  Routes are guarded by
// middleware.RequireRole; ownership of the turf is checked by the
// services.
type AdminHandler struct {
	Bookings BookingAdminAPI
	Turfs    TurfAdminAPI
	Sweeper  Sweeper
	Audit    AuditLister
	Log      *zap.Logger
}

func NewAdminHandler(bookings BookingAdminAPI, turfs TurfAdminAPI, sweeper Sweeper, audit AuditLister, log *zap.Logger) *AdminHandler {
	return &AdminHandler{Bookings: bookings, Turfs: turfs, Sweeper: sweeper, Audit: audit, Log: log}
}

type reasonRequest struct {
	Reason string `json:"reason" validate:"max=255"`
}

// Release handles POST /v1/admin/bookings/:id/release.
func (h *AdminHandler) Release(c echo.Context) error {
	return h.withReason(c, h.Bookings.Release)
}

// Cancel handles POST /v1/admin/bookings/:id/cancel.
func (h *AdminHandler) Cancel(c echo.Context) error {
	return h.withReason(c, h.Bookings.AdminCancel)
}

// Confirm handles POST /v1/admin/bookings/:id/confirm.
func (h *AdminHandler) Confirm(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	b, err := h.Bookings.Confirm(c.Request().Context(), p, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": b})
}

func (h *AdminHandler) withReason(c echo.Context, op func(context.Context, model.Principal, uint64, string) (*model.Booking, error)) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	var req reasonRequest
	if c.Request().ContentLength != 0 {
		if err := bind(c, &req); err != nil {
			return badRequest(c, err.Error())
		}
	}
	b, err := op(c.Request().Context(), p, id, req.Reason)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": b})
}

// TurfBookings handles GET /v1/admin/turfs/:id/bookings?date=.
func (h *AdminHandler) TurfBookings(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid turf id")
	}
	items, err := h.Bookings.ListForTurf(c.Request().Context(), p, id, c.QueryParam("date"))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if items == nil {
		items = []model.Booking{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Cleanup handles POST /v1/admin/bookings/cleanup by running one sweep
// immediately.
func (h *AdminHandler) Cleanup(c echo.Context) error {
	n, err := h.Sweeper.Sweep(c.Request().Context())
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"deletedOrCancelledCount": n})
}

// ApproveTurf handles POST /v1/admin/turfs/:id/approve.
func (h *AdminHandler) ApproveTurf(c echo.Context) error {
	return h.turfStatus(c, h.Turfs.Approve)
}

// BlockTurf handles POST /v1/admin/turfs/:id/block.
func (h *AdminHandler) BlockTurf(c echo.Context) error {
	return h.turfStatus(c, h.Turfs.Block)
}

func (h *AdminHandler) turfStatus(c echo.Context, op func(context.Context, model.Principal, uint64) (*model.Turf, error)) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid turf id")
	}
	t, err := op(c.Request().Context(), p, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, t)
}

// AuditLog handles GET /v1/admin/audit?limit=.
func (h *AdminHandler) AuditLog(c echo.Context) error {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 || limit > 500 {
		limit = 100
	}
	items, err := h.Audit.ListRecent(c.Request().Context(), limit)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if items == nil {
		items = []model.AuditEntry{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
