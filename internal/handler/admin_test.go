package handler

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/turfbook/turf-booking/internal/model"
	"github.com/turfbook/turf-booking/internal/repository"
)

type adminDeps struct {
	bookings *bookingMock
	turfs    *turfMock
	sweeper  *sweeperMock
	audit    *auditMock
}

func adminServer(p model.Principal) (*echo.Echo, adminDeps) {
	d := adminDeps{new(bookingMock), new(turfMock), new(sweeperMock), new(auditMock)}
	h := NewAdminHandler(d.bookings, d.turfs, d.sweeper, d.audit, zap.NewNop())
	e := newEcho()
	g := e.Group("/v1/admin", as(p))
	g.POST("/bookings/:id/release", h.Release)
	g.POST("/bookings/:id/confirm", h.Confirm)
	g.POST("/bookings/:id/cancel", h.Cancel)
	g.GET("/turfs/:id/bookings", h.TurfBookings)
	g.POST("/bookings/cleanup", h.Cleanup)
	g.POST("/turfs/:id/approve", h.ApproveTurf)
	g.POST("/turfs/:id/block", h.BlockTurf)
	g.GET("/audit", h.AuditLog)
	return e, d
}

func TestCleanup(t *testing.T) {
	e, d := adminServer(root)
	d.sweeper.On("Sweep", mock.Anything).Return(3, nil)

	rec := do(t, e, http.MethodPost, "/v1/admin/bookings/cleanup", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deletedOrCancelledCount":3}`, rec.Body.String())
}

func TestReleaseAndCancel(t *testing.T) {
	e, d := adminServer(root)
	reason := "no show"
	d.bookings.On("Release", mock.Anything, root, uint64(4), "no show").
		Return(&model.Booking{ID: 4, Status: model.StatusCancelled, CancelReason: &reason}, nil)
	d.bookings.On("Release", mock.Anything, root, uint64(5), "").Return(nil, repository.ErrInvalidTransition)
	d.bookings.On("AdminCancel", mock.Anything, root, uint64(6), "").Return(nil, repository.ErrNotFound)

	rec := do(t, e, http.MethodPost, "/v1/admin/bookings/4/release", `{"reason":"no show"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"cancelReason":"no show"`)

	rec = do(t, e, http.MethodPost, "/v1/admin/bookings/5/release", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_transition")

	assert.Equal(t, http.StatusNotFound, do(t, e, http.MethodPost, "/v1/admin/bookings/6/cancel", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, e, http.MethodPost, "/v1/admin/bookings/0/cancel", "").Code)
	d.bookings.AssertExpectations(t)
}

func TestConfirmForbiddenForOtherVenue(t *testing.T) {
	venue := model.Principal{ID: 5, Role: model.RoleVenueAdmin}
	e, d := adminServer(venue)
	d.bookings.On("Confirm", mock.Anything, venue, uint64(9)).Return(nil, repository.ErrForbidden)

	assert.Equal(t, http.StatusForbidden, do(t, e, http.MethodPost, "/v1/admin/bookings/9/confirm", "").Code)
}

func TestTurfBookingsAndModeration(t *testing.T) {
	e, d := adminServer(root)
	d.bookings.On("ListForTurf", mock.Anything, root, uint64(2), "2025-01-10").
		Return([]model.Booking{{ID: 1}, {ID: 2}}, nil)
	d.turfs.On("Approve", mock.Anything, root, uint64(2)).Return(&model.Turf{ID: 2, Status: model.TurfApproved}, nil)
	d.turfs.On("Block", mock.Anything, root, uint64(3)).Return(nil, repository.ErrNotFound)

	rec := do(t, e, http.MethodGet, "/v1/admin/turfs/2/bookings?date=2025-01-10", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"items":[`)

	rec = do(t, e, http.MethodPost, "/v1/admin/turfs/2/approve", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"approved"`)

	assert.Equal(t, http.StatusNotFound, do(t, e, http.MethodPost, "/v1/admin/turfs/3/block", "").Code)
}

func TestAuditLogClampsLimit(t *testing.T) {
	e, d := adminServer(root)
	d.audit.On("ListRecent", mock.Anything, 100).Return(nil, nil)

	rec := do(t, e, http.MethodGet, "/v1/admin/audit?limit=100000", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[]}`, rec.Body.String())
	d.audit.AssertExpectations(t)
}
