package router

import (
	"github.com/labstack/echo/v4"

	"github.com/turfbook/turf-booking/internal/handler"
	"github.com/turfbook/turf-booking/internal/middleware"
	"github.com/turfbook/turf-booking/internal/model"
)

// RegisterAdmin registers /v1/admin.  Venue admins reach the booking
// operations (restricted to their own turfs by the services); the sweep,
// turf moderation and audit log are super admin only.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleVenueAdmin, model.RoleSuperAdmin),
	)
	g.POST("/bookings/:id/release", h.Release)
	g.POST("/bookings/:id/confirm", h.Confirm)
	g.POST("/bookings/:id/cancel", h.Cancel)
	g.GET("/turfs/:id/bookings", h.TurfBookings)

	super := middleware.RequireRole(model.RoleSuperAdmin)
	g.POST("/bookings/cleanup", h.Cleanup, super)
	g.POST("/turfs/:id/approve", h.ApproveTurf, super)
	g.POST("/turfs/:id/block", h.BlockTurf, super)
	g.GET("/audit", h.AuditLog, super)
}
