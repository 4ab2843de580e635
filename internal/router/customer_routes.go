package router

import (
	"github.com/labstack/echo/v4"

	"github.com/turfbook/turf-booking/internal/handler"
	"github.com/turfbook/turf-booking/internal/middleware"
	"github.com/turfbook/turf-booking/internal/model"
)

// CustomerHandlers groups the handlers behind an authenticated session.
type CustomerHandlers struct {
	Bookings      *handler.BookingHandler
	Payments      *handler.PaymentHandler
	Notifications *handler.NotificationHandler
	Realtime      *handler.RealtimeHandler
}

// RegisterCustomer registers endpoints available to every signed-in role.
// Reservation and payment calls also pass the rate limiter.
func RegisterCustomer(e *echo.Echo, h CustomerHandlers, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleUser, model.RoleVenueAdmin, model.RoleSuperAdmin),
	)

	g.POST("/bookings/reserve", h.Bookings.Reserve, limit)
	g.GET("/bookings/mine", h.Bookings.Mine)
	g.GET("/bookings/:id", h.Bookings.Get)

	g.POST("/payments/order", h.Payments.CreateOrder, limit)
	g.POST("/payments/verify", h.Payments.Verify, limit)

	g.GET("/notifications", h.Notifications.List)
	g.POST("/notifications/:id/read", h.Notifications.MarkRead)
	g.DELETE("/notifications/:id", h.Notifications.Delete)

	g.GET("/ws", h.Realtime.Connect)
}
