// Package router registers the HTTP routes of the API on an Echo
// instance, grouped by audience.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/turfbook/turf-booking/internal/handler"
)

// RegisterRoutes registers the unauthenticated operational endpoints.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterPublic registers the turf catalogue.  The list and detail views
// go through the response cache; availability is always read live.
func RegisterPublic(e *echo.Echo, t *handler.TurfHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1/turfs")
	g.GET("", t.List, cache)
	g.GET("/:id", t.Get, cache)
	g.GET("/:id/availability", t.GetAvailability)
}
