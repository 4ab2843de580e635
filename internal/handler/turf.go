package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/turfbook/turf-booking/internal/model"
)

// TurfAPI is the public part of *service.TurfService.
type TurfAPI interface {
	List(ctx context.Context, limit, offset int) ([]model.Turf, error)
	Get(ctx context.Context, id uint64) (*model.Turf, error)
}

// AvailabilityAPI is implemented by *service.BookingService.
type AvailabilityAPI interface {
	Availability(ctx context.Context, turfID uint64, date string) ([]model.Occupation, error)
}

// TurfHandler serves the unauthenticated catalogue.
type TurfHandler struct {
	Turfs        TurfAPI
	Availability AvailabilityAPI
	Log          *zap.Logger
}

func NewTurfHandler(turfs TurfAPI, availability AvailabilityAPI, log *zap.Logger) *TurfHandler {
	return &TurfHandler{Turfs: turfs, Availability: availability, Log: log}
}

// List handles GET /v1/turfs?limit=&offset=.
func (h *TurfHandler) List(c echo.Context) error {
	limit, offset := pageParams(c, 20, 100)
	items, err := h.Turfs.List(c.Request().Context(), limit, offset)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if items == nil {
		items = []model.Turf{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "limit": limit, "offset": offset})
}

// Get handles GET /v1/turfs/:id.
func (h *TurfHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid turf id")
	}
	t, err := h.Turfs.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, t)
}

// GetAvailability handles GET /v1/turfs/:id/availability?date=.  Only
// confirmed and paid slots are listed.
func (h *TurfHandler) GetAvailability(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid turf id")
	}
	items, err := h.Availability.Availability(c.Request().Context(), id, c.QueryParam("date"))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if items == nil {
		items = []model.Occupation{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// pageParams reads limit and offset, clamping limit to [1, max].
func pageParams(c echo.Context, def, max int) (int, int) {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
