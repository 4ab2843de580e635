package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/turfbook/turf-booking/internal/model"
	"github.com/turfbook/turf-booking/internal/service"
)

// BookingAPI is the part of *service.BookingService used by customers.
type BookingAPI interface {
	Reserve(ctx context.Context, p model.Principal, in service.ReserveInput) (*service.ReserveResult, error)
	Get(ctx context.Context, p model.Principal, id uint64) (*model.Booking, error)
	ListMine(ctx context.Context, p model.Principal) ([]model.Booking, error)
}

// BookingHandler serves the customer booking endpoints.  JWT
// authentication has already run.
type BookingHandler struct {
	Bookings BookingAPI
	Log      *zap.Logger
}

func NewBookingHandler(bookings BookingAPI, log *zap.Logger) *BookingHandler {
	return &BookingHandler{Bookings: bookings, Log: log}
}

// slotInput accepts either {"date","startTime","endTime"} or the short
// form "18:00-19:00".
type slotInput struct {
	model.Slot
}

func (s *slotInput) UnmarshalJSON(b []byte) error {
	var short string
	if err := json.Unmarshal(b, &short); err == nil {
		start, end, ok := strings.Cut(short, "-")
		if !ok {
			return fmt.Errorf("slot %q: want HH:MM-HH:MM", short)
		}
		s.StartTime, s.EndTime = strings.TrimSpace(start), strings.TrimSpace(end)
		return nil
	}
	return json.Unmarshal(b, &s.Slot)
}

type reserveRequest struct {
	TurfID uint64      `json:"turfId" validate:"required"`
	Date   string      `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Slot   *slotInput  `json:"slot"`
	Slots  []slotInput `json:"slots" validate:"max=24"`
}

// Reserve handles POST /v1/bookings/reserve.  The price is always derived
// from the turf.  It returns 201 with the pending booking and the moment
// its hold lapses, or 409 naming the booking that already holds one of
// the slots.
func (h *BookingHandler) Reserve(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	var req reserveRequest
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	slots := make([]model.Slot, 0, len(req.Slots)+1)
	if req.Slot != nil {
		slots = append(slots, req.Slot.Slot)
	}
	for _, s := range req.Slots {
		slots = append(slots, s.Slot)
	}
	if len(slots) == 0 {
		return badRequest(c, "slot or slots is required")
	}

	res, err := h.Bookings.Reserve(c.Request().Context(), p, service.ReserveInput{
		TurfID: req.TurfID,
		Date:   req.Date,
		Slots:  slots,
	})
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// Mine handles GET /v1/bookings/mine.
func (h *BookingHandler) Mine(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	items, err := h.Bookings.ListMine(c.Request().Context(), p)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if items == nil {
		items = []model.Booking{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/bookings/:id.
func (h *BookingHandler) Get(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	b, err := h.Bookings.Get(c.Request().Context(), p, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": b})
}
