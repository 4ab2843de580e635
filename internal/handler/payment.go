package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/turfbook/turf-booking/internal/model"
	"github.com/turfbook/turf-booking/internal/service"
)

// PaymentAPI is implemented by *service.PaymentService.
type PaymentAPI interface {
	CreateOrder(ctx context.Context, p model.Principal, bookingID uint64) (*service.OrderResult, error)
	Verify(ctx context.Context, p model.Principal, in service.VerifyInput) (*model.Booking, error)
}

type PaymentHandler struct {
	Payments PaymentAPI
	Log      *zap.Logger
}

func NewPaymentHandler(payments PaymentAPI, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{Payments: payments, Log: log}
}

type orderRequest struct {
	BookingID uint64 `json:"bookingId" validate:"required"`
}

// CreateOrder handles POST /v1/payments/order.
func (h *PaymentHandler) CreateOrder(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	var req orderRequest
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	res, err := h.Payments.CreateOrder(c.Request().Context(), p, req.BookingID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, res)
}

type verifyRequest struct {
	OrderID   string `json:"orderId" validate:"required"`
	PaymentID string `json:"paymentId" validate:"required"`
	Signature string `json:"signature" validate:"required,hexadecimal"`
	BookingID uint64 `json:"bookingId" validate:"required"`
}

// Verify handles POST /v1/payments/verify.  Any mismatch is a 400 and
// leaves the booking pending.
func (h *PaymentHandler) Verify(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	var req verifyRequest
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	b, err := h.Payments.Verify(c.Request().Context(), p, service.VerifyInput{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
		BookingID: req.BookingID,
	})
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": b})
}
