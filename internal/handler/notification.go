package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/turfbook/turf-booking/internal/model"
)

// NotificationStore is implemented by *repository.NotificationRepo.
// MarkRead and Delete report repository.ErrNotFound for rows the user
// does not own.
type NotificationStore interface {
	ListByUser(ctx context.Context, userID uint64, limit int) ([]model.Notification, error)
	MarkRead(ctx context.Context, userID, id uint64) error
	Delete(ctx context.Context, userID, id uint64) error
}

type NotificationHandler struct {
	Store NotificationStore
	Log   *zap.Logger
}

func NewNotificationHandler(store NotificationStore, log *zap.Logger) *NotificationHandler {
	return &NotificationHandler{Store: store, Log: log}
}

// List handles GET /v1/notifications?limit=.
func (h *NotificationHandler) List(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	limit, _ := pageParams(c, 50, 200)
	items, err := h.Store.ListByUser(c.Request().Context(), p.ID, limit)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if items == nil {
		items = []model.Notification{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// MarkRead handles POST /v1/notifications/:id/read.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	return h.owned(c, h.Store.MarkRead)
}

// Delete handles DELETE /v1/notifications/:id.
func (h *NotificationHandler) Delete(c echo.Context) error {
	return h.owned(c, h.Store.Delete)
}

func (h *NotificationHandler) owned(c echo.Context, op func(context.Context, uint64, uint64) error) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid notification id")
	}
	if err := op(c.Request().Context(), p.ID, id); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
