package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/turfbook/turf-booking/internal/middleware"
	"github.com/turfbook/turf-booking/internal/model"
	"github.com/turfbook/turf-booking/internal/repository"
	"github.com/turfbook/turf-booking/internal/service"
)

var errUnauthorized = errors.New("unauthorized")

// principal returns the authenticated caller set by middleware.JWTAuth.
func principal(c echo.Context) (model.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return model.Principal{}, errUnauthorized
	}
	return p, nil
}

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id != 0
}

// bind decodes the request body and runs the registered validator.  The
// returned error is safe to show to the client.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return errors.New("invalid request body")
	}
	if err := c.Validate(dst); err != nil {
		return errors.New(validationMessage(err))
	}
	return nil
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// respondError maps service and repository errors onto HTTP responses.
// Anything unrecognized is logged and reported as a 500.
func respondError(c echo.Context, log *zap.Logger, err error) error {
	var conflict *repository.SlotConflictError
	switch {
	case errors.As(err, &conflict):
		body := echo.Map{
			"error":     "slot_conflict",
			"message":   conflict.Error(),
			"bookingId": conflict.BookingID,
		}
		if conflict.Reserver != "" {
			body["reserver"] = conflict.Reserver
		}
		return c.JSON(http.StatusConflict, body)
	case errors.Is(err, errUnauthorized):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": "invalid_transition", "message": err.Error()})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflict", "message": err.Error()})
	case errors.Is(err, service.ErrTurfUnavailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "turf_unavailable", "message": err.Error()})
	case errors.Is(err, service.ErrVerificationFailed):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "verification_failed", "message": err.Error()})
	case errors.Is(err, model.ErrInvalidSlot):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_slot", "message": err.Error()})
	}
	log.Error("request failed",
		zap.String("method", c.Request().Method), zap.String("path", c.Path()), zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fe.Field() + " failed " + fe.Tag() + " validation"
	}
	return err.Error()
}
