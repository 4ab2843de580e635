package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"

	"github.com/turfbook/turf-booking/internal/middleware"
	"github.com/turfbook/turf-booking/internal/model"
	"github.com/turfbook/turf-booking/internal/service"
)

type bookingMock struct{ mock.Mock }

func (m *bookingMock) Reserve(ctx context.Context, p model.Principal, in service.ReserveInput) (*service.ReserveResult, error) {
	args := m.Called(ctx, p, in)
	res, _ := args.Get(0).(*service.ReserveResult)
	return res, args.Error(1)
}

func (m *bookingMock) Get(ctx context.Context, p model.Principal, id uint64) (*model.Booking, error) {
	args := m.Called(ctx, p, id)
	b, _ := args.Get(0).(*model.Booking)
	return b, args.Error(1)
}

func (m *bookingMock) ListMine(ctx context.Context, p model.Principal) ([]model.Booking, error) {
	args := m.Called(ctx, p)
	items, _ := args.Get(0).([]model.Booking)
	return items, args.Error(1)
}

func (m *bookingMock) Release(ctx context.Context, p model.Principal, id uint64, reason string) (*model.Booking, error) {
	args := m.Called(ctx, p, id, reason)
	b, _ := args.Get(0).(*model.Booking)
	return b, args.Error(1)
}

func (m *bookingMock) Confirm(ctx context.Context, p model.Principal, id uint64) (*model.Booking, error) {
	args := m.Called(ctx, p, id)
	b, _ := args.Get(0).(*model.Booking)
	return b, args.Error(1)
}

func (m *bookingMock) AdminCancel(ctx context.Context, p model.Principal, id uint64, reason string) (*model.Booking, error) {
	args := m.Called(ctx, p, id, reason)
	b, _ := args.Get(0).(*model.Booking)
	return b, args.Error(1)
}

func (m *bookingMock) ListForTurf(ctx context.Context, p model.Principal, turfID uint64, date string) ([]model.Booking, error) {
	args := m.Called(ctx, p, turfID, date)
	items, _ := args.Get(0).([]model.Booking)
	return items, args.Error(1)
}

func (m *bookingMock) Availability(ctx context.Context, turfID uint64, date string) ([]model.Occupation, error) {
	args := m.Called(ctx, turfID, date)
	items, _ := args.Get(0).([]model.Occupation)
	return items, args.Error(1)
}

type paymentMock struct{ mock.Mock }

func (m *paymentMock) CreateOrder(ctx context.Context, p model.Principal, bookingID uint64) (*service.OrderResult, error) {
	args := m.Called(ctx, p, bookingID)
	res, _ := args.Get(0).(*service.OrderResult)
	return res, args.Error(1)
}

func (m *paymentMock) Verify(ctx context.Context, p model.Principal, in service.VerifyInput) (*model.Booking, error) {
	args := m.Called(ctx, p, in)
	b, _ := args.Get(0).(*model.Booking)
	return b, args.Error(1)
}

type turfMock struct{ mock.Mock }

func (m *turfMock) List(ctx context.Context, limit, offset int) ([]model.Turf, error) {
	args := m.Called(ctx, limit, offset)
	items, _ := args.Get(0).([]model.Turf)
	return items, args.Error(1)
}

func (m *turfMock) Get(ctx context.Context, id uint64) (*model.Turf, error) {
	args := m.Called(ctx, id)
	t, _ := args.Get(0).(*model.Turf)
	return t, args.Error(1)
}

func (m *turfMock) Approve(ctx context.Context, p model.Principal, id uint64) (*model.Turf, error) {
	args := m.Called(ctx, p, id)
	t, _ := args.Get(0).(*model.Turf)
	return t, args.Error(1)
}

func (m *turfMock) Block(ctx context.Context, p model.Principal, id uint64) (*model.Turf, error) {
	args := m.Called(ctx, p, id)
	t, _ := args.Get(0).(*model.Turf)
	return t, args.Error(1)
}

type sweeperMock struct{ mock.Mock }

func (m *sweeperMock) Sweep(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type auditMock struct{ mock.Mock }

func (m *auditMock) ListRecent(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	args := m.Called(ctx, limit)
	items, _ := args.Get(0).([]model.AuditEntry)
	return items, args.Error(1)
}

type notificationMock struct{ mock.Mock }

func (m *notificationMock) ListByUser(ctx context.Context, userID uint64, limit int) ([]model.Notification, error) {
	args := m.Called(ctx, userID, limit)
	items, _ := args.Get(0).([]model.Notification)
	return items, args.Error(1)
}

func (m *notificationMock) MarkRead(ctx context.Context, userID, id uint64) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *notificationMock) Delete(ctx context.Context, userID, id uint64) error {
	return m.Called(ctx, userID, id).Error(0)
}

var (
	alice = model.Principal{ID: 1, Role: model.RoleUser}
	root  = model.Principal{ID: 99, Role: model.RoleSuperAdmin}
)

// as stands in for middleware.JWTAuth.
func as(p model.Principal) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(middleware.PrincipalKey, p)
			return next(c)
		}
	}
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func do(t *testing.T, e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}
