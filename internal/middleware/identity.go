package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/turfbook/turf-booking/internal/model"
)

// PrincipalKey is the echo.Context key under which JWTAuth stores the
// authenticated model.Principal.
const PrincipalKey = "principal"

// PrincipalFrom returns the authenticated caller, if any.
func PrincipalFrom(c echo.Context) (model.Principal, bool) {
	p, ok := c.Get(PrincipalKey).(model.Principal)
	return p, ok && p.ID != 0
}

// userID returns the caller's id as a string for keying, or "anon".
func userID(c echo.Context) string {
	if p, ok := PrincipalFrom(c); ok {
		return strconv.FormatUint(p.ID, 10)
	}
	return "anon"
}
