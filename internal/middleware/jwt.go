package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/turfbook/turf-booking/internal/model"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// issued by the authentication service and stores the caller as a
// model.Principal under PrincipalKey.  The "sub" claim may be a number or
// a numeric string; the "role" claim is normalized with model.ParseRole,
// and tokens with an unknown role are rejected.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			raw, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok {
				// Browsers cannot set headers on websocket upgrades.
				raw = c.QueryParam("access_token")
			}
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			id, ok := subjectID(claims["sub"])
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid subject"})
			}
			roleStr, _ := claims["role"].(string)
			role, ok := model.ParseRole(roleStr)
			if !ok {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "unknown role"})
			}
			c.Set(PrincipalKey, model.Principal{ID: id, Role: role})
			return next(c)
		}
	}
}

func subjectID(v any) (uint64, bool) {
	switch t := v.(type) {
	case float64:
		if t > 0 && t == float64(uint64(t)) {
			return uint64(t), true
		}
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil && n > 0 {
			return n, true
		}
	}
	return 0, false
}
