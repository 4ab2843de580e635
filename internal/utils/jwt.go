// Package utils holds small helpers shared by commands and tests.
package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/turfbook/turf-booking/internal/model"
)

// AccessToken is a signed HS256 JWT and its expiry.
type AccessToken struct {
	Token string
	Exp   time.Time
}

// NewAccessToken signs a token in the shape the authentication service
// issues: "sub" is the numeric user id and "role" the role name.  The API
// only verifies such tokens; this is used for local development and
// tests.
func NewAccessToken(secret string, userID uint64, role model.Role, ttl time.Duration) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": string(role),
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}
