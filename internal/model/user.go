package model

import (
	"strings"
	"time"
)

// Role is the normalized role of an authenticated principal.
type Role string

const (
	RoleUser       Role = "user"
	RoleVenueAdmin Role = "venue_admin"
	RoleSuperAdmin Role = "super_admin"
)

// ParseRole maps the role strings found in issued tokens onto a Role.
// Matching ignores case, spaces, dashes and underscores, so "Turfadmin",
// "turf-admin" and "ADMIN" all become RoleVenueAdmin.
func ParseRole(v string) (Role, bool) {
	k := strings.ToLower(strings.TrimSpace(v))
	k = strings.NewReplacer("_", "", "-", "", " ", "").Replace(k)
	switch k {
	case "user", "customer":
		return RoleUser, true
	case "admin", "turfadmin", "venueadmin", "owner":
		return RoleVenueAdmin, true
	case "superadmin":
		return RoleSuperAdmin, true
	}
	return "", false
}

// IsAdmin reports whether the role is privileged.
func (r Role) IsAdmin() bool {
	return r == RoleVenueAdmin || r == RoleSuperAdmin
}

// Principal is the authenticated caller attached to a request.
type Principal struct {
	ID   uint64
	Role Role
}

// User is the display identity of an account.  Credentials are owned by
// the authentication service and never loaded here.
type User struct {
	ID        uint64    // users.id
	Name      string    // users.name
	Email     string    // users.email
	Role      string    // users.role
	IsActive  bool      // users.is_active
	CreatedAt time.Time // users.created_at
}

// DisplayName prefers the name and falls back to the email.
func (u User) DisplayName() string {
	if strings.TrimSpace(u.Name) != "" {
		return u.Name
	}
	return u.Email
}
