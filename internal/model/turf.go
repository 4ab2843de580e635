package model

import "time"

// TurfStatus is the approval state of a turf.
type TurfStatus string

const (
	TurfPending  TurfStatus = "pending"
	TurfApproved TurfStatus = "approved"
	TurfBlocked  TurfStatus = "blocked"
)

// Turf represents a bookable venue owned by a venue admin.  Only
// approved turfs accept reservations.
//
// Fields:
//
//	ID               – primary key identifier.
//	OwnerID          – user ID of the venue admin.
//	Name             – display name.
//	HourlyPriceCents – price of one slot in minor units.
//	Status           – pending, approved or blocked.
//	CreatedAt        – creation timestamp.
//	UpdatedAt        – last update timestamp.
type Turf struct {
	ID               uint64     `json:"id"`
	OwnerID          uint64     `json:"ownerId"`
	Name             string     `json:"name"`
	HourlyPriceCents uint32     `json:"hourlyPriceCents"`
	Status           TurfStatus `json:"status"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}
