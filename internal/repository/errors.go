// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios without inspecting driver errors.
package repository

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/turfbook/turf-booking/internal/model"
)

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write cannot be performed because of
// conflicting state that could not be attributed to a specific booking.
// Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrNotFound is returned when the addressed row does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidTransition is returned by compare-and-swap status updates
// when the booking's current status is not one of the allowed sources.
var ErrInvalidTransition = errors.New("invalid status transition")

// SlotConflictError reports that another active booking already holds
// one of the requested slots.  Nothing was written.
type SlotConflictError struct {
	BookingID uint64     // the booking holding the slot
	UserID    uint64     // owner of that booking
	Slot      model.Slot // the first conflicting slot found
	Reserver  string     // display identity, filled only for privileged callers
}

func (e *SlotConflictError) Error() string {
	return fmt.Sprintf("slot %s is already reserved by booking %d", e.Slot, e.BookingID)
}

// Is lets errors.Is(err, ErrConflict) match slot conflicts too.
func (e *SlotConflictError) Is(target error) bool { return target == ErrConflict }

// isDuplicateKey reports a MySQL unique-index violation (1062).
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

// isLockContention reports an InnoDB deadlock (1213) or lock wait
// timeout (1205).  On a slot insert both mean another transaction is
// writing the same key.
func isLockContention(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && (me.Number == 1213 || me.Number == 1205)
}
