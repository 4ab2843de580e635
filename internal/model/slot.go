package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// DateLayout is the calendar-date layout used for slot dates.
	DateLayout = "2006-01-02"
	// ClockLayout is the 24h wall-clock layout used for slot boundaries.
	ClockLayout = "15:04"
)

// ErrInvalidSlot is returned when a slot descriptor cannot be parsed or
// its start is not strictly before its end.
var ErrInvalidSlot = errors.New("invalid slot")

// Slot is an hour range at a turf on one calendar date.  It has no
// identity of its own and only means something inside a Booking.
//
// Fields:
//
//	Date      – calendar date in YYYY-MM-DD.
//	StartTime – slot start in HH:MM (24h).
//	EndTime   – slot end in HH:MM (24h).
type Slot struct {
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// String renders the slot as "date start-end".
func (s Slot) String() string {
	return fmt.Sprintf("%s %s-%s", s.Date, s.StartTime, s.EndTime)
}

// Normalize parses the slot and returns it in canonical form, so that
// "9:00" and "09:00" produce the same key.  "24:00" is accepted as an
// end boundary so the last hour of a day can be booked.
func (s Slot) Normalize() (Slot, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s.Date))
	if err != nil {
		return Slot{}, fmt.Errorf("%w: date %q", ErrInvalidSlot, s.Date)
	}
	start, err := parseClock(s.StartTime)
	if err != nil || start == endOfDay {
		return Slot{}, fmt.Errorf("%w: start %q", ErrInvalidSlot, s.StartTime)
	}
	end, err := parseClock(s.EndTime)
	if err != nil {
		return Slot{}, fmt.Errorf("%w: end %q", ErrInvalidSlot, s.EndTime)
	}
	if start >= end {
		return Slot{}, fmt.Errorf("%w: start %s is not before end %s", ErrInvalidSlot, s.StartTime, s.EndTime)
	}
	return Slot{
		Date:      d.Format(DateLayout),
		StartTime: formatClock(start),
		EndTime:   formatClock(end),
	}, nil
}

// Overlaps reports whether two slots on the same date share any time.
// Reservation conflicts never use it: conflicts are exact-match only.
func (s Slot) Overlaps(o Slot) bool {
	if s.Date != o.Date {
		return false
	}
	return s.StartTime < o.EndTime && o.StartTime < s.EndTime
}

// endOfDay is 24:00 in minutes.
const endOfDay = 24 * 60

// parseClock accepts H:MM or HH:MM and returns minutes since midnight.
func parseClock(v string) (int, error) {
	v = strings.TrimSpace(v)
	if v == "24:00" {
		return endOfDay, nil
	}
	t, err := time.Parse(ClockLayout, v)
	if err != nil {
		if t, err = time.Parse("15:4", v); err != nil {
			return 0, err
		}
	}
	return t.Hour()*60 + t.Minute(), nil
}

func formatClock(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// SlotKey identifies one reservable unit.  Every path that needs to
// decide whether two requests target "the same slot" builds its key
// with KeyFor.
type SlotKey struct {
	TurfID uint64
	Date   string
	Start  string
	End    string
}

// KeyFor builds the canonical key for a slot at a turf.  The slot must
// already be normalized.
func KeyFor(turfID uint64, s Slot) SlotKey {
	return SlotKey{TurfID: turfID, Date: s.Date, Start: s.StartTime, End: s.EndTime}
}

// String is the value persisted in booking_slots.slot_key.
func (k SlotKey) String() string {
	return fmt.Sprintf("%d:%s:%s-%s", k.TurfID, k.Date, k.Start, k.End)
}

// Slot returns the slot part of the key.
func (k SlotKey) Slot() Slot {
	return Slot{Date: k.Date, StartTime: k.Start, EndTime: k.End}
}

// Conflicts reports whether two keys refer to the same reservable unit.
func Conflicts(a, b SlotKey) bool {
	return a == b
}

// NormalizeSlots validates a request's slot list and returns it in
// canonical form.  A slot with an empty Date inherits defaultDate.
// Duplicates inside one request are rejected.
func NormalizeSlots(defaultDate string, slots []Slot) ([]Slot, error) {
	if len(slots) == 0 {
		return nil, fmt.Errorf("%w: at least one slot is required", ErrInvalidSlot)
	}
	out := make([]Slot, 0, len(slots))
	seen := make(map[Slot]struct{}, len(slots))
	for _, s := range slots {
		if strings.TrimSpace(s.Date) == "" {
			s.Date = defaultDate
		}
		n, err := s.Normalize()
		if err != nil {
			return nil, err
		}
		if _, dup := seen[n]; dup {
			return nil, fmt.Errorf("%w: duplicate slot %s", ErrInvalidSlot, n)
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out, nil
}
