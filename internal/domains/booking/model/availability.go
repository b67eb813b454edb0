package model

import (
	"reservo/config"
	"reservo/shared/constant"
	"time"
)

const minutesPerHour = 60

// ClockMinutes parses HH:MM into minutes after midnight.
func ClockMinutes(clock string) (int, bool) {
	parsed, err := time.Parse(constant.ClockLayout, clock)
	if err != nil {
		return 0, false
	}

	return parsed.Hour()*minutesPerHour + parsed.Minute(), true
}

func durationMinutes(hours float64) int {
	if hours <= 0 {
		hours = DefaultDurationHours
	}

	return int(hours * minutesPerHour)
}

// Conflicts reports whether an active booking in existing blocks the requested slot.
// Under the single seating policy, or when no time is requested, any active booking
// on the same day blocks the table. Under the overlap policy only intersecting
// [start, start+duration) windows do.
func Conflicts(policy string, existing []Booking, clock string, durationHours float64) bool {
	start, hasTime := ClockMinutes(clock)

	for _, booking := range existing {
		if !booking.IsActive() || booking.IsDeleted {
			continue
		}

		if policy != config.ConflictPolicyOverlap || !hasTime {
			return true
		}

		otherStart, ok := ClockMinutes(booking.BookingTime)
		if !ok {
			return true
		}

		if start < otherStart+durationMinutes(booking.DurationHours) && otherStart < start+durationMinutes(durationHours) {
			return true
		}
	}

	return false
}

// BookedTableIDs groups existing bookings per table and returns the tables that
// conflict with the requested slot.
func BookedTableIDs(policy string, existing []Booking, clock string, durationHours float64) map[int64]bool {
	perTable := map[int64][]Booking{}
	for _, booking := range existing {
		perTable[booking.TableID] = append(perTable[booking.TableID], booking)
	}

	booked := map[int64]bool{}

	for tableID, bookings := range perTable {
		if Conflicts(policy, bookings, clock, durationHours) {
			booked[tableID] = true
		}
	}

	return booked
}
