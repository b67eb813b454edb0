package model

import (
	"errors"
	"reservo/shared/constant"
	"time"
)

var (
	ErrInvalidDate      = errors.New("booking date must use the YYYY-MM-DD format")
	ErrDateInPast       = errors.New("booking date is in the past")
	ErrDateTooFar       = errors.New("booking date is too far in the future")
	ErrInvalidTime      = errors.New("booking time must use the HH:MM format")
	ErrTimeInPast       = errors.New("booking time has already passed")
	ErrOutsideOpenHours = errors.New("booking time is outside opening hours")
)

// ValidateDate rejects malformed dates, dates before today and, when maxAdvanceDays
// is positive, dates more than maxAdvanceDays after today.
func ValidateDate(date string, now time.Time, maxAdvanceDays int) error {
	day, err := time.ParseInLocation(constant.DateOnlyLayout, date, now.Location())
	if err != nil {
		return ErrInvalidDate
	}

	today := truncateDay(now)

	if day.Before(today) {
		return ErrDateInPast
	}

	if maxAdvanceDays > 0 && day.After(today.AddDate(0, 0, maxAdvanceDays)) {
		return ErrDateTooFar
	}

	return nil
}

// ValidateTime checks clock against opening hours and, for today, against now.
// Empty opening or closing values disable the opening hours check.
func ValidateTime(date, clock string, now time.Time, opening, closing string) error {
	minutes, ok := ClockMinutes(clock)
	if !ok {
		return ErrInvalidTime
	}

	open, hasOpen := ClockMinutes(opening)
	closeAt, hasClose := ClockMinutes(closing)

	if hasOpen && hasClose && (minutes < open || minutes >= closeAt) {
		return ErrOutsideOpenHours
	}

	if date == now.Format(constant.DateOnlyLayout) && minutes <= now.Hour()*minutesPerHour+now.Minute() {
		return ErrTimeInPast
	}

	return nil
}

// CanCancel allows cancellation of pending or confirmed bookings until cutoff before the start.
func CanCancel(booking Booking, now time.Time, cutoff time.Duration) error {
	if !booking.IsActive() {
		return ErrInvalidTransition
	}

	start, err := booking.StartAt(now.Location())
	if err != nil {
		return ErrInvalidTime
	}

	if !now.Before(start.Add(-cutoff)) {
		return ErrCancelCutoff
	}

	return nil
}

func CanConfirm(booking Booking) error {
	if booking.Status != StatusPending {
		return ErrInvalidTransition
	}

	return nil
}

// CanClose guards the staff-only completed and no-show transitions.
func CanClose(booking Booking) error {
	if booking.Status != StatusConfirmed {
		return ErrInvalidTransition
	}

	return nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
