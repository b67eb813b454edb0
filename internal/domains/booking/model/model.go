package model

import (
	"errors"
	"reservo/shared/constant"
	"reservo/shared/model"
	"time"
)

const (
	TableName  = "restaurant_bookings"
	EntityName = "booking"

	FieldID                 = "id"
	FieldCode               = "code"
	FieldTableID            = "table_id"
	FieldGuestName          = "guest_name"
	FieldGuestPhone         = "guest_phone"
	FieldBookingDate        = "booking_date"
	FieldBookingTime        = "booking_time"
	FieldStatus             = "status"
	FieldSource             = "source"
	FieldCancellationReason = "cancellation_reason"
	FieldIsDeleted          = "is_deleted"
	FieldCreatedAt          = "created_at"
)

const (
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
	StatusCancelled = "CANCELLED"
	StatusCompleted = "COMPLETED"
	StatusNoShow    = "NO_SHOW"
)

const (
	SourceWebsite    = "WEBSITE"
	SourcePhone      = "PHONE"
	SourceWalkIn     = "WALK_IN"
	SourceMobileApp  = "MOBILE_APP"
	SourceThirdParty = "THIRD_PARTY"
)

const (
	DefaultDurationHours = 2.0
	MinDurationHours     = 0.5
	MaxDurationHours     = 8.0
)

// ActiveStatuses hold a table for their time slot.
var ActiveStatuses = []string{StatusPending, StatusConfirmed}

// SortableFields may be named in sort_by when listing bookings.
var SortableFields = []string{FieldCreatedAt, FieldBookingDate, FieldBookingTime, FieldStatus}

var (
	ErrTableNotFound     = errors.New("table not found")
	ErrTableUnavailable  = errors.New("table is not available")
	ErrCapacityExceeded  = errors.New("party size exceeds table capacity")
	ErrSlotTaken         = errors.New("table is already booked for this time")
	ErrCodeExhausted     = errors.New("could not generate a unique booking code")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrInvalidTransition = errors.New("booking status does not allow this action")
	ErrCancelCutoff      = errors.New("booking can no longer be cancelled")
)

type Booking struct {
	ID                 string     `db:"id"`
	Code               string     `db:"code"`
	TableID            int64      `db:"table_id"`
	GuestName          string     `db:"guest_name"`
	GuestPhone         string     `db:"guest_phone"`
	GuestEmail         *string    `db:"guest_email"`
	BookingDate        time.Time  `db:"booking_date"`
	BookingTime        string     `db:"booking_time"`
	DurationHours      float64    `db:"duration_hours"`
	PartySize          int        `db:"party_size"`
	Status             string     `db:"status"`
	Source             string     `db:"source"`
	Notes              string     `db:"notes"`
	CancellationReason *string    `db:"cancellation_reason"`
	CancelledAt        *time.Time `db:"cancelled_at"`
	IsDeleted          bool       `db:"is_deleted"`
	model.Metadata
}

func (b Booking) Date() string {
	return b.BookingDate.Format(constant.DateOnlyLayout)
}

// StartAt combines the booking date and clock time in loc.
func (b Booking) StartAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(constant.DateOnlyLayout+" "+constant.ClockLayout, b.Date()+" "+b.BookingTime, loc)
}

func (b Booking) IsActive() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}
