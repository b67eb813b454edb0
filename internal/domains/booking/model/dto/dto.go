package dto

import (
	"fmt"
	"strings"
	"time"

	"reservo/internal/domains/booking/model"
	"reservo/shared"
	"reservo/shared/constant"
	gDto "reservo/shared/dto"
	gModel "reservo/shared/model"
	"reservo/shared/timezone"
	"reservo/shared/validator"

	"github.com/google/uuid"
)

type CreateBookingRequest struct {
	TableID       int64   `json:"table_id"       validate:"required,min=1"`
	GuestName     string  `json:"guest_name"     validate:"required,max=100"`
	GuestPhone    string  `json:"guest_phone"    validate:"required,phone"`
	GuestEmail    string  `json:"guest_email"    validate:"omitempty,email,max=100"`
	BookingDate   string  `json:"booking_date"   validate:"required,isodate"`
	BookingTime   string  `json:"booking_time"   validate:"required,clock"`
	DurationHours float64 `json:"duration_hours" validate:"omitempty,min=0.5,max=8"`
	PartySize     int     `json:"party_size"     validate:"required,min=1,max=20"`
	Notes         string  `json:"notes"          validate:"omitempty,max=500"`
	Source        string  `json:"source"         validate:"omitempty,oneof=WEBSITE PHONE WALK_IN MOBILE_APP THIRD_PARTY"`
}

// ToModel builds a booking without a code. The date is stored as a calendar day in UTC.
func (c *CreateBookingRequest) ToModel(user, status string, defaultHours float64) (model.Booking, error) {
	date, err := time.Parse(constant.DateOnlyLayout, c.BookingDate)
	if err != nil {
		return model.Booking{}, fmt.Errorf("invalid booking date: %w", err)
	}

	hours := c.DurationHours
	if hours <= 0 {
		hours = defaultHours
	}

	source := c.Source
	if source == constant.Empty {
		source = model.SourceWebsite
	}

	var email *string
	if c.GuestEmail != constant.Empty {
		email = &c.GuestEmail
	}

	return model.Booking{
		ID:            uuid.NewString(),
		TableID:       c.TableID,
		GuestName:     strings.TrimSpace(c.GuestName),
		GuestPhone:    validator.NormalizePhone(c.GuestPhone),
		GuestEmail:    email,
		BookingDate:   date,
		BookingTime:   c.BookingTime,
		DurationHours: hours,
		PartySize:     c.PartySize,
		Status:        status,
		Source:        source,
		Notes:         strings.TrimSpace(c.Notes),
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}, nil
}

type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

type BookingResponse struct {
	ID                 string  `json:"id"`
	Code               string  `json:"code"`
	TableID            int64   `json:"table_id"`
	GuestName          string  `json:"guest_name"`
	GuestPhone         string  `json:"guest_phone"`
	GuestEmail         *string `json:"guest_email,omitempty"`
	BookingDate        string  `json:"booking_date"`
	BookingTime        string  `json:"booking_time"`
	DurationHours      float64 `json:"duration_hours"`
	PartySize          int     `json:"party_size"`
	Status             string  `json:"status"`
	Source             string  `json:"source"`
	Notes              string  `json:"notes"`
	CancellationReason *string `json:"cancellation_reason,omitempty"`
	CancelledAt        *string `json:"cancelled_at,omitempty"`
	gDto.Metadata
}

func (r *BookingResponse) FromModel(model model.Booking) {
	r.ID = model.ID
	r.Code = model.Code
	r.TableID = model.TableID
	r.GuestName = model.GuestName
	r.GuestPhone = model.GuestPhone
	r.GuestEmail = model.GuestEmail
	r.BookingDate = model.Date()
	r.BookingTime = model.BookingTime
	r.DurationHours = model.DurationHours
	r.PartySize = model.PartySize
	r.Status = model.Status
	r.Source = model.Source
	r.Notes = model.Notes
	r.CancellationReason = model.CancellationReason

	if model.CancelledAt != nil {
		cancelledAt := timezone.Format(*model.CancelledAt, constant.DateFormat)
		r.CancelledAt = &cancelledAt
	}

	r.Metadata.FromModel(model.Metadata)
}

type GetBookingsResponse struct {
	Bookings  []BookingResponse `json:"bookings"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetBookingsResponse) FromModels(models []model.Booking, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Bookings = make([]BookingResponse, len(models))
	for i, mod := range models {
		r.Bookings[i].FromModel(mod)
	}
}

// BookTableResponse is the outcome of a conversational booking.
type BookTableResponse struct {
	Booking BookingResponse `json:"booking"`
	Message string          `json:"message"`
}

type ListFilter struct {
	Status      string
	BookingDate string
	TableID     string
	// Guest matches part of the guest's name or phone number.
	Guest string
}

func (l ListFilter) FilterGroup() gDto.FilterGroup {
	filterGroup := gDto.And(gDto.Eq(model.TableName, model.FieldIsDeleted, false))

	if l.Status != constant.Empty {
		filterGroup = filterGroup.With(gDto.Eq(model.TableName, model.FieldStatus, strings.ToUpper(l.Status)))
	}

	if l.BookingDate != constant.Empty {
		filterGroup = filterGroup.With(gDto.Eq(model.TableName, model.FieldBookingDate, l.BookingDate))
	}

	if l.TableID != constant.Empty {
		filterGroup = filterGroup.With(gDto.Eq(model.TableName, model.FieldTableID, l.TableID))
	}

	if guest := strings.TrimSpace(l.Guest); guest != constant.Empty {
		filterGroup = filterGroup.With(gDto.Or(
			gDto.Like(model.TableName, model.FieldGuestName, guest),
			gDto.Like(model.TableName, model.FieldGuestPhone, guest),
		))
	}

	return filterGroup
}

type cancelChanges struct {
	Status             string    `db:"status"`
	CancellationReason string    `db:"cancellation_reason"`
	CancelledAt        time.Time `db:"cancelled_at"`
}

// CancelChanges returns the columns written when a booking is cancelled.
func CancelChanges(reason, user string, now time.Time) map[string]any {
	return shared.TransformFields(cancelChanges{Status: model.StatusCancelled, CancellationReason: reason, CancelledAt: now}, user)
}

type statusChanges struct {
	Status string `db:"status"`
}

func StatusChanges(status, user string) map[string]any {
	return shared.TransformFields(statusChanges{Status: status}, user)
}
