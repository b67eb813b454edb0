package validator_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reservo/shared/failure"
	"reservo/shared/validator"
)

type bookingForm struct {
	GuestName string `json:"guest_name" validate:"required,max=20"`
	Phone     string `json:"guest_phone" validate:"required,phone"`
	PartySize int    `json:"party_size" validate:"gte=1,lte=20"`
	Date      string `json:"date" validate:"required,isodate"`
	Time      string `json:"time" validate:"required,clock"`
	Source    string `json:"source" validate:"omitempty,oneof=WEBSITE PHONE"`
}

func validForm() bookingForm {
	return bookingForm{GuestName: "An", Phone: "0901234567", PartySize: 4, Date: "2026-10-20", Time: "19:00"}
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(f *bookingForm)
		message string
	}{
		{name: "valid", mutate: func(*bookingForm) {}},
		{name: "missing name", mutate: func(f *bookingForm) { f.GuestName = "" }, message: "guest_name is required"},
		{name: "bad phone", mutate: func(f *bookingForm) { f.Phone = "12ab" }, message: "guest_phone must be a valid phone number"},
		{name: "party too large", mutate: func(f *bookingForm) { f.PartySize = 21 }, message: "party_size must be less than or equal to 20"},
		{name: "bad date", mutate: func(f *bookingForm) { f.Date = "20/10/2026" }, message: "date must be a date in YYYY-MM-DD format"},
		{name: "bad time", mutate: func(f *bookingForm) { f.Time = "7pm" }, message: "time must be a time in HH:MM format"},
		{name: "unknown source", mutate: func(f *bookingForm) { f.Source = "FAX" }, message: "source must be one of WEBSITE PHONE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validForm()
			tt.mutate(&form)

			err := validator.ValidateStruct(&form)
			if tt.message == "" {
				assert.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "valid body", body: `{"guest_name":"An","guest_phone":"0901234567","party_size":2,"date":"2026-10-20","time":"18:30"}`},
		{name: "empty body", body: ``, wantErr: "request body is required"},
		{name: "malformed json", body: `{"guest_name":`, wantErr: "failed to decode request body"},
		{name: "invalid field", body: `{"guest_name":"An","guest_phone":"0901234567","party_size":0,"date":"2026-10-20","time":"18:30"}`, wantErr: "party_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var form bookingForm

			err := validator.Validate(strings.NewReader(tt.body), &form)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "An", form.GuestName)

				return
			}

			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateVar(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		tag     string
		wantErr bool
	}{
		{name: "valid iso date", field: "2026-10-18", tag: "isodate"},
		{name: "invalid iso date", field: "18/10/2026", tag: "isodate", wantErr: true},
		{name: "impossible iso date", field: "2026-02-30", tag: "isodate", wantErr: true},
		{name: "valid clock", field: "19:30", tag: "clock"},
		{name: "clock without leading zero", field: "7:30", tag: "clock", wantErr: true},
		{name: "clock out of range", field: "24:00", tag: "clock", wantErr: true},
		{name: "valid phone", field: "0901 234 567", tag: "phone"},
		{name: "valid international phone", field: "+84901234567", tag: "phone"},
		{name: "phone with letters", field: "09012abc67", tag: "phone", wantErr: true},
		{name: "phone too short", field: "12345", tag: "phone", wantErr: true},
		{name: "uuid", field: "6f1c2a9e-8d0b-4c57-9a63-2f3e4d5c6b7a", tag: "uuid"},
		{name: "not a uuid", field: "b-1", tag: "uuid", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateVar(tt.field, tt.tag)
			if tt.wantErr {
				assert.Error(t, err)

				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestValidateVar_Message(t *testing.T) {
	err := validator.ValidateVar("", "required")

	require.Error(t, err)
	assert.Equal(t, "value is required", err.Error())
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "0901234567", validator.NormalizePhone(" (090)-123.4567 "))
}
