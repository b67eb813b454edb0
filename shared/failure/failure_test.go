package failure_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"reservo/shared/failure"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{name: "bad request", err: failure.BadRequest(errors.New("invalid date")), code: http.StatusBadRequest, message: "invalid date"},
		{name: "bad request from string", err: failure.BadRequestFromString("code is required"), code: http.StatusBadRequest, message: "code is required"},
		{name: "unauthorized", err: failure.Unauthorized("invalid email or password"), code: http.StatusUnauthorized, message: "invalid email or password"},
		{name: "forbidden", err: failure.Forbidden("account disabled"), code: http.StatusForbidden, message: "account disabled"},
		{name: "not found", err: failure.NotFound("booking not found"), code: http.StatusNotFound, message: "booking not found"},
		{name: "conflict", err: failure.Conflict("table already booked"), code: http.StatusConflict, message: "table already booked"},
		{name: "internal", err: failure.InternalError(errors.New("db down")), code: http.StatusInternalServerError, message: "db down"},
		{name: "unavailable", err: failure.ServiceUnavailable("model overloaded"), code: http.StatusServiceUnavailable, message: "model overloaded"},
		{name: "predefined forbidden", err: failure.ForbiddenError, code: http.StatusForbidden, message: "You don't have the required permissions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fail *failure.Failure

			assert.ErrorAs(t, tt.err, &fail)
			assert.Equal(t, tt.code, fail.Code)
			assert.EqualError(t, tt.err, tt.message)
		})
	}
}

func TestNilErrors(t *testing.T) {
	assert.NoError(t, failure.BadRequest(nil))
	assert.NoError(t, failure.InternalError(nil))
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "failure", err: failure.Conflict("taken"), want: http.StatusConflict},
		{name: "wrapped failure", err: fmt.Errorf("failed to book: %w", failure.NotFound("table not found")), want: http.StatusNotFound},
		{name: "plain error", err: errors.New("boom"), want: http.StatusInternalServerError},
		{name: "nil", err: nil, want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, failure.GetCode(tt.err))
		})
	}
}

func TestPublicMessage(t *testing.T) {
	const fallback = "Hệ thống gặp lỗi."

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "client failure", err: failure.Conflict("Bàn đã có người đặt."), want: "Bàn đã có người đặt."},
		{name: "wrapped client failure", err: fmt.Errorf("book: %w", failure.BadRequestFromString("Ngày không hợp lệ.")), want: "Ngày không hợp lệ."},
		{name: "server failure", err: failure.InternalError(errors.New("pq: connection refused")), want: fallback},
		{name: "plain error", err: errors.New("timeout"), want: fallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, failure.PublicMessage(tt.err, fallback))
		})
	}
}
