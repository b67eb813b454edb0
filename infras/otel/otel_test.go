package otel_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"reservo/config"
	"reservo/infras/otel"
)

func TestNew_WithoutEndpoint(t *testing.T) {
	cfg := &config.Config{}
	cfg.External.Otel.SampleRatio = 1

	tracer := otel.New(cfg)

	ctx, scope := tracer.NewScope(context.Background(), "service", "service.booking.Book")
	assert.NotNil(t, ctx)

	scope.SetAttributes(map[string]any{
		"booking.table_id":   int64(7),
		"booking.party_size": 4,
		"booking.confirmed":  true,
		"booking.duration":   1.5,
		"booking.statuses":   []string{"PENDING", "CONFIRMED"},
		"booking.error":      errors.New("slot taken"),
	})
	scope.AddEvent("booking created")
	scope.TraceIfError(nil)
	scope.TraceIfError(errors.New("slot taken"))
	scope.End()

	assert.NoError(t, tracer.Shutdown(context.Background()))
}
