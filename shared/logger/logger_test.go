package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reservo/config"
	"reservo/shared/constant"
	"reservo/shared/logger"
)

func newConfig(env, level string) *config.Config {
	cfg := &config.Config{}
	cfg.Server.Env = env
	cfg.Server.LogLevel = level
	cfg.App.Name = "reservo-test"

	return cfg
}

func TestSetOutput_JSON(t *testing.T) {
	var buf bytes.Buffer

	logger.SetOutput(newConfig("staging", "info"), &buf)

	log.Info().Str("code", "ABCD1234").Msg("booking created")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))

	assert.Equal(t, "booking created", line["message"])
	assert.Equal(t, "reservo-test", line["service"])
	assert.Equal(t, "ABCD1234", line["code"])
	assert.Contains(t, line, "time")
}

func TestSetOutput_Console(t *testing.T) {
	var buf bytes.Buffer

	logger.SetOutput(newConfig(constant.ServerEnvDevelopment, "debug"), &buf)

	log.Info().Msg("table seeded")

	assert.Contains(t, buf.String(), "table seeded")
	assert.False(t, json.Valid(buf.Bytes()))
}

func TestSetOutput_LevelFilters(t *testing.T) {
	var buf bytes.Buffer

	logger.SetOutput(newConfig("production", "warn"), &buf)

	log.Info().Msg("hidden")
	assert.Empty(t, buf.String())

	log.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestLevel(t *testing.T) {
	tests := []struct {
		name string
		want zerolog.Level
	}{
		{name: "debug", want: zerolog.DebugLevel},
		{name: " WARN ", want: zerolog.WarnLevel},
		{name: "error", want: zerolog.ErrorLevel},
		{name: "", want: zerolog.InfoLevel},
		{name: "verbose", want: zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, logger.Level(tt.name))
		})
	}
}

func TestErrorWithStack(t *testing.T) {
	var buf bytes.Buffer

	logger.SetOutput(newConfig("production", "info"), &buf)

	logger.ErrorWithStack(errors.New("pq: connection refused"))

	assert.Contains(t, buf.String(), "pq: connection refused")
	assert.Contains(t, buf.String(), `"level":"error"`)
}

func TestMaskPhone(t *testing.T) {
	tests := []struct {
		phone string
		want  string
	}{
		{phone: "0901234567", want: "090****567"},
		{phone: "+84901234567", want: "+84******567"},
		{phone: "123456", want: "******"},
		{phone: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			assert.Equal(t, tt.want, logger.MaskPhone(tt.phone))
		})
	}
}
