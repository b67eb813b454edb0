package logger

import (
	"cmp"
	"io"
	"os"
	"strings"
	"time"

	"reservo/config"
	"reservo/shared/constant"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	defaultService = "reservo"
	phoneVisible   = 3
)

// Setup points the global logger at stdout: a console writer in development
// and JSON lines everywhere else.
func Setup(cfg *config.Config) {
	SetOutput(cfg, os.Stdout)
}

func SetOutput(cfg *config.Config, out io.Writer) {
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.Server.Env == constant.ServerEnvDevelopment {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	log.Logger = zerolog.New(out).With().
		Timestamp().
		Str("service", cmp.Or(cfg.App.Name, defaultService)).
		Logger()

	level := Level(cfg.Server.LogLevel)
	zerolog.SetGlobalLevel(level)

	log.Debug().Str("loglevel", level.String()).Msg("Logger initialized.")
}

// Level parses a zerolog level name, falling back to info.
func Level(name string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil || name == "" {
		return zerolog.InfoLevel
	}

	return level
}

func ErrorWithStack(err error) {
	log.Error().Msgf("%+v", errors.WithStack(err))
}

// MaskPhone keeps the first and last three digits of a phone number.
func MaskPhone(phone string) string {
	if len(phone) <= phoneVisible*2 {
		return strings.Repeat("*", len(phone))
	}

	return phone[:phoneVisible] + strings.Repeat("*", len(phone)-phoneVisible*2) + phone[len(phone)-phoneVisible:]
}
