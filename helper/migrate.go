package helper

//nolint:revive
import (
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"reservo/config"
	"reservo/infras/postgres"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog/log"
)

const (
	ActionUp      = "up"
	ActionDown    = "down"
	ActionStepUp  = "step-up"
	ActionDrop    = "drop"
	ActionVersion = "version"
	ActionForce   = "force"
)

var ErrUnknownAction = errors.New("unknown migration action")

type migration struct {
	run     func(mig *migrate.Migrate) error
	failure string
	success string
}

var migrations = map[string]migration{
	ActionUp:     {run: (*migrate.Migrate).Up, failure: "error running migrations", success: "Database migrations completed successfully"},
	ActionStepUp: {run: func(mig *migrate.Migrate) error { return mig.Steps(1) }, failure: "error running migrations", success: "Database migrated one step up"},
	ActionDown:   {run: func(mig *migrate.Migrate) error { return mig.Steps(-1) }, failure: "error rolling back migrations", success: "Database migrated one step down"},
	ActionDrop:   {run: (*migrate.Migrate).Down, failure: "error rolling back migrations", success: "Database migrations rolled back successfully"},
}

func open(cfg *config.Config) (*migrate.Migrate, error) {
	dsn := postgres.DSN(cfg, cfg.DB.Postgres.Write, url.Values{"x-migrations-table": {cfg.DB.Postgres.MigrationTable}})

	mig, err := migrate.New("file://"+cfg.DB.Postgres.MigrationPath, dsn)
	if err != nil {
		return nil, fmt.Errorf("error creating migrate instance: %w", err)
	}

	return mig, nil
}

// Runner applies a schema action to the write database. Force takes the
// target version as its only argument.
func Runner(cfg *config.Config, action string, args ...string) error {
	mig, err := open(cfg)
	if err != nil {
		return err
	}

	defer mig.Close()

	switch action {
	case ActionVersion:
		version, dirty, err := mig.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			log.Info().Msg("Database has no migrations applied")

			return nil
		}

		if err != nil {
			return fmt.Errorf("error reading migration version: %w", err)
		}

		log.Info().Uint("version", version).Bool("dirty", dirty).Msg("Database migration version")

		return nil
	case ActionForce:
		if len(args) != 1 {
			return fmt.Errorf("%s needs a target version", ActionForce)
		}

		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid migration version %q: %w", args[0], err)
		}

		if err = mig.Force(version); err != nil {
			return fmt.Errorf("error forcing migration version: %w", err)
		}

		log.Info().Int("version", version).Msg("Database migration version forced")

		return nil
	}

	step, ok := migrations[action]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}

	if err = step.run(mig); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: %w", step.failure, err)
	}

	log.Info().Str("database", cfg.DB.Postgres.Prefix+cfg.DB.Postgres.Write.Name).Msg(step.success)

	return nil
}

func Up(cfg *config.Config) error {
	return Runner(cfg, ActionUp)
}
